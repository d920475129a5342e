package main

import (
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emandor/bild_service/internal/config"
	"github.com/emandor/bild_service/internal/delivery"
	"github.com/emandor/bild_service/internal/flash"
	"github.com/emandor/bild_service/internal/img"
	"github.com/emandor/bild_service/internal/middleware"
	"github.com/emandor/bild_service/internal/preset"
	"github.com/emandor/bild_service/internal/telemetry"
	"github.com/emandor/bild_service/internal/ws"
)

func main() {
	cfg := config.Load()

	tlog := telemetry.Init(telemetry.FromEnv(config.GetEnv))
	metrics, err := telemetry.InitMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		tlog.Fatal().Err(err).Msg("metrics_init_failed")
	}

	cat := preset.Default()
	engine := img.NewEngine(img.EngineConfig{
		Workers:      cfg.EngineWorkers,
		RPS:          cfg.EngineRPS,
		Burst:        cfg.EngineBurst,
		ForceReclaim: cfg.EngineForceReclaim,
		Observer:     metrics,
	})
	tlog.Info().
		Str("port", cfg.AppPort).
		Int("engine_workers", cfg.EngineWorkers).
		Bool("force_reclaim", cfg.EngineForceReclaim).
		Msg("booting bild_service")

	app := fiber.New(fiber.Config{BodyLimit: cfg.MaxBodyLimit})

	app.Use(middleware.RequestID())
	app.Use(middleware.Recover())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.RequestLog())
	app.Use(middleware.SecureHeaders())

	dh := delivery.NewHandler(cat, engine)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	limit := middleware.RateLimiter(cfg)
	app.Post("/preview", limit, middleware.UploadGate(cat, dh.RejectPreview), dh.Preview)
	app.Post("/download", limit, middleware.UploadGate(cat, dh.RejectDownload), dh.Download)

	api := app.Group("/api/v1")
	api.Get("/presets", dh.Presets)
	api.Get("/flash", flash.Handler)
	api.Post("/histogram", limit, dh.Histogram)

	app.Get("/ws/histogram", middleware.WSUpgrade(), limit, websocket.New(ws.HandleHistogram(engine)))

	app.Static("/", cfg.PublicDir)

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
