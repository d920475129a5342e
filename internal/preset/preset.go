package preset

import "sync"

// MaxUploadBytes is the upload ceiling enforced before any decode (10 MiB).
const MaxUploadBytes int64 = 10 << 20

type VariantID string

const (
	HighContrast VariantID = "high_contrast"
	FlatGray     VariantID = "flat_gray"
)

// Variant is an affine luminance remap: out = clamp(Gain*in + Offset, 0, 255).
type Variant struct {
	ID     VariantID `json:"id"`
	Gain   float64   `json:"gain"`
	Offset float64   `json:"offset"`
	Label  string    `json:"label"`
}

type TierID string

const (
	Preview  TierID = "preview"
	Download TierID = "download"
)

type Disposition string

const (
	Inline     Disposition = "inline"
	Attachment Disposition = "attachment"
)

type Tier struct {
	ID           TierID      `json:"id"`
	MaxDimension int         `json:"max_dimension"`
	Quality      int         `json:"quality"`
	Disposition  Disposition `json:"disposition"`
}

// Catalog holds the fixed variant and tier tables. It is never mutated
// after construction and is safe to share between requests.
type Catalog struct {
	variants map[VariantID]Variant
	order    []VariantID
	tiers    map[TierID]Tier
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	return newCatalog(
		[]Variant{
			{ID: HighContrast, Gain: 1.4, Offset: -30, Label: "Starker Kontrast"},
			{ID: FlatGray, Gain: 0.7, Offset: 40, Label: "Flaches Grau"},
		},
		[]Tier{
			{ID: Preview, MaxDimension: 800, Quality: 60, Disposition: Inline},
			{ID: Download, MaxDimension: 2560, Quality: 100, Disposition: Attachment},
		},
	)
})

// Default returns the process-wide catalog, built on first use.
func Default() *Catalog { return defaultCatalog() }

func newCatalog(variants []Variant, tiers []Tier) *Catalog {
	c := &Catalog{
		variants: make(map[VariantID]Variant, len(variants)),
		tiers:    make(map[TierID]Tier, len(tiers)),
	}
	for _, v := range variants {
		c.variants[v.ID] = v
		c.order = append(c.order, v.ID)
	}
	for _, t := range tiers {
		c.tiers[t.ID] = t
	}
	return c
}

// Variant looks up a variant by identifier. Unknown identifiers report false.
func (c *Catalog) Variant(id string) (Variant, bool) {
	v, ok := c.variants[VariantID(id)]
	return v, ok
}

func (c *Catalog) Tier(id TierID) (Tier, bool) {
	t, ok := c.tiers[id]
	return t, ok
}

// Variants lists the variants in table order.
func (c *Catalog) Variants() []Variant {
	out := make([]Variant, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.variants[id])
	}
	return out
}

func (c *Catalog) Tiers() []Tier {
	return []Tier{c.tiers[Preview], c.tiers[Download]}
}
