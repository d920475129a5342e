package upload

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/emandor/bild_service/internal/preset"
)

var (
	ErrMissingUpload      = errors.New("missing upload")
	ErrInvalidContentType = errors.New("invalid content type")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrInvalidVariant     = errors.New("invalid variant")
)

// Error is a client input failure. Message is safe to show to the user.
type Error struct {
	Kind    error
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.Message }
func (e *Error) Unwrap() error { return e.Kind }

// Request is one upload as received. File is nil when no file was sent.
type Request struct {
	File        *multipart.FileHeader
	ContentType string
	Size        int64
	Variant     string
}

// Validated is a request that passed every check, with its variant resolved.
type Validated struct {
	File    *multipart.FileHeader
	Variant preset.Variant
}

func FromFileHeader(fh *multipart.FileHeader, variant string) Request {
	r := Request{Variant: variant}
	if fh == nil {
		return r
	}
	r.File = fh
	r.Size = fh.Size
	r.ContentType = fh.Header.Get("Content-Type")
	return r
}

// Validate runs the cheap checks in fixed order and stops at the first failure:
// presence, content type, size, variant.
func Validate(r Request, cat *preset.Catalog) (Validated, error) {
	if err := ValidateImage(r); err != nil {
		return Validated{}, err
	}

	v, ok := cat.Variant(r.Variant)
	if !ok {
		return Validated{}, &Error{
			Kind:    ErrInvalidVariant,
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Unbekannte Variante: %q", r.Variant),
		}
	}

	return Validated{File: r.File, Variant: v}, nil
}

// ValidateImage runs the checks that do not depend on a variant: presence,
// content type, size.
func ValidateImage(r Request) error {
	if r.File == nil {
		return &Error{
			Kind:    ErrMissingUpload,
			Status:  http.StatusBadRequest,
			Message: "Bitte wähle ein Bild aus",
		}
	}

	if !isImageType(r.ContentType) {
		ct := r.ContentType
		if ct == "" {
			ct = "unbekannt"
		}
		return &Error{
			Kind:    ErrInvalidContentType,
			Status:  http.StatusUnsupportedMediaType,
			Message: fmt.Sprintf("Ungültiges Dateiformat: %s. Bitte lade ein Bild hoch.", ct),
		}
	}

	if r.Size > preset.MaxUploadBytes {
		return &Error{
			Kind:    ErrPayloadTooLarge,
			Status:  http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("Datei zu groß (%.1f MB). Maximum: 10 MB", float64(r.Size)/(1<<20)),
		}
	}
	return nil
}

// isImageType reports whether the declared media type has primary type "image".
// A bare "image/" is not a media type and is rejected.
func isImageType(ct string) bool {
	if ct == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	primary, _, ok := strings.Cut(mt, "/")
	return ok && primary == "image"
}
