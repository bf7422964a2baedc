// Package studio provides the generation services behind the StyleAI
// dashboards: virtual try-on, personal color palette analysis, and
// business catalog images. Every generation is admitted through the quota
// gate before the provider is paid a visit.
package studio

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a generation flavor.
type Kind string

const (
	KindTryOn        Kind = "try_on"
	KindColorPalette Kind = "color_palette"
	KindCatalog      Kind = "catalog"
)

// Generation outcome states stored on history records.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// MaxImageBytes is the decoded size ceiling per submitted image.
const MaxImageBytes = 7 * 1024 * 1024

// allowedImageMIMEs lists the accepted inline image types.
var allowedImageMIMEs = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// InlineImage is a validated data-URI image ready for the provider.
type InlineImage struct {
	MIMEType string
	// Data is the raw base64 payload, kept encoded since that is the wire
	// form the provider wants.
	Data string
}

// DataURI re-assembles the data URI form.
func (i InlineImage) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, i.Data)
}

/// ParseImageDataURI validates and decomposes a "data:<mime>;base64,<data>"
// string. It rejects unknown MIME types, undecodable payloads, and images
// over MaxImageBytes.
func ParseImageDataURI(s string) (InlineImage, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return InlineImage{}, fmt.Errorf("%w: missing data: scheme", ErrInvalidImage)
	}

	mimeType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return InlineImage{}, fmt.Errorf("%w: not base64 encoded", ErrInvalidImage)
	}

	if !allowedImageMIMEs[mimeType] {
		return InlineImage{}, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, mimeType)
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return InlineImage{}, fmt.Errorf("%w: malformed base64 payload", ErrInvalidImage)
	}
	if len(decoded) == 0 {
		return InlineImage{}, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if len(decoded) > MaxImageBytes {
		return InlineImage{}, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, MaxImageBytes)
	}

	return InlineImage{MIMEType: mimeType, Data: payload}, nil
}

// PaletteAnalysis is the structured result of a color palette analysis.
type PaletteAnalysis struct {
	// Season is the seasonal palette name, e.g. "Warm Autumn".
	Season string `json:"season"`
	// Palette holds 5-7 flattering colors as #RRGGBB hex codes.
	Palette []string `json:"palette"`
	// Description explains the season's characteristics.
	Description string `json:"description"`
}

// GenerationRecord is one row of per-user generation history.
type GenerationRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserKey   string    `gorm:"size:320;not null;index:idx_generation_user_created,priority:1" json:"-"`
	Kind      Kind      `gorm:"size:32;not null" json:"kind"`
	PeriodKey string    `gorm:"size:10;not null" json:"period"`
	Model     string    `gorm:"size:128" json:"model"`
	Status    string    `gorm:"size:32;not null" json:"status"`
	CreatedAt time.Time `gorm:"index:idx_generation_user_created,priority:2,sort:desc" json:"created_at"`
}

// TableName sets the table name for GenerationRecord.
func (GenerationRecord) TableName() string {
	return "generation_records"
}
