package studio

import (
	"github.com/styleai/server/internal/module/quota"
)

// TryOnRequest is the virtual try-on request body. The legacy front end
// sent a single outfit_image_data_uri; Normalize folds it into the list.
type TryOnRequest struct {
	UserPhotoDataURI    string   `json:"user_photo_data_uri" binding:"required"`
	OutfitImageDataURI  string   `json:"outfit_image_data_uri"`
	OutfitImageDataURIs []string `json:"outfit_image_data_uris"`
}

// Normalize folds the legacy singular outfit field into the list form.
func (r *TryOnRequest) Normalize() {
	if r.OutfitImageDataURI != "" {
		r.OutfitImageDataURIs = append([]string{r.OutfitImageDataURI}, r.OutfitImageDataURIs...)
		r.OutfitImageDataURI = ""
	}
}

// TryOnResponse carries the generated composite image.
type TryOnResponse struct {
	TryOnImageDataURI string          `json:"try_on_image_data_uri"`
	Usage             *quota.Snapshot `json:"usage,omitempty"`
}

// PaletteRequest is the color palette analysis request body.
type PaletteRequest struct {
	UserImageDataURI string `json:"user_image_data_uri" binding:"required"`
}

// PaletteResponse carries the palette analysis.
type PaletteResponse struct {
	PaletteAnalysis
	Usage *quota.Snapshot `json:"usage,omitempty"`
}

// CatalogRequest is the business catalog generation request body.
type CatalogRequest struct {
	MannequinImageDataURI   string `json:"mannequin_image_data_uri" binding:"required"`
	ProductImageDataURI     string `json:"product_image_data_uri" binding:"required"`
	CatalogStyleDescription string `json:"catalog_style_description"`
}

// CatalogResponse carries the generated catalog image.
type CatalogResponse struct {
	CatalogImageDataURI string          `json:"catalog_image_data_uri"`
	Usage               *quota.Snapshot `json:"usage,omitempty"`
}

// HistoryResponse is the generation history list.
type HistoryResponse struct {
	Records []*GenerationRecord `json:"records"`
}
