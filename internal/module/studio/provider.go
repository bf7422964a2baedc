package studio

import "context"

// Provider is the external generative model behind the studio. All three
// operations block for the full provider round trip; callers bound them
// with the request context.
type Provider interface {
	// GenerateTryOn composites the outfit images onto the person in the
	// user photo and returns the generated image.
	GenerateTryOn(ctx context.Context, userPhoto InlineImage, outfits []InlineImage) (InlineImage, error)

	// AnalyzeColorPalette determines the seasonal color palette for the
	// person in the portrait.
	AnalyzeColorPalette(ctx context.Context, portrait InlineImage) (*PaletteAnalysis, error)

	// GenerateCatalog composites the product onto the mannequin in the
	// requested catalog style and returns the generated image.
	GenerateCatalog(ctx context.Context, mannequin, product InlineImage, styleDescription string) (InlineImage, error)

	// ModelFor returns the provider model id used for the given kind,
	// recorded on history rows.
	ModelFor(kind Kind) string
}
