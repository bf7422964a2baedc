package studio

import "errors"

// Errors returned by the studio service.
var (
	// ErrInvalidImage indicates a submitted image failed data-URI
	// validation.
	ErrInvalidImage = errors.New("studio: invalid image")

	// ErrDailyLimitReached indicates the caller's daily generation quota
	// is exhausted; it resets at the next reference-day boundary.
	ErrDailyLimitReached = errors.New("studio: daily generation limit reached")

	// ErrProviderFailed indicates the generation provider returned an
	// error or an unusable response.
	ErrProviderFailed = errors.New("studio: generation provider failed")

	// ErrProviderUnavailable indicates the provider circuit is open or the
	// provider could not be reached at all.
	ErrProviderUnavailable = errors.New("studio: generation provider unavailable")
)
