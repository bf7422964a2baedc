package quota

import "errors"

// Errors returned by the quota gate and stores.
var (
	// ErrInvalidUserKey indicates an empty or malformed user key. Upstream
	// auth should make this unreachable; treat it as a programming error.
	ErrInvalidUserKey = errors.New("quota: invalid user key")

	// ErrStoreUnavailable indicates the backing store could not be reached.
	// CheckRemaining surfaces it; ConsumeOne additionally reports
	// Accepted=false so callers deny the guarded action.
	ErrStoreUnavailable = errors.New("quota: store unavailable")
)
