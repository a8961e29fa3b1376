package standingsservice

import "errors"

// Service-level sentinels, always wrapped in a *standingsdomain.Error so
// handlers treat them as outcomes to report rather than retry.
var (
	// ErrInvalidRequest indicates a malformed admin request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSnapshotsDisabled indicates an export was requested without a snapshot store.
	ErrSnapshotsDisabled = errors.New("snapshot store not configured")
)
