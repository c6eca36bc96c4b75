package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrNoSession      = fmt.Errorf("no resolved session")
	ErrSessionInvalid = fmt.Errorf("session rejected by backend")
	ErrScopeMismatch  = fmt.Errorf("session scoped to a different restaurant")

	// Queue errors
	ErrQuotaExceeded    = fmt.Errorf("active request limit reached")
	ErrDuplicateRequest = fmt.Errorf("song already requested")
	ErrRequestNotFound  = fmt.Errorf("request not found")
	ErrNotPending       = fmt.Errorf("request is not pending")

	// Backend and transport errors
	ErrBackendRequest     = fmt.Errorf("backend request failed")
	ErrBadResponse        = fmt.Errorf("unexpected backend response shape")
	ErrUnknownOutcome     = fmt.Errorf("request outcome unknown until next poll")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrUnavailable        = fmt.Errorf("backend unavailable")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrRestaurantNotFound = fmt.Errorf("restaurant not found")
	ErrSongNotFound       = fmt.Errorf("song not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
