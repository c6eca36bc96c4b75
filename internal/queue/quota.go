package queue

// DefaultMaxPerRequester bounds concurrently outstanding requests per
// requester when no limit is configured.
const DefaultMaxPerRequester = 2

// CanRequest reports whether a requester with activeCount outstanding
// requests may add another under maxPerRequester.
//
// The guard is stateless: callers must re-derive activeCount from the
// freshest synced state on every attempt, never from a cached counter.
func CanRequest(activeCount, maxPerRequester int) bool {
	if maxPerRequester <= 0 {
		return false
	}
	return activeCount < maxPerRequester
}

// Remaining returns how many more requests the requester may have
// outstanding. Never negative.
func Remaining(activeCount, maxPerRequester int) int {
	remaining := maxPerRequester - activeCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
