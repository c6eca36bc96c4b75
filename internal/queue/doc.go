// Package queue implements the request-queue engine for one restaurant.
//
// [Engine] owns the canonical ordered view of that restaurant's requests:
// submission with quota and duplicate policy, cancellation, operator
// advancement and re-ranking, position lookup and wait estimation. The
// backend remains the serializing authority; the engine never assumes it is
// the sole writer and treats its own view as a projection to be replaced
// wholesale by each poll.
//
// Quota and duplicate violations are ordinary [SubmitOutcome] values, not
// errors. Only infrastructure failures propagate as errors.
package queue
