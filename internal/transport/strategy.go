package transport

import "context"

// AttemptFunc tries one candidate and reports whether it succeeded
type AttemptFunc[C, T any] func(ctx context.Context, candidate C) (T, bool)

// FirstSuccess tries candidates strictly in order and returns the first
// successful result together with the index of the candidate that produced
// it. Candidates after the winner are never attempted. When every candidate
// fails, or ctx is done before one succeeds, it returns the zero value, -1
// and false.
func FirstSuccess[C, T any](ctx context.Context, candidates []C, attempt AttemptFunc[C, T]) (T, int, bool) {
	var zero T
	for i, c := range candidates {
		if ctx.Err() != nil {
			return zero, -1, false
		}
		if result, ok := attempt(ctx, c); ok {
			return result, i, true
		}
	}
	return zero, -1, false
}
