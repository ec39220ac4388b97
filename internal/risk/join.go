package risk

import (
	"context"
	"sync"
)

// branch is the per-branch outcome of a parallel join.
type branch[T any] struct {
	Val T
	Err error
}

// join2 runs both functions concurrently and waits for both to finish.
// A failure in one branch does not cancel the sibling; each branch
// reports its own result-or-error pair and the caller decides which
// failures are tolerable.
func join2[A, B any](ctx context.Context, fa func(context.Context) (A, error), fb func(context.Context) (B, error)) (branch[A], branch[B]) {
	var (
		wg sync.WaitGroup
		ra branch[A]
		rb branch[B]
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ra.Val, ra.Err = fa(ctx)
	}()
	go func() {
		defer wg.Done()
		rb.Val, rb.Err = fb(ctx)
	}()
	wg.Wait()
	return ra, rb
}
