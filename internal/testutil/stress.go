package testutil

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/salvego/salve/engine"
	"github.com/salvego/salve/tree"
)

// HammerStartStop fires concurrent Start/Stop calls at v from n goroutines.
// It returns any fatal engine error the scheduler recorded. The single
// concurrency invariant spec.md §5 requires is that the scheduler's
// reentrancy guard catches overlapping cycles rather than racing, so a
// caller should run this under -race and assert the returned error is
// either nil or a *salveerr.ReentrancyError.
func HammerStartStop(ctx context.Context, v *engine.Validator, n int) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			v.Start()
			v.Stop()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return v.SchedulerErr()
}

// HammerResetTo interleaves concurrent ResetTo(target) calls with Start
// calls from n goroutines, exercising resetTo's stop-rewind-replay path
// against the scheduler's reentrancy guard at the same time.
func HammerResetTo(ctx context.Context, v *engine.Validator, n int, target tree.Node) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		even := i%2 == 0
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if even {
				return v.ResetTo(target)
			}
			v.Start()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return v.SchedulerErr()
}
