package gate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"chunkgate/internal/errors"
)

// Job is one validation for ValidateAll.
type Job struct {
	Gate    *Gate
	Request Request
}

// ValidateAll runs jobs in parallel and returns their outcomes in job order.
// Jobs must target distinct files; two jobs on the same file, directly or
// through a link, fail with
// LOCK_HELD before anything runs. limit bounds concurrency (<= 0 means
// unbounded). The first infrastructure error cancels the remaining jobs,
// which still restore their files.
func ValidateAll(ctx context.Context, jobs []Job, limit int) ([]Outcome, error) {
	seen := make(map[string]int, len(jobs))
	for i, j := range jobs {
		abs, key, err := j.Gate.resolve(j.Request.Path)
		if err != nil {
			return nil, err
		}
		id := j.Gate.root + "\x00" + key
		if prev, dup := seen[id]; dup {
			return nil, errors.Newf(errors.LockHeld, "jobs %d and %d both validate %s", prev, i, abs)
		}
		seen[id] = i
	}

	outcomes := make([]Outcome, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			out, err := j.Gate.Validate(ctx, j.Request)
			outcomes[i] = out
			return err
		})
	}
	err := g.Wait()
	return outcomes, err
}
