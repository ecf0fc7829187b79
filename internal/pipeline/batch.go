package pipeline

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/konvertorxml/konvertorxml/internal/errors"
)

// RunBatch runs jobs with at most maxParallel conversions in flight and
// returns one outcome per job, in the order of jobs. A failing job does not
// stop the others. Once ctx is canceled the jobs that have not started yet
// are reported as canceled.
func (r *Runner) RunBatch(ctx context.Context, jobs []Job, maxParallel int) []Outcome {
	if maxParallel < 1 {
		maxParallel = 1
	}
	outcomes := make([]Outcome, len(jobs))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(maxParallel)
	for i, job := range jobs {
		p.Go(func(ctx context.Context) error {
			outcomes[i] = r.runOne(ctx, job)
			return nil
		})
	}
	// Workers never return errors; failures live in the outcomes.
	_ = p.Wait()

	return outcomes
}

func (r *Runner) runOne(ctx context.Context, job Job) Outcome {
	out := Outcome{Input: job.Input, Output: job.Output}

	res, err := r.Run(ctx, job)
	switch {
	case err == nil:
		out.Status = StatusOK
		out.Result = res
	case errors.Is(err, errors.ErrCanceled), errors.Is(err, context.Canceled):
		out.Status = StatusCanceled
		out.Error = err.Error()
		out.Err = err
	default:
		out.Status = StatusFailed
		out.Error = err.Error()
		out.Err = err
	}
	return out
}
