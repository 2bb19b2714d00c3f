package agents

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const DefaultMaxIterations = 10

// Driver re-runs the executor from the root until a stop key is reached, the
// context is stopped by a handler, or the iteration bound is hit.
type Driver struct {
	Executor      *Executor
	MaxIterations int
	StopKeys      []string
}

func (d *Driver) maxIterations() int {
	if d.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return d.MaxIterations
}

func (d *Driver) isStopKey(key string) bool {
	for _, k := range d.StopKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Run returns the outcomes of all completed walks, also when it fails.
func (d *Driver) Run(ctx context.Context, root Node, c *Context) ([]*Outcome, error) {
	var outcomes []*Outcome

	for i := 0; i < d.maxIterations(); i++ {
		outcome, err := d.Executor.Run(ctx, root, c)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)

		log.Debug().
			Int("iteration", i+1).
			Str("leaf", outcome.Leaf.Key()).
			Msg("walk finished")

		if c.Stopped() || d.isStopKey(outcome.Leaf.Key()) {
			return outcomes, nil
		}
	}

	return outcomes, ErrMaxIterations
}

// Run pairs a tree with the context of one independent run.
type Run struct {
	Root    Node
	Context *Context
}

type RunResult struct {
	Outcome *Outcome
	Err     error
}

// RunConcurrently executes independent runs with at most limit of them in
// flight. A failing run does not affect the others. Results are in the
// order of runs.
func (e *Executor) RunConcurrently(ctx context.Context, limit int, runs ...Run) []RunResult {
	results := make([]RunResult, len(runs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, r := range runs {
		i, r := i, r
		g.Go(func() error {
			outcome, err := e.Run(ctx, r.Root, r.Context)
			results[i] = RunResult{Outcome: outcome, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
