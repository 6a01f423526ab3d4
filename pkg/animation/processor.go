package animation

import (
	"context"
	"fmt"

	"github.com/pragma/screennav/internal/engine"
	"github.com/pragma/screennav/pkg/logger"
	"github.com/pragma/screennav/pkg/types"
)

// Parallel starts every run at once and ANDs the results. A failing run
// never cancels its siblings.
type Parallel struct {
	Logger logger.Logger
}

// Process implements ShowProcessor
func (p Parallel) Process(ctx context.Context, runs []Run) bool {
	if len(runs) == 0 {
		return true
	}

	log := p.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	results := make([]bool, len(runs))
	// Runs get ctx, not the group context; siblings are never cancelled.
	g, _ := engine.NewSafeGroup(ctx, log)
	for i, run := range runs {
		i, run := i, run
		g.Go(func() error {
			results[i] = run(ctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn("Parallel animation batch had a panicking run", logger.WithError(err))
	}

	ok := true
	for _, r := range results {
		ok = ok && r
	}
	return ok
}

// Sequential starts runs one at a time in order and stops at the first
// failure; later runs are never started.
type Sequential struct{}

// Process implements ShowProcessor
func (Sequential) Process(ctx context.Context, runs []Run) bool {
	for _, run := range runs {
		if !run(ctx) {
			return false
		}
	}
	return true
}

// ProcessorFor maps a configured processor kind to an implementation.
// The empty kind selects Parallel.
func ProcessorFor(kind types.ProcessorKind, log logger.Logger) (ShowProcessor, error) {
	switch kind {
	case "", types.ProcessorParallel:
		return Parallel{Logger: log}, nil
	case types.ProcessorSequential:
		return Sequential{}, nil
	default:
		return nil, fmt.Errorf("unknown show processor: %q", kind)
	}
}
