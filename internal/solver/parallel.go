package solver

import (
	"context"

	"github.com/PearlCalc/extension/pkg/core"
	"golang.org/x/sync/errgroup"
)

// validateAll runs validate over every candidate. Each worker writes only its
// own slot, so the output order matches the input order for any worker count.
func validateAll(ctx context.Context, v *validation, candidates []Candidate, workers int) ([]core.SolveResult, error) {
	slots := make([]core.SolveResult, len(candidates))
	found := make([]bool, len(candidates))

	if workers <= 1 {
		for i, c := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			slots[i], found[i] = v.validate(c)
		}
		return collect(slots, found), nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i], found[i] = v.validate(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return collect(slots, found), nil
}

func collect(slots []core.SolveResult, found []bool) []core.SolveResult {
	out := make([]core.SolveResult, 0, len(slots))
	for i, ok := range found {
		if ok {
			out = append(out, slots[i])
		}
	}
	return out
}
