package mpi

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem pairs one subject with its pre-retrieved candidate set.
type BatchItem struct {
	Subject    Record
	Candidates []Record
}

// MatchBatch evaluates every item with bounded parallelism. Items are
// independent, so the work is a plain parallel map; parallelism caps the
// number of in-flight evaluations (values below 1 mean unbounded). The
// first invalid subject cancels the batch and its error is returned.
func (m *Matcher) MatchBatch(ctx context.Context, items []BatchItem, parallelism int) ([]Outcome, error) {
	outcomes := make([]Outcome, len(items))

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := m.Match(item.Subject, item.Candidates)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
