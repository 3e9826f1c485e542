package docking

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/dockview/internal/domain/docking"
)

// BatchRescore runs reqs through engine with at most parallelism runs in
// flight. Items are returned in request order. A failed item never cancels
// the others; only ctx does.
func BatchRescore(ctx context.Context, engine docking.Engine, reqs []docking.Request, parallelism int) []docking.BatchItem {
	items := make([]docking.BatchItem, len(reqs))
	if parallelism <= 0 {
		parallelism = 1
	}

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i := range reqs {
		i := i
		items[i] = docking.BatchItem{Index: i, Label: reqs[i].Label}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			res, err := engine.Rescore(ctx, reqs[i])
			items[i].Result, items[i].Err = res, err
			return nil
		})
	}
	_ = g.Wait()
	return items
}
