package importer

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ledoux/bakehouse/internal/mapping"
	"github.com/ledoux/bakehouse/internal/resolve"
	"github.com/ledoux/bakehouse/internal/tabular"
	"github.com/ledoux/bakehouse/internal/transform"
)

// rowResult is one row's fate. Exactly one of id/failure is meaningful.
type rowResult struct {
	id      int64
	failure *RowFailure
}

// runBatch persists every row independently: a failure on one row never
// stops the rest, and nothing is rolled back. The dataset is typically an
// irregular export where a handful of bad rows must not block the hundreds
// of good ones.
func (s *Service) runBatch(ctx context.Context, def Definition, table *tabular.Table, m mapping.Mapping, ownerID int64) *Outcome {
	var resolver *resolve.Resolver
	if def.NaturalKeyField != "" {
		resolver = resolve.NewResolver(s.stores.Orders, def.CreatePlaceholders)
	}

	results := make([]rowResult, len(table.Rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.CommitWorkers)
	for i, row := range table.Rows {
		i, row := i, row
		g.Go(func() error {
			results[i] = s.processRow(gctx, def, row, m, resolver, ownerID)
			return nil
		})
	}
	// Workers only record into their own slot; no error ever propagates.
	_ = g.Wait()

	outcome := &Outcome{}
	for _, r := range results {
		if r.failure != nil {
			outcome.FailureCount++
			outcome.Failures = append(outcome.Failures, *r.failure)
		} else {
			outcome.SuccessCount++
			outcome.CreatedIDs = append(outcome.CreatedIDs, r.id)
		}
	}

	// Operators rely on stable row numbers to find and fix source data, so
	// the report order must not depend on worker scheduling.
	sort.Slice(outcome.Failures, func(i, j int) bool {
		return outcome.Failures[i].RowIndex < outcome.Failures[j].RowIndex
	})

	return outcome
}

// processRow runs resolve → transform → insert for one row, capturing any
// failure instead of returning it up the stack.
func (s *Service) processRow(ctx context.Context, def Definition, row tabular.Row, m mapping.Mapping, resolver *resolve.Resolver, ownerID int64) rowResult {
	var res resolve.Resolution
	if resolver != nil {
		key := row.Values[m[def.NaturalKeyField]]
		res = resolver.Resolve(ctx, key, ownerID)
		if res.Status == resolve.Failed {
			return rowResult{failure: &RowFailure{
				RowIndex: row.Line,
				Message:  res.Reason,
				Raw:      row.Values,
			}}
		}
	}

	rec, err := transform.Row(row, m, def.Fields, def.NaturalKeyField, res)
	if err != nil {
		return rowResult{failure: &RowFailure{
			RowIndex: row.Line,
			Message:  err.Error(),
			Raw:      row.Values,
		}}
	}

	id, err := def.Insert(ctx, s.stores, ownerID, rec)
	if err != nil {
		return rowResult{failure: &RowFailure{
			RowIndex: row.Line,
			Message:  fmt.Sprintf("insert: %v", err),
			Raw:      row.Values,
		}}
	}

	return rowResult{id: id}
}
