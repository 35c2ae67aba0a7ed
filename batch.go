package hydrx

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/hengadev/errsx"
	"golang.org/x/sync/errgroup"
)

// HydrateMany builds one T per row, in row order, asking lookup for every
// planned key of every row. An empty rows slice yields an empty result.
//
// Under FailFast the first failure is returned as a *BatchError and no
// results are returned. Under ContinueOnError every row is attempted: failed
// rows are nil in the result and the error is an errsx.Map of *BatchError
// keyed by "row <index>".
func HydrateMany[T, S any](e *Engine[T], rows []S, lookup RowLookup[S], opts ...CallOption) ([]*T, error) {
	if lookup == nil {
		return nil, ErrNilLookup
	}
	return hydrateRows(e, "HydrateMany", rows, func(row S, _ *T, key string) Result {
		return lookup(row, key)
	}, opts)
}

// HydrateManyTarget is HydrateMany with a lookup that also observes the
// instance being built from the row.
func HydrateManyTarget[T, S any](e *Engine[T], rows []S, lookup RowTargetLookup[S, T], opts ...CallOption) ([]*T, error) {
	if lookup == nil {
		return nil, ErrNilLookup
	}
	return hydrateRows(e, "HydrateManyTarget", rows, lookup, opts)
}

// HydrateSeq hydrates rows lazily as the returned sequence is ranged over.
// Each failing row yields a nil value with its *BatchError; under FailFast
// the sequence ends after the first one.
func HydrateSeq[T, S any](e *Engine[T], rows iter.Seq[S], lookup RowLookup[S], opts ...CallOption) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		if lookup == nil {
			yield(nil, ErrNilLookup)
			return
		}

		const operation = "HydrateSeq"
		call := newCallSettings(opts)
		members := narrow(e.members, call.include, call.exclude)
		metadata := e.metadata(len(members))

		start := time.Now()
		e.hook.OnHydrateStart(call.ctx, operation, metadata)
		var failed error
		defer func() {
			e.hook.OnHydrateComplete(call.ctx, operation, time.Since(start), failed, metadata)
		}()

		i := 0
		for row := range rows {
			if err := call.ctx.Err(); err != nil {
				failed = err
				yield(nil, err)
				return
			}

			target := new(T)
			err := e.apply(call.ctx, operation, metadata, target, members, func(t *T, key string) Result {
				return lookup(row, key)
			})
			if err != nil {
				batchErr := NewBatchError(i, err)
				failed = batchErr
				e.hook.OnError(call.ctx, operation, batchErr, metadata)
				if !yield(nil, batchErr) || e.policy == FailFast {
					return
				}
			} else if !yield(target, nil) {
				return
			}
			i++
		}
	}
}

func hydrateRows[T, S any](e *Engine[T], operation string, rows []S, lookup RowTargetLookup[S, T], opts []CallOption) ([]*T, error) {
	call := newCallSettings(opts)
	members := narrow(e.members, call.include, call.exclude)
	metadata := e.metadata(len(members))
	metadata["rows"] = len(rows)

	start := time.Now()
	e.hook.OnHydrateStart(call.ctx, operation, metadata)

	var (
		out []*T
		err error
	)
	if e.workers > 1 && len(rows) > 1 {
		out, err = hydrateParallel(e, call.ctx, operation, metadata, rows, members, lookup)
	} else {
		out, err = hydrateSequential(e, call.ctx, operation, metadata, rows, members, lookup)
	}

	if err != nil {
		e.hook.OnError(call.ctx, operation, err, metadata)
	}
	e.hook.OnHydrateComplete(call.ctx, operation, time.Since(start), err, metadata)
	return out, err
}

func hydrateSequential[T, S any](e *Engine[T], ctx context.Context, operation string, metadata map[string]any, rows []S, members []member, lookup RowTargetLookup[S, T]) ([]*T, error) {
	out := make([]*T, len(rows))
	errs := errsx.Map{}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		target := new(T)
		err := e.apply(ctx, operation, metadata, target, members, func(t *T, key string) Result {
			return lookup(row, t, key)
		})
		if err != nil {
			if e.policy == FailFast {
				return nil, NewBatchError(i, err)
			}
			errs.Set(rowKey(i), NewBatchError(i, err))
			continue
		}
		out[i] = target
	}

	return out, errs.AsError()
}

func hydrateParallel[T, S any](e *Engine[T], ctx context.Context, operation string, metadata map[string]any, rows []S, members []member, lookup RowTargetLookup[S, T]) ([]*T, error) {
	out := make([]*T, len(rows))

	var (
		mu   sync.Mutex
		errs = errsx.Map{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			target := new(T)
			err := e.apply(ctx, operation, metadata, target, members, func(t *T, key string) Result {
				return lookup(row, t, key)
			})
			if err != nil {
				if e.policy == FailFast {
					return NewBatchError(i, err)
				}
				mu.Lock()
				errs.Set(rowKey(i), NewBatchError(i, err))
				mu.Unlock()
				return nil
			}
			out[i] = target
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, errs.AsError()
}

func rowKey(i int) string {
	return fmt.Sprintf("row %d", i)
}
