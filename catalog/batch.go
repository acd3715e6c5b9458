package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// Batch translates a slice of records.
type Batch struct {
	Mapper *Mapper

	// Workers is the number of records translated at once. Values below
	// 2 translate strictly one record after the other.
	Workers int

	// OnProgress is called after each finished record with the number
	// done so far. Calls are serialized.
	OnProgress func(done, total int)
}

// Run translates records and returns the results in input order. The
// first error stops the batch.
func (b *Batch) Run(ctx context.Context, records []Record) ([]Record, error) {
	out := make([]Record, len(records))
	total := len(records)

	var (
		mu   sync.Mutex
		done int
	)
	progress := func() {
		if b.OnProgress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		b.OnProgress(done, total)
	}

	translate := func(ctx context.Context, i int) error {
		rec, err := b.Mapper.TranslateRecord(ctx, records[i])
		if err != nil {
			return errors.Errorf("record %d%s: %w", i, recordLabel(records[i]), err)
		}
		out[i] = rec
		progress()
		return nil
	}

	if b.Workers < 2 {
		for i := range records {
			if err := ctx.Err(); err != nil {
				return nil, errors.WithStack(err)
			}
			if err := translate(ctx, i); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	zerolog.Ctx(ctx).Debug().Int("workers", b.Workers).Int("records", total).Msg("translating records concurrently")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Workers)
	for i := range records {
		i := i // per-iteration copy; the module targets go1.21 loop semantics
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return translate(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// recordLabel names a record by its id in error messages.
func recordLabel(rec Record) string {
	if id, ok := rec["id"]; ok && id != nil {
		return fmt.Sprintf(" (id %v)", id)
	}
	return ""
}
