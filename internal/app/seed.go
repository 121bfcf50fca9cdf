package app

import (
	"context"
	"errors"

	"github.com/aungthurhahein/GaruduaEye/internal/service"
	"github.com/aungthurhahein/GaruduaEye/internal/storage"
)

// Seed generates a synthetic daily history and writes it through the
// normal persistence path. Useful for local development and demos where
// no upstream history is available.
func (a *App) Seed(ctx context.Context, opts SeedOptions) error {
	if opts.Days <= 0 {
		return errors.New("--days must be greater than zero")
	}

	var points storage.RatePointStore
	if opts.DryRun {
		a.Logger.Warn().Msg("seed dry-run: nothing will be written")
	} else {
		store, closeStore, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("database.dsn not configured; cannot seed")
		}
		if closeStore != nil {
			defer closeStore()
		}
		points = store
	}

	fallback := a.newFallback()
	history, err := fallback.FetchHistory(ctx, opts.Days)
	if err != nil {
		return err
	}

	written := 0
	for _, obs := range history {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if points != nil {
			point := storage.RatePoint{
				ObservedAt: obs.Timestamp,
				Rate:       obs.Rate,
				Source:     service.SourceSynthetic,
			}
			if err := points.UpsertRatePoint(ctx, point); err != nil {
				return err
			}
		}
		written++
	}

	a.Logger.Info().Int("points", written).Bool("dry_run", opts.DryRun).Msg("synthetic seed complete")
	return nil
}
