package fetcher

import (
	"context"

	"github.com/aungthurhahein/GaruduaEye/internal/series"
)

// RateSource retrieves the current observed rate for the configured pair.
type RateSource interface {
	FetchCurrent(ctx context.Context) (series.Observation, error)
}

// HistorySource retrieves an ordered range of daily observations covering
// the requested window.
type HistorySource interface {
	FetchHistory(ctx context.Context, windowDays int) ([]series.Observation, error)
}
