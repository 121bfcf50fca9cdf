package fetcher

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aungthurhahein/GaruduaEye/internal/series"
)

// SyntheticSource generates a deterministic bounded random walk around a
// base rate. It stands in for the upstream API when a fetch fails so the
// monitor keeps producing cycles; callers must tag its output as
// synthetic wherever it is logged or persisted.
type SyntheticSource struct {
	mu     sync.Mutex
	rng    *rand.Rand
	base   float64
	spread float64
	last   float64
	now    func() time.Time
}

// NewSyntheticSource builds a generator seeded for reproducibility. The
// spread bounds every rate to base*(1±spread).
func NewSyntheticSource(seed int64, base, spread float64) *SyntheticSource {
	if spread <= 0 {
		spread = 0.02
	}
	return &SyntheticSource{
		rng:    rand.New(rand.NewSource(seed)),
		base:   base,
		spread: spread,
		last:   base,
		now:    time.Now,
	}
}

// FetchCurrent returns the next step of the walk stamped with the current
// day.
func (s *SyntheticSource) FetchCurrent(ctx context.Context) (series.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return series.Observation{
		Timestamp: s.now().UTC().Truncate(24 * time.Hour),
		Rate:      decimal.NewFromFloat(s.step()),
	}, nil
}

// FetchHistory generates one observation per day covering windowDays,
// ending today.
func (s *SyntheticSource) FetchHistory(ctx context.Context, windowDays int) ([]series.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().UTC().Truncate(24 * time.Hour)
	out := make([]series.Observation, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		out = append(out, series.Observation{
			Timestamp: today.AddDate(0, 0, -i),
			Rate:      decimal.NewFromFloat(s.step()),
		})
	}
	return out, nil
}

// step advances the walk by up to a fifth of the spread per tick and
// clamps the result into the configured band.
func (s *SyntheticSource) step() float64 {
	drift := (s.rng.Float64()*2 - 1) * s.base * s.spread / 5
	next := s.last + drift

	lo := s.base * (1 - s.spread)
	hi := s.base * (1 + s.spread)
	if next < lo {
		next = lo
	}
	if next > hi {
		next = hi
	}
	s.last = next
	return next
}

var _ RateSource = (*SyntheticSource)(nil)
var _ HistorySource = (*SyntheticSource)(nil)
