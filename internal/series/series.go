package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptySeries indicates the series holds no observations yet.
	ErrEmptySeries = errors.New("series: no observations recorded")
	// ErrOutOfOrder indicates an append older than the stored tail.
	ErrOutOfOrder = errors.New("series: observation older than last recorded")
	// ErrNonPositiveRate indicates a rate at or below zero.
	ErrNonPositiveRate = errors.New("series: rate must be positive")
)

// Observation is a single observed exchange rate at a point in time.
type Observation struct {
	Timestamp time.Time
	Rate      decimal.Decimal
}

// Series stores observed rates strictly ordered by timestamp. It grows by
// append only; a same-timestamp append overwrites the tail entry's rate,
// which covers same-day refreshes from the upstream source.
//
// Series is not safe for concurrent use; the owning monitor serializes
// access around each evaluation cycle.
type Series struct {
	obs []Observation
}

// New constructs an empty Series.
func New() *Series {
	return &Series{}
}

// Append records a new observation. Timestamps must not move backwards;
// an equal timestamp replaces the tail rate in place.
func (s *Series) Append(obs Observation) error {
	if !obs.Rate.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrNonPositiveRate, obs.Rate)
	}

	if n := len(s.obs); n > 0 {
		last := s.obs[n-1].Timestamp
		if obs.Timestamp.Before(last) {
			return fmt.Errorf("%w: %s < %s", ErrOutOfOrder,
				obs.Timestamp.UTC().Format(time.RFC3339), last.UTC().Format(time.RFC3339))
		}
		if obs.Timestamp.Equal(last) {
			s.obs[n-1].Rate = obs.Rate
			return nil
		}
	}

	s.obs = append(s.obs, obs)
	return nil
}

// Latest returns the most recent observation.
func (s *Series) Latest() (Observation, error) {
	if len(s.obs) == 0 {
		return Observation{}, ErrEmptySeries
	}
	return s.obs[len(s.obs)-1], nil
}

// Slice returns the most recent observations covering windowDays, the
// boundary day inclusive. Shorter history returns everything available;
// a non-positive window also returns everything. The result is a copy.
func (s *Series) Slice(windowDays int) []Observation {
	if len(s.obs) == 0 {
		return nil
	}
	if windowDays <= 0 {
		return s.copyFrom(0)
	}

	latest := s.obs[len(s.obs)-1].Timestamp.UTC()
	cutoff := latest.Truncate(24 * time.Hour).AddDate(0, 0, -(windowDays - 1))

	start := 0
	for i := len(s.obs) - 1; i >= 0; i-- {
		if s.obs[i].Timestamp.UTC().Before(cutoff) {
			start = i + 1
			break
		}
	}
	return s.copyFrom(start)
}

// Len reports the number of stored observations.
func (s *Series) Len() int {
	return len(s.obs)
}

func (s *Series) copyFrom(start int) []Observation {
	out := make([]Observation, len(s.obs)-start)
	copy(out, s.obs[start:])
	return out
}
