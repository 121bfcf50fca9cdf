package series

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(n int) time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func obs(n int, rate string) Observation {
	return Observation{Timestamp: day(n), Rate: decimal.RequireFromString(rate)}
}

func TestAppendRejectsOutOfOrder(t *testing.T) {
	s := New()
	if err := s.Append(obs(1, "0.0271")); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := s.Append(obs(0, "0.0270")); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("series must be unchanged after rejected append, len=%d", s.Len())
	}
}

func TestAppendEqualTimestampOverwrites(t *testing.T) {
	s := New()
	if err := s.Append(obs(0, "0.0270")); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := s.Append(obs(0, "0.0272")); err != nil {
		t.Fatalf("same-timestamp append should overwrite: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("overwrite must not grow the series, len=%d", s.Len())
	}
	latest, err := s.Latest()
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if !latest.Rate.Equal(decimal.RequireFromString("0.0272")) {
		t.Fatalf("expected overwritten rate 0.0272, got %s", latest.Rate)
	}
}

func TestAppendRejectsNonPositiveRate(t *testing.T) {
	s := New()
	err := s.Append(Observation{Timestamp: day(0), Rate: decimal.Zero})
	if !errors.Is(err, ErrNonPositiveRate) {
		t.Fatalf("expected ErrNonPositiveRate, got %v", err)
	}
}

func TestLatestEmpty(t *testing.T) {
	if _, err := New().Latest(); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestSliceWindow(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		if err := s.Append(obs(i, "0.0270")); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	got := s.Slice(7)
	if len(got) != 7 {
		t.Fatalf("expected 7 observations, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(day(3)) {
		t.Fatalf("expected window to start at day 3, got %s", got[0].Timestamp)
	}

	// Short history returns everything.
	if got := s.Slice(30); len(got) != 10 {
		t.Fatalf("short history should return all 10, got %d", len(got))
	}
}

func TestSliceIsACopy(t *testing.T) {
	s := New()
	if err := s.Append(obs(0, "0.0270")); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	out := s.Slice(7)
	out[0].Rate = decimal.NewFromInt(99)

	latest, _ := s.Latest()
	if !latest.Rate.Equal(decimal.RequireFromString("0.0270")) {
		t.Fatal("mutating a slice must not touch the stored series")
	}
}
