package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aungthurhahein/GaruduaEye/internal/series"
)

const tolerance = 1e-9

func sliceOf(rates ...float64) []series.Observation {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := make([]series.Observation, len(rates))
	for i, r := range rates {
		out[i] = series.Observation{
			Timestamp: base.AddDate(0, 0, i),
			Rate:      decimal.NewFromFloat(r),
		}
	}
	return out
}

func seriesOf(t *testing.T, rates ...float64) *series.Series {
	t.Helper()
	s := series.New()
	for _, o := range sliceOf(rates...) {
		if err := s.Append(o); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	return s
}

func TestTrendExactFormula(t *testing.T) {
	got, err := Trend(sliceOf(0.0270, 0.0265, 0.0278))
	if err != nil {
		t.Fatalf("trend failed: %v", err)
	}
	want := (0.0278 - 0.0270) / 0.0270 * 100
	if math.Abs(got-want) > tolerance {
		t.Fatalf("expected %.12f, got %.12f", want, got)
	}
}

func TestTrendInsufficientData(t *testing.T) {
	if _, err := Trend(sliceOf(0.0270)); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if v := TrendOrZero(sliceOf(0.0270)); v != 0 {
		t.Fatalf("zero-default variant should return 0, got %f", v)
	}
}

func TestVolatilityNonNegativeAndZeroOnConstant(t *testing.T) {
	v, err := Volatility(sliceOf(0.0270, 0.0270, 0.0270))
	if err != nil {
		t.Fatalf("volatility failed: %v", err)
	}
	if v != 0 {
		t.Fatalf("constant slice should have zero volatility, got %f", v)
	}

	v, err = Volatility(sliceOf(0.0270, 0.0290, 0.0250))
	if err != nil {
		t.Fatalf("volatility failed: %v", err)
	}
	if v <= 0 {
		t.Fatalf("non-constant slice should have positive volatility, got %f", v)
	}
}

func TestProjectionOnLinearSeries(t *testing.T) {
	// rate = 0.0270 + 0.0001 * index, seven points.
	rates := make([]float64, 7)
	for i := range rates {
		rates[i] = 0.0270 + 0.0001*float64(i)
	}

	got, err := Projection(sliceOf(rates...))
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}

	last := rates[len(rates)-1]
	want := (0.0001 * 7) / last * 100
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("expected %.9f from known slope, got %.9f", want, got)
	}
}

func TestProjectionUsesAtMostFourteenPoints(t *testing.T) {
	// Twenty noisy leading points followed by a clean linear tail; only the
	// last fourteen may contribute.
	rates := make([]float64, 0, 34)
	for i := 0; i < 20; i++ {
		rates = append(rates, 1.0)
	}
	for i := 0; i < 14; i++ {
		rates = append(rates, 0.0270+0.0001*float64(i))
	}

	got, err := Projection(sliceOf(rates...))
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}

	last := rates[len(rates)-1]
	want := (0.0001 * 7) / last * 100
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("leading points leaked into fit: expected %.9f, got %.9f", want, got)
	}
}

func TestProjectionInsufficientData(t *testing.T) {
	if _, err := Projection(sliceOf(0.0270, 0.0271, 0.0272, 0.0273)); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("four points must fail with ErrInsufficientData, got %v", err)
	}
}

func TestComputePartialOnShortHistory(t *testing.T) {
	s := seriesOf(t, 0.0270, 0.0272)

	snap, err := Compute(s)
	if err == nil {
		t.Fatal("two points should report a projection error")
	}
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData in joined error, got %v", err)
	}
	if snap.Trend7d == 0 {
		t.Fatal("trend should still be computed on partial failure")
	}
	if snap.Projection7d != 0 {
		t.Fatalf("failed projection must stay zero, got %f", snap.Projection7d)
	}
}

func TestComputeInsights(t *testing.T) {
	s := seriesOf(t, 0.0270, 0.0290, 0.0250, 0.0280)

	ins, err := ComputeInsights(s)
	if err != nil {
		t.Fatalf("insights failed: %v", err)
	}
	if !ins.High.Equal(decimal.NewFromFloat(0.0290)) {
		t.Fatalf("wrong high: %s", ins.High)
	}
	if !ins.Low.Equal(decimal.NewFromFloat(0.0250)) {
		t.Fatalf("wrong low: %s", ins.Low)
	}
	if !ins.Current.Equal(decimal.NewFromFloat(0.0280)) {
		t.Fatalf("wrong current: %s", ins.Current)
	}

	avg := (0.0270 + 0.0290 + 0.0250 + 0.0280) / 4
	want := (0.0280 - avg) / avg * 100
	if math.Abs(ins.VsAveragePct-want) > 1e-6 {
		t.Fatalf("expected delta %.6f, got %.6f", want, ins.VsAveragePct)
	}
}

func TestClassification(t *testing.T) {
	if got := ClassifyVolatility(2.5); got != VolatilityHigh {
		t.Fatalf("2.5 should classify high, got %s", got)
	}
	if got := ClassifyVolatility(1.5); got != VolatilityModerate {
		t.Fatalf("1.5 should classify moderate, got %s", got)
	}
	if got := ClassifyVolatility(0.5); got != VolatilityLow {
		t.Fatalf("0.5 should classify low, got %s", got)
	}

	if got := TrendDirection(1.4); got != "up" {
		t.Fatalf("1.4 should read up, got %s", got)
	}
	if got := TrendDirection(-1.4); got != "down" {
		t.Fatalf("-1.4 should read down, got %s", got)
	}
	if got := TrendDirection(0.9); got != "flat" {
		t.Fatalf("0.9 should read flat, got %s", got)
	}
}
