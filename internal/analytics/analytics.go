package analytics

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/aungthurhahein/GaruduaEye/internal/series"
)

var (
	// ErrInsufficientData indicates too few observations for the statistic.
	ErrInsufficientData = errors.New("analytics: insufficient data points")
	// ErrDegenerateRegression indicates a zero regression denominator.
	ErrDegenerateRegression = errors.New("analytics: degenerate regression input")
)

const (
	projectionMaxPoints = 14
	projectionMinPoints = 5
	projectionHorizon   = 7
)

// Trend returns the percentage change between the first and last
// observation of the slice. At least two points are required.
func Trend(slice []series.Observation) (float64, error) {
	if len(slice) < 2 {
		return 0, ErrInsufficientData
	}
	first := slice[0].Rate.InexactFloat64()
	last := slice[len(slice)-1].Rate.InexactFloat64()
	return (last - first) / first * 100, nil
}

// TrendOrZero is the zero-default variant of Trend used by the snapshot
// builder's 7-day and 30-day windows, where a short history renders as a
// flat trend instead of an error.
func TrendOrZero(slice []series.Observation) float64 {
	t, err := Trend(slice)
	if err != nil {
		return 0
	}
	return t
}

// Volatility returns the coefficient of variation of the slice's rates as
// a percentage: population standard deviation divided by the mean. It is
// non-negative by construction and zero only for a constant slice.
func Volatility(slice []series.Observation) (float64, error) {
	if len(slice) < 2 {
		return 0, ErrInsufficientData
	}

	rates := make([]float64, len(slice))
	for i, o := range slice {
		rates[i] = o.Rate.InexactFloat64()
	}

	m := mean(rates)
	var sq float64
	for _, r := range rates {
		d := r - m
		sq += d * d
	}
	return math.Sqrt(sq/float64(len(rates))) / m * 100, nil
}

// Projection fits an ordinary least-squares line over the most recent
// observations (at most 14, at least 5) with the sequential index as x,
// evaluates it 7 indices past the last point, and returns the percentage
// difference against the last actual rate.
func Projection(slice []series.Observation) (float64, error) {
	if len(slice) < projectionMinPoints {
		return 0, ErrInsufficientData
	}
	if len(slice) > projectionMaxPoints {
		slice = slice[len(slice)-projectionMaxPoints:]
	}

	n := float64(len(slice))
	var sumX, sumY, sumXY, sumXX float64
	for i, o := range slice {
		x := float64(i)
		y := o.Rate.InexactFloat64()
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	// Sequential indices make this impossible with >=2 points; guard anyway
	// instead of dividing by zero.
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, ErrDegenerateRegression
	}

	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	last := slice[len(slice)-1].Rate.InexactFloat64()
	projected := intercept + slope*(n-1+projectionHorizon)
	return (projected - last) / last * 100, nil
}

// Snapshot aggregates the derived statistics for one series. It is always
// recomputed from the series passed in, never persisted.
type Snapshot struct {
	Trend7d      float64
	Trend30d     float64
	Volatility   float64
	Projection7d float64
}

// Compute derives a Snapshot from the series using 7-day and 30-day
// windows. Volatility and projection failures are reported but leave the
// remaining fields usable, so a short history still renders partial data.
func Compute(s *series.Series) (Snapshot, error) {
	w7 := s.Slice(7)
	w30 := s.Slice(30)

	snap := Snapshot{
		Trend7d:  TrendOrZero(w7),
		Trend30d: TrendOrZero(w30),
	}

	var errs []error
	if v, err := Volatility(w30); err != nil {
		errs = append(errs, err)
	} else {
		snap.Volatility = v
	}
	if p, err := Projection(w30); err != nil {
		errs = append(errs, err)
	} else {
		snap.Projection7d = p
	}

	return snap, errors.Join(errs...)
}

// Insights summarises the full recorded history for presentation.
type Insights struct {
	High         decimal.Decimal
	Low          decimal.Decimal
	Average      decimal.Decimal
	Current      decimal.Decimal
	VsAveragePct float64
}

// ComputeInsights derives historical high/low/average and the current
// rate's delta against that average.
func ComputeInsights(s *series.Series) (Insights, error) {
	latest, err := s.Latest()
	if err != nil {
		return Insights{}, err
	}

	all := s.Slice(0)
	high := all[0].Rate
	low := all[0].Rate
	sum := decimal.Zero
	for _, o := range all {
		if o.Rate.GreaterThan(high) {
			high = o.Rate
		}
		if o.Rate.LessThan(low) {
			low = o.Rate
		}
		sum = sum.Add(o.Rate)
	}

	avg := sum.Div(decimal.NewFromInt(int64(len(all))))
	delta := latest.Rate.Sub(avg).Div(avg).Mul(decimal.NewFromInt(100))

	return Insights{
		High:         high,
		Low:          low,
		Average:      avg,
		Current:      latest.Rate,
		VsAveragePct: delta.InexactFloat64(),
	}, nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
