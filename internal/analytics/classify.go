package analytics

// VolatilityLevel buckets a volatility percentage for display.
type VolatilityLevel string

const (
	VolatilityLow      VolatilityLevel = "low"
	VolatilityModerate VolatilityLevel = "moderate"
	VolatilityHigh     VolatilityLevel = "high"
)

// ClassifyVolatility maps a volatility percentage onto a display level.
func ClassifyVolatility(v float64) VolatilityLevel {
	switch {
	case v > 2:
		return VolatilityHigh
	case v > 1:
		return VolatilityModerate
	default:
		return VolatilityLow
	}
}

// TrendDirection labels a trend percentage. Magnitudes of 1% or less read
// as flat.
func TrendDirection(t float64) string {
	switch {
	case t > 1:
		return "up"
	case t < -1:
		return "down"
	default:
		return "flat"
	}
}
