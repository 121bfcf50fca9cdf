package recommend

// Signal is the discrete investment signal derived from analytics.
type Signal string

const (
	SignalStrongBuy   Signal = "STRONG_BUY"
	SignalModerateBuy Signal = "MODERATE_BUY"
	SignalHold        Signal = "HOLD"
	SignalNeutral     Signal = "NEUTRAL"
)

// RiskLevel qualifies a signal for display.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Recommendation pairs a signal with its risk level.
type Recommendation struct {
	Signal Signal
	Risk   RiskLevel
}

// Derive evaluates the decision table over the 7-day trend and the 30-day
// volatility, first match wins. Same inputs always produce the same output.
func Derive(trend7d, volatility float64) Recommendation {
	switch {
	case trend7d > 2 && volatility < 2:
		return Recommendation{Signal: SignalStrongBuy, Risk: RiskLow}
	case trend7d > 0.5 && volatility < 3:
		return Recommendation{Signal: SignalModerateBuy, Risk: RiskMedium}
	case trend7d < -2:
		// High risk applies to converting while the rate is falling.
		return Recommendation{Signal: SignalHold, Risk: RiskHigh}
	default:
		return Recommendation{Signal: SignalNeutral, Risk: RiskMedium}
	}
}
