package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aungthurhahein/GaruduaEye/internal/series"
)

// SimulateAlert runs a single evaluation cycle against an operator-supplied
// rate, bypassing the upstream source. History is still bootstrapped so
// analytics and alert evaluation behave as they would in a real cycle.
func (a *App) SimulateAlert(ctx context.Context, rate decimal.Decimal) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is disabled in configuration")
	}
	if !rate.IsPositive() {
		return errors.New("--rate must be greater than zero")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	monitor := a.newMonitor(store, nil)
	if err := monitor.Bootstrap(ctx, a.Config.Source.HistoryDays); err != nil {
		return err
	}

	obs := series.Observation{Timestamp: time.Now().UTC(), Rate: rate}
	if err := monitor.EvaluateAndMaybeDispatch(ctx, obs, "simulated"); err != nil {
		return err
	}

	rec, err := monitor.Recommendation()
	if err != nil {
		return err
	}
	a.Logger.Info().
		Str("rate", rate.String()).
		Str("signal", string(rec.Signal)).
		Str("risk", string(rec.Risk)).
		Msg("simulation complete")
	return nil
}
