package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aungthurhahein/GaruduaEye/internal/alerting"
	"github.com/aungthurhahein/GaruduaEye/internal/analytics"
	"github.com/aungthurhahein/GaruduaEye/internal/fetcher"
	"github.com/aungthurhahein/GaruduaEye/internal/metrics"
	"github.com/aungthurhahein/GaruduaEye/internal/recommend"
	"github.com/aungthurhahein/GaruduaEye/internal/series"
	"github.com/aungthurhahein/GaruduaEye/internal/storage"
)

// Data source tags carried into logs and persisted rows.
const (
	SourceAPI       = "api"
	SourceSynthetic = "synthetic"
)

// Deps collects the monitor's collaborators. Source and Fallback are
// required; stores and recorder may be nil when persistence or telemetry
// is not configured.
type Deps struct {
	Source    fetcher.RateSource
	History   fetcher.HistorySource
	Fallback  *fetcher.SyntheticSource
	Points    storage.RatePointStore
	Events    storage.AlertEventStore
	RuleStore storage.RuleStore
	Messenger alerting.Messenger
	Recorder  *metrics.Recorder
	Locker    storage.AdvisoryLocker
	LockKey   int64
	AlertsOn  bool
}

// Monitor owns one monitored pair's series, rules, and episode state.
// Every evaluation cycle (append + snapshot + evaluate + dispatch) runs
// under one mutex so a rule edit can never race a fire decision.
type Monitor struct {
	mu sync.Mutex

	series     *series.Series
	rules      *alerting.Store
	evaluator  *alerting.Evaluator
	dispatcher *alerting.Dispatcher

	deps   Deps
	logger zerolog.Logger
}

// NewMonitor constructs a Monitor.
func NewMonitor(deps Deps, logger zerolog.Logger) *Monitor {
	return &Monitor{
		series:     series.New(),
		rules:      alerting.NewStore(),
		evaluator:  alerting.NewEvaluator(logger),
		dispatcher: alerting.NewDispatcher(deps.Messenger, logger),
		deps:       deps,
		logger:     logger.With().Str("component", "monitor").Logger(),
	}
}

// Bootstrap seeds the series from the historical range and loads durable
// rules. A history fetch failure falls back to synthetic data rather than
// starting blank.
func (m *Monitor) Bootstrap(ctx context.Context, historyDays int) error {
	history, source, err := m.fetchHistory(ctx, historyDays)
	if err != nil {
		return fmt.Errorf("bootstrap history: %w", err)
	}

	m.mu.Lock()
	for _, obs := range history {
		if err := m.series.Append(obs); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("bootstrap append: %w", err)
		}
	}
	m.mu.Unlock()

	m.logger.Info().Int("points", len(history)).Str("source", source).Msg("series bootstrapped")

	if m.deps.RuleStore != nil {
		records, err := m.deps.RuleStore.LoadRules(ctx)
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
		for _, rec := range records {
			if _, err := m.rules.Save(alerting.Rule{
				ID:        rec.ID,
				Recipient: rec.Recipient,
				Threshold: rec.Threshold,
				Enabled:   rec.Enabled,
			}); err != nil {
				m.logger.Warn().Err(err).Str("rule_id", rec.ID.String()).Msg("skipping invalid persisted rule")
			}
		}
		m.logger.Info().Int("rules", len(records)).Msg("alert rules loaded")
	}

	return nil
}

// RunCycle is the scheduler callback: fetch the current rate, falling
// back to the synthetic source on upstream failure, then evaluate.
func (m *Monitor) RunCycle(ctx context.Context, at time.Time) error {
	unlock, proceed, err := m.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		m.logger.Debug().Time("tick", at).Msg("skip cycle because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	obs, source := m.fetchCurrent(ctx)
	return m.EvaluateAndMaybeDispatch(ctx, obs, source)
}

// EvaluateAndMaybeDispatch runs one evaluation cycle for a new
// observation: append, recompute analytics, derive a recommendation, run
// every enabled rule through the evaluator, and dispatch fire events.
// Analytics failures are contained; dispatch failures are warnings since
// the episode has already transitioned and must not be retried.
func (m *Monitor) EvaluateAndMaybeDispatch(ctx context.Context, obs series.Observation, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.series.Append(obs); err != nil {
		return fmt.Errorf("append observation: %w", err)
	}

	m.deps.Recorder.RecordCycle()
	m.deps.Recorder.RecordCurrentRate(obs.Rate.InexactFloat64())

	snap, snapErr := analytics.Compute(m.series)
	if snapErr != nil {
		m.logger.Warn().Err(snapErr).Msg("partial analytics snapshot")
	}
	rec := recommend.Derive(snap.Trend7d, snap.Volatility)

	m.logger.Info().
		Str("rate", obs.Rate.String()).
		Str("source", source).
		Float64("trend_7d", snap.Trend7d).
		Float64("volatility", snap.Volatility).
		Str("signal", string(rec.Signal)).
		Msg("observation evaluated")

	if m.deps.Points != nil {
		point := storage.RatePoint{
			ObservedAt: obs.Timestamp,
			Rate:       obs.Rate,
			Source:     source,
		}
		if err := m.deps.Points.UpsertRatePoint(ctx, point); err != nil {
			m.logger.Error().Err(err).Msg("failed to persist rate point")
		}
	}

	if !m.deps.AlertsOn {
		return nil
	}

	for _, rule := range m.rules.List() {
		ev, fired := m.evaluator.Evaluate(rule, obs.Rate, obs.Timestamp)
		if !fired {
			continue
		}
		m.deps.Recorder.RecordAlertFired()
		m.persistAndDispatch(ctx, ev)
	}

	return nil
}

func (m *Monitor) persistAndDispatch(ctx context.Context, ev alerting.FireEvent) {
	if m.deps.Events != nil {
		record := storage.AlertEventRecord{
			RuleID:       ev.RuleID,
			Recipient:    ev.Recipient,
			Threshold:    ev.Threshold,
			ObservedRate: ev.ObservedRate,
			FiredAt:      ev.At,
		}
		if _, err := m.deps.Events.InsertAlertEvent(ctx, record); err != nil {
			m.logger.Error().Err(err).Msg("failed to persist alert event")
		}
	}

	if err := m.dispatcher.Dispatch(ctx, ev); err != nil {
		// The episode stays FIRED; retrying would break at-most-once
		// delivery per crossing.
		m.deps.Recorder.RecordDispatchError()
		m.logger.Warn().Err(err).Str("rule_id", ev.RuleID.String()).Msg("alert delivery failed")
	}
}

// AnalyticsSnapshot recomputes the derived statistics for presentation.
func (m *Monitor) AnalyticsSnapshot() (analytics.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return analytics.Compute(m.series)
}

// Recommendation derives the current investment signal.
func (m *Monitor) Recommendation() (recommend.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := analytics.Compute(m.series)
	if err != nil {
		return recommend.Derive(snap.Trend7d, snap.Volatility), err
	}
	return recommend.Derive(snap.Trend7d, snap.Volatility), nil
}

// MarketInsights summarises recorded history.
func (m *Monitor) MarketInsights() (analytics.Insights, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return analytics.ComputeInsights(m.series)
}

// LatestRate returns the most recent observation.
func (m *Monitor) LatestRate() (series.Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.series.Latest()
}

// SaveRule validates and stores a rule, persists it, and resets its
// episode so the edit counts as a new one. Disabling drops episode state
// entirely.
func (m *Monitor) SaveRule(ctx context.Context, rule alerting.Rule) (alerting.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved, err := m.rules.Save(rule)
	if err != nil {
		return alerting.Rule{}, err
	}

	if saved.Enabled {
		m.evaluator.Reset(saved.ID)
	} else {
		m.evaluator.Drop(saved.ID)
	}

	if m.deps.RuleStore != nil {
		record := storage.AlertRuleRecord{
			ID:        saved.ID,
			Recipient: saved.Recipient,
			Threshold: saved.Threshold,
			Enabled:   saved.Enabled,
			UpdatedAt: saved.UpdatedAt,
		}
		if err := m.deps.RuleStore.SaveRule(ctx, record); err != nil {
			m.logger.Error().Err(err).Str("rule_id", saved.ID.String()).Msg("failed to persist rule")
		}
	}

	return saved, nil
}

// DeleteRule removes a rule and its episode state.
func (m *Monitor) DeleteRule(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.rules.Delete(id); err != nil {
		return err
	}
	m.evaluator.Drop(id)

	if m.deps.RuleStore != nil {
		if err := m.deps.RuleStore.DeleteRule(ctx, id); err != nil {
			m.logger.Error().Err(err).Str("rule_id", id.String()).Msg("failed to delete persisted rule")
		}
	}
	return nil
}

// GetRule returns a rule by identifier.
func (m *Monitor) GetRule(id uuid.UUID) (alerting.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rules.Get(id)
}

// RuleState reports a rule's episode state.
func (m *Monitor) RuleState(id uuid.UUID) (alerting.Rule, alerting.EpisodeState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule, err := m.rules.Get(id)
	if err != nil {
		return alerting.Rule{}, "", err
	}
	return rule, m.evaluator.State(id), nil
}

// ResetRule forces a rule's episode back to ARMED.
func (m *Monitor) ResetRule(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.rules.Get(id); err != nil {
		return err
	}
	m.evaluator.Reset(id)
	return nil
}

// CheckRule evaluates one rule against a caller-supplied current rate,
// dispatching on a crossing. Used by the alert service wire API.
func (m *Monitor) CheckRule(ctx context.Context, id uuid.UUID, observed decimal.Decimal) (alerting.EpisodeState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule, err := m.rules.Get(id)
	if err != nil {
		return "", false, err
	}

	ev, fired := m.evaluator.Evaluate(rule, observed, time.Now().UTC())
	if fired {
		m.deps.Recorder.RecordAlertFired()
		m.persistAndDispatch(ctx, ev)
	}
	return m.evaluator.State(id), fired, nil
}

func (m *Monitor) fetchCurrent(ctx context.Context) (series.Observation, string) {
	obs, err := m.deps.Source.FetchCurrent(ctx)
	if err == nil {
		return obs, SourceAPI
	}

	m.deps.Recorder.RecordSyntheticFallback()
	m.logger.Warn().Err(err).Msg("upstream fetch failed, falling back to synthetic data")

	obs, synthErr := m.deps.Fallback.FetchCurrent(ctx)
	if synthErr != nil {
		// The generator cannot fail today; keep the guard for the interface.
		m.logger.Error().Err(synthErr).Msg("synthetic source failed")
	}
	return obs, SourceSynthetic
}

func (m *Monitor) fetchHistory(ctx context.Context, historyDays int) ([]series.Observation, string, error) {
	if m.deps.History != nil {
		history, err := m.deps.History.FetchHistory(ctx, historyDays)
		if err == nil {
			return history, SourceAPI, nil
		}
		m.deps.Recorder.RecordSyntheticFallback()
		m.logger.Warn().Err(err).Msg("history fetch failed, falling back to synthetic data")
	}

	history, err := m.deps.Fallback.FetchHistory(ctx, historyDays)
	if err != nil {
		return nil, "", err
	}
	return history, SourceSynthetic, nil
}

func (m *Monitor) acquireLock(ctx context.Context) (func(), bool, error) {
	if m.deps.LockKey == 0 || m.deps.Locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := m.deps.Locker.TryAdvisoryLock(ctx, m.deps.LockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
