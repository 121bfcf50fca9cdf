package alerting

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EpisodeState tracks where a rule sits in its arm/fire cycle.
type EpisodeState string

const (
	// StateArmed means the rate was last seen below the threshold; the
	// next crossing fires.
	StateArmed EpisodeState = "ARMED"
	// StateFired means the rule already fired for the current crossing
	// and stays silent until the rate drops back below the threshold.
	StateFired EpisodeState = "FIRED"
)

// FireEvent is emitted exactly once per threshold-crossing episode.
type FireEvent struct {
	RuleID       uuid.UUID
	Recipient    string
	Threshold    decimal.Decimal
	ObservedRate decimal.Decimal
	At           time.Time
}

// Evaluator is the stateful threshold-crossing detector. Episodes are
// created lazily on the first evaluation of an enabled rule and dropped
// when the rule goes away.
type Evaluator struct {
	mu       sync.Mutex
	episodes map[uuid.UUID]EpisodeState
	logger   zerolog.Logger
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		episodes: make(map[uuid.UUID]EpisodeState),
		logger:   logger.With().Str("component", "alert_evaluator").Logger(),
	}
}

// Evaluate runs one rule against an observed rate. It returns a FireEvent
// only on the ARMED to FIRED transition; a rule that stays at or above
// its threshold does not fire again until it re-arms below it. Disabled
// rules are skipped without touching episode state.
func (e *Evaluator) Evaluate(rule Rule, observed decimal.Decimal, at time.Time) (FireEvent, bool) {
	if !rule.Enabled {
		return FireEvent{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.episodes[rule.ID]
	if !ok {
		state = StateArmed
	}

	crossed := observed.GreaterThanOrEqual(rule.Threshold)

	switch {
	case state == StateArmed && crossed:
		e.episodes[rule.ID] = StateFired
		e.logger.Info().
			Str("rule_id", rule.ID.String()).
			Str("threshold", rule.Threshold.String()).
			Str("observed", observed.String()).
			Msg("threshold crossed, episode fired")
		return FireEvent{
			RuleID:       rule.ID,
			Recipient:    rule.Recipient,
			Threshold:    rule.Threshold,
			ObservedRate: observed,
			At:           at,
		}, true
	case state == StateFired && !crossed:
		e.episodes[rule.ID] = StateArmed
		e.logger.Debug().Str("rule_id", rule.ID.String()).Msg("rate back below threshold, episode re-armed")
	default:
		e.episodes[rule.ID] = state
	}

	return FireEvent{}, false
}

// Reset forces a rule back to ARMED. Called on any rule edit or on a
// disable/re-enable so the change counts as a new episode.
func (e *Evaluator) Reset(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.episodes[id] = StateArmed
}

// Drop discards episode state for a deleted or disabled rule.
func (e *Evaluator) Drop(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.episodes, id)
}

// State reports a rule's current episode state, defaulting to ARMED for
// rules not yet evaluated.
func (e *Evaluator) State(id uuid.UUID) EpisodeState {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.episodes[id]
	if !ok {
		return StateArmed
	}
	return state
}
