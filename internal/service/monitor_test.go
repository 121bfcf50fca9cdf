package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aungthurhahein/GaruduaEye/internal/alerting"
	"github.com/aungthurhahein/GaruduaEye/internal/fetcher"
	"github.com/aungthurhahein/GaruduaEye/internal/recommend"
	"github.com/aungthurhahein/GaruduaEye/internal/series"
	"github.com/aungthurhahein/GaruduaEye/internal/storage"
)

type countingMessenger struct {
	calls int
	texts []string
}

func (c *countingMessenger) SendMessage(ctx context.Context, recipient, text string) error {
	c.calls++
	c.texts = append(c.texts, text)
	return nil
}

type capturingPointStore struct {
	points []storage.RatePoint
}

func (c *capturingPointStore) UpsertRatePoint(ctx context.Context, p storage.RatePoint) error {
	c.points = append(c.points, p)
	return nil
}
func (c *capturingPointStore) ListPointsBetween(ctx context.Context, from, to time.Time) ([]storage.RatePoint, error) {
	return nil, nil
}
func (c *capturingPointStore) ListRecentPoints(ctx context.Context, limit int) ([]storage.RatePoint, error) {
	return nil, nil
}
func (c *capturingPointStore) CountPoints(ctx context.Context) (int64, error) {
	return int64(len(c.points)), nil
}

type failingSource struct{}

func (failingSource) FetchCurrent(ctx context.Context) (series.Observation, error) {
	return series.Observation{}, errors.New("upstream down")
}

func day(n int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func obsOn(n int, rate string) series.Observation {
	return series.Observation{Timestamp: day(n), Rate: decimal.RequireFromString(rate)}
}

func newTestMonitor(messenger alerting.Messenger, points storage.RatePointStore) *Monitor {
	return NewMonitor(Deps{
		Source:    failingSource{},
		Fallback:  fetcher.NewSyntheticSource(7, 0.0270, 0.02),
		Points:    points,
		Messenger: messenger,
		AlertsOn:  true,
	}, zerolog.Nop())
}

func TestEndToEndCrossingScenario(t *testing.T) {
	messenger := &countingMessenger{}
	m := newTestMonitor(messenger, nil)
	ctx := context.Background()

	rule, err := m.SaveRule(ctx, alerting.Rule{
		Recipient: "123456789",
		Threshold: decimal.RequireFromString("0.0275"),
		Enabled:   true,
	})
	if err != nil {
		t.Fatalf("save rule failed: %v", err)
	}

	// Seven daily points rising from 0.0270 to 0.0278 (about +2.96%),
	// crossing the threshold between day 4 and day 5.
	rates := []string{"0.0270", "0.0271", "0.0272", "0.0274", "0.0274", "0.0276", "0.0278"}
	for i, r := range rates {
		if err := m.EvaluateAndMaybeDispatch(ctx, obsOn(i, r), SourceAPI); err != nil {
			t.Fatalf("cycle %d failed: %v", i, err)
		}
	}

	if messenger.calls != 1 {
		t.Fatalf("expected exactly one fire across the crossing, got %d", messenger.calls)
	}
	if _, state, _ := m.RuleState(rule.ID); state != alerting.StateFired {
		t.Fatalf("episode should be FIRED after the crossing, got %s", state)
	}

	rec, err := m.Recommendation()
	if err != nil {
		t.Fatalf("recommendation failed: %v", err)
	}
	if rec.Signal != recommend.SignalStrongBuy {
		t.Fatalf("rising low-volatility series should read STRONG_BUY, got %s", rec.Signal)
	}

	snap, err := m.AnalyticsSnapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap.Trend7d < 2.9 || snap.Trend7d > 3.0 {
		t.Fatalf("expected roughly +2.96%% trend, got %f", snap.Trend7d)
	}
	if snap.Volatility >= 2 {
		t.Fatalf("scenario volatility should stay under 2%%, got %f", snap.Volatility)
	}
}

func TestRuleEditResetsEpisode(t *testing.T) {
	messenger := &countingMessenger{}
	m := newTestMonitor(messenger, nil)
	ctx := context.Background()

	rule, err := m.SaveRule(ctx, alerting.Rule{
		Recipient: "123456789",
		Threshold: decimal.RequireFromString("0.0275"),
		Enabled:   true,
	})
	if err != nil {
		t.Fatalf("save rule failed: %v", err)
	}

	if err := m.EvaluateAndMaybeDispatch(ctx, obsOn(0, "0.0280"), SourceAPI); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if messenger.calls != 1 {
		t.Fatalf("expected first fire, got %d", messenger.calls)
	}

	// Editing the threshold counts as a new episode: the next evaluation
	// fires again even though the rate already satisfied it.
	rule.Threshold = decimal.RequireFromString("0.0278")
	if _, err := m.SaveRule(ctx, rule); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	if err := m.EvaluateAndMaybeDispatch(ctx, obsOn(1, "0.0281"), SourceAPI); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if messenger.calls != 2 {
		t.Fatalf("edited rule should fire again, got %d calls", messenger.calls)
	}
}

func TestCheckRuleWithSuppliedRate(t *testing.T) {
	messenger := &countingMessenger{}
	m := newTestMonitor(messenger, nil)
	ctx := context.Background()

	rule, err := m.SaveRule(ctx, alerting.Rule{
		Recipient: "123456789",
		Threshold: decimal.RequireFromString("0.0275"),
		Enabled:   true,
	})
	if err != nil {
		t.Fatalf("save rule failed: %v", err)
	}

	state, fired, err := m.CheckRule(ctx, rule.ID, decimal.RequireFromString("0.0276"))
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !fired || state != alerting.StateFired {
		t.Fatalf("expected fire on supplied crossing rate, fired=%v state=%s", fired, state)
	}
	if messenger.calls != 1 {
		t.Fatalf("check should dispatch once, got %d", messenger.calls)
	}

	if err := m.ResetRule(rule.ID); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if _, state, _ := m.RuleState(rule.ID); state != alerting.StateArmed {
		t.Fatalf("reset should re-arm, got %s", state)
	}
}

func TestRunCycleFallsBackToSynthetic(t *testing.T) {
	points := &capturingPointStore{}
	m := newTestMonitor(&countingMessenger{}, points)

	if err := m.RunCycle(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("cycle with failing upstream should still succeed: %v", err)
	}
	if len(points.points) != 1 {
		t.Fatalf("expected one persisted point, got %d", len(points.points))
	}
	if points.points[0].Source != SourceSynthetic {
		t.Fatalf("fallback data must be tagged synthetic, got %q", points.points[0].Source)
	}
}

func TestBootstrapSeedsSeriesFromFallback(t *testing.T) {
	m := newTestMonitor(&countingMessenger{}, nil)

	if err := m.Bootstrap(context.Background(), 30); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	ins, err := m.MarketInsights()
	if err != nil {
		t.Fatalf("insights after bootstrap failed: %v", err)
	}
	if ins.Current.IsZero() {
		t.Fatal("bootstrap should leave a latest rate in place")
	}
}

func TestDispatchFailureIsNonFatal(t *testing.T) {
	m := NewMonitor(Deps{
		Source:    failingSource{},
		Fallback:  fetcher.NewSyntheticSource(7, 0.0270, 0.02),
		Messenger: failingMessenger{},
		AlertsOn:  true,
	}, zerolog.Nop())
	ctx := context.Background()

	rule, err := m.SaveRule(ctx, alerting.Rule{
		Recipient: "123456789",
		Threshold: decimal.RequireFromString("0.0275"),
		Enabled:   true,
	})
	if err != nil {
		t.Fatalf("save rule failed: %v", err)
	}

	if err := m.EvaluateAndMaybeDispatch(ctx, obsOn(0, "0.0280"), SourceAPI); err != nil {
		t.Fatalf("delivery failure must not fail the cycle: %v", err)
	}

	// The episode stays FIRED: at-most-once forbids an automatic retry.
	if _, state, _ := m.RuleState(rule.ID); state != alerting.StateFired {
		t.Fatalf("episode should remain FIRED after failed delivery, got %s", state)
	}
}

type failingMessenger struct{}

func (failingMessenger) SendMessage(ctx context.Context, recipient, text string) error {
	return errors.New("provider unavailable")
}
