package alerting

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Messenger is the messaging capability: deliver one text to one
// recipient contact handle.
type Messenger interface {
	SendMessage(ctx context.Context, recipient, text string) error
}

// Dispatcher delivers fired alerts. It invokes the messenger exactly once
// per FireEvent and never retries; the evaluator already guarantees at
// most one event per crossing episode, so a retry here could duplicate a
// user-visible notification.
type Dispatcher struct {
	messenger Messenger
	logger    zerolog.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(messenger Messenger, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		messenger: messenger,
		logger:    logger.With().Str("component", "alert_dispatcher").Logger(),
	}
}

// Dispatch renders the alert message and hands it to the messenger.
// Transport failures are reported upward as-is.
func (d *Dispatcher) Dispatch(ctx context.Context, ev FireEvent) error {
	if d.messenger == nil {
		return fmt.Errorf("dispatch alert: no messenger configured")
	}

	if err := d.messenger.SendMessage(ctx, ev.Recipient, RenderAlertText(ev)); err != nil {
		return fmt.Errorf("dispatch alert: %w", err)
	}

	d.logger.Info().
		Str("rule_id", ev.RuleID.String()).
		Str("threshold", ev.Threshold.String()).
		Msg("alert dispatched")
	return nil
}

// RenderAlertText builds the notification body. The template is
// recipient-agnostic; rates carry six fractional digits.
func RenderAlertText(ev FireEvent) string {
	b := strings.Builder{}
	b.WriteString("[GaruduaEye Alert]\n")
	b.WriteString(fmt.Sprintf("Rate reached %s (threshold %s)\n",
		ev.ObservedRate.StringFixed(6), ev.Threshold.StringFixed(6)))
	b.WriteString(fmt.Sprintf("Observed at: %s UTC\n", ev.At.UTC().Format("2006-01-02 15:04:05")))
	return b.String()
}
