package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/aungthurhahein/GaruduaEye/internal/alerting"
)

type registerRuleRequest struct {
	Recipient string  `json:"recipient" validate:"required"`
	Threshold float64 `json:"threshold" validate:"required,gt=0"`
	Enabled   *bool   `json:"enabled"`
}

type checkRuleRequest struct {
	Rate float64 `json:"rate" validate:"required,gt=0"`
}

// RegisterRule creates or updates the rule for a recipient. Malformed
// payloads are rejected at the boundary before any state change.
func (s *Server) RegisterRule(c echo.Context) error {
	req := &registerRuleRequest{}
	if err := s.bind(c, req); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule, err := s.monitor.SaveRule(c.Request().Context(), alerting.Rule{
		Recipient: req.Recipient,
		Threshold: decimal.NewFromFloat(req.Threshold),
		Enabled:   enabled,
	})
	if err != nil {
		if errors.Is(err, alerting.ErrInvalidRule) {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		s.logger.Error().Err(err).Msg("register rule failed")
		return respondError(c, http.StatusInternalServerError, "internal error")
	}

	return respond(c, http.StatusOK, map[string]any{
		"id":        rule.ID.String(),
		"recipient": alerting.MaskRecipient(rule.Recipient),
		"threshold": rule.Threshold.InexactFloat64(),
		"enabled":   rule.Enabled,
	})
}

// RuleStatus reports a rule and its episode state with the recipient
// partially masked.
func (s *Server) RuleStatus(c echo.Context) error {
	id, err := parseRuleID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid rule id")
	}

	rule, state, err := s.monitor.RuleState(id)
	if err != nil {
		return s.ruleError(c, err)
	}

	return respond(c, http.StatusOK, map[string]any{
		"id":        rule.ID.String(),
		"recipient": alerting.MaskRecipient(rule.Recipient),
		"threshold": rule.Threshold.InexactFloat64(),
		"enabled":   rule.Enabled,
		"state":     string(state),
	})
}

// CheckRule evaluates the rule against a caller-supplied current rate.
func (s *Server) CheckRule(c echo.Context) error {
	id, err := parseRuleID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid rule id")
	}

	req := &checkRuleRequest{}
	if err := s.bind(c, req); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	state, fired, err := s.monitor.CheckRule(c.Request().Context(), id, decimal.NewFromFloat(req.Rate))
	if err != nil {
		return s.ruleError(c, err)
	}

	return respond(c, http.StatusOK, map[string]any{
		"fired": fired,
		"state": string(state),
	})
}

// ResetRule forces the rule's episode back to ARMED.
func (s *Server) ResetRule(c echo.Context) error {
	id, err := parseRuleID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid rule id")
	}

	if err := s.monitor.ResetRule(id); err != nil {
		return s.ruleError(c, err)
	}
	return respond(c, http.StatusOK, map[string]any{
		"state": string(alerting.StateArmed),
	})
}

// DeleteRule removes a rule.
func (s *Server) DeleteRule(c echo.Context) error {
	id, err := parseRuleID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid rule id")
	}

	if err := s.monitor.DeleteRule(c.Request().Context(), id); err != nil {
		return s.ruleError(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

// MarketStatus exposes the latest rate, analytics snapshot,
// recommendation, and insights for the presentation layer.
func (s *Server) MarketStatus(c echo.Context) error {
	latest, err := s.monitor.LatestRate()
	if err != nil {
		return respondError(c, http.StatusServiceUnavailable, "no observations recorded yet")
	}

	payload := map[string]any{
		"rate":        latest.Rate.InexactFloat64(),
		"observed_at": latest.Timestamp.UTC(),
	}

	// Analytics failures degrade to a partial payload instead of an
	// empty answer.
	if snap, err := s.monitor.AnalyticsSnapshot(); err == nil {
		payload["analytics"] = map[string]any{
			"trend_7d":      snap.Trend7d,
			"trend_30d":     snap.Trend30d,
			"volatility":    snap.Volatility,
			"projection_7d": snap.Projection7d,
		}
	}
	if rec, err := s.monitor.Recommendation(); err == nil {
		payload["recommendation"] = map[string]any{
			"signal": string(rec.Signal),
			"risk":   string(rec.Risk),
		}
	}
	if ins, err := s.monitor.MarketInsights(); err == nil {
		payload["insights"] = map[string]any{
			"high":           ins.High.InexactFloat64(),
			"low":            ins.Low.InexactFloat64(),
			"average":        ins.Average.InexactFloat64(),
			"vs_average_pct": ins.VsAveragePct,
		}
	}

	return respond(c, http.StatusOK, payload)
}

func (s *Server) bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.New("malformed request body")
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New("invalid field: " + verrs[0].Field())
		}
		return errors.New("invalid request")
	}
	return nil
}

func (s *Server) ruleError(c echo.Context, err error) error {
	if errors.Is(err, alerting.ErrRuleNotFound) {
		return respondError(c, http.StatusNotFound, "rule not found")
	}
	s.logger.Error().Err(err).Msg("rule operation failed")
	return respondError(c, http.StatusInternalServerError, "internal error")
}

func parseRuleID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}
