package alerting

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidRule indicates a malformed rule rejected before any state change.
var ErrInvalidRule = errors.New("alerting: invalid rule")

// ErrRuleNotFound indicates an unknown rule identifier.
var ErrRuleNotFound = errors.New("alerting: rule not found")

// Rule is one recipient's threshold alert configuration. The ID is the
// stable identity; recipient and threshold are mutable on it.
type Rule struct {
	ID        uuid.UUID
	Recipient string
	Threshold decimal.Decimal
	Enabled   bool
	UpdatedAt time.Time
}

// Validate rejects rules that must not reach the store.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidRule)
	}
	if !r.Threshold.IsPositive() {
		return fmt.Errorf("%w: threshold must be positive", ErrInvalidRule)
	}
	return nil
}

// MaskRecipient hides the middle of a contact handle for read-back paths.
func MaskRecipient(recipient string) string {
	runes := []rune(recipient)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
