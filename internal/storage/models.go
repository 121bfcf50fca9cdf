package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RatePoint is one persisted daily observation of the monitored pair.
// Source records where the value came from; synthetic fallback data is
// tagged "synthetic" so it is never mistaken for real data later.
type RatePoint struct {
	ObservedAt time.Time
	Rate       decimal.Decimal
	Source     string
	CreatedAt  time.Time
}

// AlertRuleRecord is the durable form of an alert rule.
type AlertRuleRecord struct {
	ID        uuid.UUID
	Recipient string
	Threshold decimal.Decimal
	Enabled   bool
	UpdatedAt time.Time
}

// AlertEventRecord captures an emitted fire event for auditing.
type AlertEventRecord struct {
	ID           int64
	RuleID       uuid.UUID
	Recipient    string
	Threshold    decimal.Decimal
	ObservedRate decimal.Decimal
	FiredAt      time.Time
	CreatedAt    time.Time
}
