package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertRatePointSQL = `INSERT INTO rate_points (
        observed_at,
        rate,
        source
    ) VALUES (
        $1,$2,$3
    )
    ON CONFLICT (observed_at) DO UPDATE
    SET
        rate   = EXCLUDED.rate,
        source = EXCLUDED.source;`

	listPointsBetweenSQL = `SELECT
        observed_at,
        rate,
        source,
        created_at
    FROM rate_points
    WHERE observed_at >= $1
      AND observed_at < $2
    ORDER BY observed_at;`

	listRecentPointsSQL = `SELECT
        observed_at,
        rate,
        source,
        created_at
    FROM rate_points
    ORDER BY observed_at DESC
    LIMIT $1;`

	countPointsSQL = `SELECT COUNT(*) FROM rate_points;`

	upsertRuleSQL = `INSERT INTO alert_rules (
        id,
        recipient,
        threshold,
        enabled,
        updated_at
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    ON CONFLICT (id) DO UPDATE
    SET recipient  = EXCLUDED.recipient,
        threshold  = EXCLUDED.threshold,
        enabled    = EXCLUDED.enabled,
        updated_at = EXCLUDED.updated_at;`

	listRulesSQL = `SELECT
        id,
        recipient,
        threshold,
        enabled,
        updated_at
    FROM alert_rules
    ORDER BY recipient;`

	deleteRuleSQL = `DELETE FROM alert_rules WHERE id = $1;`

	insertAlertEventSQL = `INSERT INTO alert_events (
        rule_id,
        recipient,
        threshold,
        observed_rate,
        fired_at
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    RETURNING id, created_at;`

	listRecentAlertEventsSQL = `SELECT
        id,
        rule_id,
        recipient,
        threshold,
        observed_rate,
        fired_at,
        created_at
    FROM alert_events
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertEventsBeforeSQL = `DELETE FROM alert_events WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// RatePointStore defines operations for rate point persistence.
type RatePointStore interface {
	UpsertRatePoint(ctx context.Context, point RatePoint) error
	ListPointsBetween(ctx context.Context, from, to time.Time) ([]RatePoint, error)
	ListRecentPoints(ctx context.Context, limit int) ([]RatePoint, error)
	CountPoints(ctx context.Context) (int64, error)
}

// RuleStore defines the durable settings operations for alert rules.
type RuleStore interface {
	SaveRule(ctx context.Context, rule AlertRuleRecord) error
	LoadRules(ctx context.Context) ([]AlertRuleRecord, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
}

// AlertEventStore defines operations for alert auditing.
type AlertEventStore interface {
	InsertAlertEvent(ctx context.Context, event AlertEventRecord) (AlertEventRecord, error)
	ListRecentAlertEvents(ctx context.Context, limit int) ([]AlertEventRecord, error)
	DeleteAlertEventsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to rate points, rules, and alert events.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertRatePoint persists or refreshes a daily rate point.
func (s *Store) UpsertRatePoint(ctx context.Context, point RatePoint) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	if _, execErr := pool.Exec(ctx, upsertRatePointSQL,
		point.ObservedAt,
		point.Rate.String(),
		point.Source,
	); execErr != nil {
		return fmt.Errorf("upsert rate point: %w", execErr)
	}
	return nil
}

// ListPointsBetween lists points within a time window.
func (s *Store) ListPointsBetween(ctx context.Context, from, to time.Time) ([]RatePoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listPointsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list points between: %w", queryErr)
	}
	defer rows.Close()

	points := make([]RatePoint, 0)
	for rows.Next() {
		point, scanErr := scanRatePoint(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		points = append(points, point)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}

// ListRecentPoints lists the most recent points ordered by descending timestamp.
func (s *Store) ListRecentPoints(ctx context.Context, limit int) ([]RatePoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentPointsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent points: %w", queryErr)
	}
	defer rows.Close()

	points := make([]RatePoint, 0, limit)
	for rows.Next() {
		point, scanErr := scanRatePoint(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		points = append(points, point)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}

// CountPoints counts stored rate points.
func (s *Store) CountPoints(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countPointsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count points: %w", scanErr)
	}
	return count, nil
}

// SaveRule upserts a rule's durable settings.
func (s *Store) SaveRule(ctx context.Context, rule AlertRuleRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	if _, execErr := pool.Exec(ctx, upsertRuleSQL,
		rule.ID,
		rule.Recipient,
		rule.Threshold.String(),
		rule.Enabled,
		rule.UpdatedAt,
	); execErr != nil {
		return fmt.Errorf("save rule: %w", execErr)
	}
	return nil
}

// LoadRules returns all persisted rules.
func (s *Store) LoadRules(ctx context.Context) ([]AlertRuleRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRulesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("load rules: %w", queryErr)
	}
	defer rows.Close()

	rules := make([]AlertRuleRecord, 0)
	for rows.Next() {
		var rec AlertRuleRecord
		var thresholdStr string
		if err := rows.Scan(
			&rec.ID,
			&rec.Recipient,
			&thresholdStr,
			&rec.Enabled,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		rec.Threshold, convErr = decimal.NewFromString(thresholdStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse threshold: %w", convErr)
		}
		rules = append(rules, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return rules, nil
}

// DeleteRule removes a rule's durable settings.
func (s *Store) DeleteRule(ctx context.Context, id uuid.UUID) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteRuleSQL, id); execErr != nil {
		return fmt.Errorf("delete rule: %w", execErr)
	}
	return nil
}

// InsertAlertEvent persists an alert emission.
func (s *Store) InsertAlertEvent(ctx context.Context, event AlertEventRecord) (AlertEventRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertEventRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertEventSQL,
		event.RuleID,
		event.Recipient,
		event.Threshold.String(),
		event.ObservedRate.String(),
		event.FiredAt,
	)

	rec := event
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return AlertEventRecord{}, fmt.Errorf("insert alert event: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlertEvents lists most recent alert events.
func (s *Store) ListRecentAlertEvents(ctx context.Context, limit int) ([]AlertEventRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertEventsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alert events: %w", queryErr)
	}
	defer rows.Close()

	events := make([]AlertEventRecord, 0, limit)
	for rows.Next() {
		var rec AlertEventRecord
		var thresholdStr, observedStr string
		if err := rows.Scan(
			&rec.ID,
			&rec.RuleID,
			&rec.Recipient,
			&thresholdStr,
			&observedStr,
			&rec.FiredAt,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		rec.Threshold, convErr = decimal.NewFromString(thresholdStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse threshold: %w", convErr)
		}
		rec.ObservedRate, convErr = decimal.NewFromString(observedStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse observed rate: %w", convErr)
		}

		events = append(events, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

// DeleteAlertEventsBefore deletes historical alert events.
func (s *Store) DeleteAlertEventsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertEventsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alert events before: %w", execErr)
	}
	return nil
}

func scanRatePoint(rows pgx.Rows) (RatePoint, error) {
	var (
		observedAt time.Time
		rateStr    string
		source     string
		createdAt  time.Time
	)

	if err := rows.Scan(&observedAt, &rateStr, &source, &createdAt); err != nil {
		return RatePoint{}, err
	}

	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return RatePoint{}, fmt.Errorf("parse rate: %w", err)
	}

	return RatePoint{
		ObservedAt: observedAt,
		Rate:       rate,
		Source:     source,
		CreatedAt:  createdAt,
	}, nil
}
