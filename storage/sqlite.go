package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"vigil/core"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteAlertStore persists alerts in a SQLite database. It implements the
// same AlertStore contract as the in-memory store; the engine does not care
// which one it is handed.
type SQLiteAlertStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewSQLiteAlertStore opens (and if needed creates) the SQLite database at
// path and ensures the alerts schema exists. Pass ":memory:" for an
// ephemeral database in tests.
func NewSQLiteAlertStore(path string, logger *zap.SugaredLogger) (*SQLiteAlertStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Single writer; WAL lets reads proceed concurrently.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &SQLiteAlertStore{db: db, logger: logger}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Infow("SQLite alert store ready", "path", path)
	return store, nil
}

func (s *SQLiteAlertStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS alerts (
		id              TEXT PRIMARY KEY,
		rule_id         TEXT NOT NULL,
		rule_name       TEXT NOT NULL,
		severity        TEXT NOT NULL,
		status          TEXT NOT NULL,
		event           TEXT NOT NULL,
		timestamp       TIMESTAMP NOT NULL,
		acknowledged_at TIMESTAMP,
		acknowledged_by TEXT,
		dismissed_at    TIMESTAMP,
		dismissed_by    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_alerts_severity ON alerts(severity);
	CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create alerts schema: %w", err)
	}
	return nil
}

// Insert adds a newly created alert.
func (s *SQLiteAlertStore) Insert(ctx context.Context, alert *core.Alert) error {
	eventJSON, err := json.Marshal(alert.Event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, rule_id, rule_name, severity, status, event, timestamp,
			acknowledged_at, acknowledged_by, dismissed_at, dismissed_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.RuleID, alert.RuleName, string(alert.Severity), string(alert.Status),
		string(eventJSON), alert.Timestamp,
		alert.AcknowledgedAt, alert.AcknowledgedBy, alert.DismissedAt, alert.DismissedBy)
	if err != nil {
		return fmt.Errorf("failed to insert alert %s: %w", alert.ID, err)
	}
	return nil
}

// Get returns the alert with the given id, or ErrAlertNotFound.
func (s *SQLiteAlertStore) Get(ctx context.Context, id string) (*core.Alert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, rule_id, rule_name, severity, status, event, timestamp,
			acknowledged_at, acknowledged_by, dismissed_at, dismissed_by
		 FROM alerts WHERE id = ?`, id)
	return scanAlert(row)
}

// List returns alerts passing the filters, newest-first by timestamp.
func (s *SQLiteAlertStore) List(ctx context.Context, filters *core.AlertFilters) ([]*core.Alert, error) {
	query := `SELECT id, rule_id, rule_name, severity, status, event, timestamp,
		acknowledged_at, acknowledged_by, dismissed_at, dismissed_by
		FROM alerts WHERE 1=1`
	var args []any

	if filters != nil && filters.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(filters.Severity))
	}
	if filters != nil && filters.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filters.Status))
	}
	query += " ORDER BY timestamp DESC"
	if filters != nil && filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*core.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// Update replaces the stored alert identified by alert.ID.
func (s *SQLiteAlertStore) Update(ctx context.Context, alert *core.Alert) error {
	eventJSON, err := json.Marshal(alert.Event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET rule_id = ?, rule_name = ?, severity = ?, status = ?, event = ?,
			timestamp = ?, acknowledged_at = ?, acknowledged_by = ?, dismissed_at = ?, dismissed_by = ?
		 WHERE id = ?`,
		alert.RuleID, alert.RuleName, string(alert.Severity), string(alert.Status),
		string(eventJSON), alert.Timestamp,
		alert.AcknowledgedAt, alert.AcknowledgedBy, alert.DismissedAt, alert.DismissedBy,
		alert.ID)
	if err != nil {
		return fmt.Errorf("failed to update alert %s: %w", alert.ID, err)
	}
	return requireRowAffected(res)
}

// Remove deletes the alert from the active set.
func (s *SQLiteAlertStore) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert %s: %w", id, err)
	}
	return requireRowAffected(res)
}

// SetDispatchOutcome records the dispatch result with a conditional update:
// only a still-pending alert takes the outcome, so an acknowledge or
// dismiss that raced ahead is never overwritten.
func (s *SQLiteAlertStore) SetDispatchOutcome(ctx context.Context, id string, outcome core.AlertStatus) error {
	if outcome != core.AlertStatusSent && outcome != core.AlertStatusFailed {
		return ErrInvalidOutcome
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET status = ? WHERE id = ? AND status = ?`,
		string(outcome), id, string(core.AlertStatusPending))
	if err != nil {
		return fmt.Errorf("failed to record dispatch outcome for %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Either the alert moved past pending (stale outcome, dropped) or it is
	// gone entirely.
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM alerts WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrAlertNotFound
	}
	return err
}

// Count returns the number of alerts in the active set.
func (s *SQLiteAlertStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}

// Stats aggregates severity/status counts plus the most recent alerts.
func (s *SQLiteAlertStore) Stats(ctx context.Context, recent int) (*core.AlertStats, error) {
	stats := &core.AlertStats{
		BySeverity: make(map[core.Severity]int64),
		ByStatus:   make(map[core.AlertStatus]int64),
	}
	for _, severity := range core.Severities {
		stats.BySeverity[severity] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT severity, status, COUNT(*) FROM alerts GROUP BY severity, status`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate alerts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var severity, status string
		var count int64
		if err := rows.Scan(&severity, &status, &count); err != nil {
			return nil, err
		}
		stats.BySeverity[core.Severity(severity)] += count
		stats.ByStatus[core.AlertStatus(status)] += count
		stats.TotalAlerts += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	recentRows, err := s.db.QueryContext(ctx,
		`SELECT id, rule_name, severity, timestamp FROM alerts ORDER BY timestamp DESC LIMIT ?`, recent)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent alerts: %w", err)
	}
	defer recentRows.Close()

	for recentRows.Next() {
		var brief core.AlertBrief
		var severity string
		var ts time.Time
		if err := recentRows.Scan(&brief.ID, &brief.RuleName, &severity, &ts); err != nil {
			return nil, err
		}
		brief.Severity = core.Severity(severity)
		brief.Timestamp = ts.Format(time.RFC3339)
		stats.Recent = append(stats.Recent, brief)
	}

	return stats, recentRows.Err()
}

// Close releases the database connection.
func (s *SQLiteAlertStore) Close() error {
	return s.db.Close()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*core.Alert, error) {
	var alert core.Alert
	var severity, status, eventJSON string
	var ackBy, disBy sql.NullString
	var ackAt, disAt sql.NullTime

	err := row.Scan(&alert.ID, &alert.RuleID, &alert.RuleName, &severity, &status,
		&eventJSON, &alert.Timestamp, &ackAt, &ackBy, &disAt, &disBy)
	if err == sql.ErrNoRows {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}

	alert.Severity = core.Severity(severity)
	alert.Status = core.AlertStatus(status)
	if err := json.Unmarshal([]byte(eventJSON), &alert.Event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert event: %w", err)
	}
	if ackAt.Valid {
		t := ackAt.Time
		alert.AcknowledgedAt = &t
	}
	alert.AcknowledgedBy = ackBy.String
	if disAt.Valid {
		t := disAt.Time
		alert.DismissedAt = &t
	}
	alert.DismissedBy = disBy.String

	return &alert, nil
}

func requireRowAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlertNotFound
	}
	return nil
}
