// Package storage provides alert persistence for the Vigil alert engine:
// a volatile in-memory store and a SQLite-backed store behind one interface.
// The engine only assumes add/find/update/remove semantics; durability is
// the store's concern.
package storage

import (
	"context"

	"vigil/core"
)

// AlertStore defines the alert persistence operations the engine needs.
// Dismissed alerts are removed from the store entirely; a subsequent lookup
// by id reports ErrAlertNotFound.
type AlertStore interface {
	// Insert adds a newly created alert.
	Insert(ctx context.Context, alert *core.Alert) error
	// Get returns the alert with the given id, or ErrAlertNotFound.
	Get(ctx context.Context, id string) (*core.Alert, error)
	// List returns alerts passing the filters, newest-first by timestamp.
	List(ctx context.Context, filters *core.AlertFilters) ([]*core.Alert, error)
	// Update replaces the stored alert identified by alert.ID.
	Update(ctx context.Context, alert *core.Alert) error
	// Remove deletes the alert from the active set.
	Remove(ctx context.Context, id string) error
	// SetDispatchOutcome records the dispatch result (sent or failed) if and
	// only if the alert is still pending; a stale outcome for an alert that
	// was acknowledged or dismissed in the meantime is dropped silently.
	SetDispatchOutcome(ctx context.Context, id string, outcome core.AlertStatus) error
	// Count returns the number of alerts in the active set.
	Count(ctx context.Context) (int64, error)
	// Stats aggregates severity/status counts plus the most recent alerts.
	Stats(ctx context.Context, recent int) (*core.AlertStats, error)
	// Close releases store resources.
	Close() error
}
