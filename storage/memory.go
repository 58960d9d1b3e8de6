package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"vigil/core"
)

// MemoryAlertStore is a volatile in-memory alert store. A single RWMutex
// guards the whole set; acknowledge/dismiss races on the same id serialize
// on it, which is sufficient at expected alert volumes.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts map[string]*core.Alert
}

// NewMemoryAlertStore creates an empty in-memory alert store.
func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{
		alerts: make(map[string]*core.Alert),
	}
}

// Insert adds a newly created alert.
func (s *MemoryAlertStore) Insert(ctx context.Context, alert *core.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.alerts[alert.ID]; exists {
		return ErrDuplicateAlert
	}

	stored := *alert
	s.alerts[alert.ID] = &stored
	return nil
}

// Get returns a copy of the alert with the given id.
func (s *MemoryAlertStore) Get(ctx context.Context, id string) (*core.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, exists := s.alerts[id]
	if !exists {
		return nil, ErrAlertNotFound
	}

	copied := *alert
	return &copied, nil
}

// List returns alerts passing the filters, newest-first by timestamp.
func (s *MemoryAlertStore) List(ctx context.Context, filters *core.AlertFilters) ([]*core.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	result := make([]*core.Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if filters.Matches(alert) {
			copied := *alert
			result = append(result, &copied)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if filters != nil && filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}

	return result, nil
}

// Update replaces the stored alert identified by alert.ID.
func (s *MemoryAlertStore) Update(ctx context.Context, alert *core.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.alerts[alert.ID]; !exists {
		return ErrAlertNotFound
	}

	stored := *alert
	s.alerts[alert.ID] = &stored
	return nil
}

// Remove deletes the alert from the active set.
func (s *MemoryAlertStore) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.alerts[id]; !exists {
		return ErrAlertNotFound
	}

	delete(s.alerts, id)
	return nil
}

// SetDispatchOutcome records the dispatch result while the alert is still
// pending. An alert acknowledged or dismissed before dispatch completed
// keeps its state; a removed alert reports ErrAlertNotFound.
func (s *MemoryAlertStore) SetDispatchOutcome(ctx context.Context, id string, outcome core.AlertStatus) error {
	if outcome != core.AlertStatusSent && outcome != core.AlertStatusFailed {
		return ErrInvalidOutcome
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	alert, exists := s.alerts[id]
	if !exists {
		return ErrAlertNotFound
	}

	if alert.Status != core.AlertStatusPending {
		return nil
	}

	alert.Status = outcome
	return nil
}

// Count returns the number of alerts in the active set.
func (s *MemoryAlertStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.alerts)), nil
}

// Stats aggregates severity/status counts plus the most recent alerts.
func (s *MemoryAlertStore) Stats(ctx context.Context, recent int) (*core.AlertStats, error) {
	alerts, err := s.List(ctx, &core.AlertFilters{})
	if err != nil {
		return nil, err
	}

	stats := &core.AlertStats{
		TotalAlerts: int64(len(alerts)),
		BySeverity:  make(map[core.Severity]int64),
		ByStatus:    make(map[core.AlertStatus]int64),
	}
	for _, severity := range core.Severities {
		stats.BySeverity[severity] = 0
	}

	for _, alert := range alerts {
		stats.BySeverity[alert.Severity]++
		stats.ByStatus[alert.Status]++
	}

	for i, alert := range alerts {
		if i >= recent {
			break
		}
		stats.Recent = append(stats.Recent, core.AlertBrief{
			ID:        alert.ID,
			RuleName:  alert.RuleName,
			Severity:  alert.Severity,
			Timestamp: alert.Timestamp.Format(time.RFC3339),
		})
	}

	return stats, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryAlertStore) Close() error {
	return nil
}
