package service

import (
	"context"
	"fmt"

	"vigil/core"
	"vigil/storage"

	"go.uber.org/zap"
)

// AlertService exposes alert queries and lifecycle transitions over the
// store. Transition rules live on core.Alert; this layer adds persistence
// and the dismissal removal semantics.
type AlertService struct {
	store  storage.AlertStore
	logger *zap.SugaredLogger
}

func NewAlertService(store storage.AlertStore, logger *zap.SugaredLogger) *AlertService {
	return &AlertService{store: store, logger: logger}
}

// List returns alerts matching the filters, newest first.
func (s *AlertService) List(ctx context.Context, filters *core.AlertFilters) ([]*core.Alert, error) {
	return s.store.List(ctx, filters)
}

// Get returns a single alert by id.
func (s *AlertService) Get(ctx context.Context, id string) (*core.Alert, error) {
	return s.store.Get(ctx, id)
}

// Stats aggregates counts by severity and status plus the most recent alerts.
func (s *AlertService) Stats(ctx context.Context, recent int) (*core.AlertStats, error) {
	return s.store.Stats(ctx, recent)
}

// Acknowledge transitions the alert to acknowledged and records who did it.
// Returns storage.ErrAlertNotFound for unknown or dismissed alerts and a
// transition error when the alert is already acknowledged.
func (s *AlertService) Acknowledge(ctx context.Context, id, by string) (*core.Alert, error) {
	alert, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := alert.Acknowledge(by); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist acknowledgement for %s: %w", id, err)
	}

	s.logger.Infow("Alert acknowledged", "alert_id", id, "by", alert.AcknowledgedBy)
	return alert, nil
}

// Dismiss transitions the alert to dismissed, removes it from the active
// set, and returns the final record. A second dismiss of the same id
// reports storage.ErrAlertNotFound.
func (s *AlertService) Dismiss(ctx context.Context, id, by string) (*core.Alert, error) {
	alert, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := alert.Dismiss(by); err != nil {
		return nil, err
	}

	if err := s.store.Remove(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to remove dismissed alert %s: %w", id, err)
	}

	s.logger.Infow("Alert dismissed", "alert_id", id, "by", alert.DismissedBy)
	return alert, nil
}
