package service

import (
	"context"
	"time"

	"vigil/core"
	"vigil/metrics"
	"vigil/storage"

	"go.uber.org/zap"
)

// RuleMatcher is the slice of the detection engine the event pipeline needs.
type RuleMatcher interface {
	Match(event *core.Event) []core.Rule
	Rules() []core.Rule
}

// AlertDispatcher sends an alert over the channels its rule configures and
// returns the aggregate error (nil only when every channel succeeded).
type AlertDispatcher interface {
	Dispatch(ctx context.Context, alert *core.Alert, rule *core.Rule) error
}

// EngineService runs the event pipeline: validate, match against rules,
// persist one alert per matched rule, then dispatch notifications in the
// background.
type EngineService struct {
	matcher    RuleMatcher
	store      storage.AlertStore
	dispatcher AlertDispatcher
	bus        *AlertBus
	pool       *core.WorkerPool
	logger     *zap.SugaredLogger
}

func NewEngineService(matcher RuleMatcher, store storage.AlertStore, dispatcher AlertDispatcher,
	bus *AlertBus, pool *core.WorkerPool, logger *zap.SugaredLogger) *EngineService {
	return &EngineService{
		matcher:    matcher,
		store:      store,
		dispatcher: dispatcher,
		bus:        bus,
		pool:       pool,
		logger:     logger,
	}
}

// SubmitEvent runs an event through the rule engine and returns the alerts
// it created, in rule order. The returned alerts reflect creation time:
// dispatch runs asynchronously, so their status is pending. An invalid
// event yields a core.ValidationError and touches no state.
func (s *EngineService) SubmitEvent(ctx context.Context, event *core.Event) ([]*core.Alert, error) {
	start := time.Now()
	defer func() {
		metrics.EventProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	if err := event.Validate(); err != nil {
		metrics.EventsRejected.Inc()
		return nil, err
	}
	metrics.EventsIngested.WithLabelValues(event.Source).Inc()

	matched := s.matcher.Match(event)
	if len(matched) == 0 {
		s.logger.Debugw("Event matched no rules", "event_type", event.Type, "source", event.Source)
		return []*core.Alert{}, nil
	}

	alerts := make([]*core.Alert, 0, len(matched))
	for i := range matched {
		rule := matched[i]
		alert := core.NewAlert(&rule, event)

		if err := s.store.Insert(ctx, alert); err != nil {
			s.logger.Errorw("Failed to persist alert",
				"alert_id", alert.ID,
				"rule_id", rule.ID,
				"error", err)
			continue
		}

		metrics.AlertsGenerated.WithLabelValues(string(alert.Severity)).Inc()
		s.logger.Infow("Alert created",
			"alert_id", alert.ID,
			"rule_id", rule.ID,
			"rule_name", rule.Name,
			"severity", alert.Severity,
			"event_type", event.Type)

		alerts = append(alerts, alert)
		s.bus.Publish(alert)
		s.scheduleDispatch(alert, rule)
	}

	return alerts, nil
}

// scheduleDispatch hands the notification work to the pool; when the queue
// is saturated the dispatch runs inline so no alert is silently dropped.
func (s *EngineService) scheduleDispatch(alert *core.Alert, rule core.Rule) {
	task := func() {
		s.dispatchAlert(alert, rule)
	}

	if err := s.pool.Submit(task); err != nil {
		s.logger.Warnw("Dispatch queue full, running notification inline",
			"alert_id", alert.ID,
			"error", err)
		task()
	}
}

// dispatchAlert sends the notifications for one alert and records the
// coarse outcome: failed if any channel failed, sent otherwise (including
// when the rule configures no channels at all).
func (s *EngineService) dispatchAlert(alert *core.Alert, rule core.Rule) {
	ctx := context.Background()

	outcome := core.AlertStatusSent
	if err := s.dispatcher.Dispatch(ctx, alert, &rule); err != nil {
		outcome = core.AlertStatusFailed
		s.logger.Errorw("Alert notification failed",
			"alert_id", alert.ID,
			"rule_id", rule.ID,
			"error", err)
	}

	if err := s.store.SetDispatchOutcome(ctx, alert.ID, outcome); err != nil {
		// The alert was dismissed while notifications were in flight; the
		// outcome has nowhere to land.
		s.logger.Debugw("Dispatch outcome not recorded",
			"alert_id", alert.ID,
			"outcome", outcome,
			"error", err)
	}
}

// Rules returns the loaded rule set for the API to expose.
func (s *EngineService) Rules() []core.Rule {
	return s.matcher.Rules()
}
