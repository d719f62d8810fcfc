package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/perkforge/loyalty-engine/internal/domain"
	"github.com/perkforge/loyalty-engine/internal/effects"
	"github.com/perkforge/loyalty-engine/internal/metrics"
	"github.com/perkforge/loyalty-engine/internal/progression"
	"github.com/perkforge/loyalty-engine/internal/repository"
	"github.com/perkforge/loyalty-engine/internal/rules"
)

// Handler is a secondary event handler. Handlers run after the primary
// dispatch in registration order; a failing handler never fails the event.
type Handler interface {
	Name() string
	Handle(ctx context.Context, event *domain.Event) error
}

// Dispatcher persists each event, runs the primary dispatch (rule matching,
// effect execution, progression) and fans out to the secondary handlers,
// then records the terminal status.
type Dispatcher struct {
	events      repository.EventRepository
	engine      *rules.Engine
	executor    *effects.Executor
	progression *progression.Evaluator
	handlers    []Handler
	log         *zap.Logger
}

// NewDispatcher creates a dispatcher. The handler slice order is the fan-out
// order.
func NewDispatcher(
	events repository.EventRepository,
	engine *rules.Engine,
	executor *effects.Executor,
	progression *progression.Evaluator,
	handlers []Handler,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		events:      events,
		engine:      engine,
		executor:    executor,
		progression: progression,
		handlers:    handlers,
		log:         log,
	}
}

// Process handles one bus message end to end. It returns an error only when
// the event could not be persisted; every later failure is recorded on the
// persisted row and the message is still acknowledged, so the bus never
// redelivers an event the store already owns.
func (d *Dispatcher) Process(ctx context.Context, msg *domain.RawEventMessage) error {
	event, republished := eventFromMessage(msg)

	// A republished message references a row the store already owns. A second
	// insert would strand the original row in pending forever.
	if !republished {
		if err := d.events.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to persist event: %w", err)
		}
	}

	if err := d.runPrimary(ctx, event); err != nil {
		d.log.Error("Primary dispatch failed",
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", event.EventType),
			zap.Error(err))
		metrics.EventsFailed.Inc()
		if markErr := d.events.MarkAsFailed(ctx, event.ID, err.Error()); markErr != nil {
			d.log.Error("Failed to mark event as failed",
				zap.String("event_id", event.ID.String()),
				zap.Error(markErr))
		}
		return nil
	}

	d.runHandlers(ctx, event)

	if err := d.events.MarkAsProcessed(ctx, event.ID); err != nil {
		d.log.Error("Failed to mark event as processed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
		return nil
	}
	metrics.EventsProcessed.Inc()

	return nil
}

// runPrimary evaluates campaign rules, executes matched effects and runs the
// progression evaluator for qualifying event types.
func (d *Dispatcher) runPrimary(ctx context.Context, event *domain.Event) error {
	matches, err := d.engine.Evaluate(ctx, event)
	if err != nil {
		return fmt.Errorf("rule evaluation failed: %w", err)
	}

	if len(matches) > 0 {
		state := cartContext(event)

		// All matched effects run through a single fold so the cumulative
		// discount cap spans the whole event, not one rule at a time.
		combined := make([]domain.Effect, 0, len(matches))
		ruleIDs := make([]string, 0, len(matches))
		for _, match := range matches {
			combined = append(combined, match.Effects...)
			ruleIDs = append(ruleIDs, match.RuleID.String())
		}

		result := d.executor.Execute(ctx, state, combined)
		for _, applied := range result.Applied {
			metrics.EffectsApplied.WithLabelValues(applied.Type).Inc()
		}
		d.log.Info("Rule effects executed",
			zap.String("event_id", event.ID.String()),
			zap.Strings("rule_ids", ruleIDs),
			zap.Int("applied_count", len(result.Applied)),
			zap.Int64("total_discount", result.TotalDiscount),
			zap.Int64("final_total", result.FinalTotal))
	}

	if d.progression != nil && d.progression.Qualifies(event.EventType) {
		if err := d.progression.HandleEvent(ctx, event); err != nil {
			return fmt.Errorf("progression evaluation failed: %w", err)
		}
	}

	return nil
}

// runHandlers fans out to the secondary handlers in order, recovering each
// failure independently.
func (d *Dispatcher) runHandlers(ctx context.Context, event *domain.Event) {
	for _, handler := range d.handlers {
		if err := handler.Handle(ctx, event); err != nil {
			metrics.HandlerFailures.WithLabelValues(handler.Name()).Inc()
			d.log.Warn("Secondary handler failed",
				zap.String("handler", handler.Name()),
				zap.String("event_id", event.ID.String()),
				zap.Error(err))
		}
	}
}

// eventFromMessage builds the pending row for a bus message. The returned
// flag is true when the message carries the id of an existing row, in which
// case the caller must not insert again.
func eventFromMessage(msg *domain.RawEventMessage) (*domain.Event, bool) {
	id := uuid.New()
	republished := false
	if msg.EventID != "" {
		if parsed, err := uuid.Parse(msg.EventID); err == nil {
			id = parsed
			republished = true
		}
	}
	return &domain.Event{
		ID:         id,
		ProjectID:  msg.ProjectID,
		UserID:     msg.UserID,
		EventType:  msg.Event,
		Properties: datatypes.JSONMap(msg.Properties),
		Timestamp:  time.Unix(msg.Timestamp, 0),
		ReceivedAt: time.Unix(msg.ReceivedAt, 0),
		Status:     domain.EventStatusPending,
	}, republished
}

// cartContext builds the executor's mutable state from the event payload.
func cartContext(event *domain.Event) *effects.Context {
	state := &effects.Context{
		ProjectID: event.ProjectID,
		UserID:    event.UserID,
		Currency:  "USD",
	}

	props := event.Properties
	if props == nil {
		return state
	}

	if currency, ok := props["currency"].(string); ok && currency != "" {
		state.Currency = currency
	}
	if shipping, ok := toInt64(props["shippingCents"]); ok {
		state.ShippingCents = shipping
	}
	if rawItems, ok := props["items"]; ok {
		if encoded, err := json.Marshal(rawItems); err == nil {
			var items []effects.LineItem
			if err := json.Unmarshal(encoded, &items); err == nil {
				state.Items = items
			}
		}
	}

	return state
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
