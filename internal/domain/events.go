package domain

import "time"

// DomainEvent represents a significant occurrence during a run.
type DomainEvent interface {
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
	// EventType returns the type of event.
	EventType() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	occurredAt time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

// NewBaseEvent creates a new base event with current timestamp.
func NewBaseEvent() BaseEvent {
	return BaseEvent{occurredAt: time.Now()}
}

// CoverageEvaluatedEvent is raised once the current metric has been compared.
type CoverageEvaluatedEvent struct {
	BaseEvent
	AverageRate   float64
	Succeeded     bool
	HasBaseline   bool
	DecreaseCount int
}

// EventType returns the event type identifier.
func (e CoverageEvaluatedEvent) EventType() string {
	return "CoverageEvaluated"
}

// NewCoverageEvaluatedEvent creates a new CoverageEvaluatedEvent.
func NewCoverageEvaluatedEvent(metric Metric, result ComparisonResult) CoverageEvaluatedEvent {
	return CoverageEvaluatedEvent{
		BaseEvent:     NewBaseEvent(),
		AverageRate:   metric.AverageRate,
		Succeeded:     result.Succeeded,
		HasBaseline:   result.HasBaseline,
		DecreaseCount: len(result.Decreases),
	}
}

// CoverageRegressedEvent is raised for every category whose rate dropped.
type CoverageRegressedEvent struct {
	BaseEvent
	Category Category
	Previous float64
	Current  float64
	Delta    float64
}

// EventType returns the event type identifier.
func (e CoverageRegressedEvent) EventType() string {
	return "CoverageRegressed"
}

// NewCoverageRegressedEvent creates a new CoverageRegressedEvent.
func NewCoverageRegressedEvent(d Decrease) CoverageRegressedEvent {
	return CoverageRegressedEvent{
		BaseEvent: NewBaseEvent(),
		Category:  d.Category,
		Previous:  d.Baseline,
		Current:   d.Current,
		Delta:     d.Delta,
	}
}

// CommentsReconciledEvent is raised after a reconcile plan has been applied.
type CommentsReconciledEvent struct {
	BaseEvent
	Strategy  Strategy
	Deleted   int
	UpdatedID int64
	CreatedID int64
}

// EventType returns the event type identifier.
func (e CommentsReconciledEvent) EventType() string {
	return "CommentsReconciled"
}

// NewCommentsReconciledEvent creates a new CommentsReconciledEvent.
func NewCommentsReconciledEvent(plan ReconcilePlan, createdID int64) CommentsReconciledEvent {
	return CommentsReconciledEvent{
		BaseEvent: NewBaseEvent(),
		Strategy:  plan.Strategy,
		Deleted:   len(plan.Deletes),
		UpdatedID: plan.UpdateID,
		CreatedID: createdID,
	}
}

// EventCollector collects domain events for later publishing.
type EventCollector struct {
	events []DomainEvent
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]DomainEvent, 0),
	}
}

// Record adds an event to the collector.
func (c *EventCollector) Record(event DomainEvent) {
	c.events = append(c.events, event)
}

// Events returns all collected events.
func (c *EventCollector) Events() []DomainEvent {
	return c.events
}

// HasEvents returns true if there are any collected events.
func (c *EventCollector) HasEvents() bool {
	return len(c.events) > 0
}
