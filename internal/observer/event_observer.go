package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CycleEvent represents one step of a collection cycle
type CycleEvent struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	CycleID      string                 `json:"cycle_id"`
	ImageCount   int                    `json:"image_count"`
	Duration     time.Duration          `json:"duration"`
	Success      bool                   `json:"success"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of cycle event
type EventType string

const (
	// CycleStarted when a trigger is accepted
	CycleStarted EventType = "cycle_started"
	// CycleRejected when a trigger overlaps an in-flight cycle
	CycleRejected EventType = "cycle_rejected"
	// ScanCompleted when the page scan finishes
	ScanCompleted EventType = "scan_completed"
	// CycleCompleted when results have been applied (or the cycle settled empty)
	CycleCompleted EventType = "cycle_completed"
	// CycleAbandoned when no results came back before the deadline
	CycleAbandoned EventType = "cycle_abandoned"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event CycleEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event CycleEvent)
}

// LoggingObserver logs cycle events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles cycle events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event CycleEvent) {
	fields := logrus.Fields{
		"event_type":  event.EventType,
		"cycle_id":    event.CycleID,
		"image_count": event.ImageCount,
		"duration":    event.Duration,
		"success":     event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	if event.Metadata != nil {
		for k, v := range event.Metadata {
			fields[k] = v
		}
	}

	switch event.EventType {
	case CycleStarted:
		o.logger.WithFields(fields).Info("Collection cycle started")
	case CycleRejected:
		o.logger.WithFields(fields).Warn("Collection cycle rejected")
	case ScanCompleted:
		o.logger.WithFields(fields).Info("Page scan completed")
	case CycleCompleted:
		o.logger.WithFields(fields).Info("Collection cycle completed")
	case CycleAbandoned:
		o.logger.WithFields(fields).Warn("Collection cycle abandoned without results")
	default:
		o.logger.WithFields(fields).Info("Cycle event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects metrics from cycle events
type MetricsObserver struct {
	mu              sync.RWMutex
	totalCycles     int64
	rejectedCycles  int64
	abandonedCycles int64
	imagesCollected int64
	totalDuration   time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() Observer {
	return &MetricsObserver{}
}

// OnEvent handles cycle events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event CycleEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case CycleStarted:
		o.totalCycles++
	case CycleRejected:
		o.rejectedCycles++
	case ScanCompleted:
		o.imagesCollected += int64(event.ImageCount)
	case CycleCompleted:
		o.totalDuration += event.Duration
	case CycleAbandoned:
		o.abandonedCycles++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return map[string]interface{}{
		"total_cycles":     o.totalCycles,
		"rejected_cycles":  o.rejectedCycles,
		"abandoned_cycles": o.abandonedCycles,
		"images_collected": o.imagesCollected,
		"total_duration":   o.totalDuration,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event CycleEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Notify observers concurrently
	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
