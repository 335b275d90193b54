// Package pipeline coordinates one collection cycle end to end: trigger,
// page scan, relay round trip, and DOM update. It is the page-context side
// of the dispatcher; the relay runs on the background side.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-page-translator/internal/logger"
	"go-page-translator/internal/messaging"
	"go-page-translator/internal/observer"
	"go-page-translator/internal/scanner"
	"go-page-translator/internal/session"
	"go-page-translator/internal/updater"
)

// Result summarizes one settled cycle.
type Result struct {
	CycleID  string
	Scanned  int
	Replaced int
}

// Pipeline runs collection cycles against parsed documents.
type Pipeline struct {
	scanner       *scanner.Scanner
	updater       *updater.Updater
	dispatcher    *messaging.Dispatcher
	coordinator   *session.Coordinator
	events        observer.Subject
	resultTimeout time.Duration
}

// New creates a pipeline. resultTimeout bounds how long a cycle waits for
// the relay's REPLACE before settling empty.
func New(
	sc *scanner.Scanner,
	up *updater.Updater,
	dispatcher *messaging.Dispatcher,
	events observer.Subject,
	resultTimeout time.Duration,
) *Pipeline {
	return &Pipeline{
		scanner:       sc,
		updater:       up,
		dispatcher:    dispatcher,
		coordinator:   session.NewCoordinator(),
		events:        events,
		resultTimeout: resultTimeout,
	}
}

// Run executes one collection cycle over doc. A trigger that overlaps an
// in-flight cycle returns session.ErrCycleInProgress. Relay failures and
// timeouts are not errors; the cycle settles with zero replacements.
func (p *Pipeline) Run(ctx context.Context, doc *goquery.Document) (*Result, error) {
	start := time.Now()

	cycle, err := p.coordinator.Begin()
	if err != nil {
		if errors.Is(err, session.ErrCycleInProgress) {
			p.publish(ctx, observer.CycleEvent{
				EventType: observer.CycleRejected,
				Timestamp: start,
				Success:   false,
			})
		}
		return nil, err
	}
	defer p.coordinator.Finish(cycle)

	p.publish(ctx, observer.CycleEvent{
		EventType: observer.CycleStarted,
		Timestamp: start,
		CycleID:   cycle.ID,
		Success:   true,
	})
	p.dispatcher.SendToBackground(messaging.NewStart(cycle.ID))

	descriptors := p.scanner.Scan(ctx, doc, cycle)
	p.publish(ctx, observer.CycleEvent{
		EventType:  observer.ScanCompleted,
		Timestamp:  time.Now(),
		CycleID:    cycle.ID,
		ImageCount: len(descriptors),
		Success:    true,
	})

	result := &Result{CycleID: cycle.ID, Scanned: len(descriptors)}
	if len(descriptors) == 0 {
		p.publish(ctx, observer.CycleEvent{
			EventType: observer.CycleCompleted,
			Timestamp: time.Now(),
			CycleID:   cycle.ID,
			Duration:  time.Since(start),
			Success:   true,
		})
		return result, nil
	}

	cycle.SetState(session.StateAwaitingResponse)
	p.dispatcher.SendToBackground(messaging.NewFound(cycle.ID, descriptors))

	timer := time.NewTimer(p.resultTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.abandon(ctx, cycle, start, ctx.Err().Error())
			return result, ctx.Err()

		case <-timer.C:
			// Best-effort contract: no results means nothing happened.
			p.abandon(ctx, cycle, start, "timed out waiting for results")
			return result, nil

		case msg, ok := <-p.dispatcher.Page():
			if !ok {
				p.abandon(ctx, cycle, start, "dispatcher closed")
				return result, nil
			}

			switch msg.Tag {
			case messaging.TagReplace:
				if msg.CycleID != cycle.ID {
					// Results from an earlier, abandoned cycle; the stale
					// reference map is gone, so there is nothing to apply.
					logger.WithField("cycle_id", msg.CycleID).Warn("Dropping REPLACE for a settled cycle")
					continue
				}
				result.Replaced = p.updater.Apply(cycle, msg.Results)
				p.publish(ctx, observer.CycleEvent{
					EventType:  observer.CycleCompleted,
					Timestamp:  time.Now(),
					CycleID:    cycle.ID,
					ImageCount: result.Replaced,
					Duration:   time.Since(start),
					Success:    true,
				})
				return result, nil

			case messaging.TagStart, messaging.TagFound:
				logger.WithField("tag", msg.Tag.String()).Warn("Page context received message that only flows toward the background")

			default:
				logger.WithField("tag", msg.Tag.String()).Warn("Page context received message with unknown tag")
			}
		}
	}
}

func (p *Pipeline) abandon(ctx context.Context, cycle *session.Cycle, start time.Time, reason string) {
	p.publish(ctx, observer.CycleEvent{
		EventType:    observer.CycleAbandoned,
		Timestamp:    time.Now(),
		CycleID:      cycle.ID,
		Duration:     time.Since(start),
		Success:      false,
		ErrorMessage: reason,
	})
}

func (p *Pipeline) publish(ctx context.Context, event observer.CycleEvent) {
	if p.events != nil {
		p.events.NotifyObservers(ctx, event)
	}
}
