package messaging

import (
	"sync"

	"github.com/sirupsen/logrus"

	"go-page-translator/internal/logger"
)

// Dispatcher is the in-process channel between the page context and the
// background relay. Each direction is a buffered channel; Close is safe to
// call once the page side is done triggering cycles.
type Dispatcher struct {
	toBackground chan Message
	toPage       chan Message
	closeOnce    sync.Once
}

// NewDispatcher creates a dispatcher with the given per-direction buffer.
func NewDispatcher(buffer int) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	return &Dispatcher{
		toBackground: make(chan Message, buffer),
		toPage:       make(chan Message, buffer),
	}
}

// SendToBackground delivers a message to the relay side.
func (d *Dispatcher) SendToBackground(msg Message) {
	logger.WithFields(logrus.Fields{
		"tag":      msg.Tag.String(),
		"cycle_id": msg.CycleID,
	}).Debug("Dispatching message to background")
	d.toBackground <- msg
}

// Background exposes the relay side's receive channel.
func (d *Dispatcher) Background() <-chan Message {
	return d.toBackground
}

// SendToPage delivers a message to the page context side.
func (d *Dispatcher) SendToPage(msg Message) {
	logger.WithFields(logrus.Fields{
		"tag":      msg.Tag.String(),
		"cycle_id": msg.CycleID,
	}).Debug("Dispatching message to page context")
	d.toPage <- msg
}

// Page exposes the page context's receive channel.
func (d *Dispatcher) Page() <-chan Message {
	return d.toPage
}

// Close shuts down the background direction so the relay loop can exit.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.toBackground)
	})
}
