// Package relay implements the background half of a collection cycle: it
// receives FOUND messages from the page context, forwards the collected
// images to the processing endpoint, and relays the results back as a
// REPLACE message. The bridge is best-effort; any failure is logged and
// swallowed, and the cycle simply produces no replacements.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"go-page-translator/internal/logger"
	"go-page-translator/internal/messaging"
	"go-page-translator/pkg/models"
)

// Relay posts descriptor batches to the processing endpoint.
type Relay struct {
	endpoint   string
	timeout    time.Duration
	client     *http.Client
	dispatcher *messaging.Dispatcher
}

// New creates a relay targeting the given processing endpoint. timeout
// bounds each outbound request; without it a stalled endpoint would block
// the relay loop indefinitely.
func New(endpoint string, timeout time.Duration, dispatcher *messaging.Dispatcher) *Relay {
	return &Relay{
		endpoint: endpoint,
		timeout:  timeout,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        2,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		dispatcher: dispatcher,
	}
}

// Run consumes background messages until the dispatcher closes or the
// context is cancelled. It is meant to run on its own goroutine.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-r.dispatcher.Background():
			if !ok {
				return
			}
			r.handle(ctx, msg)
		}
	}
}

func (r *Relay) handle(ctx context.Context, msg messaging.Message) {
	switch msg.Tag {
	case messaging.TagStart:
		// Nothing for the background side to do; the page context owns
		// the scan.
		logger.WithField("cycle_id", msg.CycleID).Debug("Relay observed cycle start")
	case messaging.TagFound:
		r.forward(ctx, msg)
	case messaging.TagReplace:
		logger.WithField("cycle_id", msg.CycleID).Warn("Relay received REPLACE, which only flows toward the page")
	default:
		logger.WithField("tag", msg.Tag.String()).Warn("Relay received message with unknown tag")
	}
}

// forward issues the one outbound request of a cycle and relays the parsed
// results back to the page context. An empty image sequence makes no
// network call.
func (r *Relay) forward(ctx context.Context, msg messaging.Message) {
	if len(msg.Images) == 0 {
		logger.WithField("cycle_id", msg.CycleID).Debug("No images collected, skipping processing request")
		return
	}

	results, err := r.post(ctx, msg.Images)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"cycle_id": msg.CycleID,
			"endpoint": r.endpoint,
			"images":   len(msg.Images),
		}).Error("Processing request failed, dropping cycle results")
		return
	}

	logger.WithFields(logrus.Fields{
		"cycle_id": msg.CycleID,
		"sent":     len(msg.Images),
		"received": len(results),
	}).Info("Processing results relayed back to page context")

	r.dispatcher.SendToPage(messaging.NewReplace(msg.CycleID, results))
}

func (r *Relay) post(ctx context.Context, images []models.ImageDescriptor) ([]models.ProcessedResult, error) {
	body, err := json.Marshal(models.ProcessRequest{Images: images})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var results []models.ProcessedResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return results, nil
}
