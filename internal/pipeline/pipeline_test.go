package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-page-translator/internal/messaging"
	"go-page-translator/internal/relay"
	"go-page-translator/internal/scanner"
	"go-page-translator/internal/session"
	"go-page-translator/internal/updater"
	"go-page-translator/pkg/models"
)

type stubFetcher struct {
	images map[string][]byte
}

func (f *stubFetcher) FetchImage(ctx context.Context, src string) ([]byte, string, error) {
	data, ok := f.images[src]
	if !ok {
		return nil, "", fmt.Errorf("no such image: %s", src)
	}
	return data, "image/png", nil
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse test document: %v", err)
	}
	return doc
}

// newPipeline wires a pipeline and a live relay loop against the given
// processing endpoint.
func newPipeline(t *testing.T, fetcher *stubFetcher, endpoint string, resultTimeout time.Duration) (*Pipeline, func()) {
	t.Helper()
	dispatcher := messaging.NewDispatcher(2)
	r := relay.New(endpoint, time.Second, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)

	p := New(
		scanner.New(fetcher, 50, time.Second),
		updater.New(),
		dispatcher,
		nil,
		resultTimeout,
	)
	return p, func() {
		cancel()
		dispatcher.Close()
	}
}

func TestRun_FullCycle(t *testing.T) {
	fetcher := &stubFetcher{images: map[string][]byte{
		"http://example.com/a.png": encodePNG(t, 100, 100),
		"http://example.com/b.png": encodePNG(t, 30, 30),
		"http://example.com/c.png": encodePNG(t, 60, 60),
	}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		// Translate only the first collected image.
		translated := "data:image/png;base64,WA=="
		json.NewEncoder(w).Encode([]models.ProcessedResult{
			{ID: req.Images[0].ID, TranslatedData: &translated},
		})
	}))
	defer server.Close()

	p, shutdown := newPipeline(t, fetcher, server.URL, 5*time.Second)
	defer shutdown()

	doc := parseDoc(t, `<html><body>
		<img src="http://example.com/a.png">
		<img src="http://example.com/b.png">
		<img src="http://example.com/c.png">
	</body></html>`)

	result, err := p.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Scanned != 2 {
		t.Errorf("expected 2 scanned images, got %d", result.Scanned)
	}
	if result.Replaced != 1 {
		t.Errorf("expected 1 replacement, got %d", result.Replaced)
	}

	src, _ := doc.Find("img").Eq(0).Attr("src")
	if src != "data:image/png;base64,WA==" {
		t.Errorf("expected first element replaced, got %q", src)
	}
	src, _ = doc.Find("img").Eq(2).Attr("src")
	if src != "http://example.com/c.png" {
		t.Errorf("expected third element untouched, got %q", src)
	}
}

func TestRun_EmptyPageMakesNoRequest(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	p, shutdown := newPipeline(t, &stubFetcher{images: map[string][]byte{}}, server.URL, time.Second)
	defer shutdown()

	doc := parseDoc(t, `<html><body><p>text only</p></body></html>`)

	result, err := p.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Scanned != 0 || result.Replaced != 0 {
		t.Errorf("expected empty cycle, got %+v", result)
	}

	// Give the relay loop a moment; nothing should arrive at the server.
	time.Sleep(100 * time.Millisecond)
	if n := requests.Load(); n != 0 {
		t.Errorf("expected no outbound requests, got %d", n)
	}
}

func TestRun_SettlesEmptyOnEndpointFailure(t *testing.T) {
	fetcher := &stubFetcher{images: map[string][]byte{
		"http://example.com/a.png": encodePNG(t, 100, 100),
	}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p, shutdown := newPipeline(t, fetcher, server.URL, 300*time.Millisecond)
	defer shutdown()

	doc := parseDoc(t, `<html><body><img src="http://example.com/a.png"></body></html>`)

	result, err := p.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("expected silent degradation, got error: %v", err)
	}
	if result.Replaced != 0 {
		t.Errorf("expected no replacements, got %d", result.Replaced)
	}
	src, _ := doc.Find("img").First().Attr("src")
	if src != "http://example.com/a.png" {
		t.Errorf("expected element unchanged after failure, got %q", src)
	}
}

func TestRun_RejectsOverlappingTrigger(t *testing.T) {
	fetcher := &stubFetcher{images: map[string][]byte{
		"http://example.com/a.png": encodePNG(t, 100, 100),
	}}

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		json.NewEncoder(w).Encode([]models.ProcessedResult{})
	}))
	defer server.Close()
	defer close(release)

	p, shutdown := newPipeline(t, fetcher, server.URL, 5*time.Second)
	defer shutdown()

	doc := parseDoc(t, `<html><body><img src="http://example.com/a.png"></body></html>`)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		p.Run(context.Background(), doc)
	}()

	// Wait until the first cycle is holding the coordinator.
	deadline := time.After(2 * time.Second)
	for {
		_, err := p.Run(context.Background(), parseDoc(t, `<html><body></body></html>`))
		if errors.Is(err, session.ErrCycleInProgress) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("second trigger was never rejected")
		case <-time.After(10 * time.Millisecond):
		}
	}

	release <- struct{}{}
	select {
	case <-firstDone:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle never settled")
	}
}
