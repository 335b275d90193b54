package scanner

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-page-translator/internal/session"
	"go-page-translator/pkg/datauri"
)

// stubFetcher serves canned payloads keyed by source URL.
type stubFetcher struct {
	images map[string][]byte
	calls  []string
}

func (f *stubFetcher) FetchImage(ctx context.Context, src string) ([]byte, string, error) {
	f.calls = append(f.calls, src)
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

func TestScan_ThresholdFiltering(t *testing.T) {
	// Three images: 100x100, 30x30, 60x60. Only the first and third
	// qualify, and they keep their scan-position ids.
	fetcher := &stubFetcher{images: map[string][]byte{
		"http://example.com/a.png": encodePNG(t, 100, 100),
		"http://example.com/b.png": encodePNG(t, 30, 30),
		"http://example.com/c.png": encodePNG(t, 60, 60),
	}}
	doc := parseDoc(t, `<html><body>
		<img src="http://example.com/a.png">
		<img src="http://example.com/b.png">
		<img src="http://example.com/c.png">
	</body></html>`)

	s := New(fetcher, 50, time.Second)
	cycle := session.NewCycle()
	descriptors := s.Scan(context.Background(), doc, cycle)

	if len(descriptors) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descriptors))
	}
	if descriptors[0].ID != "img-0" || descriptors[1].ID != "img-2" {
		t.Errorf("expected ids img-0 and img-2, got %s and %s", descriptors[0].ID, descriptors[1].ID)
	}
	if _, ok := cycle.Lookup("img-1"); ok {
		t.Error("sub-threshold element must not be registered")
	}
	if cycle.Size() != 2 {
		t.Errorf("expected 2 registered elements, got %d", cycle.Size())
	}
}

func TestScan_UniqueIDs(t *testing.T) {
	fetcher := &stubFetcher{images: map[string][]byte{
		"http://example.com/a.png": encodePNG(t, 100, 100),
	}}
	doc := parseDoc(t, `<html><body>
		<img src="http://example.com/a.png">
		<img src="http://example.com/a.png">
		<img src="http://example.com/a.png">
	</body></html>`)

	s := New(fetcher, 50, time.Second)
	descriptors := s.Scan(context.Background(), doc, session.NewCycle())

	seen := make(map[string]bool)
	for _, d := range descriptors {
		if seen[d.ID] {
			t.Errorf("duplicate id %q in one cycle", d.ID)
		}
		seen[d.ID] = true
	}
	if len(descriptors) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(descriptors))
	}
}

func TestScan_DeclaredAttributesSkipFetch(t *testing.T) {
	fetcher := &stubFetcher{images: map[string][]byte{}}
	doc := parseDoc(t, `<html><body>
		<img src="http://example.com/tiny.png" width="30" height="30">
	</body></html>`)

	s := New(fetcher, 50, time.Second)
	descriptors := s.Scan(context.Background(), doc, session.NewCycle())

	if len(descriptors) != 0 {
		t.Fatalf("expected no descriptors, got %d", len(descriptors))
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("expected no fetches for attribute-rejected element, got %d", len(fetcher.calls))
	}
}

func TestScan_FailureIsolation(t *testing.T) {
	// The middle image 404s; the other two must still be collected.
	fetcher := &stubFetcher{images: map[string][]byte{
		"http://example.com/a.png": encodePNG(t, 100, 100),
		"http://example.com/c.png": encodePNG(t, 80, 80),
	}}
	doc := parseDoc(t, `<html><body>
		<img src="http://example.com/a.png">
		<img src="http://example.com/missing.png">
		<img src="http://example.com/c.png">
	</body></html>`)

	s := New(fetcher, 50, time.Second)
	descriptors := s.Scan(context.Background(), doc, session.NewCycle())

	if len(descriptors) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descriptors))
	}
	if descriptors[0].ID != "img-0" || descriptors[1].ID != "img-2" {
		t.Errorf("expected ids img-0 and img-2, got %s and %s", descriptors[0].ID, descriptors[1].ID)
	}
}

func TestScan_UndecodableImageSkipped(t *testing.T) {
	fetcher := &stubFetcher{images: map[string][]byte{
		"http://example.com/garbage.bin": []byte("not an image"),
	}}
	doc := parseDoc(t, `<html><body><img src="http://example.com/garbage.bin"></body></html>`)

	s := New(fetcher, 50, time.Second)
	descriptors := s.Scan(context.Background(), doc, session.NewCycle())

	if len(descriptors) != 0 {
		t.Fatalf("expected no descriptors for undecodable payload, got %d", len(descriptors))
	}
}

func TestScan_EmptyDocument(t *testing.T) {
	fetcher := &stubFetcher{images: map[string][]byte{}}
	doc := parseDoc(t, `<html><body><p>no images here</p></body></html>`)

	s := New(fetcher, 50, time.Second)
	descriptors := s.Scan(context.Background(), doc, session.NewCycle())

	if len(descriptors) != 0 {
		t.Fatalf("expected empty descriptor sequence, got %d", len(descriptors))
	}
}

func TestScan_DescriptorPayloadIsDataURI(t *testing.T) {
	original := encodePNG(t, 100, 100)
	fetcher := &stubFetcher{images: map[string][]byte{
		"http://example.com/a.png": original,
	}}
	doc := parseDoc(t, `<html><body><img src="http://example.com/a.png"></body></html>`)

	s := New(fetcher, 50, time.Second)
	descriptors := s.Scan(context.Background(), doc, session.NewCycle())

	if len(descriptors) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(descriptors))
	}
	data, contentType, err := datauri.Decode(descriptors[0].Data)
	if err != nil {
		t.Fatalf("descriptor payload is not a data URI: %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("expected image/png payload, got %q", contentType)
	}
	if !bytes.Equal(data, original) {
		t.Error("payload bytes differ from the fetched image")
	}
}
