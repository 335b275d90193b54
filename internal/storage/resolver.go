package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go-page-translator/pkg/datauri"
)

// SourceFetcher routes an image source to the fetcher that can serve it:
// inline data URIs are decoded in place, blob-hosted sources go through the
// Azure client when one is configured, everything else over HTTP.
type SourceFetcher struct {
	http ImageFetcher
	blob ImageFetcher
}

// NewSourceFetcher creates a routing fetcher. blob may be nil when no
// Azure credentials are configured.
func NewSourceFetcher(http ImageFetcher, blob ImageFetcher) *SourceFetcher {
	return &SourceFetcher{http: http, blob: blob}
}

// FetchImage implements ImageFetcher.
func (f *SourceFetcher) FetchImage(ctx context.Context, src string) ([]byte, string, error) {
	if datauri.IsDataURI(src) {
		return datauri.Decode(src)
	}

	if f.blob != nil && isBlobHost(src) {
		return f.blob.FetchImage(ctx, src)
	}

	if f.http == nil {
		return nil, "", fmt.Errorf("no fetcher available for source %q", src)
	}
	return f.http.FetchImage(ctx, src)
}

func isBlobHost(src string) bool {
	parsed, err := url.Parse(src)
	if err != nil {
		return false
	}
	return strings.HasSuffix(parsed.Host, ".blob.core.windows.net")
}
