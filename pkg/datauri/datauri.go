// Package datauri converts raw image payloads to and from the data URI
// encoding used on the wire between the page pipeline and the processing
// service.
package datauri

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const scheme = "data:"

// IsDataURI reports whether s looks like a data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, scheme)
}

// Encode wraps raw bytes in a base64 data URI. An empty contentType is
// sniffed from the payload itself.
func Encode(data []byte, contentType string) string {
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}

// Decode extracts the raw bytes and media type from a data URI. Inputs
// without a header (bare base64) are accepted, matching what the processing
// endpoint has always tolerated; the media type is then sniffed.
func Decode(uri string) ([]byte, string, error) {
	encoded := uri
	contentType := ""

	if header, rest, found := strings.Cut(uri, ","); found {
		encoded = rest
		meta := strings.TrimPrefix(header, scheme)
		meta = strings.TrimSuffix(meta, ";base64")
		contentType = meta
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	return data, contentType, nil
}
