// Package scanner implements the page-scanning half of a collection cycle:
// walking a parsed document, qualifying image elements by rendered size,
// and converting each qualifying element into a transport-safe descriptor.
package scanner

import (
	"bytes"
	"context"
	"image"
	"strconv"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"go-page-translator/internal/logger"
	"go-page-translator/internal/session"
	"go-page-translator/internal/storage"
	"go-page-translator/pkg/datauri"
	"go-page-translator/pkg/models"
	"go-page-translator/pkg/validation"
)

// Scanner collects qualifying image elements from a document. Dimensions
// come from the width/height attributes when the page declares them, and
// from the decoded image header otherwise.
type Scanner struct {
	fetcher      storage.ImageFetcher
	validator    *validation.URLValidator
	threshold    int
	fetchTimeout time.Duration
}

// New creates a scanner. threshold is the exclusive minimum for both
// dimensions; an image qualifies only when width and height both exceed it.
func New(fetcher storage.ImageFetcher, threshold int, fetchTimeout time.Duration) *Scanner {
	return &Scanner{
		fetcher:      fetcher,
		validator:    validation.NewURLValidator(),
		threshold:    threshold,
		fetchTimeout: fetchTimeout,
	}
}

// Scan walks the document and produces one descriptor per qualifying image
// element, registering each assigned id in the cycle's reference map. An
// element that fails to fetch or decode is logged and skipped; the rest of
// the scan continues. The returned sequence may be empty.
func (s *Scanner) Scan(ctx context.Context, doc *goquery.Document, cycle *session.Cycle) []models.ImageDescriptor {
	cycle.SetState(session.StateScanning)

	var descriptors []models.ImageDescriptor

	doc.Find("img[src]").Each(func(i int, sel *goquery.Selection) {
		src, exists := sel.Attr("src")
		if !exists || src == "" {
			return
		}

		if err := s.validator.ValidateImageURL(src); err != nil {
			logger.WithError(err).WithField("src", truncate(src, 120)).Warn("Skipping image with unusable source")
			return
		}

		// Cheap rejection on declared attributes before any fetch.
		attrW, okW := dimensionAttr(sel, "width")
		attrH, okH := dimensionAttr(sel, "height")
		if okW && okH && (attrW <= s.threshold || attrH <= s.threshold) {
			return
		}

		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()

		data, contentType, err := s.fetcher.FetchImage(fetchCtx, src)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"cycle_id": cycle.ID,
				"src":      truncate(src, 120),
			}).Warn("Failed to fetch image, skipping")
			return
		}

		width, height := attrW, attrH
		if !okW || !okH {
			cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				logger.WithError(err).WithFields(logrus.Fields{
					"cycle_id": cycle.ID,
					"src":      truncate(src, 120),
				}).Warn("Failed to decode image dimensions, skipping")
				return
			}
			width, height = cfg.Width, cfg.Height
		}

		if width <= s.threshold || height <= s.threshold {
			return
		}

		id := cycle.Assign(i, sel)
		descriptors = append(descriptors, models.ImageDescriptor{
			ID:   id,
			Data: datauri.Encode(data, contentType),
		})
	})

	logger.WithFields(logrus.Fields{
		"cycle_id": cycle.ID,
		"found":    len(descriptors),
	}).Info("Page scan completed")

	return descriptors
}

// dimensionAttr parses a numeric width/height attribute. Percentage and
// other CSS-flavored values are treated as absent.
func dimensionAttr(sel *goquery.Selection, name string) (int, bool) {
	raw, exists := sel.Attr(name)
	if !exists {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
