// Package updater implements the final phase of a collection cycle: mapping
// processed results back onto the page's image elements by their ephemeral
// ids and swapping each element's source for the translated payload.
package updater

import (
	"github.com/sirupsen/logrus"

	"go-page-translator/internal/logger"
	"go-page-translator/internal/session"
	"go-page-translator/pkg/models"
)

// Updater applies processed results to a cycle's reference map.
type Updater struct{}

// New creates an updater.
func New() *Updater {
	return &Updater{}
}

// Apply overwrites the src of every element whose id resolves in the
// cycle's reference map and whose result carries a non-nil payload.
// Unknown or stale ids and nil payloads are skipped silently. The original
// source is preserved in data-original-src the first time an element is
// rewritten, so reapplying the same results is idempotent. Returns the
// number of elements rewritten.
func (u *Updater) Apply(cycle *session.Cycle, results []models.ProcessedResult) int {
	cycle.SetState(session.StateUpdating)

	replaced := 0
	for _, result := range results {
		if result.TranslatedData == nil || *result.TranslatedData == "" {
			continue
		}

		sel, ok := cycle.Lookup(result.ID)
		if !ok {
			continue
		}

		if _, has := sel.Attr("data-original-src"); !has {
			if src, exists := sel.Attr("src"); exists {
				sel.SetAttr("data-original-src", src)
			}
		}
		sel.SetAttr("src", *result.TranslatedData)
		replaced++
	}

	logger.WithFields(logrus.Fields{
		"cycle_id": cycle.ID,
		"results":  len(results),
		"replaced": replaced,
	}).Info("Applied processing results to page")

	return replaced
}
