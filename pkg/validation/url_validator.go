package validation

import (
	"net/url"
	"strings"

	apperrors "go-page-translator/internal/errors"
	"go-page-translator/pkg/datauri"
)

// URLValidator handles URL validation for pages and image sources
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
	allowDataURIs  bool
}

// NewURLValidator creates a new URL validator with default settings.
// Inline data URIs are accepted because pages routinely embed images that
// way and the scanner forwards them as-is.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
		allowDataURIs:  true,
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string, allowDataURIs bool) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
		allowDataURIs:  allowDataURIs,
	}
}

// ValidatePageURL validates the URL of a page submitted for a collection
// cycle. Pages must be fetched over HTTP(S); data URIs are never pages.
func (v *URLValidator) ValidatePageURL(pageURL string) error {
	if strings.TrimSpace(pageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}
	if datauri.IsDataURI(pageURL) {
		return apperrors.NewValidationError("page URL cannot be a data URI", nil)
	}
	return v.validateRemoteURL(pageURL)
}

// ValidateImageURL validates if the provided URL is acceptable as an image
// source for scanning
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	if datauri.IsDataURI(imageURL) {
		if !v.allowDataURIs {
			return apperrors.NewValidationError("data URIs not allowed", nil)
		}
		return nil
	}

	return v.validateRemoteURL(imageURL)
}

func (v *URLValidator) validateRemoteURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Host) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
