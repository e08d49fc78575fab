package validation

import (
	"net/url"
	"regexp"
	"strings"

	apperrors "go-face-palette/internal/errors"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeBlob  = "azblob"

	maxURLLength = 2048
)

// Azure container names: 3-63 lowercase letters, digits and single hyphens
var containerNamePattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9]|-[a-z0-9]){2,62}$`)

// URLValidator checks image URLs of analysis requests
type URLValidator struct {
	allowedSchemes map[string]bool
	allowedHosts   map[string]bool
}

// NewURLValidator allows web images and azblob://container/blob references on any host
func NewURLValidator() *URLValidator {
	return NewURLValidatorWithOptions([]string{SchemeHTTP, SchemeHTTPS, SchemeBlob}, nil)
}

// NewURLValidatorWithOptions restricts schemes and, when hosts is non-empty, hosts
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	v := &URLValidator{
		allowedSchemes: make(map[string]bool, len(schemes)),
		allowedHosts:   make(map[string]bool, len(hosts)),
	}
	for _, s := range schemes {
		v.allowedSchemes[strings.ToLower(s)] = true
	}
	for _, h := range hosts {
		v.allowedHosts[strings.ToLower(h)] = true
	}
	return v
}

// ValidateImageURL returns a validation AppError describing the first problem
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}
	if len(imageURL) > maxURLLength {
		return apperrors.NewValidationError("URL is too long", nil)
	}

	parsed, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !v.allowedSchemes[scheme] {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}
	if parsed.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	if parsed.User != nil {
		return apperrors.NewValidationError("URL must not embed credentials", nil)
	}

	if scheme == SchemeBlob {
		return validateBlobReference(parsed)
	}
	if !v.isHostAllowed(parsed.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}
	return nil
}

// validateBlobReference checks azblob://container/blob, where the host is the container
func validateBlobReference(u *url.URL) error {
	if !containerNamePattern.MatchString(u.Host) {
		return apperrors.NewValidationError("Invalid blob container name", nil)
	}
	if strings.Trim(u.Path, "/") == "" {
		return apperrors.NewValidationError("Blob URL must name a blob", nil)
	}
	return nil
}

// isHostAllowed reports true for every host when no restriction is set
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	return v.allowedHosts[strings.ToLower(host)]
}
