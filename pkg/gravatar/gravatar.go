// Package gravatar resolves profile avatars from the Gravatar service.
package gravatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.gravatar.com/avatar"

// Lookup resolves gravatar URLs for email addresses. A lookup only
// succeeds when the address actually has a gravatar, so callers can
// fall back to no avatar instead of linking a placeholder image.
type Lookup struct {
	baseURL string
	client  *http.Client
}

// Option configures a Lookup.
type Option func(*Lookup)

// WithBaseURL overrides the gravatar endpoint, used in tests.
func WithBaseURL(url string) Option {
	return func(l *Lookup) {
		l.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Lookup) {
		l.client = client
	}
}

// NewLookup creates a gravatar lookup.
func NewLookup(opts ...Option) *Lookup {
	l := &Lookup{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Hash returns the gravatar hash for an email address.
func Hash(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// URL returns the avatar URL for email, or an error when the address
// has no gravatar. The d=404 parameter makes gravatar answer 404 for
// unknown hashes instead of serving a generated default.
func (l *Lookup) URL(ctx context.Context, email string) (string, error) {
	url := fmt.Sprintf("%s/%s?d=404", l.baseURL, Hash(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", fmt.Errorf("gravatar request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gravatar lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("no gravatar for address (status %d)", resp.StatusCode)
	}

	return fmt.Sprintf("%s/%s", l.baseURL, Hash(email)), nil
}
