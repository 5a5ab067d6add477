// Package session issues and resolves opaque bearer sessions. Tokens are
// high-entropy random values; expiry is fixed at creation and enforced lazily
// on lookup.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"kabaleid/pkg/domain"
)

// Session is one bearer credential row. At most one valid row exists per
// token; a user may hold many.
type Session struct {
	Token     string
	UserID    domain.UserID
	Device    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// NewToken generates an unguessable session token: 32 random bytes,
// hex-encoded.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DeviceLabel summarizes a User-Agent for the session list ("Firefox on
// Linux"). Empty or unparseable agents label as "unknown device".
func DeviceLabel(rawUA string) string {
	if rawUA == "" {
		return "unknown device"
	}
	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	label := strings.TrimSpace(browser)
	if os := ua.OS(); os != "" {
		if label != "" {
			label += " on " + os
		} else {
			label = os
		}
	}
	if label == "" {
		return "unknown device"
	}
	return label
}
