package domain

import "time"

// SessionTTL is the logical lifetime of a session. The durable tier keeps
// the record until sign-out; readers enforce this bound and purge expired
// entries on read.
const SessionTTL = 24 * time.Hour

// FastSessionTTL is how long the fast tier caches a session entry. Shorter
// than SessionTTL on purpose: the durable tier is the source of truth and
// re-populates the cache on a miss.
const FastSessionTTL = 6 * time.Hour

// PendingSessionTTL is code expiry (10m) plus a one-minute buffer.
const PendingSessionTTL = 11 * time.Minute

// Session is an authenticated browser session, keyed by an opaque random
// token. It lives in both storage tiers.
type Session struct {
	Token       string    `json:"-" dynamodbav:"token"`
	Email       string    `json:"email" dynamodbav:"email"`
	DisplayName string    `json:"name" dynamodbav:"display_name"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether the session is past its 24-hour window.
func (s *Session) Expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > SessionTTL
}

// PendingSession is the token and dashboard URL pre-built at code-send time
// so that verification can answer without minting anything. Keyed by email
// in the fast tier; consumed on the first successful verification.
type PendingSession struct {
	Token        string `json:"token"`
	DisplayName  string `json:"name"`
	DashboardURL string `json:"dashboardUrl"`
}
