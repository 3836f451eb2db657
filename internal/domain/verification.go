package domain

import (
	"strings"
	"time"
)

// Well-known keys in the settings store. Written by the admin setup flow,
// read by every verification. The store is the only state shared across
// handler invocations.
const (
	SettingSheet       = "sheet"
	SettingVettedRole  = "vetted"
	SettingPrivateRole = "private"
)

// Passcode is a short-lived numeric code proving control of an email address.
// PK: key ("email:{normalized}"). ExpiresAt is a Unix timestamp used as
// DynamoDB TTL; at most one live passcode exists per email (Put overwrites).
type Passcode struct {
	Key       string `json:"key" dynamodbav:"key"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Expired reports whether the passcode is past its TTL at the given instant.
// DynamoDB TTL reaping is lazy, so reads must check this themselves.
func (p *Passcode) Expired(now time.Time) bool {
	return p.ExpiresAt < now.Unix()
}

// PasscodeKey builds the store key for an email's live passcode.
func PasscodeKey(normalizedEmail string) string {
	return "email:" + normalizedEmail
}

// Identity is the authenticated user returned by the delegated-authorization
// flow.
type Identity struct {
	ID       string
	Email    string
	Verified bool
}

// Membership is the result of a roster lookup. A user may be in one tier,
// both, or neither.
type Membership struct {
	Vetted  bool
	Private bool
}

// None reports whether the user matched neither tier.
func (m Membership) None() bool { return !m.Vetted && !m.Private }

// VerifiedEvent is published downstream after a successful verification.
type VerifiedEvent struct {
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email"`
	Vetted     bool      `json:"vetted"`
	Private    bool      `json:"private"`
	Method     string    `json:"method"` // "oauth" | "email"
	VerifiedAt time.Time `json:"verified_at"`
}

// NormalizeEmail trims surrounding whitespace and lower-cases an address.
// Every store key and roster comparison uses the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
