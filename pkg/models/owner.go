// Package models contains domain types for coldconnect-engine.
package models

import "strings"

// OwnerID identifies the user that owns a record. It is derived from the
// authenticated email and is the tenant key for every owner-scoped table and
// every embedding chunk.
type OwnerID struct {
	email string
}

// NewOwnerID normalizes an email into an OwnerID. Surrounding whitespace is
// trimmed and the address lower-cased. Returns false for an empty input.
func NewOwnerID(email string) (OwnerID, bool) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return OwnerID{}, false
	}
	return OwnerID{email: normalized}, true
}

// MustOwnerID is NewOwnerID for trusted literals such as test fixtures.
func MustOwnerID(email string) OwnerID {
	owner, ok := NewOwnerID(email)
	if !ok {
		panic("models: empty owner email")
	}
	return owner
}

// String returns the normalized email.
func (o OwnerID) String() string {
	return o.email
}

// IsZero reports whether the OwnerID is unset.
func (o OwnerID) IsZero() bool {
	return o.email == ""
}

// Owns reports whether a stored owner value belongs to o.
func (o OwnerID) Owns(stored string) bool {
	if o.IsZero() {
		return false
	}
	return o.email == strings.ToLower(strings.TrimSpace(stored))
}
