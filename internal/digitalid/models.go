// Package digitalid holds the issued digital ID record and the singleton
// design configuration that drives both expiry computation and card styling.
package digitalid

import (
	"time"

	"kabaleid/pkg/domain"
)

// Status is the lifecycle of an issued digital ID.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRevoked Status = "REVOKED"
	StatusExpired Status = "EXPIRED"
)

// DigitalID is created 1:1 from an approved application, only ever inside the
// approval transaction. At most one ACTIVE digital ID exists per citizen.
type DigitalID struct {
	ID            domain.DigitalIDID
	ApplicationID domain.ApplicationID
	CitizenID     domain.CitizenID
	KabaleID      domain.KabaleID
	Status        Status
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// Valid reports whether the ID verifies as usable at the given time:
// ACTIVE and not past expiry.
func (d DigitalID) Valid(now time.Time) bool {
	return d.Status == StatusActive && !d.ExpiresAt.Before(now)
}

// ComputeExpiry advances issuedAt by whole calendar years: same month and
// day N years later, with standard date normalization for end-of-month
// edges (Feb 29 on a non-leap year lands on Mar 1).
func ComputeExpiry(issuedAt time.Time, years int) time.Time {
	return issuedAt.AddDate(years, 0, 0)
}
