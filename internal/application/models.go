// Package application implements the ID-application lifecycle:
// DRAFT → SUBMITTED → APPROVED | REJECTED, with the one-active-digital-ID
// business rule enforced at creation, submission, and inside the approval
// transaction.
package application

import (
	"time"

	"kabaleid/pkg/domain"
)

// Status is the application lifecycle state. SUBMITTED and
// PENDING_VERIFICATION are both treated as awaiting review; nothing in the
// system transitions between them, PENDING_VERIFICATION exists for rows
// imported from the legacy system.
type Status string

const (
	StatusDraft               Status = "DRAFT"
	StatusSubmitted           Status = "SUBMITTED"
	StatusPendingVerification Status = "PENDING_VERIFICATION"
	StatusApproved            Status = "APPROVED"
	StatusRejected            Status = "REJECTED"
)

// AwaitingReview reports whether a reviewer may act on the application.
func (s Status) AwaitingReview() bool {
	return s == StatusSubmitted || s == StatusPendingVerification
}

// Terminal reports whether the application has reached a final state.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Application is one citizen's request for a digital ID, bound to the kabale
// whose admin will review it.
type Application struct {
	ID          domain.ApplicationID
	CitizenID   domain.CitizenID
	KabaleID    domain.KabaleID
	Status      Status
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReviewAction is the closed set of decisions a reviewer can take.
type ReviewAction string

const (
	ActionApprove ReviewAction = "APPROVE"
	ActionReject  ReviewAction = "REJECT"
)

func (a ReviewAction) Valid() bool {
	return a == ActionApprove || a == ActionReject
}
