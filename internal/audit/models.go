// Package audit records review actions as an append-only verification log and
// optionally mirrors them to Kafka for downstream consumers.
package audit

import (
	"time"

	"github.com/google/uuid"

	"kabaleid/pkg/domain"
)

// Result is the outcome recorded for a review action.
type Result string

const (
	ResultApproved Result = "APPROVED"
	ResultRejected Result = "REJECTED"
)

// VerificationLog is one append-only audit row per review action.
type VerificationLog struct {
	ID            uuid.UUID
	ApplicationID domain.ApplicationID
	VerifiedBy    domain.UserID
	Result        Result
	Notes         string
	VerifiedAt    time.Time
}
