// Package domain holds typed identifiers and closed domain primitives shared
// across features. Wrapping uuid.UUID in distinct types keeps a KabaleID from
// being passed where an ApplicationID is expected.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type (
	// UserID identifies a credential record.
	UserID uuid.UUID
	// CitizenID identifies a citizen profile.
	CitizenID uuid.UUID
	// KabaleID identifies an administrative unit.
	KabaleID uuid.UUID
	// ApplicationID identifies an ID application.
	ApplicationID uuid.UUID
	// DigitalIDID identifies an issued digital ID.
	DigitalIDID uuid.UUID
)

func NewUserID() UserID               { return UserID(uuid.New()) }
func NewCitizenID() CitizenID         { return CitizenID(uuid.New()) }
func NewKabaleID() KabaleID           { return KabaleID(uuid.New()) }
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }
func NewDigitalIDID() DigitalIDID     { return DigitalIDID(uuid.New()) }

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id CitizenID) String() string     { return uuid.UUID(id).String() }
func (id KabaleID) String() string      { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id DigitalIDID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id CitizenID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id KabaleID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DigitalIDID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// ParseUserID validates and returns a UserID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user id %q: %w", s, err)
	}
	return UserID(u), nil
}

func ParseCitizenID(s string) (CitizenID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CitizenID{}, fmt.Errorf("invalid citizen id %q: %w", s, err)
	}
	return CitizenID(u), nil
}

func ParseKabaleID(s string) (KabaleID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return KabaleID{}, fmt.Errorf("invalid kabale id %q: %w", s, err)
	}
	return KabaleID(u), nil
}

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ApplicationID{}, fmt.Errorf("invalid application id %q: %w", s, err)
	}
	return ApplicationID(u), nil
}

func ParseDigitalIDID(s string) (DigitalIDID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DigitalIDID{}, fmt.Errorf("invalid digital id %q: %w", s, err)
	}
	return DigitalIDID(u), nil
}
