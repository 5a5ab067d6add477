package models

import (
	"time"

	"kabaleid/pkg/domain"
)

// Role is the closed set of roles a credential can carry.
type Role string

const (
	RoleSystemAdmin Role = "SYSTEM_ADMIN"
	RoleKabaleAdmin Role = "KABALE_ADMIN"
	RoleCitizen     Role = "CITIZEN"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleKabaleAdmin, RoleCitizen:
		return true
	}
	return false
}

// User is the credential record. Email and phone are both optional but at
// least one must be present. Users are never hard-deleted.
type User struct {
	ID           domain.UserID
	Role         Role
	FullName     string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CitizenProfile holds the personal attributes captured at registration.
// It is created once and immutably linked to its user.
type CitizenProfile struct {
	ID          domain.CitizenID
	UserID      domain.UserID
	DateOfBirth time.Time
	Gender      string
	Phone       string
	Address     string
	Nationality string
	PhotoKey    string
	CreatedAt   time.Time
}

// KabaleAdminProfile binds a KABALE_ADMIN user to exactly one kabale, which
// defines that admin's data-visibility scope.
type KabaleAdminProfile struct {
	UserID   domain.UserID
	KabaleID domain.KabaleID
}

// RegistrationState makes profile completeness explicit instead of leaving
// callers to null-check profile pointers.
type RegistrationState string

const (
	RegistrationUnregistered  RegistrationState = "UNREGISTERED"
	RegistrationCitizenActive RegistrationState = "CITIZEN_ACTIVE"
	RegistrationStaff         RegistrationState = "STAFF"
)

// Account is the user aggregate: the credential plus whichever role profile
// exists for it. Downstream code should resolve an Account into an rbac.Scope
// rather than inspecting the profile pointers directly.
type Account struct {
	User        User
	Citizen     *CitizenProfile
	KabaleAdmin *KabaleAdminProfile
}

// RegistrationState derives the explicit state of the aggregate. This is the
// single place profile presence is interpreted.
func (a Account) RegistrationState() RegistrationState {
	switch a.User.Role {
	case RoleCitizen:
		if a.Citizen != nil {
			return RegistrationCitizenActive
		}
		return RegistrationUnregistered
	case RoleSystemAdmin, RoleKabaleAdmin:
		return RegistrationStaff
	}
	return RegistrationUnregistered
}
