// Package rbac resolves an authenticated account into a data-visibility scope
// and provides the access checks every kabale-scoped operation must pass
// through.
package rbac

import (
	"kabaleid/internal/identity/models"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
)

// Scope is a closed variant over the three visibility levels. A type switch
// over Scope handles every case explicitly; there is no default-to-broad-access
// branch to forget.
type Scope interface {
	isScope()
}

// SystemAdmin sees everything; queries carry no row filter.
type SystemAdmin struct{}

// KabaleAdmin sees only rows belonging to its kabale.
type KabaleAdmin struct {
	KabaleID domain.KabaleID
}

// Citizen sees only its own rows.
type Citizen struct {
	CitizenID domain.CitizenID
}

func (SystemAdmin) isScope() {}
func (KabaleAdmin) isScope() {}
func (Citizen) isScope()     {}

// Principal is the resolved request identity carried through middleware into
// handlers and services.
type Principal struct {
	UserID   domain.UserID
	Role     models.Role
	FullName string
	Scope    Scope
}

// Resolve maps an account onto its scope. A kabale admin without a kabale
// binding or a citizen that never completed registration resolves to an error
// rather than a silently broad scope.
func Resolve(account models.Account) (Scope, error) {
	switch account.User.Role {
	case models.RoleSystemAdmin:
		return SystemAdmin{}, nil
	case models.RoleKabaleAdmin:
		if account.KabaleAdmin == nil {
			return nil, dErrors.New(dErrors.CodeForbidden, "kabale admin has no kabale assignment")
		}
		return KabaleAdmin{KabaleID: account.KabaleAdmin.KabaleID}, nil
	case models.RoleCitizen:
		if account.RegistrationState() != models.RegistrationCitizenActive {
			return nil, dErrors.New(dErrors.CodeForbidden, "citizen registration is incomplete")
		}
		return Citizen{CitizenID: account.Citizen.ID}, nil
	}
	return nil, dErrors.Newf(dErrors.CodeForbidden, "unknown role %q", account.User.Role)
}

// RequireKabaleAccess is the single choke point for kabale-scoped reads and
// writes: system admins pass for any kabale, kabale admins only for their own,
// citizens never.
func RequireKabaleAccess(scope Scope, kabaleID domain.KabaleID) error {
	switch s := scope.(type) {
	case SystemAdmin:
		return nil
	case KabaleAdmin:
		if s.KabaleID == kabaleID {
			return nil
		}
		return dErrors.New(dErrors.CodeForbidden, "kabale outside admin scope")
	case Citizen:
		return dErrors.New(dErrors.CodeForbidden, "administrative access required")
	}
	return dErrors.New(dErrors.CodeForbidden, "unresolved scope")
}

// RequireSystemAdmin guards operations reserved for the system administrator.
func RequireSystemAdmin(scope Scope) error {
	if _, ok := scope.(SystemAdmin); ok {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "system administrator access required")
}

// RequireCitizen returns the acting citizen's profile ID, rejecting staff
// scopes. Citizen-owned operations (create, edit, submit) go through this.
func RequireCitizen(scope Scope) (domain.CitizenID, error) {
	if s, ok := scope.(Citizen); ok {
		return s.CitizenID, nil
	}
	return domain.CitizenID{}, dErrors.New(dErrors.CodeForbidden, "citizen access required")
}
