package service

import (
	"context"
	"errors"

	"kabaleid/internal/digitalid"
	"kabaleid/internal/rbac"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
	"kabaleid/pkg/platform/sentinel"
	"kabaleid/pkg/requestcontext"
)

// Store is the digital ID persistence surface the service needs.
type Store interface {
	FindByID(ctx context.Context, id domain.DigitalIDID) (digitalid.DigitalID, error)
	FindActiveByCitizen(ctx context.Context, citizenID domain.CitizenID) (digitalid.DigitalID, error)
	UpdateStatus(ctx context.Context, id domain.DigitalIDID, status digitalid.Status) error
}

// DesignStore holds the singleton card design configuration.
type DesignStore interface {
	Get(ctx context.Context) (digitalid.DesignConfig, error)
	Put(ctx context.Context, cfg digitalid.DesignConfig) error
}

// Service covers reads, revocation and design configuration for issued IDs.
// Issuance itself happens inside the application review transaction.
type Service struct {
	store  Store
	design DesignStore
}

func NewService(store Store, design DesignStore) *Service {
	return &Service{store: store, design: design}
}

// Get loads one digital ID, scope-checked the same way applications are.
func (s *Service) Get(ctx context.Context, scope rbac.Scope, id domain.DigitalIDID) (digitalid.DigitalID, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return digitalid.DigitalID{}, err
	}

	switch sc := scope.(type) {
	case rbac.SystemAdmin:
		return d, nil
	case rbac.KabaleAdmin:
		if err := rbac.RequireKabaleAccess(scope, d.KabaleID); err != nil {
			return digitalid.DigitalID{}, err
		}
		return d, nil
	case rbac.Citizen:
		if d.CitizenID != sc.CitizenID {
			return digitalid.DigitalID{}, dErrors.New(dErrors.CodeForbidden, "digital id belongs to another citizen")
		}
		return d, nil
	}
	return digitalid.DigitalID{}, dErrors.New(dErrors.CodeForbidden, "unresolved scope")
}

// Mine returns the acting citizen's ACTIVE digital ID.
func (s *Service) Mine(ctx context.Context, scope rbac.Scope) (digitalid.DigitalID, error) {
	citizenID, err := rbac.RequireCitizen(scope)
	if err != nil {
		return digitalid.DigitalID{}, err
	}
	d, err := s.store.FindActiveByCitizen(ctx, citizenID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return digitalid.DigitalID{}, dErrors.New(dErrors.CodeNotFound, "no active digital id")
	}
	if err != nil {
		return digitalid.DigitalID{}, err
	}
	return d, nil
}

// Revoke marks an ACTIVE digital ID REVOKED. The citizen may then apply
// again. Only admins scoped to the ID's kabale (or the system admin) revoke.
func (s *Service) Revoke(ctx context.Context, scope rbac.Scope, id domain.DigitalIDID) (digitalid.DigitalID, error) {
	d, err := s.find(ctx, id)
	if err != nil {
		return digitalid.DigitalID{}, err
	}
	if err := rbac.RequireKabaleAccess(scope, d.KabaleID); err != nil {
		return digitalid.DigitalID{}, err
	}
	if d.Status != digitalid.StatusActive {
		return digitalid.DigitalID{}, dErrors.Newf(dErrors.CodeInvalidState, "cannot revoke digital id in state %s", d.Status)
	}
	if err := s.store.UpdateStatus(ctx, id, digitalid.StatusRevoked); err != nil {
		return digitalid.DigitalID{}, err
	}
	d.Status = digitalid.StatusRevoked
	return d, nil
}

// Design returns the current card design configuration.
func (s *Service) Design(ctx context.Context) (digitalid.DesignConfig, error) {
	return s.design.Get(ctx)
}

// UpdateDesign replaces the design configuration. System admin only; the new
// expiry duration applies to IDs issued afterwards, never retroactively.
func (s *Service) UpdateDesign(ctx context.Context, scope rbac.Scope, cfg digitalid.DesignConfig) (digitalid.DesignConfig, error) {
	if err := rbac.RequireSystemAdmin(scope); err != nil {
		return digitalid.DesignConfig{}, err
	}
	if cfg.ExpiryDuration < 0 {
		return digitalid.DesignConfig{}, dErrors.Validation("invalid design config", map[string]string{
			"expiryDurationYears": "must be zero or positive",
		})
	}
	if err := s.design.Put(ctx, cfg); err != nil {
		return digitalid.DesignConfig{}, err
	}
	return cfg, nil
}

// find loads an ID and lazily flips ACTIVE-but-expired rows to EXPIRED, the
// same pattern sessions use: expiry is enforced on observation, not by a
// background job.
func (s *Service) find(ctx context.Context, id domain.DigitalIDID) (digitalid.DigitalID, error) {
	d, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return digitalid.DigitalID{}, dErrors.New(dErrors.CodeNotFound, "digital id not found")
	}
	if err != nil {
		return digitalid.DigitalID{}, err
	}

	now := requestcontext.Now(ctx)
	if d.Status == digitalid.StatusActive && now.After(d.ExpiresAt) {
		if err := s.store.UpdateStatus(ctx, d.ID, digitalid.StatusExpired); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return digitalid.DigitalID{}, err
		}
		d.Status = digitalid.StatusExpired
	}
	return d, nil
}
