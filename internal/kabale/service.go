package kabale

import (
	"context"
	"errors"

	"kabaleid/internal/rbac"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
	"kabaleid/pkg/platform/sentinel"
	"kabaleid/pkg/requestcontext"
)

// Store persists kabales.
type Store interface {
	Create(ctx context.Context, kabale Kabale) error
	Update(ctx context.Context, kabale Kabale) error
	FindByID(ctx context.Context, id domain.KabaleID) (Kabale, error)
	List(ctx context.Context) ([]Kabale, error)
}

// Service enforces that only the system admin mutates the registry; reads are
// open to any authenticated caller (citizens pick a kabale when applying).
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateRequest carries the kabale registration form.
type CreateRequest struct {
	Name    string
	Code    string
	Address string
	Phone   string
	Email   string
}

func (r CreateRequest) validate() error {
	fields := map[string]string{}
	if r.Name == "" {
		fields["name"] = "name is required"
	}
	if r.Code == "" {
		fields["code"] = "code is required"
	}
	if len(fields) > 0 {
		return dErrors.Validation("invalid kabale", fields)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, scope rbac.Scope, req CreateRequest) (Kabale, error) {
	if err := rbac.RequireSystemAdmin(scope); err != nil {
		return Kabale{}, err
	}
	if err := req.validate(); err != nil {
		return Kabale{}, err
	}

	now := requestcontext.Now(ctx)
	kabale := Kabale{
		ID:        domain.NewKabaleID(),
		Name:      req.Name,
		Code:      req.Code,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, kabale); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Kabale{}, dErrors.Newf(dErrors.CodeConflict, "kabale code %q is already in use", req.Code)
		}
		return Kabale{}, err
	}
	return kabale, nil
}

// UpdateRequest holds mutable kabale attributes; nil leaves a field unchanged.
type UpdateRequest struct {
	Name    *string
	Address *string
	Phone   *string
	Email   *string
}

func (s *Service) Update(ctx context.Context, scope rbac.Scope, id domain.KabaleID, req UpdateRequest) (Kabale, error) {
	if err := rbac.RequireSystemAdmin(scope); err != nil {
		return Kabale{}, err
	}

	kabale, err := s.Get(ctx, id)
	if err != nil {
		return Kabale{}, err
	}
	if req.Name != nil {
		kabale.Name = *req.Name
	}
	if req.Address != nil {
		kabale.Address = *req.Address
	}
	if req.Phone != nil {
		kabale.Phone = *req.Phone
	}
	if req.Email != nil {
		kabale.Email = *req.Email
	}
	kabale.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, kabale); err != nil {
		return Kabale{}, err
	}
	return kabale, nil
}

func (s *Service) Get(ctx context.Context, id domain.KabaleID) (Kabale, error) {
	kabale, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Kabale{}, dErrors.New(dErrors.CodeNotFound, "kabale not found")
		}
		return Kabale{}, err
	}
	return kabale, nil
}

func (s *Service) List(ctx context.Context) ([]Kabale, error) {
	return s.store.List(ctx)
}
