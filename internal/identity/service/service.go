package service

import (
	"context"
	"errors"
	"time"

	"kabaleid/internal/identity/models"
	"kabaleid/internal/identity/secrets"
	"kabaleid/internal/rbac"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
	"kabaleid/pkg/platform/sentinel"
	"kabaleid/pkg/requestcontext"
)

// Store is the persistence surface the identity service needs.
type Store interface {
	CreateUser(ctx context.Context, user models.User) error
	UpdateUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id domain.UserID) (models.User, error)
	FindUserByLogin(ctx context.Context, identifier string) (models.User, error)
	CreateCitizenProfile(ctx context.Context, profile models.CitizenProfile) error
	UpdateCitizenProfile(ctx context.Context, profile models.CitizenProfile) error
	CreateKabaleAdminProfile(ctx context.Context, profile models.KabaleAdminProfile) error
	FindAccountByUserID(ctx context.Context, id domain.UserID) (models.Account, error)
}

// Service implements registration, login and profile maintenance. Transport
// concerns stay in handlers; authorization decisions stay here.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterCitizenRequest carries the registration form.
type RegisterCitizenRequest struct {
	FullName    string
	Email       string
	Phone       string
	Password    string
	DateOfBirth time.Time
	Gender      string
	Address     string
	Nationality string
}

func (r RegisterCitizenRequest) validate() error {
	fields := map[string]string{}
	if r.FullName == "" {
		fields["fullName"] = "full name is required"
	}
	if r.Email == "" && r.Phone == "" {
		fields["email"] = "either email or phone is required"
	}
	if len(r.Password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if r.DateOfBirth.IsZero() {
		fields["dateOfBirth"] = "date of birth is required"
	}
	if r.Gender == "" {
		fields["gender"] = "gender is required"
	}
	if len(fields) > 0 {
		return dErrors.Validation("invalid registration", fields)
	}
	return nil
}

// RegisterCitizen creates the credential and the citizen profile together.
func (s *Service) RegisterCitizen(ctx context.Context, req RegisterCitizenRequest) (models.Account, error) {
	if err := req.validate(); err != nil {
		return models.Account{}, err
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return models.Account{}, err
	}

	now := requestcontext.Now(ctx)
	user := models.User{
		ID:           domain.NewUserID(),
		Role:         models.RoleCitizen,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.Account{}, dErrors.New(dErrors.CodeConflict, "an account with this email or phone already exists")
		}
		return models.Account{}, err
	}

	profile := models.CitizenProfile{
		ID:          domain.NewCitizenID(),
		UserID:      user.ID,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Phone:       req.Phone,
		Address:     req.Address,
		Nationality: req.Nationality,
		CreatedAt:   now,
	}
	if err := s.store.CreateCitizenProfile(ctx, profile); err != nil {
		return models.Account{}, err
	}

	return models.Account{User: user, Citizen: &profile}, nil
}

// Login verifies the password and returns the account. The caller creates the
// session. Unknown identifier and bad password collapse into one error so the
// response doesn't reveal which accounts exist.
func (s *Service) Login(ctx context.Context, identifier, password string) (models.Account, error) {
	user, err := s.store.FindUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Account{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return models.Account{}, err
	}

	ok, err := secrets.Verify(user.PasswordHash, password)
	if err != nil {
		return models.Account{}, err
	}
	if !ok {
		return models.Account{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	return s.store.FindAccountByUserID(ctx, user.ID)
}

// Account loads the aggregate for an authenticated user ID.
func (s *Service) Account(ctx context.Context, userID domain.UserID) (models.Account, error) {
	account, err := s.store.FindAccountByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Account{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return models.Account{}, err
	}
	return account, nil
}

// ChangePassword re-verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID domain.UserID, current, updated string) error {
	if len(updated) < 8 {
		return dErrors.Validation("invalid password", map[string]string{
			"newPassword": "password must be at least 8 characters",
		})
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := secrets.Verify(user.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := secrets.Hash(updated)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = requestcontext.Now(ctx)
	return s.store.UpdateUser(ctx, user)
}

// UpdateProfileRequest holds the mutable profile attributes. Nil means leave
// the field unchanged.
type UpdateProfileRequest struct {
	FullName *string
	Phone    *string
	Address  *string
	PhotoKey *string
}

// UpdateProfile updates contact attributes on the user and, for citizens, the
// mutable attributes of the profile. The profile's user link, date of birth
// and gender are immutable.
func (s *Service) UpdateProfile(ctx context.Context, userID domain.UserID, req UpdateProfileRequest) (models.Account, error) {
	account, err := s.Account(ctx, userID)
	if err != nil {
		return models.Account{}, err
	}

	user := account.User
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if user.Email == "" && user.Phone == "" {
		return models.Account{}, dErrors.Validation("invalid profile", map[string]string{
			"phone": "either email or phone is required",
		})
	}
	user.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return models.Account{}, err
	}
	account.User = user

	if account.Citizen != nil && (req.Phone != nil || req.Address != nil || req.PhotoKey != nil) {
		profile := *account.Citizen
		if req.Phone != nil {
			profile.Phone = *req.Phone
		}
		if req.Address != nil {
			profile.Address = *req.Address
		}
		if req.PhotoKey != nil {
			profile.PhotoKey = *req.PhotoKey
		}
		if err := s.store.UpdateCitizenProfile(ctx, profile); err != nil {
			return models.Account{}, err
		}
		account.Citizen = &profile
	}

	return account, nil
}

// CreateKabaleAdminRequest provisions a kabale administrator account.
type CreateKabaleAdminRequest struct {
	FullName string
	Email    string
	Phone    string
	Password string
	KabaleID domain.KabaleID
}

// CreateKabaleAdmin is a system-admin operation: it creates the credential
// and binds it to its kabale in one step.
func (s *Service) CreateKabaleAdmin(ctx context.Context, scope rbac.Scope, req CreateKabaleAdminRequest) (models.Account, error) {
	if err := rbac.RequireSystemAdmin(scope); err != nil {
		return models.Account{}, err
	}
	fields := map[string]string{}
	if req.FullName == "" {
		fields["fullName"] = "full name is required"
	}
	if req.Email == "" && req.Phone == "" {
		fields["email"] = "either email or phone is required"
	}
	if len(req.Password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if req.KabaleID.IsNil() {
		fields["kabaleId"] = "kabale is required"
	}
	if len(fields) > 0 {
		return models.Account{}, dErrors.Validation("invalid kabale admin", fields)
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return models.Account{}, err
	}

	now := requestcontext.Now(ctx)
	user := models.User{
		ID:           domain.NewUserID(),
		Role:         models.RoleKabaleAdmin,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.Account{}, dErrors.New(dErrors.CodeConflict, "an account with this email or phone already exists")
		}
		return models.Account{}, err
	}

	profile := models.KabaleAdminProfile{UserID: user.ID, KabaleID: req.KabaleID}
	if err := s.store.CreateKabaleAdminProfile(ctx, profile); err != nil {
		return models.Account{}, err
	}

	return models.Account{User: user, KabaleAdmin: &profile}, nil
}
