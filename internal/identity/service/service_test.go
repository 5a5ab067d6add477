package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kabaleid/internal/identity/models"
	"kabaleid/internal/identity/service"
	"kabaleid/internal/identity/store"
	"kabaleid/internal/rbac"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
)

type IdentityServiceSuite struct {
	suite.Suite
	svc *service.Service
	ctx context.Context
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupTest() {
	s.svc = service.NewService(store.NewInMemory())
	s.ctx = context.Background()
}

func validRegistration() service.RegisterCitizenRequest {
	return service.RegisterCitizenRequest{
		FullName:    "Akello Grace",
		Email:       "grace@example.com",
		Password:    "correct-horse-battery",
		DateOfBirth: time.Date(1994, 5, 12, 0, 0, 0, 0, time.UTC),
		Gender:      "FEMALE",
		Address:     "Plot 12, Kabale Road",
		Nationality: "Ugandan",
	}
}

func (s *IdentityServiceSuite) TestRegisterCitizen() {
	account, err := s.svc.RegisterCitizen(s.ctx, validRegistration())
	s.Require().NoError(err)

	s.Equal(models.RoleCitizen, account.User.Role)
	s.Require().NotNil(account.Citizen)
	s.Equal(account.User.ID, account.Citizen.UserID)
	s.Equal(models.RegistrationCitizenActive, account.RegistrationState())
	s.NotEqual("correct-horse-battery", account.User.PasswordHash)
}

func (s *IdentityServiceSuite) TestRegistrationValidation() {
	req := validRegistration()
	req.FullName = ""
	req.Email = ""
	req.Phone = ""
	req.Password = "short"

	_, err := s.svc.RegisterCitizen(s.ctx, req)
	s.Require().Error(err)
	s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))

	var de *dErrors.Error
	s.Require().ErrorAs(err, &de)
	s.Contains(de.Fields, "fullName")
	s.Contains(de.Fields, "email")
	s.Contains(de.Fields, "password")
}

func (s *IdentityServiceSuite) TestDuplicateRegistrationConflicts() {
	_, err := s.svc.RegisterCitizen(s.ctx, validRegistration())
	s.Require().NoError(err)

	_, err = s.svc.RegisterCitizen(s.ctx, validRegistration())
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
}

func (s *IdentityServiceSuite) TestLogin() {
	registered, err := s.svc.RegisterCitizen(s.ctx, validRegistration())
	s.Require().NoError(err)

	account, err := s.svc.Login(s.ctx, "grace@example.com", "correct-horse-battery")
	s.Require().NoError(err)
	s.Equal(registered.User.ID, account.User.ID)
	s.Require().NotNil(account.Citizen)
}

// Wrong password and unknown identifier produce the same error, so login
// responses don't reveal which accounts exist.
func (s *IdentityServiceSuite) TestLoginFailuresAreIndistinguishable() {
	_, err := s.svc.RegisterCitizen(s.ctx, validRegistration())
	s.Require().NoError(err)

	_, badPassword := s.svc.Login(s.ctx, "grace@example.com", "wrong-password")
	_, unknownUser := s.svc.Login(s.ctx, "nobody@example.com", "whatever-password")

	s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(badPassword))
	s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(unknownUser))
	s.Equal(badPassword.Error(), unknownUser.Error())
}

func (s *IdentityServiceSuite) TestChangePassword() {
	account, err := s.svc.RegisterCitizen(s.ctx, validRegistration())
	s.Require().NoError(err)

	err = s.svc.ChangePassword(s.ctx, account.User.ID, "correct-horse-battery", "a-new-long-password")
	s.Require().NoError(err)

	_, err = s.svc.Login(s.ctx, "grace@example.com", "correct-horse-battery")
	s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))

	_, err = s.svc.Login(s.ctx, "grace@example.com", "a-new-long-password")
	s.NoError(err)
}

func (s *IdentityServiceSuite) TestChangePasswordRequiresCurrent() {
	account, err := s.svc.RegisterCitizen(s.ctx, validRegistration())
	s.Require().NoError(err)

	err = s.svc.ChangePassword(s.ctx, account.User.ID, "not-the-password", "a-new-long-password")
	s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func (s *IdentityServiceSuite) TestUpdateProfile() {
	account, err := s.svc.RegisterCitizen(s.ctx, validRegistration())
	s.Require().NoError(err)

	newAddress := "Plot 7, Makanga Hill"
	newPhone := "+256700000042"
	updated, err := s.svc.UpdateProfile(s.ctx, account.User.ID, service.UpdateProfileRequest{
		Phone:   &newPhone,
		Address: &newAddress,
	})
	s.Require().NoError(err)
	s.Equal(newPhone, updated.User.Phone)
	s.Require().NotNil(updated.Citizen)
	s.Equal(newAddress, updated.Citizen.Address)
	s.Equal(newPhone, updated.Citizen.Phone)
}

func (s *IdentityServiceSuite) TestUpdateProfileCannotDropAllContacts() {
	req := validRegistration()
	req.Email = ""
	req.Phone = "+256700000050"
	account, err := s.svc.RegisterCitizen(s.ctx, req)
	s.Require().NoError(err)

	empty := ""
	_, err = s.svc.UpdateProfile(s.ctx, account.User.ID, service.UpdateProfileRequest{Phone: &empty})
	s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
}

func (s *IdentityServiceSuite) TestCreateKabaleAdmin() {
	kabaleID := domain.NewKabaleID()
	account, err := s.svc.CreateKabaleAdmin(s.ctx, rbac.SystemAdmin{}, service.CreateKabaleAdminRequest{
		FullName: "Byaruhanga Joseph",
		Email:    "joseph@kabale.go.ug",
		Password: "admin-password-1",
		KabaleID: kabaleID,
	})
	s.Require().NoError(err)
	s.Equal(models.RoleKabaleAdmin, account.User.Role)
	s.Require().NotNil(account.KabaleAdmin)
	s.Equal(kabaleID, account.KabaleAdmin.KabaleID)

	scope, err := rbac.Resolve(account)
	s.Require().NoError(err)
	s.Equal(rbac.KabaleAdmin{KabaleID: kabaleID}, scope)
}

func (s *IdentityServiceSuite) TestCreateKabaleAdminIsSystemAdminOnly() {
	_, err := s.svc.CreateKabaleAdmin(s.ctx, rbac.Citizen{CitizenID: domain.NewCitizenID()}, service.CreateKabaleAdminRequest{
		FullName: "Byaruhanga Joseph",
		Email:    "joseph@kabale.go.ug",
		Password: "admin-password-1",
		KabaleID: domain.NewKabaleID(),
	})
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
}
