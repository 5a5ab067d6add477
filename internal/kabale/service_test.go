package kabale_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kabaleid/internal/kabale"
	"kabaleid/internal/kabale/store"
	"kabaleid/internal/rbac"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
)

type KabaleServiceSuite struct {
	suite.Suite
	svc *kabale.Service
	ctx context.Context
}

func TestKabaleServiceSuite(t *testing.T) {
	suite.Run(t, new(KabaleServiceSuite))
}

func (s *KabaleServiceSuite) SetupTest() {
	s.svc = kabale.NewService(store.NewInMemory())
	s.ctx = context.Background()
}

func (s *KabaleServiceSuite) TestCreate() {
	created, err := s.svc.Create(s.ctx, rbac.SystemAdmin{}, kabale.CreateRequest{
		Name:    "Central Division",
		Code:    "KBL-C01",
		Address: "Kabale Municipal Offices",
	})
	s.Require().NoError(err)
	s.False(created.ID.IsNil())

	got, err := s.svc.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Central Division", got.Name)
	s.Equal("KBL-C01", got.Code)
}

func (s *KabaleServiceSuite) TestCreateRequiresSystemAdmin() {
	_, err := s.svc.Create(s.ctx, rbac.KabaleAdmin{KabaleID: domain.NewKabaleID()}, kabale.CreateRequest{
		Name: "Central Division",
		Code: "KBL-C01",
	})
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
}

func (s *KabaleServiceSuite) TestCreateValidation() {
	_, err := s.svc.Create(s.ctx, rbac.SystemAdmin{}, kabale.CreateRequest{})
	s.Require().Error(err)
	s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))

	var de *dErrors.Error
	s.Require().ErrorAs(err, &de)
	s.Contains(de.Fields, "name")
	s.Contains(de.Fields, "code")
}

func (s *KabaleServiceSuite) TestDuplicateCodeConflicts() {
	_, err := s.svc.Create(s.ctx, rbac.SystemAdmin{}, kabale.CreateRequest{Name: "Central", Code: "KBL-C01"})
	s.Require().NoError(err)

	_, err = s.svc.Create(s.ctx, rbac.SystemAdmin{}, kabale.CreateRequest{Name: "Other", Code: "kbl-c01"})
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
}

func (s *KabaleServiceSuite) TestUpdate() {
	created, err := s.svc.Create(s.ctx, rbac.SystemAdmin{}, kabale.CreateRequest{Name: "Central", Code: "KBL-C01"})
	s.Require().NoError(err)

	newName := "Central Division"
	newPhone := "+256700000099"
	updated, err := s.svc.Update(s.ctx, rbac.SystemAdmin{}, created.ID, kabale.UpdateRequest{
		Name:  &newName,
		Phone: &newPhone,
	})
	s.Require().NoError(err)
	s.Equal(newName, updated.Name)
	s.Equal(newPhone, updated.Phone)
	s.Equal("KBL-C01", updated.Code)
}

func (s *KabaleServiceSuite) TestUpdateUnknownKabale() {
	name := "Ghost"
	_, err := s.svc.Update(s.ctx, rbac.SystemAdmin{}, domain.NewKabaleID(), kabale.UpdateRequest{Name: &name})
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func (s *KabaleServiceSuite) TestListIsOpenToAnyScope() {
	_, err := s.svc.Create(s.ctx, rbac.SystemAdmin{}, kabale.CreateRequest{Name: "Central", Code: "KBL-C01"})
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, rbac.SystemAdmin{}, kabale.CreateRequest{Name: "Northern", Code: "KBL-N01"})
	s.Require().NoError(err)

	kabales, err := s.svc.List(s.ctx)
	s.Require().NoError(err)
	s.Len(kabales, 2)
}
