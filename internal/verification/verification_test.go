package verification_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"kabaleid/internal/digitalid"
	idstore "kabaleid/internal/digitalid/store"
	"kabaleid/internal/identity/models"
	identitystore "kabaleid/internal/identity/store"
	"kabaleid/internal/kabale"
	kabalestore "kabaleid/internal/kabale/store"
	"kabaleid/internal/verification"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
	"kabaleid/pkg/requestcontext"
)

func TestURL(t *testing.T) {
	id := domain.NewDigitalIDID()
	want := "https://id.kabale.go.ug/verify/" + id.String()

	require.Equal(t, want, verification.URL("https://id.kabale.go.ug", id))
	require.Equal(t, want, verification.URL("https://id.kabale.go.ug/", id))
}

func TestQRPNG(t *testing.T) {
	png, err := verification.QRPNG("https://id.kabale.go.ug", domain.NewDigitalIDID())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

type VerifySuite struct {
	suite.Suite

	svc *verification.Service
	ids *idstore.InMemoryStore

	digitalID domain.DigitalIDID
	issuedAt  time.Time
	expiresAt time.Time
}

func (s *VerifySuite) SetupTest() {
	s.ids = idstore.NewInMemory()
	identities := identitystore.NewInMemory()
	kabales := kabalestore.NewInMemory()

	userID := domain.NewUserID()
	s.Require().NoError(identities.CreateUser(context.Background(), models.User{
		ID:       userID,
		Role:     models.RoleCitizen,
		FullName: "Akello Grace",
		Email:    "akello@example.ug",
	}))
	citizenID := domain.NewCitizenID()
	s.Require().NoError(identities.CreateCitizenProfile(context.Background(), models.CitizenProfile{
		ID:     citizenID,
		UserID: userID,
	}))

	kabaleID := domain.NewKabaleID()
	s.Require().NoError(kabales.Create(context.Background(), kabale.Kabale{
		ID:   kabaleID,
		Name: "Central Division",
		Code: "KBL-C",
	}))

	s.issuedAt = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	s.expiresAt = s.issuedAt.AddDate(3, 0, 0)
	s.digitalID = domain.NewDigitalIDID()
	s.Require().NoError(s.ids.Create(context.Background(), digitalid.DigitalID{
		ID:            s.digitalID,
		ApplicationID: domain.NewApplicationID(),
		CitizenID:     citizenID,
		KabaleID:      kabaleID,
		Status:        digitalid.StatusActive,
		IssuedAt:      s.issuedAt,
		ExpiresAt:     s.expiresAt,
	}))

	s.svc = verification.NewService(s.ids, identities, kabales)
}

func TestVerifySuite(t *testing.T) {
	suite.Run(t, new(VerifySuite))
}

func (s *VerifySuite) TestActiveIDVerifiesValid() {
	ctx := requestcontext.WithTime(context.Background(), s.issuedAt.AddDate(1, 0, 0))

	payload, err := s.svc.Verify(ctx, s.digitalID)
	s.Require().NoError(err)
	s.Equal(digitalid.StatusActive, payload.Status)
	s.Equal("Akello Grace", payload.CitizenName)
	s.Equal("Central Division", payload.KabaleName)
	s.Equal(s.issuedAt, payload.IssuedAt)
	s.Equal(s.expiresAt, payload.ExpiresAt)
	s.True(payload.Valid)
}

func (s *VerifySuite) TestExpiryObservedOnScan() {
	ctx := requestcontext.WithTime(context.Background(), s.expiresAt.Add(time.Hour))

	payload, err := s.svc.Verify(ctx, s.digitalID)
	s.Require().NoError(err)
	s.Equal(digitalid.StatusExpired, payload.Status)
	s.False(payload.Valid)

	// The flip is persisted, not just reported.
	stored, err := s.ids.FindByID(context.Background(), s.digitalID)
	s.Require().NoError(err)
	s.Equal(digitalid.StatusExpired, stored.Status)
}

func (s *VerifySuite) TestRevokedIDVerifiesInvalid() {
	s.Require().NoError(s.ids.UpdateStatus(context.Background(), s.digitalID, digitalid.StatusRevoked))

	payload, err := s.svc.Verify(context.Background(), s.digitalID)
	s.Require().NoError(err)
	s.Equal(digitalid.StatusRevoked, payload.Status)
	s.False(payload.Valid)
}

func (s *VerifySuite) TestUnknownIDNotFound() {
	_, err := s.svc.Verify(context.Background(), domain.NewDigitalIDID())
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}
