//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kabaleid/internal/digitalid"
	"kabaleid/pkg/domain"
	"kabaleid/pkg/platform/sentinel"
	"kabaleid/pkg/testutil/containers"
)

type PostgresDigitalIDSuite struct {
	suite.Suite

	ctx   context.Context
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresDigitalIDSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(PostgresDigitalIDSuite))
}

func (s *PostgresDigitalIDSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresDigitalIDSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx,
		"digital_ids", "id_applications", "citizen_profiles", "kabales", "users"))
}

// seedApplication inserts the user, citizen profile, kabale and application
// rows a digital ID depends on.
func (s *PostgresDigitalIDSuite) seedApplication() (domain.CitizenID, domain.KabaleID, domain.ApplicationID) {
	userID := domain.NewUserID()
	citizenID := domain.NewCitizenID()
	kabaleID := domain.NewKabaleID()
	appID := domain.NewApplicationID()

	_, err := s.pg.DB.ExecContext(s.ctx, `
		INSERT INTO users (id, role, full_name, email, password_hash, created_at, updated_at)
		VALUES ($1, 'CITIZEN', 'Test Citizen', $2, 'hash', now(), now())
	`, uuid.UUID(userID), userID.String()+"@example.com")
	s.Require().NoError(err)

	_, err = s.pg.DB.ExecContext(s.ctx, `
		INSERT INTO citizen_profiles (id, user_id, date_of_birth, gender, created_at)
		VALUES ($1, $2, '1990-01-01', 'FEMALE', now())
	`, uuid.UUID(citizenID), uuid.UUID(userID))
	s.Require().NoError(err)

	_, err = s.pg.DB.ExecContext(s.ctx, `
		INSERT INTO kabales (id, name, code, created_at, updated_at)
		VALUES ($1, 'Central Division', $2, now(), now())
	`, uuid.UUID(kabaleID), kabaleID.String())
	s.Require().NoError(err)

	_, err = s.pg.DB.ExecContext(s.ctx, `
		INSERT INTO id_applications (id, citizen_id, kabale_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'APPROVED', now(), now())
	`, uuid.UUID(appID), uuid.UUID(citizenID), uuid.UUID(kabaleID))
	s.Require().NoError(err)

	return citizenID, kabaleID, appID
}

func (s *PostgresDigitalIDSuite) newDigitalID(citizenID domain.CitizenID, kabaleID domain.KabaleID, appID domain.ApplicationID) digitalid.DigitalID {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return digitalid.DigitalID{
		ID:            domain.NewDigitalIDID(),
		ApplicationID: appID,
		CitizenID:     citizenID,
		KabaleID:      kabaleID,
		Status:        digitalid.StatusActive,
		IssuedAt:      now,
		ExpiresAt:     now.AddDate(3, 0, 0),
	}
}

func (s *PostgresDigitalIDSuite) TestCreateAndFind() {
	citizenID, kabaleID, appID := s.seedApplication()
	d := s.newDigitalID(citizenID, kabaleID, appID)
	s.Require().NoError(s.store.Create(s.ctx, d))

	got, err := s.store.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(d.ID, got.ID)
	s.Equal(d.ApplicationID, got.ApplicationID)
	s.Equal(digitalid.StatusActive, got.Status)
	s.WithinDuration(d.ExpiresAt, got.ExpiresAt, time.Second)

	active, err := s.store.FindActiveByCitizen(s.ctx, citizenID)
	s.Require().NoError(err)
	s.Equal(d.ID, active.ID)
}

// The partial unique index on (citizen_id) WHERE status = 'ACTIVE' is the
// database-level backstop for the one-active-ID rule. A second ACTIVE row for
// the same citizen must be rejected even when the application layer is
// bypassed.
func (s *PostgresDigitalIDSuite) TestSecondActiveIDForCitizenIsRejected() {
	citizenID, kabaleID, appID := s.seedApplication()
	s.Require().NoError(s.store.Create(s.ctx, s.newDigitalID(citizenID, kabaleID, appID)))

	secondAppID := domain.NewApplicationID()
	_, err := s.pg.DB.ExecContext(s.ctx, `
		INSERT INTO id_applications (id, citizen_id, kabale_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'APPROVED', now(), now())
	`, uuid.UUID(secondAppID), uuid.UUID(citizenID), uuid.UUID(kabaleID))
	s.Require().NoError(err)

	err = s.store.Create(s.ctx, s.newDigitalID(citizenID, kabaleID, secondAppID))
	s.Require().Error(err)

	count, err := s.store.CountActiveByCitizen(s.ctx, citizenID)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PostgresDigitalIDSuite) TestRevokedIDAllowsReissue() {
	citizenID, kabaleID, appID := s.seedApplication()
	first := s.newDigitalID(citizenID, kabaleID, appID)
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.UpdateStatus(s.ctx, first.ID, digitalid.StatusRevoked))

	_, err := s.store.FindActiveByCitizen(s.ctx, citizenID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	secondAppID := domain.NewApplicationID()
	_, err = s.pg.DB.ExecContext(s.ctx, `
		INSERT INTO id_applications (id, citizen_id, kabale_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'APPROVED', now(), now())
	`, uuid.UUID(secondAppID), uuid.UUID(citizenID), uuid.UUID(kabaleID))
	s.Require().NoError(err)

	second := s.newDigitalID(citizenID, kabaleID, secondAppID)
	s.Require().NoError(s.store.Create(s.ctx, second))

	active, err := s.store.FindActiveByCitizen(s.ctx, citizenID)
	s.Require().NoError(err)
	s.Equal(second.ID, active.ID)
}

func (s *PostgresDigitalIDSuite) TestUpdateStatusMissingID() {
	err := s.store.UpdateStatus(s.ctx, domain.NewDigitalIDID(), digitalid.StatusExpired)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
