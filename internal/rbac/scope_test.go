package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabaleid/internal/identity/models"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
)

func TestRequireKabaleAccess(t *testing.T) {
	ownKabale := domain.NewKabaleID()
	otherKabale := domain.NewKabaleID()

	tests := []struct {
		name    string
		scope   Scope
		kabale  domain.KabaleID
		allowed bool
	}{
		{"system admin, any kabale", SystemAdmin{}, otherKabale, true},
		{"kabale admin, own kabale", KabaleAdmin{KabaleID: ownKabale}, ownKabale, true},
		{"kabale admin, other kabale", KabaleAdmin{KabaleID: ownKabale}, otherKabale, false},
		{"citizen, any kabale", Citizen{CitizenID: domain.NewCitizenID()}, ownKabale, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireKabaleAccess(tt.scope, tt.kabale)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
			}
		})
	}
}

func TestResolve(t *testing.T) {
	kabaleID := domain.NewKabaleID()
	citizenID := domain.NewCitizenID()

	t.Run("system admin", func(t *testing.T) {
		scope, err := Resolve(models.Account{User: models.User{Role: models.RoleSystemAdmin}})
		require.NoError(t, err)
		assert.Equal(t, SystemAdmin{}, scope)
	})

	t.Run("kabale admin with assignment", func(t *testing.T) {
		scope, err := Resolve(models.Account{
			User:        models.User{Role: models.RoleKabaleAdmin},
			KabaleAdmin: &models.KabaleAdminProfile{KabaleID: kabaleID},
		})
		require.NoError(t, err)
		assert.Equal(t, KabaleAdmin{KabaleID: kabaleID}, scope)
	})

	t.Run("kabale admin without assignment is rejected", func(t *testing.T) {
		_, err := Resolve(models.Account{User: models.User{Role: models.RoleKabaleAdmin}})
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("registered citizen", func(t *testing.T) {
		scope, err := Resolve(models.Account{
			User:    models.User{Role: models.RoleCitizen},
			Citizen: &models.CitizenProfile{ID: citizenID},
		})
		require.NoError(t, err)
		assert.Equal(t, Citizen{CitizenID: citizenID}, scope)
	})

	t.Run("unregistered citizen is rejected", func(t *testing.T) {
		_, err := Resolve(models.Account{User: models.User{Role: models.RoleCitizen}})
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := Resolve(models.Account{User: models.User{Role: "SUPERUSER"}})
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})
}

func TestRequireCitizen(t *testing.T) {
	citizenID := domain.NewCitizenID()

	got, err := RequireCitizen(Citizen{CitizenID: citizenID})
	require.NoError(t, err)
	assert.Equal(t, citizenID, got)

	_, err = RequireCitizen(SystemAdmin{})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	_, err = RequireCitizen(KabaleAdmin{KabaleID: domain.NewKabaleID()})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}

func TestRequireSystemAdmin(t *testing.T) {
	assert.NoError(t, RequireSystemAdmin(SystemAdmin{}))
	assert.Error(t, RequireSystemAdmin(KabaleAdmin{KabaleID: domain.NewKabaleID()}))
	assert.Error(t, RequireSystemAdmin(Citizen{CitizenID: domain.NewCitizenID()}))
}
