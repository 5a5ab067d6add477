package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserID(t *testing.T) {
	raw := uuid.New()

	parsed, err := ParseUserID(raw.String())
	require.NoError(t, err)
	assert.Equal(t, UserID(raw), parsed)
	assert.Equal(t, raw.String(), parsed.String())
	assert.False(t, parsed.IsNil())
}

func TestParseUserIDRejectsGarbage(t *testing.T) {
	_, err := ParseUserID("not-a-uuid")
	assert.Error(t, err)
}

func TestZeroValueIsNil(t *testing.T) {
	assert.True(t, UserID{}.IsNil())
	assert.True(t, KabaleID{}.IsNil())
	assert.True(t, ApplicationID{}.IsNil())
	assert.True(t, DigitalIDID{}.IsNil())
	assert.False(t, NewCitizenID().IsNil())
}

func TestTypedIDsAreDistinctPerEntity(t *testing.T) {
	raw := uuid.New()

	kabale, err := ParseKabaleID(raw.String())
	require.NoError(t, err)
	app, err := ParseApplicationID(raw.String())
	require.NoError(t, err)

	// Same underlying UUID, different types; equality only holds on the
	// string form.
	assert.Equal(t, kabale.String(), app.String())
}
