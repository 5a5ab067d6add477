package digitalid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeExpiryUsesCalendarYears(t *testing.T) {
	tests := []struct {
		name     string
		issuedAt time.Time
		years    int
		want     time.Time
	}{
		{
			"same month and day three years later",
			time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
			3,
			time.Date(2029, 8, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			"single year",
			time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			1,
			time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			"leap day normalizes to march 1",
			time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
			3,
			time.Date(2027, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			"leap day to leap year stays on feb 29",
			time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
			4,
			time.Date(2028, 2, 29, 12, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeExpiry(tt.issuedAt, tt.years))
		})
	}
}

func TestValid(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	active := DigitalID{Status: StatusActive, ExpiresAt: now.AddDate(1, 0, 0)}
	assert.True(t, active.Valid(now))

	expired := DigitalID{Status: StatusActive, ExpiresAt: now.AddDate(-1, 0, 0)}
	assert.False(t, expired.Valid(now))

	revoked := DigitalID{Status: StatusRevoked, ExpiresAt: now.AddDate(1, 0, 0)}
	assert.False(t, revoked.Valid(now))
}

func TestExpiryYearsDefaultsToThree(t *testing.T) {
	assert.Equal(t, 3, DesignConfig{}.ExpiryYears())
	assert.Equal(t, 3, DesignConfig{ExpiryDuration: -1}.ExpiryYears())
	assert.Equal(t, 5, DesignConfig{ExpiryDuration: 5}.ExpiryYears())
}
