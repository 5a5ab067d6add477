// Package kabale manages the administrative units that scope applications,
// citizens and digital IDs.
package kabale

import (
	"time"

	"kabaleid/pkg/domain"
)

// Kabale is one administrative unit. Code is the short unique identifier used
// on printed cards and in reports.
type Kabale struct {
	ID        domain.KabaleID
	Name      string
	Code      string
	Address   string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
