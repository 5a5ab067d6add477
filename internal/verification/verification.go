// Package verification backs the public QR verification flow: anyone scanning
// a card's code can confirm the ID's validity without authenticating.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"kabaleid/internal/digitalid"
	"kabaleid/internal/identity/models"
	"kabaleid/internal/kabale"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
	"kabaleid/pkg/platform/sentinel"
	"kabaleid/pkg/requestcontext"
)

// qrSize is the rendered QR edge in pixels.
const qrSize = 200

// URL builds the public verification link encoded into each card's QR code.
func URL(baseURL string, id domain.DigitalIDID) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + id.String()
}

// QRPNG renders the verification link as a PNG QR code.
func QRPNG(baseURL string, id domain.DigitalIDID) ([]byte, error) {
	png, err := qrcode.Encode(URL(baseURL, id), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode verification qr: %w", err)
	}
	return png, nil
}

// Payload is what a verifier sees. It deliberately exposes only the holder's
// name and the issuing kabale, none of the profile details.
type Payload struct {
	Status      digitalid.Status `json:"status"`
	CitizenName string           `json:"citizenName"`
	KabaleName  string           `json:"kabaleName"`
	IssuedAt    time.Time        `json:"issuedAt"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	Valid       bool             `json:"valid"`
}

// IDStore is the digital ID surface verification needs.
type IDStore interface {
	FindByID(ctx context.Context, id domain.DigitalIDID) (digitalid.DigitalID, error)
	UpdateStatus(ctx context.Context, id domain.DigitalIDID, status digitalid.Status) error
}

// CitizenDirectory resolves the holder's display name.
type CitizenDirectory interface {
	FindCitizenProfileByID(ctx context.Context, id domain.CitizenID) (models.CitizenProfile, error)
	FindUserByID(ctx context.Context, id domain.UserID) (models.User, error)
}

// KabaleStore resolves the issuing kabale's display name.
type KabaleStore interface {
	FindByID(ctx context.Context, id domain.KabaleID) (kabale.Kabale, error)
}

// Service resolves a scanned digital ID into its public payload.
type Service struct {
	ids      IDStore
	citizens CitizenDirectory
	kabales  KabaleStore
}

func NewService(ids IDStore, citizens CitizenDirectory, kabales KabaleStore) *Service {
	return &Service{ids: ids, citizens: citizens, kabales: kabales}
}

// Verify looks up the scanned ID. ACTIVE rows past their expiry are flipped
// to EXPIRED on observation, so a scan never reports a stale ACTIVE.
func (s *Service) Verify(ctx context.Context, id domain.DigitalIDID) (Payload, error) {
	d, err := s.ids.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Payload{}, dErrors.New(dErrors.CodeNotFound, "digital id not found")
	}
	if err != nil {
		return Payload{}, err
	}

	now := requestcontext.Now(ctx)
	if d.Status == digitalid.StatusActive && now.After(d.ExpiresAt) {
		if err := s.ids.UpdateStatus(ctx, d.ID, digitalid.StatusExpired); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return Payload{}, err
		}
		d.Status = digitalid.StatusExpired
	}

	profile, err := s.citizens.FindCitizenProfileByID(ctx, d.CitizenID)
	if err != nil {
		return Payload{}, err
	}
	user, err := s.citizens.FindUserByID(ctx, profile.UserID)
	if err != nil {
		return Payload{}, err
	}
	k, err := s.kabales.FindByID(ctx, d.KabaleID)
	if err != nil {
		return Payload{}, err
	}

	return Payload{
		Status:      d.Status,
		CitizenName: user.FullName,
		KabaleName:  k.Name,
		IssuedAt:    d.IssuedAt,
		ExpiresAt:   d.ExpiresAt,
		Valid:       d.Valid(now),
	}, nil
}
