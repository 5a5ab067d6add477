package card_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kabaleid/internal/card"
	"kabaleid/internal/digitalid"
	"kabaleid/internal/platform/metrics"
	"kabaleid/internal/verification"
	"kabaleid/pkg/domain"
)

func testData() card.Data {
	issued := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return card.Data{
		DigitalID: digitalid.DigitalID{
			ID:            domain.NewDigitalIDID(),
			ApplicationID: domain.NewApplicationID(),
			CitizenID:     domain.NewCitizenID(),
			KabaleID:      domain.NewKabaleID(),
			Status:        digitalid.StatusActive,
			IssuedAt:      issued,
			ExpiresAt:     issued.AddDate(3, 0, 0),
		},
		FullName:    "Akello Grace",
		DateOfBirth: time.Date(1994, 6, 12, 0, 0, 0, 0, time.UTC),
		Gender:      "F",
		Phone:       "+256700000001",
		Address:     "Plot 4, Kabale Road",
		Nationality: "Ugandan",
		KabaleName:  "Central Division",
		KabaleCode:  "KBL-C",
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	data := testData()
	qr, err := verification.QRPNG("https://id.kabale.go.ug", data.DigitalID.ID)
	require.NoError(t, err)
	assets := card.Assets{QR: qr}

	first, err := card.Render(digitalid.DefaultDesignConfig(), data, assets)
	require.NoError(t, err)
	second, err := card.Render(digitalid.DefaultDesignConfig(), data, assets)
	require.NoError(t, err)

	require.NotEmpty(t, first)
	require.Equal(t, first, second)
}

func TestRenderSurvivesMissingAssets(t *testing.T) {
	pdf, err := card.Render(digitalid.DefaultDesignConfig(), testData(), card.Assets{})
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
}

func TestRenderIgnoresMalformedConfig(t *testing.T) {
	cfg := digitalid.DesignConfig{
		HeaderColor: "not-a-color",
		FontFamily:  "Comic Sans",
		HeaderText:  "REPUBLIC OF UGANDA",
	}
	pdf, err := card.Render(cfg, testData(), card.Assets{})
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
}

func TestFetcherDegradesToPlaceholders(t *testing.T) {
	d := testData().DigitalID
	failingQR := func(domain.DigitalIDID) ([]byte, error) {
		return nil, errors.New("encoder down")
	}

	f := card.NewFetcher(nil, nil, "", failingQR, time.Second, nil, metrics.NewForTest())
	assets := f.Fetch(context.Background(), d, "")

	require.Nil(t, assets.Photo)
	require.Nil(t, assets.Logo)
	require.Nil(t, assets.QR)
}

func TestFetcherLoadsLogoAndQR(t *testing.T) {
	logo := []byte("\x89PNG fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(logo)
	}))
	defer srv.Close()

	d := testData().DigitalID
	encode := func(id domain.DigitalIDID) ([]byte, error) {
		return verification.QRPNG(srv.URL, id)
	}

	f := card.NewFetcher(nil, srv.Client(), srv.URL, encode, time.Second, nil, metrics.NewForTest())
	assets := f.Fetch(context.Background(), d, "")

	require.Equal(t, logo, assets.Logo)
	require.NotEmpty(t, assets.QR)
	require.Nil(t, assets.Photo)
}
