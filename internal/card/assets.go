package card

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"kabaleid/internal/digitalid"
	"kabaleid/internal/platform/metrics"
	"kabaleid/pkg/domain"
)

// DefaultAssetTimeout bounds the whole asset fan-out. A slow object store or
// logo host degrades the card to placeholders instead of stalling the request.
const DefaultAssetTimeout = 3 * time.Second

// maxAssetBytes caps a single downloaded asset.
const maxAssetBytes = 5 << 20

// PhotoStore fetches citizen photos by object key.
type PhotoStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// QREncoder renders the verification QR for a digital ID.
type QREncoder func(id domain.DigitalIDID) ([]byte, error)

// Assets are the three images placed on a card. A nil slice means the asset
// was unavailable and the renderer draws its placeholder instead.
type Assets struct {
	Photo []byte
	Logo  []byte
	QR    []byte
}

// Fetcher gathers card assets concurrently. Every fetch is best effort; only
// the surrounding PDF production can fail a card request.
type Fetcher struct {
	photos  PhotoStore
	client  *http.Client
	logoURL string
	encode  QREncoder
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewFetcher(photos PhotoStore, client *http.Client, logoURL string, encode QREncoder, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultAssetTimeout
	}
	return &Fetcher{
		photos:  photos,
		client:  client,
		logoURL: logoURL,
		encode:  encode,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Fetch loads photo, logo and QR in parallel under one deadline. It never
// returns an error: failures are logged, counted and replaced by nil.
func (f *Fetcher) Fetch(ctx context.Context, d digitalid.DigitalID, photoKey string) Assets {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var assets Assets
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if f.photos == nil || photoKey == "" {
			f.fallback(ctx, "photo", nil)
			return nil
		}
		photo, err := f.photos.Get(ctx, photoKey)
		if err != nil {
			f.fallback(ctx, "photo", err)
			return nil
		}
		assets.Photo = photo
		return nil
	})

	g.Go(func() error {
		if f.logoURL == "" {
			f.fallback(ctx, "logo", nil)
			return nil
		}
		logo, err := f.fetchLogo(ctx)
		if err != nil {
			f.fallback(ctx, "logo", err)
			return nil
		}
		assets.Logo = logo
		return nil
	})

	g.Go(func() error {
		qr, err := f.encode(d.ID)
		if err != nil {
			f.fallback(ctx, "qr", err)
			return nil
		}
		assets.QR = qr
		return nil
	})

	_ = g.Wait() // goroutines never return errors
	return assets
}

func (f *Fetcher) fetchLogo(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.logoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("logo fetch: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
}

func (f *Fetcher) fallback(ctx context.Context, asset string, err error) {
	if f.metrics != nil {
		f.metrics.CardAssetFallbacks.WithLabelValues(asset).Inc()
	}
	if err != nil && f.logger != nil {
		f.logger.WarnContext(ctx, "card asset unavailable, using placeholder",
			"asset", asset,
			"error", err,
		)
	}
}
