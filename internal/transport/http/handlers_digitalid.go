package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kabaleid/internal/card"
	"kabaleid/internal/digitalid"
	digitalidservice "kabaleid/internal/digitalid/service"
	"kabaleid/internal/identity/models"
	"kabaleid/internal/kabale"
	"kabaleid/internal/platform/metrics"
	"kabaleid/internal/rbac"
	"kabaleid/internal/verification"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
)

// CitizenDirectory resolves the card holder's profile and display name.
type CitizenDirectory interface {
	FindCitizenProfileByID(ctx context.Context, id domain.CitizenID) (models.CitizenProfile, error)
	FindUserByID(ctx context.Context, id domain.UserID) (models.User, error)
}

// KabaleDirectory resolves the issuing kabale for card rendering.
type KabaleDirectory interface {
	FindByID(ctx context.Context, id domain.KabaleID) (kabale.Kabale, error)
}

// DigitalIDHandler serves issued IDs, their rendered artifacts and the design
// configuration.
type DigitalIDHandler struct {
	ids      *digitalidservice.Service
	citizens CitizenDirectory
	kabales  KabaleDirectory
	assets   *card.Fetcher
	baseURL  string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewDigitalIDHandler(
	ids *digitalidservice.Service,
	citizens CitizenDirectory,
	kabales KabaleDirectory,
	assets *card.Fetcher,
	baseURL string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *DigitalIDHandler {
	return &DigitalIDHandler{
		ids:      ids,
		citizens: citizens,
		kabales:  kabales,
		assets:   assets,
		baseURL:  baseURL,
		metrics:  m,
		logger:   logger,
	}
}

func (h *DigitalIDHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDigitalIDResponse(d))
}

func (h *DigitalIDHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	d, err := h.ids.Mine(r.Context(), p.Scope)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDigitalIDResponse(d))
}

func (h *DigitalIDHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, err := domain.ParseDigitalIDID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeNotFound, "digital id not found"))
		return
	}

	d, err := h.ids.Revoke(r.Context(), p.Scope, id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDigitalIDResponse(d))
}

// handleQR serves the verification QR for an ID the caller may see.
func (h *DigitalIDHandler) handleQR(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	png, err := verification.QRPNG(h.baseURL, d.ID)
	if err != nil {
		writeError(h.logger, w, r, dErrors.Wrap(err, dErrors.CodeInternal, "qr rendering failed"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

// handleCard renders the printable PDF card. Asset failures degrade to
// placeholders; only PDF production itself fails the request.
func (h *DigitalIDHandler) handleCard(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	profile, err := h.citizens.FindCitizenProfileByID(r.Context(), d.CitizenID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	user, err := h.citizens.FindUserByID(r.Context(), profile.UserID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	k, err := h.kabales.FindByID(r.Context(), d.KabaleID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	cfg, err := h.ids.Design(r.Context())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	assets := h.assets.Fetch(r.Context(), d, profile.PhotoKey)
	pdf, err := card.Render(cfg, card.Data{
		DigitalID:   d,
		FullName:    user.FullName,
		DateOfBirth: profile.DateOfBirth,
		Gender:      profile.Gender,
		Phone:       profile.Phone,
		Address:     profile.Address,
		Nationality: profile.Nationality,
		KabaleName:  k.Name,
		KabaleCode:  k.Code,
	}, assets)
	if err != nil {
		writeError(h.logger, w, r, dErrors.Wrap(err, dErrors.CodeInternal, "card rendering failed"))
		return
	}

	if h.metrics != nil {
		h.metrics.CardsRendered.Inc()
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="digital-id-`+d.ID.String()+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}

func (h *DigitalIDHandler) handleGetDesign(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.ids.Design(r.Context())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *DigitalIDHandler) handleUpdateDesign(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	var cfg digitalid.DesignConfig
	if err := decode(r, &cfg); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	updated, err := h.ids.UpdateDesign(r.Context(), p.Scope, cfg)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// loadScoped parses the route ID and loads it under the caller's scope.
func (h *DigitalIDHandler) loadScoped(w http.ResponseWriter, r *http.Request) (digitalid.DigitalID, bool) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return digitalid.DigitalID{}, false
	}
	id, err := domain.ParseDigitalIDID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeNotFound, "digital id not found"))
		return digitalid.DigitalID{}, false
	}
	d, err := h.ids.Get(r.Context(), p.Scope, id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return digitalid.DigitalID{}, false
	}
	return d, true
}
