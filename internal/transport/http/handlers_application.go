package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kabaleid/internal/application"
	applicationservice "kabaleid/internal/application/service"
	"kabaleid/internal/digitalid"
	"kabaleid/internal/rbac"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
)

// ApplicationHandler exposes the application lifecycle.
type ApplicationHandler struct {
	applications *applicationservice.Service
	logger       *slog.Logger
}

func NewApplicationHandler(applications *applicationservice.Service, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, logger: logger}
}

type applicationResponse struct {
	ID          string     `json:"id"`
	CitizenID   string     `json:"citizenId"`
	KabaleID    string     `json:"kabaleId"`
	Status      string     `json:"status"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toApplicationResponse(app application.Application) applicationResponse {
	return applicationResponse{
		ID:          app.ID.String(),
		CitizenID:   app.CitizenID.String(),
		KabaleID:    app.KabaleID.String(),
		Status:      string(app.Status),
		SubmittedAt: app.SubmittedAt,
		CreatedAt:   app.CreatedAt,
		UpdatedAt:   app.UpdatedAt,
	}
}

type createApplicationRequest struct {
	KabaleID string `json:"kabaleId"`
}

func (h *ApplicationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	var req createApplicationRequest
	if err := decode(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	kabaleID, err := domain.ParseKabaleID(req.KabaleID)
	if err != nil {
		writeError(h.logger, w, r, dErrors.Validation("invalid application", map[string]string{
			"kabaleId": "must be a valid kabale id",
		}))
		return
	}

	app, err := h.applications.Create(r.Context(), p.Scope, kabaleID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

type editApplicationRequest struct {
	KabaleID string `json:"kabaleId"`
}

func (h *ApplicationHandler) handleEdit(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeNotFound, "application not found"))
		return
	}
	var req editApplicationRequest
	if err := decode(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	kabaleID, err := domain.ParseKabaleID(req.KabaleID)
	if err != nil {
		writeError(h.logger, w, r, dErrors.Validation("invalid application", map[string]string{
			"kabaleId": "must be a valid kabale id",
		}))
		return
	}

	app, err := h.applications.Edit(r.Context(), p.Scope, id, kabaleID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *ApplicationHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeNotFound, "application not found"))
		return
	}

	app, err := h.applications.Submit(r.Context(), p.Scope, id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

type reviewRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

type reviewResponse struct {
	Application applicationResponse `json:"application"`
	DigitalID   *digitalIDResponse  `json:"digitalId,omitempty"`
}

func (h *ApplicationHandler) handleReview(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeNotFound, "application not found"))
		return
	}
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	result, err := h.applications.Review(r.Context(), p, applicationservice.ReviewRequest{
		ApplicationID: id,
		Action:        application.ReviewAction(req.Action),
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	resp := reviewResponse{Application: toApplicationResponse(result.Application)}
	if result.DigitalID != nil {
		d := toDigitalIDResponse(*result.DigitalID)
		resp.DigitalID = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ApplicationHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, err := domain.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeNotFound, "application not found"))
		return
	}

	app, err := h.applications.Get(r.Context(), p.Scope, id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *ApplicationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	apps, err := h.applications.List(r.Context(), p.Scope)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	out := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, toApplicationResponse(app))
	}
	writeJSON(w, http.StatusOK, out)
}

type digitalIDResponse struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	CitizenID     string    `json:"citizenId"`
	KabaleID      string    `json:"kabaleId"`
	Status        string    `json:"status"`
	IssuedAt      time.Time `json:"issuedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

func toDigitalIDResponse(d digitalid.DigitalID) digitalIDResponse {
	return digitalIDResponse{
		ID:            d.ID.String(),
		ApplicationID: d.ApplicationID.String(),
		CitizenID:     d.CitizenID.String(),
		KabaleID:      d.KabaleID.String(),
		Status:        string(d.Status),
		IssuedAt:      d.IssuedAt,
		ExpiresAt:     d.ExpiresAt,
	}
}
