package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kabaleid/internal/kabale"
	"kabaleid/internal/rbac"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
)

// KabaleHandler exposes the kabale registry. Reads are open to authenticated
// users; writes are system-admin only, enforced by the service.
type KabaleHandler struct {
	kabales *kabale.Service
	logger  *slog.Logger
}

func NewKabaleHandler(kabales *kabale.Service, logger *slog.Logger) *KabaleHandler {
	return &KabaleHandler{kabales: kabales, logger: logger}
}

type kabaleResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toKabaleResponse(k kabale.Kabale) kabaleResponse {
	return kabaleResponse{
		ID:        k.ID.String(),
		Name:      k.Name,
		Code:      k.Code,
		Address:   k.Address,
		Phone:     k.Phone,
		Email:     k.Email,
		CreatedAt: k.CreatedAt,
		UpdatedAt: k.UpdatedAt,
	}
}

type createKabaleRequest struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (h *KabaleHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	var req createKabaleRequest
	if err := decode(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	created, err := h.kabales.Create(r.Context(), p.Scope, kabale.CreateRequest{
		Name:    req.Name,
		Code:    req.Code,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toKabaleResponse(created))
}

type updateKabaleRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

func (h *KabaleHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, err := domain.ParseKabaleID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeNotFound, "kabale not found"))
		return
	}
	var req updateKabaleRequest
	if err := decode(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	updated, err := h.kabales.Update(r.Context(), p.Scope, id, kabale.UpdateRequest{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toKabaleResponse(updated))
}

func (h *KabaleHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseKabaleID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeNotFound, "kabale not found"))
		return
	}
	k, err := h.kabales.Get(r.Context(), id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toKabaleResponse(k))
}

func (h *KabaleHandler) handleList(w http.ResponseWriter, r *http.Request) {
	kabales, err := h.kabales.List(r.Context())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	out := make([]kabaleResponse, 0, len(kabales))
	for _, k := range kabales {
		out = append(out, toKabaleResponse(k))
	}
	writeJSON(w, http.StatusOK, out)
}
