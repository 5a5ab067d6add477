package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kabaleid/internal/verification"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
)

// VerifyHandler serves the public verification endpoint hit by QR scans. It
// requires no session.
type VerifyHandler struct {
	verifier *verification.Service
	logger   *slog.Logger
}

func NewVerifyHandler(verifier *verification.Service, logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{verifier: verifier, logger: logger}
}

func (h *VerifyHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDigitalIDID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeNotFound, "digital id not found"))
		return
	}

	payload, err := h.verifier.Verify(r.Context(), id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}
