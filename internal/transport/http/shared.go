// Package httptransport is the thin HTTP layer: decode, delegate to a domain
// service, encode. Authorization and business rules live in the services.
package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "kabaleid/pkg/domain-errors"
	"kabaleid/pkg/requestcontext"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// writeError maps a domain error onto the stable error envelope. Non-domain
// errors become opaque 500s; their detail goes to the log, not the client.
func writeError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		logger.ErrorContext(r.Context(), "unhandled error",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		de = dErrors.New(dErrors.CodeInternal, "internal server error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(de.Code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Success: false,
		Error: errorBody{
			Code:    string(de.Code),
			Message: de.Message,
			Fields:  de.Fields,
		},
	})
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid request body")
	}
	return nil
}
