package middleware

import (
	"context"
	"net/http"
	"strings"

	"kabaleid/internal/identity/models"
	"kabaleid/internal/rbac"
	"kabaleid/internal/session"
	"kabaleid/pkg/domain"
)

// SessionCookie is the browser-facing session token carrier. API clients may
// send the same token as a Bearer header instead.
const SessionCookie = "kabale_session"

// SessionResolver validates a session token. Expired sessions resolve to an
// error, never to a principal.
type SessionResolver interface {
	Get(ctx context.Context, token string) (session.Session, error)
}

// AccountLoader loads the account aggregate for scope resolution.
type AccountLoader interface {
	Account(ctx context.Context, userID domain.UserID) (models.Account, error)
}

// Authenticator turns a session token into an rbac.Principal in context.
type Authenticator struct {
	sessions SessionResolver
	accounts AccountLoader
}

func NewAuthenticator(sessions SessionResolver, accounts AccountLoader) *Authenticator {
	return &Authenticator{sessions: sessions, accounts: accounts}
}

// Require rejects requests without a valid session. Handlers behind it can
// assume rbac.PrincipalFrom succeeds.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			unauthorized(w, "authentication required")
			return
		}

		sess, err := a.sessions.Get(r.Context(), token)
		if err != nil {
			unauthorized(w, "invalid or expired session")
			return
		}

		account, err := a.accounts.Account(r.Context(), sess.UserID)
		if err != nil {
			unauthorized(w, "invalid or expired session")
			return
		}
		scope, err := rbac.Resolve(account)
		if err != nil {
			forbidden(w, "account cannot act in this system")
			return
		}

		principal := rbac.Principal{
			UserID:   account.User.ID,
			Role:     account.User.Role,
			FullName: account.User.FullName,
			Scope:    scope,
		}
		next.ServeHTTP(w, r.WithContext(rbac.WithPrincipal(r.Context(), principal)))
	})
}

func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	writeAuthError(w, http.StatusUnauthorized, "unauthorized", message)
}

func forbidden(w http.ResponseWriter, message string) {
	writeAuthError(w, http.StatusForbidden, "forbidden", message)
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
