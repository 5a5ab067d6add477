package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"kabaleid/internal/identity/models"
	identityservice "kabaleid/internal/identity/service"
	"kabaleid/internal/platform/middleware"
	"kabaleid/internal/rbac"
	"kabaleid/internal/session"
	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// maxPhotoBytes caps an uploaded citizen photo.
const maxPhotoBytes = 2 << 20

// PhotoUploader stores citizen photos; card rendering reads them back.
type PhotoUploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// AuthHandler covers registration, login and the authenticated /me surface.
// secureCookies marks session cookies Secure; production deployments sit
// behind TLS and must set it.
type AuthHandler struct {
	identity      *identityservice.Service
	sessions      *session.Service
	photos        PhotoUploader
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(identity *identityservice.Service, sessions *session.Service, photos PhotoUploader, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, sessions: sessions, photos: photos, secureCookies: secureCookies, logger: logger}
}

type registerRequest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
	Nationality string `json:"nationality"`
}

type accountResponse struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	FullName    string `json:"fullName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	CitizenID   string `json:"citizenId,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Address     string `json:"address,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	PhotoKey    string `json:"photoKey,omitempty"`
	KabaleID    string `json:"kabaleId,omitempty"`
}

func toAccountResponse(account models.Account) accountResponse {
	resp := accountResponse{
		ID:       account.User.ID.String(),
		Role:     string(account.User.Role),
		FullName: account.User.FullName,
		Email:    account.User.Email,
		Phone:    account.User.Phone,
	}
	if account.Citizen != nil {
		resp.CitizenID = account.Citizen.ID.String()
		resp.DateOfBirth = account.Citizen.DateOfBirth.Format(dateLayout)
		resp.Gender = account.Citizen.Gender
		resp.Address = account.Citizen.Address
		resp.Nationality = account.Citizen.Nationality
		resp.PhotoKey = account.Citizen.PhotoKey
	}
	if account.KabaleAdmin != nil {
		resp.KabaleID = account.KabaleAdmin.KabaleID.String()
	}
	return resp
}

type sessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Account   accountResponse `json:"account"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil && req.DateOfBirth != "" {
		writeError(h.logger, w, r, dErrors.Validation("invalid registration", map[string]string{
			"dateOfBirth": "must be formatted YYYY-MM-DD",
		}))
		return
	}

	account, err := h.identity.RegisterCitizen(r.Context(), identityservice.RegisterCitizenRequest{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		DateOfBirth: dob,
		Gender:      req.Gender,
		Address:     req.Address,
		Nationality: req.Nationality,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	sess, err := h.sessions.Create(r.Context(), account.User.ID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	h.setSessionCookie(w, sess)
	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Account:   toAccountResponse(account),
	})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if req.Identifier == "" || req.Password == "" {
		writeError(h.logger, w, r, dErrors.Validation("invalid login", map[string]string{
			"identifier": "identifier and password are required",
		}))
		return
	}

	account, err := h.identity.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	sess, err := h.sessions.Create(r.Context(), account.User.ID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	h.setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Account:   toAccountResponse(account),
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			writeError(h.logger, w, r, err)
			return
		}
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	account, err := h.identity.Account(r.Context(), p.UserID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

type updateProfileRequest struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

func (h *AuthHandler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	var req updateProfileRequest
	if err := decode(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	account, err := h.identity.UpdateProfile(r.Context(), p.UserID, identityservice.UpdateProfileRequest{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if err := h.identity.ChangePassword(r.Context(), p.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	// A password change revokes every other session the user holds.
	if err := h.sessions.DeleteUserSessions(r.Context(), p.UserID); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed, please log in again"})
}

// handleUploadPhoto stores the raw image body and links its key to the
// citizen profile.
func (h *AuthHandler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	if _, err := rbac.RequireCitizen(p.Scope); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if h.photos == nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnavailable, "photo storage is not configured"))
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		writeError(h.logger, w, r, dErrors.Validation("invalid photo", map[string]string{
			"contentType": "photo must be image/jpeg or image/png",
		}))
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPhotoBytes+1))
	if err != nil {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeValidation, "unreadable photo body"))
		return
	}
	if len(data) == 0 || len(data) > maxPhotoBytes {
		writeError(h.logger, w, r, dErrors.Validation("invalid photo", map[string]string{
			"body": "photo must be between 1 byte and 2 MiB",
		}))
		return
	}

	key := "photos/" + p.UserID.String()
	if err := h.photos.Put(r.Context(), key, data, contentType); err != nil {
		writeError(h.logger, w, r, dErrors.Wrap(err, dErrors.CodeUnavailable, "photo storage failed"))
		return
	}
	account, err := h.identity.UpdateProfile(r.Context(), p.UserID, identityservice.UpdateProfileRequest{PhotoKey: &key})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

type createKabaleAdminRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	KabaleID string `json:"kabaleId"`
}

func (h *AuthHandler) handleCreateKabaleAdmin(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	var req createKabaleAdminRequest
	if err := decode(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	var kabaleID domain.KabaleID
	if req.KabaleID != "" {
		parsed, err := domain.ParseKabaleID(req.KabaleID)
		if err != nil {
			writeError(h.logger, w, r, dErrors.Validation("invalid kabale admin", map[string]string{
				"kabaleId": "must be a valid kabale id",
			}))
			return
		}
		kabaleID = parsed
	}

	account, err := h.identity.CreateKabaleAdmin(r.Context(), p.Scope, identityservice.CreateKabaleAdminRequest{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		KabaleID: kabaleID,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sess session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionToken mirrors the middleware's extraction for logout, which is
// mounted outside the authenticated group.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			return auth[len(prefix):]
		}
	}
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
