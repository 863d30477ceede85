package handler

import (
	"net/http"

	"github.com/sandeepkv93/secure-forum-backend/internal/http/middleware"
	"github.com/sandeepkv93/secure-forum-backend/internal/http/response"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"
	"github.com/sandeepkv93/secure-forum-backend/internal/security"
	"github.com/sandeepkv93/secure-forum-backend/internal/service"
)

type AuthHandler struct {
	authSvc      service.AuthServiceInterface
	sessions     service.SessionManager
	cookieName   string
	cookieSecure bool
}

func NewAuthHandler(authSvc service.AuthServiceInterface, sessions service.SessionManager, cookieName string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, sessions: sessions, cookieName: cookieName, cookieSecure: cookieSecure}
}

type userBody struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	res, err := h.authSvc.Register(r.Context(), service.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		observability.Audit(r, "auth.signup", "outcome", "rejected")
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "auth.signup", "outcome", "success", "user_id", res.UserID)
	response.JSON(w, r, http.StatusCreated, map[string]any{
		"message": "account created",
		"user":    userBody{ID: res.UserID, Email: res.Email, Name: res.Name},
	})
}

// SignIn checks credentials and, on success, opens a session and sets its cookie.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	res, err := h.authSvc.SignIn(r.Context(), service.SignInInput{Email: req.Email, Password: req.Password})
	if err != nil {
		observability.Audit(r, "auth.signin", "outcome", "rejected")
		response.FromError(w, r, err)
		return
	}
	issued, err := h.sessions.Issue(r.Context(), res.UserID, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	security.SetSessionCookie(w, r, h.cookieName, issued.Token, issued.ExpiresAt, h.cookieSecure)
	observability.Audit(r, "auth.signin", "outcome", "success", "user_id", res.UserID, "session_id", issued.SessionID)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user": userBody{ID: res.UserID, Email: res.Email, Name: res.Name},
	})
}

// SignOut revokes every session of the caller. Anonymous callers get a zero count; the
// cookie is cleared either way.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		security.ClearSessionCookie(w, r, h.cookieName, h.cookieSecure)
		observability.Audit(r, "auth.signout", "outcome", "anonymous")
		response.JSON(w, r, http.StatusOK, map[string]any{
			"success":         true,
			"message":         "already signed out",
			"revokedSessions": 0,
		})
		return
	}
	res, err := h.authSvc.SignOut(r.Context(), principal.UserID)
	security.ClearSessionCookie(w, r, h.cookieName, h.cookieSecure)
	if err != nil {
		observability.Audit(r, "auth.signout", "outcome", "error", "user_id", principal.UserID)
		response.FromError(w, r, err)
		return
	}
	observability.Audit(r, "auth.signout", "outcome", "success", "user_id", principal.UserID, "revoked", res.RevokedSessions)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"success":         res.Success,
		"message":         "signed out",
		"revokedSessions": res.RevokedSessions,
	})
}

// Sessions lists the caller's active sessions.
func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrError(w, r)
	if !ok {
		return
	}
	sessions, err := h.sessions.ListActive(r.Context(), principal.UserID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"sessions": sessions})
}
