package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/schoolhub/school-directory-service/internal/http/middleware"
	"github.com/schoolhub/school-directory-service/internal/http/response"
	"github.com/schoolhub/school-directory-service/internal/observability"
	"github.com/schoolhub/school-directory-service/internal/security"
	"github.com/schoolhub/school-directory-service/internal/service"
)

type AuthHandler struct {
	authSvc   service.AuthServiceInterface
	cookieMgr *security.CookieManager
	sessions  *security.SessionManager
}

func NewAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, sessions *security.SessionManager) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookieMgr: cookieMgr, sessions: sessions}
}

// RequestOTP issues a one-time code and mails it. The response body never
// reveals whether the address already has an account.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "otp_request", status, time.Since(start))
	}()

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		status = "failure"
		observability.Audit(r, "auth.otp.request.failed", "reason", "bad_payload")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	if err := h.authSvc.RequestCode(r.Context(), body.Email); err != nil {
		status = "failure"
		if errors.Is(err, service.ErrInvalidEmail) {
			observability.Audit(r, "auth.otp.request.failed", "reason", "invalid_email")
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid email address", nil)
			return
		}
		observability.Audit(r, "auth.otp.request.failed", "reason", "issue_error")
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to send code", nil)
		return
	}

	observability.Audit(r, "auth.otp.request.success", "email", maskEmail(body.Email))
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "code_sent"})
}

// VerifyOTP redeems a code and, on success, sets the session cookie. Every
// rejection looks the same to the caller; internal kinds only diverge in
// logs and metrics.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "otp_verify", status, time.Since(start))
	}()

	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		status = "failure"
		observability.Audit(r, "auth.otp.verify.failed", "reason", "bad_payload")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	result, err := h.authSvc.VerifyCode(r.Context(), body.Email, body.Code)
	if err != nil {
		status = "failure"
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			observability.Audit(r, "auth.otp.verify.failed", "reason", "invalid_email")
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid email address", nil)
		case errors.Is(err, service.ErrCodeExpired):
			observability.Audit(r, "auth.otp.verify.failed", "reason", "code_expired", "email", maskEmail(body.Email))
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired code", nil)
		case errors.Is(err, service.ErrInvalidCode):
			observability.Audit(r, "auth.otp.verify.failed", "reason", "code_invalid", "email", maskEmail(body.Email))
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired code", nil)
		default:
			observability.Audit(r, "auth.otp.verify.failed", "reason", "verify_error")
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "verification failed", nil)
		}
		return
	}

	h.cookieMgr.SetSessionCookie(w, result.Token, h.sessions.TTL())
	observability.Audit(r, "auth.login.success", "email", maskEmail(result.User.Email))
	response.JSON(w, r, http.StatusOK, result)
}

// Logout clears the session cookie. Sessions are stateless so there is
// nothing server-side to revoke; the call always succeeds, signed in or not.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "logout", "success", time.Since(start))
	}()

	h.cookieMgr.ClearSessionCookie(w)
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		observability.Audit(r, "auth.logout.success", "email", maskEmail(id.Email))
	} else {
		observability.Audit(r, "auth.logout.success", "email", "anonymous")
	}
	observability.RecordAuthLogout(r.Context(), "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me reports who the caller is. It never fails: anonymous or stale cookies
// get {"user": null} with a 200, so frontends can poll it freely.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.JSON(w, r, http.StatusOK, map[string]any{"user": nil})
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"user": map[string]string{"email": id.Email}})
}

// maskEmail keeps logs useful without spelling out full addresses.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
