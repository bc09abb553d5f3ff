package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/schoolhub/school-directory-service/internal/config"
)

func TestOTPSignInLifecycle(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()

	email := "lifecycle@school.example"
	resp, body := env.doJSON(t, http.MethodPost, "/api/v1/auth/otp/request", map[string]string{"email": email}, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "code_sent") {
		t.Fatalf("otp request failed: status=%d body=%q", resp.StatusCode, body)
	}

	code := env.mailer.lastCode(t, email)
	if len(code) != 6 {
		t.Fatalf("expected a 6 digit code, got %q", code)
	}

	// A wrong guess before the real code must not consume anything.
	resp, body = env.doJSON(t, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": email, "code": "000000"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong code, got %d", resp.StatusCode)
	}
	if errEnv := decodeErrorEnvelope(t, body); errEnv.Error == nil || errEnv.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED envelope, got %q", body)
	}

	resp, body = env.doJSON(t, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": email, "code": code}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify failed: status=%d body=%q", resp.StatusCode, body)
	}
	if strings.Contains(body, `"token"`) {
		t.Fatalf("session token must not appear in the response body: %q", body)
	}

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("verify response did not set the session cookie")
	}
	if !sessionCookie.HttpOnly || sessionCookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("session cookie attributes too lax: %+v", sessionCookie)
	}

	resp, body = env.doJSON(t, http.MethodGet, "/api/v1/auth/me", nil, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, email) {
		t.Fatalf("me after sign-in: status=%d body=%q", resp.StatusCode, body)
	}

	resp, _ = env.doJSON(t, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout failed: %d", resp.StatusCode)
	}
	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("logout did not clear the session cookie")
	}

	resp, body = env.doJSON(t, http.MethodGet, "/api/v1/auth/me", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me after logout should stay 200, got %d", resp.StatusCode)
	}
	var me struct {
		User *json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal([]byte(body), &me); err != nil || me.User != nil {
		t.Fatalf("expected anonymous me after logout, got %q (err=%v)", body, err)
	}
}

func TestOTPCodeIsSingleUse(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()

	email := "singleuse@school.example"
	env.signIn(t, email)
	code := env.mailer.lastCode(t, email)

	resp, body := env.doJSON(t, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": email, "code": code}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("replayed code should fail with 401, got %d body=%q", resp.StatusCode, body)
	}
}

func TestOTPRequestAgainKeepsEarlierCodes(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()

	email := "twocodes@school.example"
	for i := 0; i < 2; i++ {
		resp, _ := env.doJSON(t, http.MethodPost, "/api/v1/auth/otp/request", map[string]string{"email": email}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("otp request %d failed: %d", i, resp.StatusCode)
		}
	}
	codes := env.mailer.allCodes(email)
	if len(codes) != 2 {
		t.Fatalf("expected 2 issued codes, got %d", len(codes))
	}

	// The first code stays redeemable after the second was issued.
	resp, body := env.doJSON(t, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": email, "code": codes[0]}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("earlier code should still verify: status=%d body=%q", resp.StatusCode, body)
	}
}

func TestOTPExpiredCodeLooksLikeWrongCode(t *testing.T) {
	env, closeFn := newDirectoryTestServerWithOptions(t, directoryServerOptions{
		cfgOverride: func(cfg *config.Config) {
			cfg.OTPTTL = time.Millisecond
		},
	})
	defer closeFn()

	email := "expired@school.example"
	resp, _ := env.doJSON(t, http.MethodPost, "/api/v1/auth/otp/request", map[string]string{"email": email}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("otp request failed: %d", resp.StatusCode)
	}
	code := env.mailer.lastCode(t, email)
	time.Sleep(10 * time.Millisecond)

	resp, expiredBody := env.doJSON(t, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": email, "code": code}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expired code should fail with 401, got %d", resp.StatusCode)
	}

	resp, wrongBody := env.doJSON(t, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": email, "code": "999999"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong code should fail with 401, got %d", resp.StatusCode)
	}

	// Expired and wrong must be indistinguishable to the caller.
	if expiredBody != wrongBody {
		t.Fatalf("rejection bodies differ:\nexpired: %q\nwrong:   %q", expiredBody, wrongBody)
	}
}

func TestOTPRequestRejectsInvalidEmail(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()

	resp, body := env.doJSON(t, http.MethodPost, "/api/v1/auth/otp/request", map[string]string{"email": "not-an-email"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if errEnv := decodeErrorEnvelope(t, body); errEnv.Error == nil || errEnv.Error.Code != "BAD_REQUEST" {
		t.Fatalf("expected BAD_REQUEST envelope, got %q", body)
	}
}

func TestStaleSessionCookieIsAnonymousNotError(t *testing.T) {
	env, closeFn := newDirectoryTestServer(t)
	defer closeFn()

	req, err := http.NewRequest(http.MethodGet, env.baseURL+"/api/v1/auth/me", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: "token", Value: "garbage.token.value"})
	resp, body := env.do(t, req)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"user":null`) {
		t.Fatalf("stale cookie should read as anonymous: status=%d body=%q", resp.StatusCode, body)
	}
}
