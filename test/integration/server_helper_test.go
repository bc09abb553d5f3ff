package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/schoolhub/school-directory-service/internal/config"
	"github.com/schoolhub/school-directory-service/internal/database"
	"github.com/schoolhub/school-directory-service/internal/http/handler"
	"github.com/schoolhub/school-directory-service/internal/http/router"
	"github.com/schoolhub/school-directory-service/internal/repository"
	"github.com/schoolhub/school-directory-service/internal/security"
	"github.com/schoolhub/school-directory-service/internal/service"
)

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// codeCaptureMailer records issued codes instead of delivering them, so
// tests can redeem exactly what the service handed to the mail path.
type codeCaptureMailer struct {
	mu    sync.Mutex
	codes map[string][]string
}

func (m *codeCaptureMailer) SendOneTimeCode(_ context.Context, n service.CodeNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string][]string{}
	}
	m.codes[n.Email] = append(m.codes[n.Email], n.Code)
	return nil
}

func (m *codeCaptureMailer) lastCode(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := m.codes[email]
	if len(codes) == 0 {
		t.Fatalf("no code captured for %s", email)
	}
	return codes[len(codes)-1]
}

func (m *codeCaptureMailer) allCodes(email string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.codes[email]...)
}

// stubStorage satisfies the storage interface without a real bucket. Tests
// that exercise object storage for real use the MinIO container instead.
type stubStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int
}

func (s *stubStorage) UploadSchoolImage(_ context.Context, file io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(file, size))
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.seq++
	key := fmt.Sprintf("school-images/stub-%d", s.seq)
	s.objects[key] = data
	return key, nil
}

func (s *stubStorage) DeleteSchoolImage(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectKey)
	return nil
}

func (s *stubStorage) GenerateImageURL(_ context.Context, objectKey string) (string, error) {
	return "https://storage.test/" + objectKey, nil
}

type directoryServerOptions struct {
	cfgOverride func(cfg *config.Config)
	storage     service.StorageService
	authRPM     int
	apiRPM      int
}

type directoryServer struct {
	baseURL string
	client  *http.Client
	mailer  *codeCaptureMailer
	db      *gorm.DB
}

func newDirectoryTestServer(t *testing.T) (*directoryServer, func()) {
	return newDirectoryTestServerWithOptions(t, directoryServerOptions{})
}

func newDirectoryTestServerWithOptions(t *testing.T, opts directoryServerOptions) (*directoryServer, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := database.Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := &config.Config{
		SessionSecret:     "0123456789abcdef0123456789abcdef",
		SessionTTL:        time.Hour,
		SessionCookieName: "token",
		SessionIssuer:     "school-directory-service",
		CookieSameSite:    "strict",
		OTPTTL:            10 * time.Minute,
		OTPCodeLength:     6,
	}
	if opts.cfgOverride != nil {
		opts.cfgOverride(cfg)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := security.NewSessionManager(cfg.SessionIssuer, cfg.SessionSecret, cfg.SessionTTL)
	cookieMgr := security.NewCookieManager(cfg.SessionCookieName, cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)

	mailer := &codeCaptureMailer{}
	authSvc := service.NewAuthService(cfg, repository.NewCodeRepository(db), repository.NewUserRepository(db), sessions, mailer)

	storage := opts.storage
	if storage == nil {
		storage = &stubStorage{}
	}
	schoolSvc := service.NewSchoolService(repository.NewSchoolRepository(db), storage, log)

	authRPM := opts.authRPM
	if authRPM <= 0 {
		authRPM = 1000
	}
	apiRPM := opts.apiRPM
	if apiRPM <= 0 {
		apiRPM = 1000
	}

	r := router.NewRouter(router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authSvc, cookieMgr, sessions),
		SchoolHandler:     handler.NewSchoolHandler(schoolSvc),
		Sessions:          sessions,
		SessionCookieName: cfg.SessionCookieName,
		CORSOrigins:       []string{"http://localhost"},
		AuthRateLimitRPM:  authRPM,
		APIRateLimitRPM:   apiRPM,
	})

	srv := httptest.NewServer(r)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := srv.Client()
	client.Jar = jar

	env := &directoryServer{baseURL: srv.URL, client: client, mailer: mailer, db: db}
	return env, srv.Close
}

// signIn runs the full OTP flow and leaves the session cookie in the jar.
func (e *directoryServer) signIn(t *testing.T, email string) {
	t.Helper()
	resp, _ := e.doJSON(t, http.MethodPost, "/api/v1/auth/otp/request", map[string]string{"email": email}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("otp request failed: %d", resp.StatusCode)
	}
	code := e.mailer.lastCode(t, email)
	resp, _ = e.doJSON(t, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": email, "code": code}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("otp verify failed: %d", resp.StatusCode)
	}
}

func (e *directoryServer) doJSON(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, string) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(raw)
}

func (e *directoryServer) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(raw)
}

func decodeErrorEnvelope(t *testing.T, raw string) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("decode error envelope from %q: %v", raw, err)
	}
	return env
}
