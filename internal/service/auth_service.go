package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/schoolhub/school-directory-service/internal/config"
	"github.com/schoolhub/school-directory-service/internal/domain"
	"github.com/schoolhub/school-directory-service/internal/observability"
	"github.com/schoolhub/school-directory-service/internal/repository"
	"github.com/schoolhub/school-directory-service/internal/security"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidCode  = errors.New("invalid code")
	ErrCodeExpired  = errors.New("code expired")
)

// AuthService implements the passwordless sign-in flow: a numeric code is
// mailed to the address, and a matching verification mints a session token.
// Users are created lazily on first successful verification.
type AuthService struct {
	cfg      *config.Config
	codeRepo repository.CodeRepository
	userRepo repository.UserRepository
	sessions *security.SessionManager
	mailer   Mailer
}

// VerifyResult is what a successful code verification yields. The token is
// never serialized; the handler moves it into the session cookie.
type VerifyResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func NewAuthService(
	cfg *config.Config,
	codeRepo repository.CodeRepository,
	userRepo repository.UserRepository,
	sessions *security.SessionManager,
	mailer Mailer,
) *AuthService {
	return &AuthService{
		cfg:      cfg,
		codeRepo: codeRepo,
		userRepo: userRepo,
		sessions: sessions,
		mailer:   mailer,
	}
}

// RequestCode issues a fresh code for the address and mails it. Codes are
// append-only: requesting again never invalidates codes sent earlier, so a
// user juggling two emails can redeem either one.
func (s *AuthService) RequestCode(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		observability.RecordOTPRequest(ctx, "invalid_email")
		return err
	}

	code, err := security.NewNumericCode(s.cfg.OTPCodeLength)
	if err != nil {
		observability.RecordOTPRequest(ctx, "error")
		return fmt.Errorf("generate one-time code: %w", err)
	}

	row := &domain.OneTimeCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().UTC().Add(s.cfg.OTPTTL),
	}
	if err := s.codeRepo.Create(ctx, row); err != nil {
		observability.RecordOTPRequest(ctx, "error")
		return fmt.Errorf("store one-time code: %w", err)
	}

	if err := s.mailer.SendOneTimeCode(ctx, CodeNotification{
		Email:     email,
		Code:      code,
		ExpiresAt: row.ExpiresAt,
	}); err != nil {
		observability.RecordOTPRequest(ctx, "mail_error")
		return err
	}

	observability.RecordOTPRequest(ctx, "success")
	return nil
}

// VerifyCode redeems a code for a session. The latest unconsumed match is
// checked for expiry before the single-use flip; if two requests race on
// the same code, the conditional update leaves exactly one winner and the
// loser sees ErrInvalidCode.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (*VerifyResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		observability.RecordOTPVerification(ctx, "invalid_email")
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		observability.RecordOTPVerification(ctx, "invalid_code")
		return nil, ErrInvalidCode
	}

	row, err := s.codeRepo.FindLatestValid(ctx, email, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			observability.RecordOTPVerification(ctx, "invalid_code")
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	// The lookup's equality is whatever the store's collation says; the
	// fetched row is re-checked byte for byte in constant time.
	if !security.CodesEqual(row.Code, code) {
		observability.RecordOTPVerification(ctx, "invalid_code")
		return nil, ErrInvalidCode
	}

	now := time.Now().UTC()
	if now.After(row.ExpiresAt) {
		observability.RecordOTPVerification(ctx, "expired")
		return nil, ErrCodeExpired
	}

	flipped, err := s.codeRepo.Consume(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	if !flipped {
		// Lost the race against a concurrent verification of the same row.
		observability.RecordOTPVerification(ctx, "already_consumed")
		return nil, ErrInvalidCode
	}

	user, err := s.userRepo.EnsureByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	token, err := s.sessions.Mint(user.Email)
	if err != nil {
		return nil, fmt.Errorf("mint session: %w", err)
	}

	observability.RecordOTPVerification(ctx, "consumed")
	return &VerifyResult{
		User:      user,
		Token:     token,
		ExpiresAt: now.Add(s.sessions.TTL()),
	}, nil
}

// CleanupExpiredCodes drops rows past their expiry. Run from the ops tool;
// correctness never depends on it.
func (s *AuthService) CleanupExpiredCodes(ctx context.Context) (int64, error) {
	deleted, err := s.codeRepo.DeleteExpiredBefore(ctx, time.Now().UTC())
	if err != nil {
		observability.RecordCodeCleanupRun(ctx, "error")
		return 0, err
	}
	observability.RecordCodeCleanupRun(ctx, "success")
	observability.RecordCodeCleanupDeletedRows(ctx, deleted)
	return deleted, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
