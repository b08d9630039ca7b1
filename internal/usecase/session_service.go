package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	repo "github.com/Louis-hue-lang/OrientaVision/internal/adapters/postgres"
	"github.com/Louis-hue-lang/OrientaVision/internal/domain"
	pkglog "github.com/Louis-hue-lang/OrientaVision/pkg/log"
)

// Notifier delivers mail through the external mailer. Fire and forget:
// implementations must not block on delivery and must swallow failures
// (logging them) so an unreachable mailer never fails a request.
type Notifier interface {
	SendInvite(ctx context.Context, email, code string)
	SendReset(ctx context.Context, email, token string)
}

type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	InviteCode string
}

type SessionResult struct {
	AccessToken       string
	RefreshToken      string
	RefreshExpires    time.Time
	Username          string
	Role              string
	MigrationRequired bool
}

type SessionService interface {
	Register(ctx context.Context, in RegisterInput) error
	Login(ctx context.Context, identifier, password string) (*SessionResult, error)
	Refresh(ctx context.Context, refreshToken string) (*SessionResult, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	UpdateEmail(ctx context.Context, username, email string) error
}

type sessionService struct {
	logger    pkglog.Logger
	accounts  repo.AccountRepository
	registrar repo.Registrar
	tokens    TokenService
	notifier  Notifier
	resetTTL  time.Duration
}

func NewSessionService(logger pkglog.Logger, accounts repo.AccountRepository, registrar repo.Registrar, tokens TokenService, notifier Notifier, resetTTL time.Duration) SessionService {
	return &sessionService{
		logger:    logger,
		accounts:  accounts,
		registrar: registrar,
		tokens:    tokens,
		notifier:  notifier,
		resetTTL:  resetTTL,
	}
}

func (s *sessionService) Register(ctx context.Context, in RegisterInput) error {
	if err := validateUsername(in.Username); err != nil {
		return err
	}
	norm := normalizeEmail(in.Email)
	if err := validateEmail(norm); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}

	// Early duplicate checks for a clean error; the store's uniqueness
	// constraints backstop the race.
	if _, err := s.accounts.FindByUsername(ctx, in.Username); err == nil {
		return fmt.Errorf("%w: username or email already in use", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.accounts.FindByEmail(ctx, norm); err == nil {
		return fmt.Errorf("%w: username or email already in use", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	account := &domain.Account{
		Username:     in.Username,
		Email:        norm,
		PasswordHash: string(hash),
	}
	if err := s.registrar.Register(ctx, account, in.InviteCode); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return fmt.Errorf("%w: invalid or missing invite code", domain.ErrForbidden)
		}
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("%w: username or email already in use", domain.ErrConflict)
		}
		return err
	}

	s.logger.Info().Str("username", account.Username).Str("role", account.Role).Msg("account registered")
	return nil
}

func (s *sessionService) Login(ctx context.Context, identifier, password string) (*SessionResult, error) {
	account, err := s.accounts.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, errInvalidCredentials()
	}

	result, err := s.openSession(ctx, account)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", account.Username).Msg("login")
	return result, nil
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*SessionResult, error) {
	username, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, domain.ErrForbidden
	}
	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	if !account.HasActiveSession() {
		return nil, domain.ErrForbidden
	}
	presented := hashToken(refreshToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(*account.RefreshTokenHash)) != 1 {
		// superseded or forged token; the stored hash only matches the
		// latest issued refresh token
		s.logger.Warn().Str("username", username).Msg("refresh token mismatch")
		return nil, domain.ErrForbidden
	}

	result, err := s.openSession(ctx, account)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("username", username).Msg("session rotated")
	return result, nil
}

func (s *sessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	username := s.tokens.DecodeUsername(refreshToken)
	if username == "" {
		return nil
	}
	if err := s.accounts.SetRefreshTokenHash(ctx, username, nil); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.logger.Info().Str("username", username).Msg("logout")
	return nil
}

func (s *sessionService) ForgotPassword(ctx context.Context, email string) error {
	norm := normalizeEmail(email)
	if err := validateEmail(norm); err != nil {
		return err
	}
	account, err := s.accounts.FindByEmail(ctx, norm)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// same outcome as success; do not leak account existence
			return nil
		}
		return err
	}

	token, err := randomHex(32)
	if err != nil {
		return err
	}
	if err := s.accounts.SetResetToken(ctx, account.Username, token, time.Now().Add(s.resetTTL)); err != nil {
		return err
	}
	s.notifier.SendReset(ctx, norm, token)
	s.logger.Info().Str("username", account.Username).Msg("password reset requested")
	return nil
}

func (s *sessionService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if token == "" {
		return errResetLink()
	}
	account, err := s.accounts.FindByResetToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errResetLink()
		}
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.accounts.ResetPassword(ctx, account.Username, string(hash)); err != nil {
		return err
	}
	s.logger.Info().Str("username", account.Username).Msg("password reset")
	return nil
}

func (s *sessionService) UpdateEmail(ctx context.Context, username, email string) error {
	norm := normalizeEmail(email)
	if err := validateEmail(norm); err != nil {
		return err
	}
	if err := s.accounts.UpdateEmail(ctx, username, norm); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("%w: email already in use", domain.ErrConflict)
		}
		return err
	}
	s.logger.Info().Str("username", username).Msg("email updated")
	return nil
}

// openSession issues a fresh token pair and stores the new refresh hash,
// replacing whatever session was previously active for the account.
func (s *sessionService) openSession(ctx context.Context, account *domain.Account) (*SessionResult, error) {
	pair, err := s.tokens.Issue(account.Username, account.Role)
	if err != nil {
		return nil, err
	}
	hash := hashToken(pair.RefreshToken)
	if err := s.accounts.SetRefreshTokenHash(ctx, account.Username, &hash); err != nil {
		return nil, err
	}
	return &SessionResult{
		AccessToken:       pair.AccessToken,
		RefreshToken:      pair.RefreshToken,
		RefreshExpires:    pair.RefreshExpires,
		Username:          account.Username,
		Role:              account.Role,
		MigrationRequired: account.Email == "",
	}, nil
}

func errInvalidCredentials() error {
	return fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
}

func errResetLink() error {
	return fmt.Errorf("%w: invalid or expired reset link", domain.ErrBadRequest)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
