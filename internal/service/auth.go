package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

// TokenIssuer signs access tokens for authenticated principals.
type TokenIssuer interface {
	Issue(p model.Principal) (string, time.Time, error)
}

type LoginResult struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Principal   model.Principal `json:"-"`
}

type AuthService struct {
	repo    *repository.Repository
	tokens  TokenIssuer
	auditor *Auditor
	log     zerolog.Logger
	now     func() time.Time
}

func NewAuthService(repo *repository.Repository, tokens TokenIssuer, auditor *Auditor, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, auditor: auditor, log: log, now: time.Now}
}

func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrUnauthenticated
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			s.auditor.RecordAuth(ctx, nil, nil, model.ActionLoginFailed, email, ip)
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		s.auditor.RecordAuth(ctx, user.TenantID, &user.ID, model.ActionLoginFailed, email, ip)
		return nil, ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to compare password hash")
		}
		s.auditor.RecordAuth(ctx, user.TenantID, &user.ID, model.ActionLoginFailed, email, ip)
		return nil, ErrUnauthenticated
	}

	principal := user.Principal()
	token, expiresAt, err := s.tokens.Issue(principal)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if err := s.repo.TouchUserLogin(ctx, user.ID, s.now()); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to update last login")
	}
	s.auditor.RecordAuth(ctx, user.TenantID, &user.ID, model.ActionLogin, email, ip)

	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, Principal: principal}, nil
}

// Logout only records the event; access tokens expire on their own.
func (s *AuthService) Logout(ctx context.Context, actor model.Principal, ip string) {
	var tenantID *uuid.UUID
	if actor.TenantID != uuid.Nil {
		id := actor.TenantID
		tenantID = &id
	}
	userID := actor.UserID
	s.auditor.RecordAuth(ctx, tenantID, &userID, model.ActionLogout, actor.Email, ip)
}

// HashPassword is used when provisioning accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
