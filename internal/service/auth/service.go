package auth

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/VictorRomo99/veterinaria-pro/internal/email"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/pkg/auth"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
	"github.com/VictorRomo99/veterinaria-pro/pkg/security"
)

const (
	bcryptCost       = 12
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type Service struct {
	users  repository.UserRepository
	jwt    auth.JWTService
	hasher security.PasswordHasher
	email  email.Service
	logger zerolog.Logger
	clock  func() time.Time
}

func NewService(users repository.UserRepository, jwt auth.JWTService, emailSvc email.Service, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		jwt:    jwt,
		hasher: security.NewBcryptHasher(bcryptCost),
		email:  emailSvc,
		logger: logger,
		clock:  time.Now,
	}
}

// WithHasher swaps the password hasher; tests use a cheap one.
func (s *Service) WithHasher(h security.PasswordHasher) *Service {
	s.hasher = h
	return s
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Register creates a client account. Staff accounts are created by an admin
// through the user management endpoints.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	if !req.DataConsent || !req.AcceptedPolicies {
		return nil, errors.Validation("data consent and policy acceptance are required")
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.Conflict("email is already registered")
	}
	if _, err := s.users.GetByDNI(ctx, req.DNI); err == nil {
		return nil, errors.Conflict("DNI is already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		DNI:              req.DNI,
		Email:            req.Email,
		PasswordHash:     hash,
		BirthDate:        req.BirthDate,
		Phone:            req.Phone,
		Address:          req.Address,
		Role:             model.UserRoleClient,
		Status:           model.UserStatusActive,
		DataConsent:      req.DataConsent,
		AcceptedPolicies: req.AcceptedPolicies,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errors.Internal(err)
	}

	if s.email != nil {
		if err := s.email.SendWelcome(ctx, user.Email, user.FirstName); err != nil {
			s.logger.Warn().Err(err).Str("email", user.Email).Msg("failed to send welcome email")
		}
	}
	return s.issueTokens(user)
}

// Login verifies credentials with an attempt counter: five consecutive
// failures lock the account for fifteen minutes.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	if err != nil {
		return nil, errors.Internal(err)
	}

	if user.Status == model.UserStatusInactive {
		return nil, errors.Forbidden("account is disabled")
	}

	now := s.clock()
	if user.LoginAttempts >= maxLoginAttempts && now.Sub(user.LastLoginAttempt) < lockoutDuration {
		return nil, errors.Unauthorized(fmt.Errorf("account temporarily locked"))
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		attempts := user.LoginAttempts + 1
		if now.Sub(user.LastLoginAttempt) >= lockoutDuration {
			attempts = 1
		}
		if err := s.users.UpdateLoginAttempts(ctx, user.ID, attempts, now); err != nil {
			s.logger.Error().Err(err).Msg("failed to record login attempt")
		}
		return nil, errors.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Error().Err(err).Msg("failed to record last login")
	}
	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized(fmt.Errorf("user no longer exists"))
	}
	if user.Status == model.UserStatusInactive {
		return nil, errors.Forbidden("account is disabled")
	}
	return s.issueTokens(user)
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal(err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwt.AccessExpiry().Seconds()),
		User:         user,
	}, nil
}
