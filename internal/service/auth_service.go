package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aicharya/aicharya-backend/internal/domain"
	"github.com/aicharya/aicharya-backend/internal/mailer"
	"github.com/aicharya/aicharya-backend/internal/repository"
	"github.com/aicharya/aicharya-backend/pkg/auth"
	"github.com/aicharya/aicharya-backend/pkg/config"
	"github.com/aicharya/aicharya-backend/pkg/events"
	"github.com/aicharya/aicharya-backend/pkg/logger"
	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
)

const (
	msgInvalidCredentials = "invalid email or password"
	msgInvalidResetCode   = "invalid or expired reset code"
	msgInvalidVerifyToken = "invalid or expired verification token"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.RegisterResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	RequestPasswordReset(ctx context.Context, req *domain.PasswordResetCodeRequest) (string, error)
	ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) (string, error)
	VerifyEmail(ctx context.Context, req *domain.VerifyEmailRequest) (string, error)
	ConfirmEmail(ctx context.Context, token string) (*domain.User, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	verifyRepo repository.VerifyRepository
	resetStore repository.ResetStore
	mailer     mailer.Service
	eventBus   events.Publisher
	config     *config.Config

	params    *argon2id.Params
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	userRepo repository.UserRepository,
	verifyRepo repository.VerifyRepository,
	resetStore repository.ResetStore,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		verifyRepo: verifyRepo,
		resetStore: resetStore,
		mailer:     mailer,
		eventBus:   eventBus,
		config:     config,
		params:     argon2id.DefaultParams,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.RegisterResponse, error) {
	// The confirmation echoes what the caller sent; storage uses the normalized form.
	suppliedName, suppliedEmail := req.Username, req.Email

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	passwordHash, err := argon2id.CreateHash(req.Password, s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Create returns ErrEmailTaken when a concurrent signup wins the race.
	user, err := s.userRepo.Create(ctx, req, passwordHash)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// The account exists from here on; VerifyEmail can issue a replacement token.
	verifyURL, err := s.issueVerification(ctx, user)
	if err != nil {
		logger.WarnContext(ctx, "Registered without verification token", "error", err, "user_id", user.ID)
	}

	if err := s.eventBus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user registered event", "error", err, "user_id", user.ID)
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID, "profile", domain.DisplayInfo(user))

	return &domain.RegisterResponse{
		Message:   fmt.Sprintf("User %s registered successfully with email %s!", suppliedName, suppliedEmail),
		User:      user.ToUserInfo(),
		VerifyURL: verifyURL,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Unknown emails still pay for one hash comparison.
	hash := s.dummy()
	if user != nil {
		hash = user.PasswordHash
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if user == nil || !match || !domain.IsActive(user) {
		return nil, domain.NewAuthenticationError(msgInvalidCredentials)
	}

	ttl := s.config.Auth.AccessTokenTTL
	token, err := auth.NewAccessToken(user.ID, user.Email, user.Role, s.config.Auth.JWTSecret, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &domain.LoginResponse{
		Message:     fmt.Sprintf("Login successful for %s", user.Email),
		AccessToken: token,
		ExpiresIn:   int64(ttl.Seconds()),
		User:        user.ToUserInfo(),
	}, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, req *domain.PasswordResetCodeRequest) (string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	message := fmt.Sprintf("If an account exists for %s, a reset code has been sent.", req.Email)

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return message, nil
	}

	code, err := generateResetCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}

	if err := s.resetStore.Save(ctx, user.Email, user.ID, code, s.config.Auth.PasswordResetTTL); err != nil {
		return "", fmt.Errorf("failed to store reset code: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, user.Username, code); err != nil {
		logger.ErrorContext(ctx, "Failed to send password reset email", "error", err, "user_id", user.ID)
	}

	return message, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) (string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	userID, err := s.resetStore.Consume(ctx, req.Email, req.Code)
	switch {
	case errors.Is(err, repository.ErrResetNotFound),
		errors.Is(err, repository.ErrResetCodeMismatch),
		errors.Is(err, repository.ErrResetAttemptsExceeded):
		logger.WarnContext(ctx, "Password reset rejected", "reason", err.Error())
		return "", domain.NewAuthenticationError(msgInvalidResetCode)
	case err != nil:
		return "", fmt.Errorf("failed to consume reset code: %w", err)
	}

	passwordHash, err := argon2id.CreateHash(req.NewPassword, s.params)
	if err != nil {
		s.restoreResetCode(ctx, req, userID)
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.restoreResetCode(ctx, req, userID)
		}
		return "", fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.UserPasswordReset, events.UserPasswordResetEvent{
		UserID:  userID,
		Email:   req.Email,
		ResetAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish password reset event", "error", err, "user_id", userID)
	}

	return fmt.Sprintf("Password reset successful for email: %s", req.Email), nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *domain.VerifyEmailRequest) (string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	message := fmt.Sprintf("Verification link sent to %s", req.Email)

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.IsVerified {
		return message, nil
	}

	if _, err := s.issueVerification(ctx, user); err != nil {
		return "", err
	}
	return message, nil
}

func (s *authService) ConfirmEmail(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.NewValidationError("Verification token is required.")
	}

	userID, err := s.verifyRepo.ConsumeEmailVerification(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to consume verification token: %w", err)
	}
	if userID == 0 {
		return nil, domain.NewAuthenticationError(msgInvalidVerifyToken)
	}

	if err := s.userRepo.MarkVerified(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.eventBus.Publish(ctx, events.UserEmailVerified, events.UserEmailVerifiedEvent{
		UserID:     user.ID,
		Email:      user.Email,
		VerifiedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish email verified event", "error", err, "user_id", user.ID)
	}

	return user, nil
}

func (s *authService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// restoreResetCode puts a matched code back after the password write failed,
// so the user can retry without requesting a new one.
func (s *authService) restoreResetCode(ctx context.Context, req *domain.ResetPasswordRequest, userID int64) {
	if err := s.resetStore.Save(ctx, req.Email, userID, req.Code, s.config.Auth.PasswordResetTTL); err != nil {
		logger.ErrorContext(ctx, "Failed to restore reset code", "error", err, "user_id", userID)
	}
}

// issueVerification stores a fresh token for user and mails the link.
// Mail failures are logged only.
func (s *authService) issueVerification(ctx context.Context, user *domain.User) (string, error) {
	verifyToken := uuid.NewString()
	expiresAt := time.Now().Add(s.config.Auth.EmailVerificationTTL)

	if err := s.verifyRepo.CreateEmailVerification(ctx, user.ID, verifyToken, expiresAt); err != nil {
		logger.ErrorContext(ctx, "Failed to create email verification token", "error", err, "user_id", user.ID)
		return "", fmt.Errorf("failed to create verification token: %w", err)
	}

	verifyURL := s.buildVerificationURL(verifyToken)
	if err := s.mailer.SendVerificationEmail(user.Email, user.Username, verifyURL, verifyToken); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", user.ID)
	}
	return verifyURL, nil
}

func (s *authService) buildVerificationURL(token string) string {
	base := strings.TrimRight(s.config.Auth.AppBaseURL, "/")
	return base + "/verify-email?token=" + url.QueryEscape(token)
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := argon2id.CreateHash("aicharya-dummy-password", s.params)
		if err != nil {
			logger.Error("Failed to create dummy password hash", "error", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func generateResetCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < domain.ResetCodeLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", domain.ResetCodeLength, n.Int64()), nil
}
