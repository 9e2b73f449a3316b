package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/marketplace/internal/auth"
	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/fjod/marketplace/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

type AuthResult struct {
	Token string             `json:"access_token"`
	Type  string             `json:"token_type"`
	User  domain.UserProfile `json:"user"`
}

type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	log    logrus.FieldLogger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, log logrus.FieldLogger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// Register creates an already verified customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		FullName:     in.FullName,
		Verified:     true,
		Role:         domain.RoleCustomer,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).WithField("user_id", user.ID).Info("user registered")
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(user)
}

// Authenticate resolves a bearer token to its user. A token for a user that
// no longer exists is rejected like any other invalid token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	if fields := update.Fields(); len(fields) > 0 {
		if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
			return nil, err
		}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Type: "bearer", User: user.Profile()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
