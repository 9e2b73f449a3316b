package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/fjod/marketplace/internal/service"
	"github.com/sirupsen/logrus"
)

type AuthService interface {
	Authenticator
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.UserProfile, error)
}

type AuthHandler struct {
	auth    AuthService
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewAuthHandler(auth AuthService, log logrus.FieldLogger, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		log:     log,
		timeout: timeout,
	}
}

type RegisterRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
}

type LoginRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterResponseDTO struct {
	Message string `json:"message"`
	*service.AuthResult
}

type ProfileResponseDTO struct {
	Message string             `json:"message"`
	User    domain.UserProfile `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := decodeAndValidate(r, &req); err != nil {
		handleError(w, h.log, err)
		return
	}

	res, err := h.auth.Register(ctx, service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, RegisterResponseDTO{Message: "Registration successful", AuthResult: res})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := decodeAndValidate(r, &req); err != nil {
		handleError(w, h.log, err)
		return
	}

	res, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, res)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}
	respondJSON(w, h.log, http.StatusOK, user.Profile())
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	var req domain.ProfileUpdate
	if err := decodeAndValidate(r, &req); err != nil {
		handleError(w, h.log, err)
		return
	}

	profile, err := h.auth.UpdateProfile(ctx, user.ID, req)
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, ProfileResponseDTO{Message: "Profile updated successfully", User: *profile})
}
