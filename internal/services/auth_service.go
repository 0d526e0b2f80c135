package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lodge_backend/pkg/utils"
)

// --- Custom Service Errors ---
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// OperatorRole is the only role: every authenticated caller runs the lodge.
const OperatorRole = "operator"

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse DTO
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthConfig holds the single operator credential and token settings.
type AuthConfig struct {
	Username     string
	PasswordHash string // bcrypt
	JWTSecret    []byte
	TokenTTL     time.Duration
}

// --- AuthService Interface ---
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
}

// --- authService Implementation ---
type authService struct {
	cfg   AuthConfig
	clock Clock
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(cfg AuthConfig, clock Clock) AuthService {
	return &authService{cfg: cfg, clock: clock}
}

// Login exchanges the operator credential for a bearer token.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if s.cfg.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.Username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(req.Password))
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := utils.GenerateAccessToken(s.cfg.JWTSecret, req.Username, OperatorRole, s.clock.Now(), s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return &AuthResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}
