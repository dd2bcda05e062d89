package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"

	"github.com/sangkips/recibo-api/internal/config"
	"github.com/sangkips/recibo-api/pkg/apperror"
	"github.com/sangkips/recibo-api/pkg/utils"
)

// StaffRole is the only role issued to counter staff
const StaffRole = "staff"

// AuthService authenticates the counter staff account
type AuthService struct {
	username     string
	passwordHash string
	jwtManager   *utils.JWTManager
	logger       *slog.Logger
}

// NewAuthService creates a new auth service. A plain password in cfg is hashed
// once here; with neither a password nor a hash, every login is rejected
func NewAuthService(cfg config.StaffConfig, jwtManager *utils.JWTManager, logger *slog.Logger) (*AuthService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	hash := cfg.PasswordHash
	if hash == "" && cfg.Password != "" {
		h, err := utils.HashPassword(cfg.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	if hash == "" {
		logger.Warn("No staff password configured, staff login disabled")
	}

	return &AuthService{
		username:     strings.TrimSpace(cfg.Username),
		passwordHash: hash,
		jwtManager:   jwtManager,
		logger:       logger,
	}, nil
}

// LoginInput represents the login input
type LoginInput struct {
	Username string
	Password string
}

// LoginOutput represents the login output
type LoginOutput struct {
	Username    string
	AccessToken string
	ExpiresIn   time.Duration
}

// Login checks the staff credentials and returns an access token
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	if s.passwordHash == "" || s.username == "" {
		return nil, apperror.ErrInvalidCredentials
	}

	sameUser := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(input.Username)), []byte(s.username)) == 1
	if !utils.CheckPasswordHash(input.Password, s.passwordHash) || !sameUser {
		s.logger.WarnContext(ctx, "Failed staff login", slog.String("username", input.Username))
		return nil, apperror.ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateAccessToken(s.username, StaffRole)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		Username:    s.username,
		AccessToken: token,
		ExpiresIn:   s.jwtManager.Expiry(),
	}, nil
}

// ValidateToken returns the claims of a valid staff token
func (s *AuthService) ValidateToken(token string) (*utils.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}
	if claims.Role != StaffRole {
		return nil, apperror.ErrInvalidToken
	}
	return claims, nil
}
