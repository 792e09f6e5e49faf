// Package auth is the caller-identity adapter for the moderation UI: a single
// env-configured admin credential exchanged for a bearer JWT. The rest of the
// system only ever sees the opaque token subject.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/portifolio/catalog/internal/config"
)

const tokenTTL = 8 * time.Hour

// ErrInvalidCredentials is returned when the username or password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service validates admin credentials and issues JWT tokens.
type Service struct {
	cfg *config.Config
}

// NewService creates a new auth Service.
func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Login checks the credentials against the configured admin account and
// returns a signed token on success.
func (s *Service) Login(username, password string) (string, error) {
	if username != s.cfg.AdminUsername || s.cfg.AdminPasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(username)
}

// issueToken signs an HS256 JWT with the caller as subject.
func (s *Service) issueToken(subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
