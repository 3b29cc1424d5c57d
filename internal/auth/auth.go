// Package auth handles the single admin login and the JWT sessions issued for
// it.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"willstech-admin/internal/config"
	"willstech-admin/internal/logger"
)

const (
	subject = "admin"
	issuer  = "willstech-admin"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Service struct {
	secret       []byte
	passwordHash []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewService builds the service from configuration. A plain ADMIN_PASSWORD is
// hashed at startup; a missing JWT secret is replaced by a random one, which
// invalidates sessions on restart.
func NewService(cfg *config.Config, log *logger.Logger) (*Service, error) {
	s := &Service{ttl: cfg.TokenTTL, now: time.Now}
	if s.ttl <= 0 {
		s.ttl = 12 * time.Hour
	}

	switch {
	case cfg.AdminPasswordHash != "":
		s.passwordHash = []byte(cfg.AdminPasswordHash)
	case cfg.AdminPassword != "":
		hash, err := HashPassword(cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
		s.passwordHash = []byte(hash)
	default:
		log.Warn("No ADMIN_PASSWORD_HASH or ADMIN_PASSWORD set, the admin API is unauthenticated")
	}

	if cfg.JWTSecret != "" {
		s.secret = []byte(cfg.JWTSecret)
	} else {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		s.secret = []byte(hex.EncodeToString(buf))
		log.Warn("JWT_SECRET not set, using a random secret for this process")
	}
	return s, nil
}

// Enabled reports whether a password is configured.
func (s *Service) Enabled() bool {
	return len(s.passwordHash) > 0
}

// Login checks password and issues a session token.
func (s *Service) Login(password string) (*Token, error) {
	if !s.Enabled() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue()
}

func (s *Service) issue() (*Token, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := &Claims{
		Role: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
		ExpiresAt:   exp,
	}, nil
}

// Validate parses a bearer token issued by this service.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
