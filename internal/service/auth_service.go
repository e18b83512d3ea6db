package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chatform/internal/config"
	"chatform/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService authenticates the survey owner
type AuthService struct {
	username  string
	password  string
	ownerID   string
	ttl       time.Duration
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		username:  cfg.Username,
		password:  cfg.Password,
		ownerID:   cfg.OwnerID,
		ttl:       cfg.TokenTTL,
		jwtSecret: []byte(cfg.JWTSecret),
		now:       time.Now,
	}
}

// Login validates credentials and returns a signed owner token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.username || password != s.password {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	claims := &model.OwnerClaims{
		OwnerID: s.ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  s.ownerID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:   tokenString,
		OwnerID: s.ownerID,
	}, nil
}

// ValidateOwnerToken validates an owner JWT and returns its claims
func (s *AuthService) ValidateOwnerToken(tokenString string) (*model.OwnerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.OwnerClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.OwnerClaims)
	if !ok || !token.Valid || claims.OwnerID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
