package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aman-churiwal/image-relay/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "invalid credentials")

// AdminAuthService authenticates the single operator account configured
// through the environment and issues short-lived HS256 tokens.
type AdminAuthService struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	jwtExpiry    time.Duration
	now          func() time.Time
}

func NewAdminAuthService(username, passwordHash, secret string, expiryHours int) (*AdminAuthService, error) {
	if username == "" || passwordHash == "" {
		return nil, errors.New("admin username and password hash are required")
	}
	if secret == "" {
		return nil, errors.New("admin jwt secret is required")
	}
	if expiryHours <= 0 {
		expiryHours = 12
	}

	return &AdminAuthService{
		username:     username,
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(secret),
		jwtExpiry:    time.Duration(expiryHours) * time.Hour,
		now:          time.Now,
	}, nil
}

// Authenticates the operator and returns a JWT token
func (s *AdminAuthService) Login(username, password string) (string, error) {
	if username != s.username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  s.username,
		"role": "admin",
		"exp":  now.Add(s.jwtExpiry).Unix(),
		"iat":  now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// Validates a JWT token and returns the claims
func (s *AdminAuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid token claims")
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return nil, apperr.New(apperr.KindUnauthorized, "token is not an admin token")
	}

	return claims, nil
}
