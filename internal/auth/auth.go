// Package auth issues and validates operator tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/toll-scenario/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOperatorNotFound   = models.ErrOperatorNotFound
)

const (
	defaultSecret = "default-secret-key-change-in-production"
	defaultExpiry = 24 * time.Hour
)

// OperatorStore looks up operator accounts.
type OperatorStore interface {
	FindOperatorByUsername(ctx context.Context, username string) (*models.Operator, error)
}

// loginRecorder is implemented by stores that track logins.
type loginRecorder interface {
	UpdateLastLogin(ctx context.Context, username string) error
}

// StaticOperators is an in-memory store, keyed by username.
type StaticOperators map[string]models.Operator

func (s StaticOperators) FindOperatorByUsername(_ context.Context, username string) (*models.Operator, error) {
	op, ok := s[username]
	if !ok {
		return nil, ErrOperatorNotFound
	}
	return &op, nil
}

// Stores queries each store in turn and returns the first match.
type Stores []OperatorStore

func (s Stores) FindOperatorByUsername(ctx context.Context, username string) (*models.Operator, error) {
	err := ErrOperatorNotFound
	for _, store := range s {
		var op *models.Operator
		op, err = store.FindOperatorByUsername(ctx, username)
		if err == nil {
			return op, nil
		}
	}
	return nil, err
}

// UpdateLastLogin records the login in every store that tracks logins and
// knows the operator.
func (s Stores) UpdateLastLogin(ctx context.Context, username string) error {
	var errs []error
	for _, store := range s {
		rec, ok := store.(loginRecorder)
		if !ok {
			continue
		}
		if err := rec.UpdateLastLogin(ctx, username); err != nil && !errors.Is(err, ErrOperatorNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Service handles authentication operations
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
	operators OperatorStore
}

// NewService creates a new authentication service. An empty secret or a
// non-positive expiry falls back to the defaults.
func NewService(secret string, expiry time.Duration, operators OperatorStore) *Service {
	if secret == "" {
		secret = defaultSecret
	}
	if expiry <= 0 {
		expiry = defaultExpiry
	}
	return &Service{
		jwtSecret: []byte(secret),
		tokenExp:  expiry,
		operators: operators,
	}
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Login verifies the operator's password and issues a token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if s.operators == nil {
		return nil, ErrInvalidCredentials
	}
	op, err := s.operators.FindOperatorByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, ErrOperatorNotFound) {
			log.WithError(err).WithField("username", req.Username).Warn("Operator lookup failed")
		}
		return nil, ErrInvalidCredentials
	}
	if !s.CheckPassword(req.Password, op.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(op)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	if rec, ok := s.operators.(loginRecorder); ok {
		if err := rec.UpdateLastLogin(ctx, op.Username); err != nil {
			log.WithError(err).WithField("username", op.Username).Warn("Failed to record login")
		}
	}
	return &models.LoginResponse{Token: token, Username: op.Username, Role: op.Role}, nil
}

// GenerateToken generates a JWT token for an operator
func (s *Service) GenerateToken(op *models.Operator) (string, error) {
	claims := jwt.MapClaims{
		"username": op.Username,
		"role":     string(op.Role),
		"exp":      time.Now().Add(s.tokenExp).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	username, ok := claims["username"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	roleStr, ok := claims["role"].(string)
	if !ok || !models.IsValidRole(models.Role(roleStr)) {
		return nil, ErrInvalidToken
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &models.Claims{
		Username: username,
		Role:     models.Role(roleStr),
		Exp:      int64(exp),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

// ValidatePassword validates password strength
func (s *Service) ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

// ValidateUsername validates username format
func (s *Service) ValidateUsername(username string) error {
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters long")
	}
	if len(username) > 50 {
		return errors.New("username must be less than 50 characters")
	}
	return nil
}
