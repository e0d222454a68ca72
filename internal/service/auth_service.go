package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL       = time.Hour
	signingKey     = "w8s2kd93mfh2" // TODO: move to config
	minPasswordLen = 8
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrEmptyUsername   = errors.New("username is empty")
	ErrWeakPassword    = fmt.Errorf("password must be at least %d characters", minPasswordLen)
)

// AuthService issues and validates the JWTs that gate the control API.
// Usernames are case-insensitive: stored and looked up lower-cased.
type AuthService struct {
	authRepo repository.Authorization
}

func NewAuthService(repo repository.Authorization) *AuthService {
	return &AuthService{authRepo: repo}
}

// SignUp stores a new operator account with a bcrypt-hashed password.
func (s *AuthService) SignUp(username, password string) (int, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return 0, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, err
	}
	return s.authRepo.Create(name, hash)
}

// Claims is the JWT payload; UserID identifies the operator.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// GenerateToken checks credentials and returns a signed JWT.
func (s *AuthService) GenerateToken(username, password string) (string, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return "", err
	}
	u, err := s.authRepo.GetByUsername(name)
	if err != nil {
		return "", fmt.Errorf("look up user %q: %w", name, err)
	}
	if u == nil {
		return "", ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}
	return issueToken(u.ID)
}

// ParseToken validates the JWT and returns the user id inside it.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(signingKey), nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

func normalizeUsername(username string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(username))
	if name == "" {
		return "", ErrEmptyUsername
	}
	return name, nil
}

func hashPassword(password string) (string, error) {
	if len(strings.TrimSpace(password)) < minPasswordLen {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func issueToken(userID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	return token.SignedString([]byte(signingKey))
}
