package services

import (
	"context"
	"errors"
	"time"

	"social-backend/internal/models"
	"social-backend/internal/store"
	"social-backend/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	accessTokenTTL  = 36 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// TokenPair is an access/refresh token set.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type AuthService struct {
	store store.Store
	users *UserService
}

func NewAuthService(st store.Store, users *UserService) *AuthService {
	return &AuthService{store: st, users: users}
}

// Login verifies the credentials and returns the user's profile with a fresh
// token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthUser, error) {
	doc, err := s.store.FindOne(ctx, store.Users, store.M{"email": email})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	user, err := store.Decode[models.User](doc)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := GenerateTokens(user.ID)
	if err != nil {
		return nil, err
	}

	profile, err := s.users.buildProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	return &models.AuthUser{
		UserProfile:  *profile,
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Refresh rotates a token pair from a valid refresh token.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	userID, err := ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	return GenerateTokens(userID)
}

// GenerateTokens signs a new access/refresh pair for the user.
func GenerateTokens(userID string) (*TokenPair, error) {
	access, err := signToken(userID, accessTokenTTL, utils.GetEnv("JWT_SECRET", "secret"))
	if err != nil {
		return nil, err
	}
	refresh, err := signToken(userID, refreshTokenTTL, utils.GetEnv("JWT_REFRESH_SECRET", "refresh-secret"))
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccessToken returns the user id an access token was issued for.
func ValidateAccessToken(tokenString string) (string, error) {
	return parseToken(tokenString, utils.GetEnv("JWT_SECRET", "secret"))
}

// ValidateRefreshToken returns the user id a refresh token was issued for.
func ValidateRefreshToken(tokenString string) (string, error) {
	return parseToken(tokenString, utils.GetEnv("JWT_REFRESH_SECRET", "refresh-secret"))
}

func signToken(userID string, ttl time.Duration, secret string) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return "", errors.New("invalid token claims")
	}
	return userID, nil
}
