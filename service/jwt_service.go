package service

import (
	"errors"
	"fmt"

	"mentorhub/config"
	"mentorhub/entity"
	"mentorhub/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService issues and validates bearer tokens. Tokens are stateless:
// validity is the signature plus the expiry, nothing is stored server
// side and logout is the client discarding its copy.
type JWTService interface {
	GenerateToken(user *entity.User) (*entity.AuthResponse, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
	GetClaimsFromToken(token *jwt.Token) (*JWTClaims, error)
}

// jwtService implements JWTService interface
type jwtService struct {
	cfg    *config.Config
	logger *logger.Logger
	clock  Clock
}

// JWTClaims represents the JWT claims
type JWTClaims struct {
	UserID        int             `json:"user_id"`
	Email         string          `json:"email"`
	Role          entity.UserRole `json:"role"`
	EmailVerified bool            `json:"email_verified"`
	jwt.RegisteredClaims
}

// NewJWTService creates a new JWT service instance
func NewJWTService(cfg *config.Config, logger *logger.Logger, clock Clock) JWTService {
	return &jwtService{
		cfg:    cfg,
		logger: logger,
		clock:  clock,
	}
}

// GenerateToken signs a token for the user with the configured TTL.
func (s *jwtService) GenerateToken(user *entity.User) (*entity.AuthResponse, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.cfg.JWT.ExpirationTime)

	claims := JWTClaims{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.cfg.JWT.Issuer,
			Subject:   fmt.Sprintf("user:%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		s.logger.Errorw("Failed to sign JWT token", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Infow("JWT token generated", "user_id", user.ID, "expires_at", expiresAt)

	return &entity.AuthResponse{
		Token:     tokenString,
		User:      user.ToResponse(),
		ExpiresAt: expiresAt,
		Message:   "Authentication successful",
	}, nil
}

// ValidateToken checks signature and expiry. ErrTokenExpired and
// ErrTokenInvalid are for operator diagnostics; callers answer clients
// uniformly either way.
func (s *jwtService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	}, jwt.WithTimeFunc(s.clock.Now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Warnw("Expired JWT token", "error", err)
			return nil, ErrTokenExpired
		}
		s.logger.Warnw("Failed to validate JWT token", "error", err)
		return nil, ErrTokenInvalid
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return token, nil
}

// GetClaimsFromToken extracts the claim set from a validated token.
func (s *jwtService) GetClaimsFromToken(token *jwt.Token) (*JWTClaims, error) {
	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
