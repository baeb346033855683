package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shashiranjanraj/wellness360/config"
	"golang.org/x/crypto/bcrypt"
)

// Token uses. A refresh token is never accepted as a bearer token.
const (
	useAccess  = "access"
	useRefresh = "refresh"
)

// Claims holds the typed JWT payload.
type Claims struct {
	CustomerID uint   `json:"customer_id"`
	Role       int    `json:"role"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Use        string `json:"use,omitempty"`
	jwt.RegisteredClaims
}

func secret() []byte {
	return []byte(config.JWTSecret())
}

// GenerateToken creates a signed 24h bearer token for id.
func GenerateToken(id Identity) (string, error) {
	return sign(id, useAccess, 24*time.Hour)
}

// GenerateRefreshToken creates a 7 day token that can only be exchanged
// for a new token pair.
func GenerateRefreshToken(id Identity) (string, error) {
	return sign(id, useRefresh, 7*24*time.Hour)
}

func sign(id Identity, use string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		CustomerID: id.CustomerID,
		Role:       id.Role,
		Name:       id.Name,
		Email:      id.Email,
		Use:        use,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// ValidateToken parses and validates a bearer token.
func ValidateToken(t string) (*Claims, error) {
	claims, err := parse(t)
	if err != nil {
		return nil, err
	}
	if claims.Use == useRefresh {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// ValidateRefreshToken parses t and requires a refresh token.
func ValidateRefreshToken(t string) (*Claims, error) {
	claims, err := parse(t)
	if err != nil {
		return nil, err
	}
	if claims.Use != useRefresh {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func parse(t string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: unexpected signing method")
		}
		return secret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.CustomerID == 0 {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Identity converts the claims to the request identity.
func (c *Claims) Identity() Identity {
	return Identity{CustomerID: c.CustomerID, Name: c.Name, Email: c.Email, Role: c.Role}
}

// HashPassword returns a bcrypt hash of the plain-text password.
func HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a bcrypt hash against the plain-text candidate.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
