// File: internal/auth/jwt.go
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = 24 * time.Hour * 7

// GenerateJWT signs a token for an agent account.
func GenerateJWT(agentID uint, secretKey []byte) (string, error) {
	if agentID == 0 {
		return "", errors.New("agent ID cannot be zero")
	}

	claims := jwt.MapClaims{
		"sub": agentID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken checks the signature and returns the agent ID carried in the
// token.
func ValidateToken(tokenString string, secretKey []byte) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})

	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if agentIDFloat, ok := claims["sub"].(float64); ok {
			return uint(agentIDFloat), nil
		}
	}

	return 0, errors.New("invalid token")
}
