package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueToken signs a JWT for p. The subject claim carries the UID per
// RFC 7519; anonymity and email travel as private claims.
func IssueToken(secret string, p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   p.UID,
		"email": p.Email,
		"anon":  p.Anonymous,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a JWT and reconstructs the principal it was issued for.
func ParseToken(secret, tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Principal{}, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("invalid token claims")
	}
	uid, ok := claims["sub"].(string)
	if !ok || uid == "" {
		return Principal{}, errors.New("invalid token structure - missing subject")
	}

	p := Principal{UID: uid}
	if email, ok := claims["email"].(string); ok {
		p.Email = email
	}
	if anon, ok := claims["anon"].(bool); ok {
		p.Anonymous = anon
	}
	return p, nil
}
