package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HostClaims is the token shape issued by the hosted identity provider for
// host-facing endpoints. The API only verifies it, it never issues one.
type HostClaims struct {
	HostID string `json:"host_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GuestClaims is the client-held verification record: issued after a
// successful phrase verification, valid for the verification TTL.
type GuestClaims struct {
	EventID    string `json:"event_id"`
	Name       string `json:"name"`
	VerifiedAt int64  `json:"verified_at"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

func ParseHost(tokenString, secret string) (*HostClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &HostClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*HostClaims); ok && tok.Valid && claims.Role == "host" {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// NewGuestVerification issues the verification record for a verified guest.
func NewGuestVerification(eventID, name, secret string, verifiedAt time.Time, ttl time.Duration) (string, error) {
	claims := GuestClaims{
		EventID:    eventID,
		Name:       name,
		VerifiedAt: verifiedAt.Unix(),
		Role:       "guest",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(verifiedAt),
			NotBefore: jwt.NewNumericDate(verifiedAt),
			ExpiresAt: jwt.NewNumericDate(verifiedAt.Add(ttl)),
			Audience:  []string{"guestlist-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseGuest(tokenString, secret string) (*GuestClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &GuestClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*GuestClaims); ok && tok.Valid && claims.Role == "guest" {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
