package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of access-token claims this client inspects.
type Claims struct {
	Subject string
	Email   string
	Expiry  time.Time
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseClaims extracts subject, email, and expiry from a provider-issued JWT.
//
// The token is NOT verified: signature validation is the backend's job, the
// client only reads claims to schedule refreshes and label the session.
func ParseClaims(accessToken string) (*Claims, error) {
	var claims tokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	out := &Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
	}
	if claims.ExpiresAt != nil {
		out.Expiry = claims.ExpiresAt.Time
	}
	return out, nil
}
