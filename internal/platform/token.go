package platform

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedToken is returned for strings that are not a three-part JWT.
var ErrMalformedToken = errors.New("platform: malformed token")

// Claims are the JWT payload fields xpdash reads. The signature is not
// verified; the platform does that on every request.
type Claims struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// CleanToken strips whitespace and one pair of surrounding quotes, which
// the signin endpoint includes in its body.
func CleanToken(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// ParseClaims decodes the payload segment of token.
func ParseClaims(token string) (Claims, error) {
	parts := strings.Split(CleanToken(token), ".")
	if len(parts) != 3 {
		return Claims{}, ErrMalformedToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return c, nil
}

// TokenExpiry returns the token's exp claim. Tokens without one are
// reported as malformed.
func TokenExpiry(token string) (time.Time, error) {
	c, err := ParseClaims(token)
	if err != nil {
		return time.Time{}, err
	}
	if c.ExpiresAt == 0 {
		return time.Time{}, fmt.Errorf("%w: no exp claim", ErrMalformedToken)
	}
	return time.Unix(c.ExpiresAt, 0), nil
}

// TokenValid reports whether token decodes and has not expired at now.
func TokenValid(token string, now time.Time) bool {
	exp, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	return now.Before(exp)
}
