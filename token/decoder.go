package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/jrsteele09/go-rag-admin/internal/utils"
)

// Introspection is the unverified view of an access token's claims.
// Signatures are never checked client-side; the backend remains the authority.
type Introspection struct {
	Subject  string    `json:"sub,omitempty"`
	Tenant   string    `json:"tenant,omitempty"`
	Roles    []string  `json:"roles,omitempty"`
	IssuedAt time.Time `json:"iat,omitempty"`
	Expiry   time.Time `json:"exp"`
}

// Inspect decodes the payload of rawToken without verifying its signature.
// A malformed token or one without a numeric exp claim yields ErrTokenUndecodable.
func Inspect(rawToken string) (*Introspection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.Wrapf(apperrors.ErrTokenUndecodable, "empty token")
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrTokenUndecodable, "parse: %v", err)
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrTokenUndecodable, "error extracting claims")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrTokenUndecodable, "exp claim: %v", err)
	}
	if exp == nil {
		return nil, apperrors.Wrapf(apperrors.ErrTokenUndecodable, "missing exp claim")
	}

	info := &Introspection{Expiry: exp.Time}
	info.Subject, _ = claims.GetSubject()
	info.Tenant, _ = claims["tenant"].(string)
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	switch roles := claims["roles"].(type) {
	case []any:
		info.Roles = utils.ToStringSlice(roles)
	case string:
		info.Roles = []string{roles}
	}
	if role, ok := claims["role"].(string); ok && len(info.Roles) == 0 {
		info.Roles = []string{role}
	}
	return info, nil
}

// ExpiresAt returns the exp claim of rawToken.
func ExpiresAt(rawToken string) (time.Time, error) {
	info, err := Inspect(rawToken)
	if err != nil {
		return time.Time{}, err
	}
	return info.Expiry, nil
}

// Remaining returns how long until the token should be refreshed: exp - now - lead.
// The result is zero or negative when the token is already inside the lead window.
func Remaining(rawToken string, now time.Time, lead time.Duration) (time.Duration, error) {
	exp, err := ExpiresAt(rawToken)
	if err != nil {
		return 0, err
	}
	return exp.Sub(now) - lead, nil
}

// IsExpired reports whether the token's exp is at or before now.
func IsExpired(rawToken string, now time.Time) (bool, error) {
	exp, err := ExpiresAt(rawToken)
	if err != nil {
		return false, err
	}
	return !exp.After(now), nil
}
