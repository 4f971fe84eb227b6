package credentials

import (
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"golang.org/x/oauth2"
)

// StorageKey is the single fixed key the credential record is persisted under.
const StorageKey = "AUTH_STORAGE_V1"

// Record is the persisted access/refresh token pair.
// Both tokens are written and replaced together; a record with an access token but no
// refresh token can still authenticate requests but cannot be refreshed.
type Record struct {
	AccessToken  string `json:"token"`        // Short-lived bearer JWT
	RefreshToken string `json:"refreshToken"` // Opaque, rotated on every refresh
}

// Valid reports whether both tokens are present.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.AccessToken) != "" && strings.TrimSpace(r.RefreshToken) != ""
}

// CanRefresh reports whether the record holds a refresh token.
func (r Record) CanRefresh() bool {
	return strings.TrimSpace(r.RefreshToken) != ""
}

// OAuth2Token returns the record as an oauth2 bearer token. A zero expiry means the
// expiry is unknown.
func (r Record) OAuth2Token(expiry time.Time) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       expiry,
	}
}

// Encode serialises the record into its persisted JSON form.
func Encode(r Record) ([]byte, error) {
	if !r.Valid() {
		return nil, apperrors.ErrInvalidCredential
	}
	return json.Marshal(r)
}

// Decode parses a persisted JSON record.
func Decode(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, apperrors.Wrapf(err, "credentials.Decode")
	}
	if strings.TrimSpace(r.AccessToken) == "" {
		return nil, apperrors.ErrNoCredentials
	}
	return &r, nil
}
