package token_test

import (
	"encoding/base64"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/jrsteele09/go-rag-admin/token"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return raw
}

// TestInspect tests that claims are read without knowing the signing key
func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signed(t, jwtlib.MapClaims{
		"sub":    "alice@acme.test",
		"tenant": "acme",
		"roles":  []string{"admin"},
		"exp":    exp.Unix(),
		"iat":    exp.Add(-time.Hour).Unix(),
	})

	info, err := token.Inspect(raw)
	require.NoError(t, err)
	require.Equal(t, "alice@acme.test", info.Subject)
	require.Equal(t, "acme", info.Tenant)
	require.Equal(t, []string{"admin"}, info.Roles)
	require.True(t, exp.Equal(info.Expiry))
}

func TestInspect_SingleRoleClaim(t *testing.T) {
	raw := signed(t, jwtlib.MapClaims{"role": "superadmin", "exp": time.Now().Add(time.Minute).Unix()})
	info, err := token.Inspect(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"superadmin"}, info.Roles)
}

// TestExpiresAt_Undecodable tests the inputs that cannot yield an expiry
func TestExpiresAt_Undecodable(t *testing.T) {
	noExp := signed(t, jwtlib.MapClaims{"sub": "x"})
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	badExp := header + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"exp":"soon"}`)) + "."

	for name, raw := range map[string]string{
		"empty":       "",
		"garbage":     "not-a-jwt",
		"two-parts":   "abc.def",
		"missing-exp": noExp,
		"string-exp":  badExp,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := token.ExpiresAt(raw)
			require.ErrorIs(t, err, apperrors.ErrTokenUndecodable)
		})
	}
}

func TestRemaining(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	raw := signed(t, jwtlib.MapClaims{"exp": now.Add(120 * time.Second).Unix()})
	remaining, err := token.Remaining(raw, now, 60*time.Second)
	require.NoError(t, err)
	require.Equal(t, 60*time.Second, remaining)

	raw = signed(t, jwtlib.MapClaims{"exp": now.Add(50 * time.Second).Unix()})
	remaining, err = token.Remaining(raw, now, 60*time.Second)
	require.NoError(t, err)
	require.LessOrEqual(t, remaining, time.Duration(0))
}

func TestIsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	past := signed(t, jwtlib.MapClaims{"exp": now.Add(-time.Second).Unix()})
	future := signed(t, jwtlib.MapClaims{"exp": now.Add(time.Second).Unix()})

	expired, err := token.IsExpired(past, now)
	require.NoError(t, err)
	require.True(t, expired)

	expired, err = token.IsExpired(future, now)
	require.NoError(t, err)
	require.False(t, expired)
}
