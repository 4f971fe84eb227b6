package fakebackend

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-rag-admin/users"
)

const refreshTokenBytes = 32

var errInvalidToken = errors.New("invalid token")

// accessClaims is what a verified access token tells a handler about its caller.
type accessClaims struct {
	UserID     int
	TenantCode string
	Role       users.Role
	JTI        string
	Expiry     time.Time
}

type storedRefreshToken struct {
	UserID int
	Iat    time.Time
}

// tokenIssuer signs HS256 access tokens and keeps the server side of refresh tokens.
// A refresh token is single use: redeeming it deletes it.
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time

	mu      sync.Mutex
	refresh map[string]storedRefreshToken
	issued  map[string]time.Time // access jti to expiry
}

func newTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		nowFunc:    now,
		refresh:    make(map[string]storedRefreshToken),
		issued:     make(map[string]time.Time),
	}
}

func (t *tokenIssuer) issuePair(account *users.Account) (access, refresh string, err error) {
	now := t.nowFunc()
	exp := now.Add(t.accessTTL)
	jti := uuid.New().String()
	claims := jwtlib.MapClaims{
		"sub":    account.Username(),
		"uid":    account.ID,
		"tenant": account.TenantCode,
		"role":   string(account.Role),
		"iat":    now.Unix(),
		"exp":    exp.Unix(),
		"jti":    jti,
	}
	access, err = jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	tokenBytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	refresh = hex.EncodeToString(tokenBytes)

	t.mu.Lock()
	t.refresh[refresh] = storedRefreshToken{UserID: account.ID, Iat: now}
	t.issued[jti] = exp
	t.mu.Unlock()
	return access, refresh, nil
}

// redeem consumes a refresh token and returns the user it was issued to.
func (t *tokenIssuer) redeem(refresh string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stored, ok := t.refresh[refresh]
	if !ok {
		return 0, errInvalidToken
	}
	delete(t.refresh, refresh)
	if t.refreshTTL > 0 && t.nowFunc().Sub(stored.Iat) > t.refreshTTL {
		return 0, errInvalidToken
	}
	return stored.UserID, nil
}

func (t *tokenIssuer) verify(raw string) (*accessClaims, error) {
	parsed, err := jwtlib.Parse(raw, func(tok *jwtlib.Token) (any, error) {
		if _, ok := tok.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwtlib.WithTimeFunc(t.nowFunc), jwtlib.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	exp, _ := claims.GetExpirationTime()
	uid, _ := claims["uid"].(float64)
	tenant, _ := claims["tenant"].(string)
	role, _ := claims["role"].(string)
	jti, _ := claims["jti"].(string)
	return &accessClaims{
		UserID:     int(uid),
		TenantCode: tenant,
		Role:       users.Role(role),
		JTI:        jti,
		Expiry:     exp.Time,
	}, nil
}

// revokeAllRefresh forgets every outstanding refresh token.
func (t *tokenIssuer) revokeAllRefresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refresh = make(map[string]storedRefreshToken)
}

// issuedAccess returns the jti and expiry of every access token issued so far.
func (t *tokenIssuer) issuedAccess() map[string]time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]time.Time, len(t.issued))
	for k, v := range t.issued {
		out[k] = v
	}
	return out
}
