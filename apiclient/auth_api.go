package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-rag-admin/credentials"
)

const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/refresh-token"
)

// TokenResponse is the body returned by the login and refresh endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// Record converts the response into a credential record. Both tokens are required.
func (t TokenResponse) Record() (credentials.Record, error) {
	record := credentials.Record{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
	if !record.Valid() {
		return credentials.Record{}, fmt.Errorf("token response is missing access_token or refresh_token")
	}
	return record, nil
}

// AuthAPI calls the login and refresh endpoints. It must be given a client without the
// auth middleware so these calls never trigger a refresh themselves.
type AuthAPI struct {
	public *Client
}

func NewAuthAPI(public *Client) *AuthAPI {
	return &AuthAPI{public: public}
}

// Login exchanges a username and password for a token pair.
func (a *AuthAPI) Login(ctx context.Context, username, password string) (credentials.Record, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp TokenResponse
	if err := a.public.PostForm(ctx, LoginPath, form, &resp); err != nil {
		return credentials.Record{}, err
	}
	return resp.Record()
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is invalid
// once this succeeds.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (credentials.Record, error) {
	query := url.Values{}
	query.Set("refresh_token", refreshToken)

	var resp TokenResponse
	if err := a.public.DoJSON(ctx, &Request{Method: http.MethodPost, Path: RefreshPath, Query: query}, &resp); err != nil {
		return credentials.Record{}, err
	}
	return resp.Record()
}

// NewAuthenticated returns a client that injects the stored access token and recovers
// from a 401 once via recovery.
func NewAuthenticated(baseURL string, repo credentials.Repo, recovery SessionRecovery, options ...Option) *Client {
	c := New(baseURL, options...)
	c.Use(NewAuthInjector(repo), NewUnauthorizedHandler(c, recovery))
	return c
}
