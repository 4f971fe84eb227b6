package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/go-rag-admin/credentials"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/rs/zerolog/log"
)

var _ Middleware = (*AuthInjector)(nil)

// AuthInjector attaches the stored access token to every request. The record is read
// from the repo on each request; a missing or unreadable record sends the request
// without credentials.
type AuthInjector struct {
	repo credentials.Repo
}

func NewAuthInjector(repo credentials.Repo) *AuthInjector {
	return &AuthInjector{repo: repo}
}

func (a *AuthInjector) BeforeRequest(ctx context.Context, req *Request, httpReq *http.Request) error {
	record, err := a.repo.Load(ctx)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNoCredentials) {
			log.Debug().Err(err).Msg("Credential store unreadable, sending request without credentials")
		}
		return nil
	}
	if record.AccessToken == "" {
		return nil
	}
	record.OAuth2Token(time.Time{}).SetAuthHeader(httpReq)
	req.sentAccessToken = record.AccessToken
	return nil
}

func (a *AuthInjector) OnResponse(_ context.Context, _ *Request, resp *http.Response, err error) (*http.Response, error) {
	return resp, err
}
