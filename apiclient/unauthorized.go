package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-rag-admin/credentials"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/rs/zerolog/log"
)

// SessionRecovery obtains fresh credentials after the backend rejected usedAccessToken.
// It returns apperrors.ErrNoRefreshToken when the session cannot be refreshed.
type SessionRecovery interface {
	RecoverUnauthorized(ctx context.Context, usedAccessToken string) (credentials.Record, error)
}

var _ Middleware = (*UnauthorizedHandler)(nil)

// UnauthorizedHandler refreshes the session once when a fresh request gets a 401 and
// resubmits it through the client. A 401 on the retry is returned to the caller.
// It must be the last middleware registered on the client.
type UnauthorizedHandler struct {
	client   *Client
	recovery SessionRecovery
}

func NewUnauthorizedHandler(client *Client, recovery SessionRecovery) *UnauthorizedHandler {
	return &UnauthorizedHandler{client: client, recovery: recovery}
}

func (h *UnauthorizedHandler) BeforeRequest(context.Context, *Request, *http.Request) error {
	return nil
}

func (h *UnauthorizedHandler) OnResponse(ctx context.Context, req *Request, resp *http.Response, err error) (*http.Response, error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if req.Attempt != Fresh {
		log.Debug().Str("path", req.Path).Str("request_id", req.ID).Msg("Retried request unauthorized, not refreshing again")
		return resp, err
	}

	// The retry copy exists before any refresh call is made.
	retry := req.Retry()

	record, recoverErr := h.recovery.RecoverUnauthorized(ctx, req.SentAccessToken())
	if recoverErr != nil {
		if apperrors.Is(recoverErr, apperrors.ErrNoRefreshToken) {
			return resp, err
		}
		if resp != nil {
			resp.Body.Close()
		}
		return nil, recoverErr
	}

	if resp != nil {
		resp.Body.Close()
	}
	if retry.Header == nil {
		retry.Header = http.Header{}
	}
	retry.Header.Set("Authorization", "Bearer "+record.AccessToken)
	return h.client.Do(ctx, retry)
}
