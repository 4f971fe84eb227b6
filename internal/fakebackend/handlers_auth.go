package fakebackend

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-rag-admin/users"
	"github.com/rs/zerolog/log"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// LoginHandler exchanges a form encoded username and password for a token pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.loginCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		username := r.PostForm.Get("username")
		password := r.PostForm.Get("password")
		if username == "" || password == "" {
			writeError(w, http.StatusUnprocessableEntity, "username and password are required")
			return
		}

		account, err := s.accounts.GetByUsername(username)
		if err != nil || !users.CheckPasswordHash(password, account.PasswordHash) {
			writeError(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		s.writeTokenPair(w, account)
	}
}

// RefreshHandler rotates a refresh token passed as the refresh_token query parameter.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		if delay := time.Duration(s.refreshDelay.Load()); delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		refreshToken := r.URL.Query().Get("refresh_token")
		if refreshToken == "" {
			writeError(w, http.StatusUnprocessableEntity, "refresh_token is required")
			return
		}
		userID, err := s.tokens.redeem(refreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		account, err := s.accounts.GetByID(userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "User no longer exists")
			return
		}
		s.revoked.Cleanup(s.nowFunc())
		s.writeTokenPair(w, account)
	}
}

func (s *Server) writeTokenPair(w http.ResponseWriter, account *users.Account) {
	access, refresh, err := s.tokens.issuePair(account)
	if err != nil {
		log.Err(err).Msg("Failed to issue token pair")
		writeError(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"})
}
