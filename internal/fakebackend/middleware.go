package fakebackend

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/jrsteele09/go-rag-admin/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ContextKeyClaims ContextKey = "claims"

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// APIMiddleware is applied to every route.
func (s *Server) APIMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	return append([]func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.FailureMiddleware,
	}, mw...)
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.env == "DEV" {
			logRoute(r.Method, r.URL.Path)
		}
		next(w, r)
	}
}

// FailureMiddleware answers with a status queued by FailPath instead of the handler.
func (s *Server) FailureMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status, ok := s.nextFailure(r.URL.Path); ok {
			writeError(w, status, http.StatusText(status))
			return
		}
		next(w, r)
	}
}

// RequireAuth rejects requests without a valid, unrevoked bearer access token.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims, err := s.tokens.verify(raw)
		if err != nil || (claims.JTI != "" && s.revoked.IsRevoked(claims.JTI)) {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole must run after RequireAuth.
func (s *Server) RequireRole(roles ...users.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFrom(r)
			if claims == nil || !slices.Contains(roles, claims.Role) {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next(w, r)
		}
	}
}

func claimsFrom(r *http.Request) *accessClaims {
	claims, _ := r.Context().Value(ContextKeyClaims).(*accessClaims)
	return claims
}
