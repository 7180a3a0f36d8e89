package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/zombor/fuel-station/internal/auth"
)

// unexported type prevents collisions in context
type ctxKey int

const claimsKey ctxKey = iota

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-auth-token")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// tokenFrom reads the identity token from x-auth-token, falling back to a bearer Authorization header
func tokenFrom(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get("x-auth-token")); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAuth verifies the identity token and stores its claims in the request context
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenFrom(r)
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		claims, err := s.auth.Authenticate(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// claimsFrom returns the claims stored by requireAuth
func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}

// userID returns the authenticated user's id
func userID(r *http.Request) string {
	if claims := claimsFrom(r); claims != nil {
		return claims.ID
	}
	return ""
}
