package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
)

// NewJWTAuth returns an HS256 verifier for secret, or nil when secret is empty
// (authentication disabled).
func NewJWTAuth(secret string) *jwtauth.JWTAuth {
	if secret == "" {
		return nil
	}
	return jwtauth.New("HS256", []byte(secret), nil)
}

// VerifyToken parses a bearer token when one is sent but never rejects the
// request. A nil ja disables it.
func VerifyToken(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	if ja == nil {
		return passThrough
	}
	return jwtauth.Verifier(ja)
}

// RequireToken rejects requests without a valid bearer token. A nil ja
// disables it.
func RequireToken(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	if ja == nil {
		return passThrough
	}
	return func(next http.Handler) http.Handler {
		return jwtauth.Verifier(ja)(jwtauth.Authenticator(next))
	}
}

func passThrough(next http.Handler) http.Handler {
	return next
}

// AuthorFromContext returns the "sub" claim of a verified token, or "".
func AuthorFromContext(ctx context.Context) string {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
