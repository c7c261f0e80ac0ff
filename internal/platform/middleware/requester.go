package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "finaudit/pkg/domain"
	"finaudit/pkg/requestcontext"
)

const requesterHeader = "X-Requester-ID"

// Requester resolves who is asking for an audit and stores the identity in
// the request context.
//
// When a signing key is configured, a Bearer token is required and the HS256
// subject claim becomes the requester id; a missing or invalid token is a
// 401. Without a signing key (development, trusted gateways) the identity is
// taken from the X-Requester-ID header; handlers fall back to a
// caller-supplied user_id (request body or query string) when the header is
// absent.
func Requester(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if signingKey == "" {
				if header := strings.TrimSpace(r.Header.Get(requesterHeader)); header != "" {
					if requester, err := id.ParseRequesterID(header); err == nil {
						ctx = requestcontext.WithRequester(ctx, requester)
					}
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				unauthorized(w)
				return
			}

			subject, err := validateToken(token, signingKey)
			if err != nil {
				logger.WarnContext(ctx, "rejected bearer token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				unauthorized(w)
				return
			}

			requester, err := id.ParseRequesterID(subject)
			if err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithRequester(ctx, requester)))
		})
	}
}

func validateToken(tokenString, signingKey string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(signingKey), nil
	})
	if err != nil {
		return "", err
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or missing bearer token"}`))
}
