package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "finaudit/pkg/domain"
	"finaudit/pkg/requestcontext"
)

const signingKey = "test-signing-key"

func signToken(t *testing.T, key, subject string, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func requesterProbe(captured *id.RequesterID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = requestcontext.Requester(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequester_HeaderMode(t *testing.T) {
	t.Run("takes the identity from the header", func(t *testing.T) {
		var got id.RequesterID
		mw := Requester("", slog.New(slog.DiscardHandler))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Requester-ID", "user-42")
		rec := httptest.NewRecorder()
		mw(requesterProbe(&got)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, id.RequesterID("user-42"), got)
	})

	t.Run("missing header passes through with no identity", func(t *testing.T) {
		var got id.RequesterID
		mw := Requester("", slog.New(slog.DiscardHandler))

		rec := httptest.NewRecorder()
		mw(requesterProbe(&got)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, got.IsZero())
	})
}

func TestRequester_TokenMode(t *testing.T) {
	mwOf := func(captured *id.RequesterID) http.Handler {
		return Requester(signingKey, slog.New(slog.DiscardHandler))(requesterProbe(captured))
	}

	t.Run("valid token yields the subject", func(t *testing.T) {
		var got id.RequesterID
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signingKey, "user-42", jwt.SigningMethodHS256))
		rec := httptest.NewRecorder()
		mwOf(&got).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, id.RequesterID("user-42"), got)
	})

	t.Run("missing token is 401", func(t *testing.T) {
		var got id.RequesterID
		rec := httptest.NewRecorder()
		mwOf(&got).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthorized")
	})

	t.Run("wrong key is 401", func(t *testing.T) {
		var got id.RequesterID
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "other-key", "user-42", jwt.SigningMethodHS256))
		rec := httptest.NewRecorder()
		mwOf(&got).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unsigned token is 401", func(t *testing.T) {
		var got id.RequesterID
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-42"})
		unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+unsigned)
		rec := httptest.NewRecorder()
		mwOf(&got).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token without subject is 401", func(t *testing.T) {
		var got id.RequesterID
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(signingKey))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		mwOf(&got).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("header identity is ignored in token mode", func(t *testing.T) {
		var got id.RequesterID
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Requester-ID", "spoofed-user")
		rec := httptest.NewRecorder()
		mwOf(&got).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
