package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	jwtAuth, err := New(&Config{Secret: "secret"})
	require.NoError(t, err)

	tok, err := NewTokenWithSubject(jwtAuth, time.Hour, "analyst")
	assert.NoError(t, err)

	sub, err := VerifyToken(jwtAuth, tok)
	assert.NoError(t, err)
	assert.Equal(t, "analyst", sub)
}

func TestExpiredToken(t *testing.T) {
	jwtAuth, err := New(&Config{Secret: "secret"})
	require.NoError(t, err)

	tok, err := NewToken(jwtAuth, -time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(jwtAuth, tok)
	assert.Error(t, err)
}

func TestNewEmptySecret(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}

func TestAuthenticator(t *testing.T) {
	jwtAuth, err := New(&Config{Secret: "secret"})
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	unauthorized := func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(http.StatusUnauthorized)
	}
	h := jwtauth.Verifier(jwtAuth)(Authenticator(unauthorized)(ok))

	tok, err := NewToken(jwtAuth, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + tok, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
