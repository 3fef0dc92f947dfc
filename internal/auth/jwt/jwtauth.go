// Package jwt issues and checks the bearer tokens of the report and settings API.
package jwt

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

// Config holds the signing secret and the default token lifetime.
type Config struct {
	Secret string        `mapstructure:"jwt_secret"`
	TTL    time.Duration `mapstructure:"jwt_ttl"`
}

// New returns an HS256 signer and verifier for c.Secret.
func New(c *Config) (*jwtauth.JWTAuth, error) {
	if c.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return jwtauth.New("HS256", []byte(c.Secret), nil), nil
}

func VerifyToken(jwtAuth *jwtauth.JWTAuth, token string) (string, error) {
	t, err := jwtauth.VerifyToken(jwtAuth, token)
	if err != nil {
		return "", err
	}
	return t.Subject(), nil
}

func NewToken(jwtAuth *jwtauth.JWTAuth, ttl time.Duration) (string, error) {
	return NewTokenWithSubject(jwtAuth, ttl, "")
}

// NewTokenWithSubject creates a JWT with optional subject claim.
// The subject names the dashboard user.
func NewTokenWithSubject(jwtAuth *jwtauth.JWTAuth, ttl time.Duration, subject string) (string, error) {
	claims := map[string]interface{}{
		"exp": time.Now().Add(ttl).Unix(),
	}
	if subject != "" {
		claims["sub"] = subject
	}
	_, ts, err := jwtAuth.Encode(claims)
	if err != nil {
		return ts, err
	}
	return ts, nil
}

// Authenticator rejects requests whose token failed jwtauth.Verifier.
// unauthorized writes the rejection.
func Authenticator(unauthorized func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil {
				slog.Default().InfoContext(r.Context(), "rejected token",
					slog.String("err", err.Error()),
				)
				unauthorized(w, r, err)
				return
			}
			if token == nil {
				unauthorized(w, r, jwtauth.ErrNoTokenFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
