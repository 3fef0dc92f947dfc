package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
	clientid "github.com/jekabolt/grbpwr-reports/internal/middleware"
)

const (
	requestIdHeader        = "X-Request-Id"
	webhookSignatureHeader = "X-WC-Webhook-Signature"
)

type ctxKey int

const (
	requestIdKey ctxKey = iota
	orderIdKey
)

// RequestIdFromContext returns the id assigned to the request, if any.
func RequestIdFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey).(string)
	return id
}

func orderIdFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(orderIdKey).(int64)
	return id
}

// requestID keeps a valid incoming request id or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIdHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIdHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIdKey, id)))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			slog.Default().InfoContext(r.Context(), "http request",
				slog.String("request_id", RequestIdFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("took", time.Since(start)),
				slog.String("client_ip", clientid.GetClientIP(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// orderIdCtx parses the {id} url param into a positive order id.
func (s *Server) orderIdCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			render.Render(w, r, ErrInvalidRequest(fmt.Errorf("invalid order id %q: %w", raw, gerr.BadRequest)))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), orderIdKey, id)))
	})
}

func (s *Server) webhookLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.limiter.CheckWebhook(clientid.GetClientIP(r.Context()), orderIdFromContext(r.Context())); err != nil {
			slog.Default().WarnContext(r.Context(), "webhook rate limited",
				slog.String("err", err.Error()),
			)
			render.Render(w, r, ErrRender(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errBadSignature = errors.New("webhook signature mismatch")

// webhookSignature checks the base64 HMAC-SHA256 of the body when a webhook secret is configured.
func (s *Server) webhookSignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.c.WebhookSecret == "" {
			next.ServeHTTP(w, r)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(fmt.Errorf("can't read body: %w", gerr.BadRequest)))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if !validSignature(s.c.WebhookSecret, body, r.Header.Get(webhookSignatureHeader)) {
			render.Render(w, r, ErrUnauthorized(fmt.Errorf("%w: %w", errBadSignature, gerr.Unauthenticated)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func validSignature(secret string, body []byte, sig string) bool {
	if sig == "" {
		return false
	}
	return hmac.Equal([]byte(signBody(secret, body)), []byte(sig))
}
