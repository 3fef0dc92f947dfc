package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

func (s *Server) ingestOrder(w http.ResponseWriter, r *http.Request) {
	id := orderIdFromContext(r.Context())
	if err := s.ingester.Ingest(r.Context(), id); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, OrderResponse{OrderId: id, Status: "ingested"})
}

// StatusRequest carries the new source status of an order.
type StatusRequest struct {
	Status string `json:"status"`
}

func (sr *StatusRequest) Bind(r *http.Request) error {
	sr.Status = strings.TrimSpace(sr.Status)
	if sr.Status == "" {
		return fmt.Errorf("status is empty: %w", gerr.BadRequest)
	}
	return nil
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := orderIdFromContext(r.Context())
	req := &StatusRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := s.ingester.UpdateStatus(r.Context(), id, req.Status); err != nil {
		slog.Default().ErrorContext(r.Context(), "can't update order status",
			slog.Int64("order_id", id),
			slog.String("status", req.Status),
			slog.String("err", err.Error()),
		)
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, OrderResponse{OrderId: id, Status: req.Status})
}
