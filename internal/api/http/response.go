package httpapi

import (
	"net/http"

	"github.com/go-chi/render"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging
	RequestId  string `json:"request_id,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	e.RequestId = RequestIdFromContext(r.Context())
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func newErrResponse(err error, code int) *ErrResponse {
	e := &ErrResponse{
		Err:            err,
		HTTPStatusCode: code,
		StatusText:     http.StatusText(code),
	}
	if err != nil {
		e.ErrorText = err.Error()
	}
	return e
}

// ErrRender maps err onto the status code of the error it wraps.
func ErrRender(err error) render.Renderer {
	return newErrResponse(err, gerr.HTTPStatus(err))
}

func ErrInvalidRequest(err error) render.Renderer {
	return newErrResponse(err, http.StatusBadRequest)
}

func ErrUnauthorized(err error) render.Renderer {
	return newErrResponse(err, http.StatusUnauthorized)
}

func ErrUnavailable(err error) render.Renderer {
	return newErrResponse(err, http.StatusServiceUnavailable)
}

// OrderResponse acknowledges a webhook delivery.
type OrderResponse struct {
	OrderId int64  `json:"order_id"`
	Status  string `json:"status"`
}
