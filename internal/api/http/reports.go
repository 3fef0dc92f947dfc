package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/jekabolt/grbpwr-reports/internal/daterange"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

// dateRange resolves the range, start and end query params against the server clock.
// daterange.Resolve passes a reversed explicit range through with an InvalidDateRange
// error; handlers render that error as 400.
func (s *Server) dateRange(r *http.Request) (entity.DateRangeSpec, error) {
	q := r.URL.Query()
	now := s.now()

	start, err := daterange.ParseDate(q.Get("start"), now.Location())
	if err != nil {
		return entity.DateRangeSpec{}, err
	}
	end, err := daterange.ParseDate(q.Get("end"), now.Location())
	if err != nil {
		return entity.DateRangeSpec{}, err
	}
	return daterange.Resolve(daterange.ParsePreset(q.Get("range")), start, end, now)
}

func (s *Server) getRange(w http.ResponseWriter, r *http.Request) {
	spec, err := s.dateRange(r)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, spec)
}

func (s *Server) getKPI(w http.ResponseWriter, r *http.Request) {
	spec, err := s.dateRange(r)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	bundle, err := s.reports.KPIBundle(r.Context(), spec)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, bundle)
}

// CustomersResponse lists the customers of a window.
type CustomersResponse struct {
	Range     entity.DateRangeSpec    `json:"range"`
	Customers []entity.CustomerRollup `json:"customers"`
}

func (s *Server) getCustomers(w http.ResponseWriter, r *http.Request) {
	spec, err := s.dateRange(r)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	customers, err := s.reports.CustomerRollup(r.Context(), spec, r.URL.Query().Get("search"))
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, CustomersResponse{Range: spec, Customers: customers})
}

func (s *Server) getCustomerSummary(w http.ResponseWriter, r *http.Request) {
	spec, err := s.dateRange(r)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	summary, err := s.reports.CustomerSummary(r.Context(), spec)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, summary)
}

// ProductsResponse lists product performance of a window.
type ProductsResponse struct {
	Range    entity.DateRangeSpec        `json:"range"`
	Products []entity.ProductPerformance `json:"products"`
}

func productFilter(r *http.Request) (entity.ProductFilter, error) {
	q := r.URL.Query()
	f := entity.ProductFilter{Search: strings.TrimSpace(q.Get("search"))}
	if raw := q.Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return f, fmt.Errorf("invalid category %q: %w", raw, gerr.BadRequest)
		}
		f.CategoryId = id
	}
	return f, nil
}

func (s *Server) getProducts(w http.ResponseWriter, r *http.Request) {
	spec, err := s.dateRange(r)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	filter, err := productFilter(r)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	products, err := s.reports.ProductPerformance(r.Context(), spec, filter)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, ProductsResponse{Range: spec, Products: products})
}

func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.CategoryRollup(r.Context())
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, rep)
}

// DailyResponse is the zero-filled daily series of a window.
type DailyResponse struct {
	Range  entity.DateRangeSpec `json:"range"`
	Points []entity.DailyPoint  `json:"points"`
}

func (s *Server) getDaily(w http.ResponseWriter, r *http.Request) {
	spec, err := s.dateRange(r)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	points, err := s.reports.DailySeries(r.Context(), spec)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, DailyResponse{Range: spec, Points: points})
}

func (s *Server) getSources(w http.ResponseWriter, r *http.Request) {
	spec, err := s.dateRange(r)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	rep, err := s.reports.SourceReport(r.Context(), spec)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, rep)
}

func (s *Server) getCourier(w http.ResponseWriter, r *http.Request) {
	spec, err := s.dateRange(r)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	summary, err := s.reports.CourierSummary(r.Context(), spec)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, summary)
}
