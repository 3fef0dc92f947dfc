package httpapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-reports/internal/daterange"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

func sortedStatuses(s entity.StatusSet) []string {
	out := make([]string, 0, len(s))
	for st := range s {
		out = append(out, st)
	}
	sort.Strings(out)
	return out
}

func (s *Server) getClassification(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.repo.Classification().ClassificationConfig(r.Context())
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, entity.ClassificationInsert{
		Converted:       sortedStatuses(cfg.Converted),
		Delivered:       sortedStatuses(cfg.Delivered),
		ReturnedFull:    sortedStatuses(cfg.ReturnedFull),
		ReturnedPartial: sortedStatuses(cfg.ReturnedPartial),
		ReturnCharge:    cfg.ReturnCharge,
	})
}

// ClassificationRequest replaces the status classification.
type ClassificationRequest struct {
	entity.ClassificationInsert
}

func (cr *ClassificationRequest) Bind(r *http.Request) error {
	if cr.ReturnCharge.IsNegative() {
		return fmt.Errorf("return charge must not be negative: %w", gerr.BadRequest)
	}
	return nil
}

func (s *Server) putClassification(w http.ResponseWriter, r *http.Request) {
	req := &ClassificationRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := s.repo.Classification().SetClassificationConfig(r.Context(), &req.ClassificationInsert); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	s.getClassification(w, r)
}

// UnitCostRequest sets the cost basis of a product or variation.
type UnitCostRequest struct {
	Cost decimal.Decimal `json:"cost"`
}

func (ur *UnitCostRequest) Bind(r *http.Request) error {
	if ur.Cost.IsNegative() {
		return fmt.Errorf("cost must not be negative: %w", gerr.BadRequest)
	}
	return nil
}

// UnitCostResponse echoes a stored unit cost.
type UnitCostResponse struct {
	ItemId int64           `json:"item_id"`
	Cost   decimal.Decimal `json:"cost"`
}

func (s *Server) putUnitCost(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		render.Render(w, r, ErrInvalidRequest(fmt.Errorf("invalid item id %q: %w", raw, gerr.BadRequest)))
		return
	}
	req := &UnitCostRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := s.repo.Costs().SetUnitCost(r.Context(), id, req.Cost); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, UnitCostResponse{ItemId: id, Cost: req.Cost})
}

// AdAccountRequest registers an advertising account.
type AdAccountRequest struct {
	entity.AdAccount
}

func (ar *AdAccountRequest) Bind(r *http.Request) error {
	ar.Name = strings.TrimSpace(ar.Name)
	if ar.Name == "" {
		return fmt.Errorf("account name is empty: %w", gerr.BadRequest)
	}
	if !ar.UsdToLocal.IsPositive() {
		return fmt.Errorf("usd_to_local_rate must be positive: %w", gerr.BadRequest)
	}
	return nil
}

// IdResponse returns the id of a created row.
type IdResponse struct {
	Id int `json:"id"`
}

func (s *Server) addAdAccount(w http.ResponseWriter, r *http.Request) {
	req := &AdAccountRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	id, err := s.repo.AdSpend().AddAdAccount(r.Context(), &req.AdAccount)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, IdResponse{Id: id})
}

// AdSpendRow is one account's spend on one day.
type AdSpendRow struct {
	AccountId     int             `json:"account_id"`
	Date          string          `json:"date"`
	SpendUsd      decimal.Decimal `json:"spend_usd"`
	PurchaseValue decimal.Decimal `json:"purchase_value"`
}

// AdSpendRequest upserts daily spend rows.
type AdSpendRequest struct {
	Rows []AdSpendRow `json:"rows"`

	parsed []entity.AdSpendDaily
}

func (ar *AdSpendRequest) Bind(r *http.Request) error {
	if len(ar.Rows) == 0 {
		return fmt.Errorf("no spend rows: %w", gerr.BadRequest)
	}
	ar.parsed = make([]entity.AdSpendDaily, 0, len(ar.Rows))
	for _, row := range ar.Rows {
		day, err := time.ParseInLocation(daterange.DateLayout, row.Date, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid spend date %q: %w", row.Date, gerr.BadRequest)
		}
		if row.AccountId <= 0 || row.SpendUsd.IsNegative() {
			return fmt.Errorf("invalid spend row for account %d: %w", row.AccountId, gerr.BadRequest)
		}
		ar.parsed = append(ar.parsed, entity.AdSpendDaily{
			AccountId:     row.AccountId,
			ReportDate:    day,
			SpendUsd:      row.SpendUsd,
			PurchaseValue: row.PurchaseValue,
		})
	}
	return nil
}

func (s *Server) putAdSpend(w http.ResponseWriter, r *http.Request) {
	req := &AdSpendRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := s.repo.AdSpend().UpsertDailySpend(r.Context(), req.parsed); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.NoContent(w, r)
}

// ExpenseRequest records an operating expense.
type ExpenseRequest struct {
	CategoryId *int            `json:"category_id,omitempty"`
	Reason     string          `json:"reason"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date"`

	expense entity.Expense
}

func (er *ExpenseRequest) Bind(r *http.Request) error {
	day, err := time.ParseInLocation(daterange.DateLayout, er.Date, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid expense date %q: %w", er.Date, gerr.BadRequest)
	}
	if !er.Amount.IsPositive() {
		return fmt.Errorf("expense amount must be positive: %w", gerr.BadRequest)
	}
	er.expense = entity.Expense{
		CategoryId:  er.CategoryId,
		Reason:      strings.TrimSpace(er.Reason),
		Amount:      er.Amount,
		ExpenseDate: day,
	}
	return nil
}

func (s *Server) addExpense(w http.ResponseWriter, r *http.Request) {
	req := &ExpenseRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	id, err := s.repo.Expenses().AddExpense(r.Context(), &req.expense)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, IdResponse{Id: id})
}
