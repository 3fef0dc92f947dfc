package oms

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const gmtLayout = "2006-01-02T15:04:05"

// money is a decimal amount sent as a string, possibly empty.
// Unparsable amounts are rejected while decoding.
type money string

func (m money) Decimal() decimal.Decimal {
	s := strings.TrimSpace(string(m))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (m *money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// numbers are accepted as well
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		s = n.String()
	}
	if s = strings.TrimSpace(s); s != "" {
		if _, err := decimal.NewFromString(s); err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}
	*m = money(s)
	return nil
}

// gmtTime is a timestamp without zone designator, always UTC.
type gmtTime string

func (t gmtTime) Time() time.Time {
	if t == "" {
		return time.Time{}
	}
	parsed, err := time.ParseInLocation(gmtLayout, string(t), time.UTC)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

type billing struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type metaData struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type lineItem struct {
	ProductId   int64  `json:"product_id"`
	VariationId int64  `json:"variation_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Subtotal    money  `json:"subtotal"`
	Total       money  `json:"total"`
}

type orderResponse struct {
	Id                 int64      `json:"id"`
	Status             string     `json:"status"`
	CustomerId         int64      `json:"customer_id"`
	DateCreatedGmt     gmtTime    `json:"date_created_gmt"`
	DateModifiedGmt    gmtTime    `json:"date_modified_gmt"`
	DiscountTotal      money      `json:"discount_total"`
	ShippingTotal      money      `json:"shipping_total"`
	Total              money      `json:"total"`
	PaymentMethodTitle string     `json:"payment_method_title"`
	CustomerNote       string     `json:"customer_note"`
	Billing            billing    `json:"billing"`
	LineItems          []lineItem `json:"line_items"`
	MetaData           []metaData `json:"meta_data"`
}

// meta returns the string value of the first meta entry named key.
func (o *orderResponse) meta(key string) string {
	for _, m := range o.MetaData {
		if m.Key != key {
			continue
		}
		var s string
		if err := json.Unmarshal(m.Value, &s); err != nil {
			return ""
		}
		return s
	}
	return ""
}

type categoryRef struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
}

type productResponse struct {
	Id            int64           `json:"id"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Price         money           `json:"price"`
	ManageStock   json.RawMessage `json:"manage_stock"`
	StockQuantity *int            `json:"stock_quantity"`
	StockStatus   string          `json:"stock_status"`
	Categories    []categoryRef   `json:"categories"`
}

// managed reports whether stock is tracked on the item itself.
// Variations report "parent" when the parent tracks stock.
func (p *productResponse) managed() bool {
	var b bool
	if err := json.Unmarshal(p.ManageStock, &b); err == nil {
		return b
	}
	return false
}

type idResponse struct {
	Id int64 `json:"id"`
}
