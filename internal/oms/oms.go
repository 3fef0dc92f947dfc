// Package oms reads orders, products and categories from the shop's REST API.
package oms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

const (
	apiPath = "/wp-json/wc/v3"
	perPage = 100

	metaUTMSource  = "_wc_order_attribution_utm_source"
	metaSourceType = "_wc_order_attribution_source_type"

	typeVariable = "variable"
	stockInStock = "instock"
)

type Config struct {
	BaseURL        string        `mapstructure:"base_url"`
	ConsumerKey    string        `mapstructure:"consumer_key"`
	ConsumerSecret string        `mapstructure:"consumer_secret"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
}

type Client struct {
	c      *Config
	base   *url.URL
	client *http.Client
}

func New(c *Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(c.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("can't parse oms base url %q: %w", c.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("oms base url %q must be absolute", c.BaseURL)
	}
	timeout := c.HTTPTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		c:      c,
		base:   base,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// get decodes the response of GET path into dest and returns the total page count
// reported by the API, 1 when absent.
func (cl *Client) get(ctx context.Context, path string, q url.Values, dest any) (int, error) {
	u := *cl.base
	u.Path = cl.base.Path + apiPath + path
	u.RawQuery = q.Encode()
	apiUrl := u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiUrl, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create GET request to %s: %w", path, err)
	}
	req.SetBasicAuth(cl.c.ConsumerKey, cl.c.ConsumerSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := cl.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to make GET request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("GET %s: %w", path, gerr.OrderNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Default().ErrorContext(ctx, "oms returned non-200",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return 0, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return 0, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	pages := 1
	if tp := resp.Header.Get("X-WP-TotalPages"); tp != "" {
		if n, err := strconv.Atoi(tp); err == nil && n > 0 {
			pages = n
		}
	}
	return pages, nil
}

// getAll walks every page of a list endpoint.
func getAll[T any](ctx context.Context, cl *Client, path string, q url.Values) ([]T, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("per_page", strconv.Itoa(perPage))

	var all []T
	for page := 1; ; page++ {
		q.Set("page", strconv.Itoa(page))
		var batch []T
		pages, err := cl.get(ctx, path, q, &batch)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if page >= pages || len(batch) == 0 {
			return all, nil
		}
	}
}

// LookupOrder returns the current state of an order with category enriched lines.
func (cl *Client) LookupOrder(ctx context.Context, orderId int64) (*entity.Order, error) {
	var or orderResponse
	if _, err := cl.get(ctx, fmt.Sprintf("/orders/%d", orderId), nil, &or); err != nil {
		return nil, fmt.Errorf("can't get order %d: %w", orderId, err)
	}

	o := convertOrder(&or)

	cats, err := cl.productCategories(ctx, o.Lines)
	if err != nil {
		return nil, fmt.Errorf("can't get categories of order %d: %w", orderId, err)
	}
	for i := range o.Lines {
		if ids, ok := cats[o.Lines[i].ProductId]; ok {
			o.Lines[i].CategoryIds = ids
		}
	}
	return o, nil
}

func convertOrder(or *orderResponse) *entity.Order {
	o := &entity.Order{
		Id:            or.Id,
		CustomerName:  strings.TrimSpace(or.Billing.FirstName + " " + or.Billing.LastName),
		CustomerPhone: or.Billing.Phone,
		CustomerEmail: or.Billing.Email,
		Status:        or.Status,
		GrandTotal:    or.Total.Decimal(),
		DiscountTotal: or.DiscountTotal.Decimal(),
		ShippingTotal: or.ShippingTotal.Decimal(),
		PaymentMethod: or.PaymentMethodTitle,
		CustomerNote:  or.CustomerNote,
		Attribution: entity.Attribution{
			UTMSource:  or.meta(metaUTMSource),
			SourceType: or.meta(metaSourceType),
		},
		CreatedAt:  or.DateCreatedGmt.Time(),
		ModifiedAt: or.DateModifiedGmt.Time(),
		Lines:      make([]entity.OrderLine, 0, len(or.LineItems)),
	}
	if or.CustomerId > 0 {
		id := or.CustomerId
		o.CustomerId = &id
	}
	for _, li := range or.LineItems {
		sub := li.Subtotal.Decimal()
		o.Subtotal = o.Subtotal.Add(sub)
		o.Lines = append(o.Lines, entity.OrderLine{
			ProductId:   li.ProductId,
			VariationId: li.VariationId,
			Name:        li.Name,
			Quantity:    li.Quantity,
			Subtotal:    sub,
			Total:       li.Total.Decimal(),
			CategoryIds: entity.NewIdSet(),
		})
	}
	return o
}

// productCategories resolves the categories of the parent products of lines.
func (cl *Client) productCategories(ctx context.Context, lines []entity.OrderLine) (map[int64]entity.IdSet, error) {
	seen := entity.NewIdSet()
	for _, l := range lines {
		if l.ProductId > 0 {
			seen.Add(l.ProductId)
		}
	}
	cats := make(map[int64]entity.IdSet, len(seen))
	if len(seen) == 0 {
		return cats, nil
	}

	include := make([]string, 0, len(seen))
	for _, id := range seen.Sorted() {
		include = append(include, strconv.FormatInt(id, 10))
	}
	q := url.Values{}
	q.Set("include", strings.Join(include, ","))
	products, err := getAll[productResponse](ctx, cl, "/products", q)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		cats[p.Id] = categoryIds(p.Categories)
	}
	return cats, nil
}

func categoryIds(refs []categoryRef) entity.IdSet {
	s := entity.NewIdSet()
	for _, c := range refs {
		s.Add(c.Id)
	}
	return s
}

// ModifiedOrderIds lists the ids of orders modified after since.
func (cl *Client) ModifiedOrderIds(ctx context.Context, since time.Time) ([]int64, error) {
	q := url.Values{}
	q.Set("modified_after", since.UTC().Format(time.RFC3339))
	q.Set("dates_are_gmt", "true")
	q.Set("orderby", "modified")
	q.Set("order", "asc")
	q.Set("_fields", "id")

	rows, err := getAll[idResponse](ctx, cl, "/orders", q)
	if err != nil {
		return nil, fmt.Errorf("can't list orders modified after %s: %w", since.Format(time.RFC3339), err)
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Id)
	}
	return ids, nil
}

// InventorySnapshot lists every sellable item. Variable products are replaced by
// their variations, which inherit the parent's categories.
func (cl *Client) InventorySnapshot(ctx context.Context) ([]entity.InventoryItem, error) {
	q := url.Values{}
	q.Set("status", "publish")
	products, err := getAll[productResponse](ctx, cl, "/products", q)
	if err != nil {
		return nil, fmt.Errorf("can't list products: %w", err)
	}

	items := make([]entity.InventoryItem, 0, len(products))
	for _, p := range products {
		cats := categoryIds(p.Categories)
		if p.Type != typeVariable {
			items = append(items, inventoryItem(&p, cats))
			continue
		}
		variations, err := getAll[productResponse](ctx, cl, fmt.Sprintf("/products/%d/variations", p.Id), nil)
		if err != nil {
			return nil, fmt.Errorf("can't list variations of product %d: %w", p.Id, err)
		}
		for _, v := range variations {
			if v.Name == "" {
				v.Name = p.Name
			}
			vcats := entity.NewIdSet()
			vcats.Merge(cats)
			items = append(items, inventoryItem(&v, vcats))
		}
	}
	return items, nil
}

func inventoryItem(p *productResponse, cats entity.IdSet) entity.InventoryItem {
	it := entity.InventoryItem{
		Id:          p.Id,
		Name:        p.Name,
		Price:       p.Price.Decimal(),
		Managed:     p.managed(),
		InStock:     p.StockStatus == stockInStock,
		CategoryIds: cats,
	}
	if p.StockQuantity != nil {
		it.StockQty = *p.StockQuantity
	}
	return it
}

// Categories lists every product category.
func (cl *Client) Categories(ctx context.Context) ([]entity.Category, error) {
	refs, err := getAll[categoryRef](ctx, cl, "/products/categories", nil)
	if err != nil {
		return nil, fmt.Errorf("can't list categories: %w", err)
	}
	cats := make([]entity.Category, 0, len(refs))
	for _, r := range refs {
		cats = append(cats, entity.Category{Id: r.Id, Name: r.Name})
	}
	return cats, nil
}
