package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dordoifood/restaurant-app/models"
)

var ErrOrderNotFound = errors.New("order not found")

type RestaurantSummary struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	BankPhone  string `json:"bank_phone"`
	QRImageURL string `json:"qr_image_url"`
	BankPayURL string `json:"bank_pay_url"`
}

type OrderLine struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Qty      int    `json:"qty"`
	PriceKGS int    `json:"price_kgs"`
	PhotoURL string `json:"photo_url"`
}

// OrderView mirrors the server's customer-facing order shape.
type OrderView struct {
	ID             string                  `json:"id"`
	Status         string                  `json:"status"`
	PaymentMethod  string                  `json:"payment_method"`
	TotalKGS       int                     `json:"total_kgs"`
	PaymentCode    string                  `json:"payment_code"`
	PayerName      string                  `json:"payer_name"`
	CustomerPhone  string                  `json:"customer_phone"`
	Comment        string                  `json:"comment"`
	CanceledReason string                  `json:"canceled_reason"`
	Location       models.DeliveryLocation `json:"location"`
	Restaurant     RestaurantSummary       `json:"restaurant"`
	Items          []OrderLine             `json:"items"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client is the customer-side HTTP API client.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Router-level 404s carry no envelope, so classify before decoding.
	if resp.StatusCode == http.StatusNotFound {
		return ErrOrderNotFound
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

type CreateOrderLine struct {
	MenuItemID string `json:"menu_item_id"`
	Qty        int    `json:"qty"`
}

type CreateOrderRequest struct {
	RestaurantSlug string                  `json:"restaurant_slug"`
	PaymentMethod  string                  `json:"payment_method"`
	CustomerPhone  string                  `json:"customer_phone"`
	PayerName      string                  `json:"payer_name,omitempty"`
	Comment        string                  `json:"comment,omitempty"`
	Location       models.DeliveryLocation `json:"location"`
	Items          []CreateOrderLine       `json:"items"`
}

type CreateOrderResult struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	TotalKGS    int    `json:"total_kgs"`
	PaymentCode string `json:"payment_code"`
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	var result CreateOrderResult
	if err := c.do(ctx, http.MethodPost, "/orders", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	var view OrderView
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// History fetches terminal orders by saved ids and/or phone.
func (c *Client) History(ctx context.Context, ids []string, phone string) ([]OrderView, error) {
	params := url.Values{}
	if len(ids) > 0 {
		params.Set("ids", strings.Join(ids, ","))
	}
	if phone != "" {
		params.Set("phone", phone)
	}

	var data struct {
		Orders []OrderView `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/history?"+params.Encode(), nil, &data); err != nil {
		return nil, err
	}
	return data.Orders, nil
}

func (c *Client) MarkPaid(ctx context.Context, orderID, payerName string) error {
	body := map[string]string{"payer_name": payerName}
	return c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/mark-paid", body, nil)
}

func (c *Client) CancelOrder(ctx context.Context, orderID, reason string) error {
	body := map[string]string{}
	if reason != "" {
		body["reason"] = reason
	}
	return c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/cancel", body, nil)
}
