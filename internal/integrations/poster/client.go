package poster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Source — to, czego pipeline potrzebuje od API POS-a.
// W testach podmieniane na deterministyczny fake.
type Source interface {
	GetTransactions(ctx context.Context, from, to time.Time) ([]RawTransaction, error)
	GetProduct(ctx context.Context, id int64) (*RawProductDetail, error)
	GetMenuCategories(ctx context.Context) ([]RawCategory, error)
	GetClientByID(ctx context.Context, id int64) (*RawClient, error)
}

// Client — typowany klient REST API Postera. Token w query stringu,
// odpowiedzi w kopercie {"response": ...}.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, method string, params url.Values, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("%s: zły base_url: %w", method, err)
	}
	u.Path = "/api/" + method

	q := params
	if q == nil {
		q = url.Values{}
	}
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "possync 1.0v")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("%s: http %d", method, resp.StatusCode)
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s: decode: %w", method, err)
	}
	if out != nil && len(envelope.Response) > 0 {
		if err := json.Unmarshal(envelope.Response, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", method, err)
		}
	}
	return nil
}

const dateLayout = "2006-01-02"

func (c *Client) GetTransactions(ctx context.Context, from, to time.Time) ([]RawTransaction, error) {
	params := url.Values{}
	params.Set("date_from", from.Format(dateLayout))
	params.Set("date_to", to.Format(dateLayout))
	params.Set("include_products", "true")

	var out []RawTransaction
	if err := c.get(ctx, "dash.transactions.getTransactions", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*RawProductDetail, error) {
	params := url.Values{}
	params.Set("product_id", fmt.Sprintf("%d", id))

	var out RawProductDetail
	if err := c.get(ctx, "menu.getProduct", params, &out); err != nil {
		return nil, err
	}
	if i64(out.ProductID) != id {
		return nil, fmt.Errorf("menu.getProduct: produkt %d nieznany", id)
	}
	return &out, nil
}

func (c *Client) GetMenuCategories(ctx context.Context) ([]RawCategory, error) {
	var out []RawCategory
	if err := c.get(ctx, "menu.getCategories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetClientByID(ctx context.Context, id int64) (*RawClient, error) {
	params := url.Values{}
	params.Set("client_id", fmt.Sprintf("%d", id))

	// źródło oddaje klienta jako jednoelementową listę
	var out []RawClient
	if err := c.get(ctx, "clients.getClient", params, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 || i64(out[0].ClientID) != id {
		return nil, fmt.Errorf("clients.getClient: klient %d nieznany", id)
	}
	return &out[0], nil
}
