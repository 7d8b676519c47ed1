// Package client talks to the shop API on behalf of the shopper CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/checkout"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/orders"
)

// APIError carries the status code and the server's message.
type APIError struct {
	Status  int
	Message string
	Fields  []string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("api %d: %s (%s)", e.Status, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

var ErrNotFound = errors.New("client: not found")

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) Checkout(ctx context.Context, req checkout.Request) (checkout.Handle, error) {
	var h checkout.Handle
	err := c.do(ctx, http.MethodPost, "/api/checkout", req, &h)
	return h, err
}

func (c *Client) Confirm(ctx context.Context, sessionID string) (orders.Confirmation, error) {
	var out orders.Confirmation
	err := c.do(ctx, http.MethodPost, "/api/create-order", map[string]string{"sessionId": sessionID}, &out)
	return out, err
}

func (c *Client) Order(ctx context.Context, number string) (orders.Order, error) {
	var o orders.Order
	err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(number), nil, &o)
	return o, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error  string   `json:"error"`
			Fields []string `json:"fields"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error, Fields: e.Fields}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
