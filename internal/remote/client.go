package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/shazamohamed705/amazing/internal/domain"
	"github.com/shazamohamed705/amazing/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the remote cart API. All calls carry the session bearer
// token; the engine never invokes them on the guest path.
type Client struct {
	baseURL string
	http    HTTPDoer
	logger  *slog.Logger
}

// NewClient creates a remote cart API client rooted at baseURL.
func NewClient(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
	}
}

// CreateItemRequest is the body of POST /cart.
type CreateItemRequest struct {
	ItemID   string          `json:"item_id"`
	Type     domain.ItemType `json:"type"`
	Quantity int             `json:"quantity"`
	Username string          `json:"username,omitempty"`
}

// UpdateItemRequest is the body of PUT /cart/{cartItemId}. The quantity is
// absolute, not a delta.
type UpdateItemRequest struct {
	AbsoluteQuantity int    `json:"absolute_quantity"`
	Username         string `json:"username,omitempty"`
}

// ListMeta is the pagination metadata of the cart listing.
type ListMeta struct {
	CurrentPage domain.Number `json:"current_page"`
	PerPage     domain.Number `json:"per_page"`
	Total       domain.Number `json:"total"`
}

// listEnvelope is the GET /cart response shape.
type listEnvelope struct {
	Success  bool                `json:"success"`
	Data     []domain.RemoteLine `json:"data"`
	MetaData *ListMeta           `json:"meta_data"`
}

// CreateItem mirrors an added line to the remote cart. The response body is
// deliberately not decoded into local state; the optimistic local view is
// authoritative on this path.
func (c *Client) CreateItem(ctx context.Context, token string, reqBody CreateItemRequest) error {
	resp, err := c.do(ctx, token, http.MethodPost, "/cart", reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, "cart-api")
	}
	return nil
}

// ListItems fetches one page of the remote cart and normalizes it to the
// canonical item shape.
func (c *Client) ListItems(ctx context.Context, token string, page, perPage int) ([]domain.CartItem, error) {
	path := fmt.Sprintf("/cart?page=%d&per_page=%d", page, perPage)
	resp, err := c.do(ctx, token, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(resp, "cart-api")
	}

	var envelope listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode cart listing: %w", err)
	}

	return domain.NormalizeLines(envelope.Data), nil
}

// UpdateItem sets the absolute quantity (and optionally the username) of a
// remote cart line.
func (c *Client) UpdateItem(ctx context.Context, token, cartItemID string, reqBody UpdateItemRequest) error {
	resp, err := c.do(ctx, token, http.MethodPut, "/cart/"+url.PathEscape(cartItemID), reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, "cart-api")
	}
	return nil
}

// DeleteItem removes a remote cart line. A 404 maps to ErrNotFound; the
// engine treats that as success since the line is already gone.
func (c *Client) DeleteItem(ctx context.Context, token, cartItemID string) error {
	resp, err := c.do(ctx, token, http.MethodDelete, "/cart/"+url.PathEscape(cartItemID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, "cart-api")
	}
	return nil
}

// DeleteAll empties the remote cart for the authenticated user.
func (c *Client) DeleteAll(ctx context.Context, token string) error {
	resp, err := c.do(ctx, token, http.MethodDelete, "/cart/delete-all", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, "cart-api")
	}
	return nil
}

func (c *Client) do(ctx context.Context, token, method, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	return c.http.Do(ctx, req)
}
