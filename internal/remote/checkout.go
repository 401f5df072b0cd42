package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shazamohamed705/amazing/internal/domain"
	apperrors "github.com/shazamohamed705/amazing/pkg/errors"
	"github.com/shazamohamed705/amazing/pkg/httpclient"
)

// CheckoutFallback is the circuit breaker fallback for checkout submission.
// An open circuit surfaces as a structured 503 with a retry hint instead of
// the raw breaker error.
func CheckoutFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("checkout is temporarily unavailable, please retry shortly")
}

// CheckoutRequest is the order submission payload.
type CheckoutRequest struct {
	Items      []domain.CartItem `json:"items"`
	TotalPrice float64           `json:"total_price"`
	Currency   string            `json:"currency"`
	Email      string            `json:"email"`
}

// CheckoutResult is the accepted-order response.
type CheckoutResult struct {
	OrderID    string  `json:"order_id"`
	TotalPrice float64 `json:"total_price"`
	Status     string  `json:"status"`
}

// CheckoutClient submits orders to the storefront backend. Unlike the cart
// mirror calls, checkout runs through a circuit breaker and honors context
// cancellation end to end: an abandoned submission must not place an order.
type CheckoutClient struct {
	baseURL string
	http    HTTPDoer
	logger  *slog.Logger
}

// NewCheckoutClient creates a checkout client rooted at baseURL.
func NewCheckoutClient(baseURL string, doer HTTPDoer, logger *slog.Logger) *CheckoutClient {
	return &CheckoutClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
	}
}

// Submit places the order. Username-required lines are re-validated here:
// a cart must not reach the backend with a username-based service missing
// its target account.
func (c *CheckoutClient) Submit(ctx context.Context, token string, reqBody CheckoutRequest) (*CheckoutResult, error) {
	for _, item := range reqBody.Items {
		if item.IsUsername && item.Username == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("item %q requires a target username", item.Name))
		}
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(resp, "checkout-api")
	}

	var envelope struct {
		Success bool           `json:"success"`
		Data    CheckoutResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode checkout response: %w", err)
	}

	c.logger.InfoContext(ctx, "checkout submitted",
		slog.String("order_id", envelope.Data.OrderID),
		slog.Int("items", len(reqBody.Items)),
	)

	return &envelope.Data, nil
}
