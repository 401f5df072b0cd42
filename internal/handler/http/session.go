package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shazamohamed705/amazing/internal/cart"
	"github.com/shazamohamed705/amazing/internal/remote"
	"github.com/shazamohamed705/amazing/pkg/validator"
)

// SessionStore manages the stored bearer token.
type SessionStore interface {
	Token(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// SessionHandler stores and clears the session token the cart engine keys
// its guest/authenticated split on.
type SessionHandler struct {
	sessions SessionStore
	logger   *slog.Logger
}

// NewSessionHandler creates a session HTTP handler.
func NewSessionHandler(sessions SessionStore, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// PutSession handles PUT /api/v1/session
func (h *SessionHandler) PutSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "VALIDATION_ERROR", Message: err.Error()},
		})
		return
	}

	if err := h.sessions.Set(r.Context(), req.Token); err != nil {
		writeJSON(w, http.StatusInternalServerError, response{
			Error: &errorResponse{Code: "INTERNAL_ERROR", Message: "failed to store session"},
		})
		return
	}

	h.logger.InfoContext(r.Context(), "session token stored")

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "authenticated"}})
}

// DeleteSession handles DELETE /api/v1/session
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, response{
			Error: &errorResponse{Code: "INTERNAL_ERROR", Message: "failed to clear session"},
		})
		return
	}

	h.logger.InfoContext(r.Context(), "session token cleared")

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "guest"}})
}

// CheckoutHandler submits the current cart as an order.
type CheckoutHandler struct {
	engine   *cart.Engine
	checkout *remote.CheckoutClient
	sessions SessionStore
	logger   *slog.Logger
}

// NewCheckoutHandler creates a checkout HTTP handler.
func NewCheckoutHandler(engine *cart.Engine, checkout *remote.CheckoutClient, sessions SessionStore, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		engine:   engine,
		checkout: checkout,
		sessions: sessions,
		logger:   logger,
	}
}

// CheckoutRequest is the JSON body for submitting the cart.
type CheckoutRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// Checkout handles POST /api/v1/checkout. The submission inherits the
// request context, so an abandoned request aborts the upstream call.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "VALIDATION_ERROR", Message: err.Error()},
		})
		return
	}

	view := h.engine.View()
	if view.TotalItems == 0 {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "cart is empty"},
		})
		return
	}

	token, err := h.sessions.Token(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to read session token for checkout",
			slog.String("error", err.Error()),
		)
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	result, err := h.checkout.Submit(r.Context(), token, remote.CheckoutRequest{
		Items:      view.Items,
		TotalPrice: view.TotalPrice,
		Currency:   currency,
		Email:      req.Email,
	})
	if err != nil {
		cartHandlerWriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// cartHandlerWriteError mirrors CartHandler.writeError for handlers without
// an embedded CartHandler.
func cartHandlerWriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	h := &CartHandler{logger: logger}
	h.writeError(w, r, err)
}
