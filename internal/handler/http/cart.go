package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shazamohamed705/amazing/internal/cart"
	"github.com/shazamohamed705/amazing/internal/domain"
	"github.com/shazamohamed705/amazing/internal/pricing"
	apperrors "github.com/shazamohamed705/amazing/pkg/errors"
	"github.com/shazamohamed705/amazing/pkg/pagination"
	"github.com/shazamohamed705/amazing/pkg/validator"
)

// CartHandler handles the cart and session endpoints.
type CartHandler struct {
	engine *cart.Engine
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(engine *cart.Engine, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		engine: engine,
		logger: logger,
	}
}

// --- Request DTOs ---

// looseID decodes a JSON id that may arrive as a string or a number.
type looseID string

func (l *looseID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*l = ""
		return nil
	}
	*l = looseID(strings.Trim(s, `"`))
	return nil
}

// AddItemRequest is the loosely-shaped product payload the storefront UI
// sends. Catalog entities carry their id under different keys depending on
// which listing produced them; ResolveProductID normalizes that here, at the
// boundary, so the engine only sees the canonical shape.
type AddItemRequest struct {
	PackageID    looseID `json:"package_id"`
	PackageIDAlt looseID `json:"packageId"`
	ID           looseID `json:"id"`

	Name           string        `json:"name" validate:"max=500"`
	Price          domain.Number `json:"price"`
	Quantity       int           `json:"quantity" validate:"gte=0"`
	Username       string        `json:"username"`
	Image          string        `json:"image"`
	PricePer1000   domain.Number `json:"price_per_1000"`
	IsUsername     bool          `json:"is_username"`
	FollowersCount domain.Number `json:"followers_count"`
	Type           string        `json:"type" validate:"omitempty,oneof=service package"`

	// Country is the detected storefront country; it selects a localized
	// unit price when the catalog entry carries per-country overrides.
	Country       string             `json:"country"`
	CountryPrices map[string]float64 `json:"country_prices"`
}

// ResolveProductID resolves the catalog id from its possible keys.
func (r AddItemRequest) ResolveProductID() (string, error) {
	for _, id := range []looseID{r.PackageID, r.PackageIDAlt, r.ID} {
		if id != "" {
			return string(id), nil
		}
	}
	return "", apperrors.InvalidInput("invalid product: no id present")
}

// toAddInput converts the boundary payload into the engine's canonical input.
func (r AddItemRequest) toAddInput() (cart.AddInput, error) {
	productID, err := r.ResolveProductID()
	if err != nil {
		return cart.AddInput{}, err
	}

	rec := pricing.Record{
		Price:         float64(r.Price),
		PricePer1000:  float64(r.PricePer1000),
		CountryPrices: r.CountryPrices,
	}

	return cart.AddInput{
		ProductID:      productID,
		Name:           r.Name,
		Price:          pricing.UnitPrice(rec, r.Country),
		Quantity:       r.Quantity,
		Username:       r.Username,
		Image:          r.Image,
		PricePer1000:   pricing.RatePer1000(rec, r.Country),
		IsUsername:     r.IsUsername,
		FollowersCount: r.FollowersCount.IntOr(0),
		Type:           domain.ItemType(r.Type),
	}, nil
}

// UpdateQuantityRequest is the JSON body for updating a line's quantity.
type UpdateQuantityRequest struct {
	Quantity int    `json:"quantity" validate:"required,gte=1"`
	Username string `json:"username"`
}

// SessionRequest is the JSON body for storing a session token.
type SessionRequest struct {
	Token string `json:"token" validate:"required"`
}

// --- Response envelope ---

type response struct {
	Data  any            `json:"data,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)

	view, err := h.engine.Fetch(r.Context(), p.Page, p.PerPage)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: view})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	input, err := req.toAddInput()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	view, err := h.engine.Add(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: view})
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	view, err := h.engine.UpdateQuantity(r.Context(), productID, req.Quantity, req.Username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: view})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	view, err := h.engine.Remove(r.Context(), cart.RemoveInput{
		ProductID:  productID,
		CartItemID: r.URL.Query().Get("cart_item_id"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: view})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.Clear(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: view})
}

// --- Helpers ---

func (h *CartHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, response{
			Error: &errorResponse{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	if errors.Is(err, apperrors.ErrNotFound) {
		code = "NOT_FOUND"
		message = "resource not found"
		status = http.StatusNotFound
	} else if errors.Is(err, apperrors.ErrInvalidInput) {
		code = "INVALID_INPUT"
		message = err.Error()
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	writeJSON(w, status, response{
		Error: &errorResponse{Code: code, Message: message},
	})
}

func (h *CartHandler) writeValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	writeJSON(w, http.StatusBadRequest, response{Error: &errorResponse{Code: "INVALID_INPUT", Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}
