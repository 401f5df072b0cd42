package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shazamohamed705/amazing/internal/domain"
	"github.com/shazamohamed705/amazing/internal/event"
	"github.com/shazamohamed705/amazing/internal/remote"
	apperrors "github.com/shazamohamed705/amazing/pkg/errors"
)

var cartSyncFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cart_sync_failures_total",
		Help: "Remote cart mirror calls that failed and were absorbed locally",
	},
	[]string{"operation"},
)

// GuestStore persists the guest cart to the device-local store.
type GuestStore interface {
	Load(ctx context.Context) ([]domain.CartItem, error)
	Save(ctx context.Context, items []domain.CartItem) error
	Clear(ctx context.Context) error
}

// TokenSource reads the session bearer token. An empty token means guest.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RemoteAPI is the remote cart service boundary.
type RemoteAPI interface {
	CreateItem(ctx context.Context, token string, req remote.CreateItemRequest) error
	ListItems(ctx context.Context, token string, page, perPage int) ([]domain.CartItem, error)
	UpdateItem(ctx context.Context, token, cartItemID string, req remote.UpdateItemRequest) error
	DeleteItem(ctx context.Context, token, cartItemID string) error
	DeleteAll(ctx context.Context, token string) error
}

// AddInput is the canonical shape the engine accepts for a new line. The
// HTTP boundary is responsible for resolving loose product payloads into it
// before the engine ever sees them.
type AddInput struct {
	ProductID      string
	Name           string
	Price          float64
	Quantity       int
	Username       string
	Image          string
	PricePer1000   float64
	IsUsername     bool
	FollowersCount int
	Type           domain.ItemType
}

// RemoveInput identifies the line to remove. CartItemID keys the remote
// delete and falls back to the catalog id when absent.
type RemoveInput struct {
	ProductID  string
	CartItemID string
}

// Engine owns the authoritative in-memory cart.
//
// Every mutating operation follows the same three phases: validate, apply
// the local change and recompute totals, then mirror to the remote cart when
// a session token exists. The mirror is asymmetric on purpose: additive
// operations (Add, UpdateQuantity) absorb remote failures and keep the
// optimistic local state, while destructive ones (Remove, Clear) roll back
// to the pre-operation snapshot and surface the error, so the local view
// never under-reports what the server still holds.
type Engine struct {
	mu   sync.Mutex
	cart domain.Cart

	guest     GuestStore
	remoteAPI RemoteAPI
	tokens    TokenSource
	producer  *event.Producer
	logger    *slog.Logger
}

// NewEngine creates a cart engine. The producer may be nil when cart
// activity events are not wired.
func NewEngine(guest GuestStore, remoteAPI RemoteAPI, tokens TokenSource, producer *event.Producer, logger *slog.Logger) *Engine {
	return &Engine{
		cart:      domain.Cart{Items: []domain.CartItem{}},
		guest:     guest,
		remoteAPI: remoteAPI,
		tokens:    tokens,
		producer:  producer,
		logger:    logger,
	}
}

// View returns the current derived cart state.
func (e *Engine) View() domain.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.View()
}

// Add appends a new line to the cart. Duplicate lines (same catalog id and
// same username, or both without one) are rejected before any state change.
// The local append is the operation's commit point: remote mirror failures
// are logged and absorbed, a 409 from the server counts as success.
func (e *Engine) Add(ctx context.Context, input AddInput) (domain.View, error) {
	if input.ProductID == "" {
		return domain.EmptyView(), apperrors.InvalidInput("product id is required")
	}
	if input.IsUsername && input.Username == "" {
		return domain.EmptyView(), apperrors.InvalidInput("a target username is required for this service")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cart.FindLine(input.ProductID, input.Username) >= 0 {
		return e.cart.View(), apperrors.AlreadyExists("cart item", "id", input.ProductID)
	}

	quantity := input.Quantity
	if quantity < 1 {
		// Packages default to their advertised follower count.
		if input.Type == domain.TypePackage && input.FollowersCount > 0 {
			quantity = input.FollowersCount
		} else {
			quantity = 1
		}
	}

	item := domain.Sanitize(domain.CartItem{
		ID:             input.ProductID,
		Name:           input.Name,
		Price:          input.Price,
		Quantity:       quantity,
		Username:       input.Username,
		Image:          input.Image,
		PricePer1000:   input.PricePer1000,
		IsUsername:     input.IsUsername,
		FollowersCount: input.FollowersCount,
		Type:           input.Type,
	})
	e.cart.Items = append(e.cart.Items, item)

	// Local state is committed; everything below is best-effort.
	if token := e.token(ctx); token != "" {
		err := e.remoteAPI.CreateItem(ctx, token, remote.CreateItemRequest{
			ItemID:   item.ID,
			Type:     item.Type,
			Quantity: item.Quantity,
			Username: item.Username,
		})
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrAlreadyExists):
			e.logger.InfoContext(ctx, "item already in remote cart, keeping local line",
				slog.String("product_id", item.ID),
			)
		default:
			e.syncFailure(ctx, "add", item.ID, err)
		}
	} else {
		e.persistGuest(ctx)
	}

	e.publishUpdated(ctx)

	e.logger.InfoContext(ctx, "item added to cart",
		slog.String("product_id", item.ID),
		slog.String("type", string(item.Type)),
		slog.Int("quantity", item.Quantity),
	)

	return e.cart.View(), nil
}

// Remove deletes a line. The remote delete is idempotent (404 counts as
// success); any other remote failure restores the pre-operation snapshot
// and is returned to the caller.
func (e *Engine) Remove(ctx context.Context, input RemoveInput) (domain.View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.cart.FindIndex(input.ProductID)
	if idx < 0 {
		return e.cart.View(), apperrors.NotFound("cart item", input.ProductID)
	}

	snapshot := e.cart.Clone()
	removed := e.cart.Items[idx]
	e.cart.Items = append(e.cart.Items[:idx], e.cart.Items[idx+1:]...)

	if token := e.token(ctx); token != "" {
		lineID := input.CartItemID
		if lineID == "" {
			lineID = removed.CartItemID
		}
		if lineID == "" {
			lineID = input.ProductID
		}

		err := e.remoteAPI.DeleteItem(ctx, token, lineID)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrNotFound):
			e.logger.DebugContext(ctx, "remote cart line already gone",
				slog.String("cart_item_id", lineID),
			)
		default:
			e.cart = snapshot
			e.logger.ErrorContext(ctx, "remote delete failed, local removal rolled back",
				slog.String("cart_item_id", lineID),
				slog.String("error", err.Error()),
			)
			return e.cart.View(), fmt.Errorf("remove cart item: %w", err)
		}
	} else {
		e.persistGuest(ctx)
	}

	e.publishUpdated(ctx)

	e.logger.InfoContext(ctx, "item removed from cart",
		slog.String("product_id", input.ProductID),
	)

	return e.cart.View(), nil
}

// UpdateQuantity sets the absolute quantity (and optionally the username) of
// an existing line. A missing line is a no-op. The local update always
// stands: remote mirror failures are logged and absorbed.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, quantity int, username string) (domain.View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.cart.FindIndex(productID)
	if idx < 0 {
		e.logger.DebugContext(ctx, "quantity update for absent line ignored",
			slog.String("product_id", productID),
		)
		return e.cart.View(), nil
	}

	e.cart.Items[idx].Quantity = quantity
	if username != "" {
		e.cart.Items[idx].Username = username
	}
	item := e.cart.Items[idx]

	if token := e.token(ctx); token != "" {
		err := e.remoteAPI.UpdateItem(ctx, token, item.CartItemID, remote.UpdateItemRequest{
			AbsoluteQuantity: quantity,
			Username:         item.Username,
		})
		if err != nil {
			e.syncFailure(ctx, "update", productID, err)
		}
	} else {
		e.persistGuest(ctx)
	}

	e.publishUpdated(ctx)

	return e.cart.View(), nil
}

// Clear empties the cart. A remote delete-all failure restores the snapshot
// and is returned to the caller.
func (e *Engine) Clear(ctx context.Context) (domain.View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.cart.Clone()
	e.cart = domain.Cart{Items: []domain.CartItem{}}

	if token := e.token(ctx); token != "" {
		if err := e.remoteAPI.DeleteAll(ctx, token); err != nil {
			e.cart = snapshot
			e.logger.ErrorContext(ctx, "remote delete-all failed, local clear rolled back",
				slog.String("error", err.Error()),
			)
			return e.cart.View(), fmt.Errorf("clear cart: %w", err)
		}
	} else {
		if err := e.guest.Clear(ctx); err != nil {
			e.cart = snapshot
			return e.cart.View(), fmt.Errorf("clear guest cart: %w", err)
		}
	}

	if e.producer != nil {
		if err := e.producer.PublishCartCleared(ctx); err != nil {
			e.logger.WarnContext(ctx, "failed to publish cart.cleared event",
				slog.String("error", err.Error()),
			)
		}
	}

	e.logger.InfoContext(ctx, "cart cleared")

	return e.cart.View(), nil
}

// Fetch refreshes the cart from its backing store and replaces the local
// state wholesale: the device store for guests, the remote listing when a
// token is present. The read path is fail-soft; a failed refresh returns an
// empty view and leaves the in-memory cart untouched.
func (e *Engine) Fetch(ctx context.Context, page, perPage int) (domain.View, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	token := e.token(ctx)
	if token == "" {
		items, err := e.guest.Load(ctx)
		if err != nil {
			e.logger.WarnContext(ctx, "failed to load guest cart",
				slog.String("error", err.Error()),
			)
			return domain.EmptyView(), nil
		}
		return e.replace(items), nil
	}

	// An authenticated session owns the remote cart; the stale guest blob is
	// dropped so a later logout starts from an empty guest cart.
	if err := e.guest.Clear(ctx); err != nil {
		e.logger.WarnContext(ctx, "failed to clear guest cart key",
			slog.String("error", err.Error()),
		)
	}

	items, err := e.remoteAPI.ListItems(ctx, token, page, perPage)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to fetch remote cart",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		return domain.EmptyView(), nil
	}

	return e.replace(items), nil
}

// replace swaps the whole item list and returns the derived view.
func (e *Engine) replace(items []domain.CartItem) domain.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	if items == nil {
		items = []domain.CartItem{}
	}
	e.cart = domain.Cart{Items: items}
	return e.cart.View()
}

// token reads the session token; a read failure degrades to the guest path.
func (e *Engine) token(ctx context.Context) string {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to read session token, treating as guest",
			slog.String("error", err.Error()),
		)
		return ""
	}
	return token
}

// persistGuest mirrors the in-memory items to the device store. Failures are
// logged only: the in-memory update is the operation's success criterion.
func (e *Engine) persistGuest(ctx context.Context) {
	if err := e.guest.Save(ctx, e.cart.Items); err != nil {
		e.logger.WarnContext(ctx, "failed to persist guest cart",
			slog.String("error", err.Error()),
		)
	}
}

// syncFailure records an absorbed remote mirror failure.
func (e *Engine) syncFailure(ctx context.Context, operation, productID string, err error) {
	cartSyncFailures.WithLabelValues(operation).Inc()
	e.logger.WarnContext(ctx, "remote cart sync failed, keeping local state",
		slog.String("operation", operation),
		slog.String("product_id", productID),
		slog.String("error", err.Error()),
	)
}

func (e *Engine) publishUpdated(ctx context.Context) {
	if e.producer == nil {
		return
	}
	if err := e.producer.PublishCartUpdated(ctx, e.cart.View()); err != nil {
		e.logger.WarnContext(ctx, "failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}
}
