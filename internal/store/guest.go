package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shazamohamed705/amazing/internal/domain"
	apperrors "github.com/shazamohamed705/amazing/pkg/errors"
)

// Fixed device-store keys. The guest cart is a single JSON blob; totals are
// never persisted, they are recomputed on load.
const (
	GuestCartKey    = "storefront:cart:guest"
	SessionTokenKey = "storefront:session:token"
)

// guestBlob is the persisted shape of the guest cart.
type guestBlob struct {
	Items []domain.CartItem `json:"items"`
}

// GuestStore persists the guest cart to the device-local store.
type GuestStore struct {
	client *redis.Client
}

// NewGuestStore creates a guest cart store on the given client.
func NewGuestStore(client *redis.Client) *GuestStore {
	return &GuestStore{client: client}
}

// Load reads the guest cart. A missing key is an empty cart, not an error.
func (s *GuestStore) Load(ctx context.Context) ([]domain.CartItem, error) {
	data, err := s.client.Get(ctx, GuestCartKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []domain.CartItem{}, nil
		}
		return nil, fmt.Errorf("load guest cart: %w", err)
	}

	var blob guestBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("unmarshal guest cart: %w", err)
	}

	items := make([]domain.CartItem, 0, len(blob.Items))
	for _, item := range blob.Items {
		items = append(items, domain.Sanitize(item))
	}
	return items, nil
}

// Save overwrites the guest cart blob with the given items.
func (s *GuestStore) Save(ctx context.Context, items []domain.CartItem) error {
	data, err := json.Marshal(guestBlob{Items: items})
	if err != nil {
		return fmt.Errorf("marshal guest cart: %w", err)
	}

	if err := s.client.Set(ctx, GuestCartKey, data, 0).Err(); err != nil {
		return fmt.Errorf("save guest cart: %w", err)
	}

	return nil
}

// Clear removes the guest cart key. Clearing an absent key is a no-op.
func (s *GuestStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, GuestCartKey).Err(); err != nil {
		return fmt.Errorf("clear guest cart: %w", err)
	}
	return nil
}

// TokenStore reads and writes the session bearer token at its fixed key.
// Token presence is the sole discriminator between the guest and
// authenticated cart paths.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore creates a token store on the given client.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Token returns the stored bearer token, or "" when the session is a guest.
func (s *TokenStore) Token(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, SessionTokenKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("read session token: %w", err)
	}
	return token, nil
}

// Set stores the bearer token.
func (s *TokenStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.InvalidInput("token is required")
	}
	if err := s.client.Set(ctx, SessionTokenKey, token, 0).Err(); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	return nil
}

// Clear removes the stored token, returning the session to guest.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, SessionTokenKey).Err(); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}
