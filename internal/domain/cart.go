package domain

// ItemType classifies a cart line and selects its pricing rule.
type ItemType string

const (
	// TypeService is a catalog service. Plain services bill price multiplied
	// by quantity; username-based services bill per 1000 units of quantity.
	TypeService ItemType = "service"
	// TypePackage is a flat-priced bundle. Its quantity (e.g. a follower
	// count) is informational and never multiplies the price.
	TypePackage ItemType = "package"
)

// DefaultItemName replaces an empty display name so the cart never renders a blank line.
const DefaultItemName = "Untitled item"

// MinUsernameCharge is the minimum charge for a username-based service line.
// A line computed below this from quantity/1000 * price_per_1000 is floored to it.
const MinUsernameCharge = 50

// CartItem is a single line in the cart.
type CartItem struct {
	// ID identifies the underlying catalog entity (service or package).
	ID string `json:"id"`
	// CartItemID is the remote cart-line identifier. For guest items that
	// have never been synced it equals ID.
	CartItemID string `json:"cart_item_id"`
	Name       string `json:"name"`
	// Price is the snapshot unit price, used whenever dynamic per-1000
	// pricing does not apply.
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	// Username is the target account for username-based services. Required
	// non-empty before such an item may be added or checked out.
	Username       string   `json:"username,omitempty"`
	Image          string   `json:"image"`
	PricePer1000   float64  `json:"price_per_1000,omitempty"`
	IsUsername     bool     `json:"is_username"`
	FollowersCount int      `json:"followers_count,omitempty"`
	Type           ItemType `json:"type"`
}

// LinePrice computes the item's effective contribution to the cart total.
//
// Packages are flat-priced regardless of quantity. Username-based services
// with a per-1000 rate derive their price from quantity, floored to
// MinUsernameCharge. Everything else is price times quantity.
func (i CartItem) LinePrice() float64 {
	switch {
	case i.Type == TypePackage:
		return i.Price
	case i.IsUsername && i.PricePer1000 > 0 && i.Quantity > 0:
		p := float64(i.Quantity) / 1000 * i.PricePer1000
		if p < MinUsernameCharge {
			return MinUsernameCharge
		}
		return p
	default:
		return i.Price * float64(i.Quantity)
	}
}

// Matches reports whether the line is the same cart identity as the given
// product id and username. Two lines for the same catalog entity are distinct
// only when they carry different usernames.
func (i CartItem) Matches(productID, username string) bool {
	return i.ID == productID && i.Username == username
}

// Sanitize fills the defaults the engine guarantees for every stored line:
// a non-empty display name, a quantity of at least 1, and a cart-line id
// (local items carry their catalog id until the remote assigns one).
func Sanitize(i CartItem) CartItem {
	if i.Name == "" {
		i.Name = DefaultItemName
	}
	if i.Quantity < 1 {
		i.Quantity = 1
	}
	if i.CartItemID == "" {
		i.CartItemID = i.ID
	}
	if i.Type == "" {
		i.Type = TypeService
	}
	return i
}

// Cart holds the ordered cart lines. Order is insertion order; it matters
// only for display. Totals are never stored: they are recomputed from Items
// on every read.
type Cart struct {
	Items []CartItem `json:"items"`
}

// TotalItems is the number of distinct cart lines, not the sum of quantities.
func (c *Cart) TotalItems() int {
	return len(c.Items)
}

// TotalPrice sums the effective line price of every item.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.LinePrice()
	}
	return total
}

// FindIndex returns the index of the first line with the given catalog id,
// or -1 if the cart has none.
func (c *Cart) FindIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ID == productID {
			return i
		}
	}
	return -1
}

// FindLine returns the index of the line matching both catalog id and
// username, or -1.
func (c *Cart) FindLine(productID, username string) int {
	for i := range c.Items {
		if c.Items[i].Matches(productID, username) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the cart, used for pre-operation snapshots.
func (c *Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// View is the derived cart state handed to callers: the lines plus totals
// recomputed from them.
type View struct {
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
}

// View materializes the derived state of the cart.
func (c *Cart) View() View {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return View{
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
}

// EmptyView is the fail-soft result of a cart read that could not reach its
// backing store.
func EmptyView() View {
	return View{Items: []CartItem{}}
}
