package domain

import (
	"strconv"
	"strings"
)

// Number is a tolerant numeric wire field. The remote cart API serves numeric
// values as JSON numbers, quoted strings, or null depending on the endpoint
// and record age. Unparseable values decode to zero; a listing must never
// surface as NaN or a missing field.
type Number float64

// UnmarshalJSON implements tolerant numeric decoding.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// Or returns the value, or fallback when the field was absent or zero.
func (n Number) Or(fallback float64) float64 {
	if n == 0 {
		return fallback
	}
	return float64(n)
}

// IntOr returns the value truncated to int, or fallback when absent or zero.
func (n Number) IntOr(fallback int) int {
	if n == 0 {
		return fallback
	}
	return int(n)
}

// RemoteItem carries the catalog fields the remote listing may nest under an
// "item" sub-object.
type RemoteItem struct {
	ID             Number `json:"id"`
	Name           string `json:"name"`
	Price          Number `json:"price"`
	Image          string `json:"image"`
	PricePer1000   Number `json:"price_per_1000"`
	IsUsername     bool   `json:"is_username"`
	FollowersCount Number `json:"followers_count"`
}

// RemoteLine is one element of the remote cart listing. Older API versions
// return the catalog fields flat on the line; newer ones nest them under
// Item. Both shapes normalize to the same CartItem.
type RemoteLine struct {
	ID             Number      `json:"id"`
	ItemID         Number      `json:"item_id"`
	ItemType       string      `json:"item_type"`
	Quantity       Number      `json:"quantity"`
	Username       string      `json:"username"`
	Name           string      `json:"name"`
	Price          Number      `json:"price"`
	Image          string      `json:"image"`
	PricePer1000   Number      `json:"price_per_1000"`
	IsUsername     bool        `json:"is_username"`
	FollowersCount Number      `json:"followers_count"`
	Item           *RemoteItem `json:"item"`
}

// itemTypeTags maps the remote API's item_type tags onto the local enum.
// The server emits fully qualified model class names; this table is the
// single place the mapping lives.
var itemTypeTags = map[string]ItemType{
	"package": TypePackage,
	"service": TypeService,
}

// ItemTypeFromTag resolves a remote item_type tag such as
// "App\Models\Package" to the local ItemType. Unknown tags default to
// TypeService.
func ItemTypeFromTag(tag string) ItemType {
	tag = strings.ToLower(tag)
	if i := strings.LastIndexAny(tag, `\/`); i >= 0 {
		tag = tag[i+1:]
	}
	if t, ok := itemTypeTags[tag]; ok {
		return t
	}
	return TypeService
}

// Normalize converts a remote cart line into the canonical CartItem shape.
func (l RemoteLine) Normalize() CartItem {
	item := CartItem{
		Username: l.Username,
		Quantity: l.Quantity.IntOr(1),
		Type:     ItemTypeFromTag(l.ItemType),
	}

	// Catalog fields: prefer the nested item record, fall back to the flat
	// line shape.
	if l.Item != nil {
		item.ID = formatID(float64(l.Item.ID))
		item.Name = l.Item.Name
		item.Price = float64(l.Item.Price)
		item.Image = l.Item.Image
		item.PricePer1000 = float64(l.Item.PricePer1000)
		item.IsUsername = l.Item.IsUsername
		item.FollowersCount = l.Item.FollowersCount.IntOr(0)
	} else {
		item.Name = l.Name
		item.Price = float64(l.Price)
		item.Image = l.Image
		item.PricePer1000 = float64(l.PricePer1000)
		item.IsUsername = l.IsUsername
		item.FollowersCount = l.FollowersCount.IntOr(0)
	}

	// The catalog id may arrive as item_id on the line or as the nested
	// item's own id. The line's id is the remote cart-line identifier.
	if l.ItemID != 0 {
		item.ID = formatID(float64(l.ItemID))
	}
	if l.ID != 0 {
		item.CartItemID = formatID(float64(l.ID))
	}

	return Sanitize(item)
}

// NormalizeLines converts a remote listing page into canonical items.
func NormalizeLines(lines []RemoteLine) []CartItem {
	items := make([]CartItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, l.Normalize())
	}
	return items
}

// formatID renders a numeric remote identifier as its canonical string form.
func formatID(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
