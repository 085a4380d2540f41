package cart

import (
	"encoding/json"
	"time"
)

// Item is one product line in a cart. Name, slug and image are a display
// snapshot taken at add time; the catalog remains the source of truth for
// price and stock checks.
type Item struct {
	ProductID string     `json:"productId"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Image     string     `json:"image"`
	Quantity  int        `json:"quantity"`
	Price     float64    `json:"price"`
	Saved     bool       `json:"saved,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Record is the persisted cart row. The three item collections are stored as
// opaque JSON documents and only decoded through ParseItems, so a malformed
// collection can be salvaged instead of failing the whole row.
type Record struct {
	ID            string          `json:"id"`
	UserID        *string         `json:"userId"`
	SessionCartID string          `json:"sessionCartId"`
	Items         json.RawMessage `json:"items"`
	SavedItems    json.RawMessage `json:"savedItems"`
	RemovedItems  json.RawMessage `json:"removedItems"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Totals are derived from the active items on every read, never persisted.
type Totals struct {
	ItemsPrice    string `json:"itemsPrice"`
	ShippingPrice string `json:"shippingPrice"`
	TaxPrice      string `json:"taxPrice"`
	TotalPrice    string `json:"totalPrice"`
}

// View is the cart shape handed to callers: decoded collections plus totals.
type View struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId,omitempty"`
	SessionCartID string    `json:"sessionCartId"`
	Items         []Item    `json:"items"`
	SavedItems    []Item    `json:"savedItems"`
	RemovedItems  []Item    `json:"removedItems"`
	Totals        Totals    `json:"totals"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
