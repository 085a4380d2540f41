package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemsRoundTrip(t *testing.T) {
	deletedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	items := []Item{
		{ProductID: "p1", Name: "Polo Shirt", Slug: "polo-shirt", Image: "/img/polo.jpg", Quantity: 2, Price: 24.99},
		{ProductID: "p2", Name: "Jeans", Slug: "jeans", Image: "/img/jeans.jpg", Quantity: 1, Price: 59.90, Saved: true},
		{ProductID: "p3", Name: "Cap", Slug: "cap", Image: "/img/cap.jpg", Quantity: 1, Price: 12.00, DeletedAt: &deletedAt},
	}

	parsed, dropped := ParseItems(MarshalItems(items))
	assert.Zero(t, dropped)
	assert.Equal(t, items, parsed)
}

func TestParseItemsNormalizesDriftedShapes(t *testing.T) {
	raw := []byte(`[
		{"productId":"p1","name":"Polo Shirt","slug":"polo-shirt","image":"/img/polo.jpg","quantity":2,"price":"24.99"},
		{"productId":"p2","name":"Cap","slug":"cap","image":"/img/cap.jpg","quantity":1,"price":12,"deletedAt":"2026-03-14T09:26:53Z"}
	]`)

	parsed, dropped := ParseItems(raw)
	require.Zero(t, dropped)
	require.Len(t, parsed, 2)

	assert.Equal(t, 24.99, parsed[0].Price)
	require.NotNil(t, parsed[1].DeletedAt)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC), parsed[1].DeletedAt.UTC())
}

func TestParseItemsSalvage(t *testing.T) {
	tests := map[string]struct {
		raw         string
		wantIDs     []string
		wantDropped int
	}{
		"entry without productId is dropped": {
			raw: `[
				{"productId":"p1","name":"Polo Shirt","slug":"polo-shirt","image":"/img/polo.jpg","quantity":1,"price":24.99},
				{"name":"orphan","slug":"orphan","image":"/img/x.jpg","quantity":1,"price":5}
			]`,
			wantIDs:     []string{"p1"},
			wantDropped: 1,
		},
		"negative price is dropped": {
			raw: `[
				{"productId":"p1","name":"Polo Shirt","slug":"polo-shirt","image":"/img/polo.jpg","quantity":1,"price":24.99},
				{"productId":"p2","name":"Bad","slug":"bad","image":"/img/x.jpg","quantity":1,"price":-3}
			]`,
			wantIDs:     []string{"p1"},
			wantDropped: 1,
		},
		"fractional quantity is dropped": {
			raw: `[
				{"productId":"p1","name":"Polo Shirt","slug":"polo-shirt","image":"/img/polo.jpg","quantity":1,"price":24.99},
				{"productId":"p2","name":"Bad","slug":"bad","image":"/img/x.jpg","quantity":1.5,"price":3}
			]`,
			wantIDs:     []string{"p1"},
			wantDropped: 1,
		},
		"nothing salvageable yields empty": {
			raw:         `[{"quantity":1},{"price":"abc","productId":""}]`,
			wantIDs:     []string{},
			wantDropped: 2,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			parsed, dropped := ParseItems([]byte(tc.raw))
			assert.Equal(t, tc.wantDropped, dropped)

			ids := make([]string, 0, len(parsed))
			for _, it := range parsed {
				ids = append(ids, it.ProductID)
			}
			assert.Equal(t, tc.wantIDs, ids)
		})
	}
}

func TestParseItemsSalvageSubsetMustStillValidate(t *testing.T) {
	// The second entry survives the salvage filter (it has a productId, a
	// price and an integral quantity) but fails the strict schema, so the
	// whole collection degrades to empty.
	raw := []byte(`[
		{"productId":"p1","name":"Polo Shirt","slug":"polo-shirt","image":"/img/polo.jpg","quantity":1,"price":24.99},
		{"productId":"p2","quantity":1,"price":3}
	]`)

	parsed, dropped := ParseItems(raw)
	assert.Empty(t, parsed)
	assert.Equal(t, 2, dropped)
}

func TestParseItemsDegenerateInputs(t *testing.T) {
	for name, raw := range map[string][]byte{
		"nil":         nil,
		"empty":       []byte(``),
		"json null":   []byte(`null`),
		"json object": []byte(`{"items":[]}`),
		"truncated":   []byte(`[{"productId":`),
	} {
		t.Run(name, func(t *testing.T) {
			parsed, dropped := ParseItems(raw)
			assert.Empty(t, parsed)
			assert.Zero(t, dropped)
		})
	}
}

func TestMarshalItemsNilIsEmptyArray(t *testing.T) {
	assert.JSONEq(t, `[]`, string(MarshalItems(nil)))
}
