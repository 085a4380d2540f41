package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ParseItems decodes a persisted item collection. It never fails: cart rows
// are long-lived and the stored shape has drifted over time (prices as
// strings, deletedAt as ISO strings), so entries are normalized first and
// strict validation runs on the normalized array. When strict validation
// fails, entries without a usable productId, price or quantity are dropped
// and the remainder is validated again; an empty collection is the last
// resort. The second return value is the number of dropped entries so the
// caller can report the salvage.
func ParseItems(raw []byte) ([]Item, int) {
	if len(raw) == 0 {
		return nil, 0
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var entries []map[string]any
	if err := dec.Decode(&entries); err != nil {
		// non-array or undecodable document, treated as an empty collection
		return nil, 0
	}

	type candidate struct {
		item       Item
		normalized bool
	}
	candidates := make([]candidate, 0, len(entries))
	valid := true
	for _, entry := range entries {
		it, err := normalizeEntry(entry)
		normalized := err == nil
		if !normalized || validateItem(it) != nil {
			valid = false
		}
		candidates = append(candidates, candidate{item: it, normalized: normalized})
	}
	if valid {
		items := make([]Item, 0, len(candidates))
		for _, c := range candidates {
			items = append(items, c.item)
		}
		return items, 0
	}

	// Salvage: keep entries with a usable identity, price and quantity, then
	// run the strict schema over the subset. Normalization already guarantees
	// an integral quantity for entries it accepted.
	salvaged := make([]Item, 0, len(candidates))
	for _, c := range candidates {
		it := c.item
		if !c.normalized || it.ProductID == "" {
			continue
		}
		if it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
			continue
		}
		salvaged = append(salvaged, it)
	}
	for _, it := range salvaged {
		if validateItem(it) != nil {
			return nil, len(entries)
		}
	}
	return salvaged, len(entries) - len(salvaged)
}

// MarshalItems is the inverse of ParseItems for the persistence boundary.
// A nil slice is stored as an empty array, not JSON null.
func MarshalItems(items []Item) json.RawMessage {
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return json.RawMessage("[]")
	}
	return raw
}

func normalizeEntry(entry map[string]any) (Item, error) {
	var it Item
	var err error

	it.ProductID, _ = entry["productId"].(string)
	it.Name, _ = entry["name"].(string)
	it.Slug, _ = entry["slug"].(string)
	it.Image, _ = entry["image"].(string)
	it.Saved, _ = entry["saved"].(bool)

	if v, present := entry["quantity"]; present {
		it.Quantity, err = toInt(v)
		if err != nil {
			return it, fmt.Errorf("quantity: %w", err)
		}
	}

	if v, present := entry["price"]; present {
		it.Price, err = toFloat(v)
		if err != nil {
			return it, fmt.Errorf("price: %w", err)
		}
	}

	if v, present := entry["deletedAt"]; present && v != nil {
		s, isStr := v.(string)
		if !isStr {
			return it, fmt.Errorf("deletedAt: unexpected type %T", v)
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return it, fmt.Errorf("deletedAt: %w", err)
		}
		it.DeletedAt = &ts
	}

	return it, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return int(f), nil
}

// validateItem is the strict per-entry schema: required display fields, a
// non-negative integral quantity and a price with at most two fractional
// digits.
func validateItem(it Item) error {
	switch {
	case it.ProductID == "":
		return fmt.Errorf("%w: product id is required", ErrValidation)
	case it.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case it.Slug == "":
		return fmt.Errorf("%w: slug is required", ErrValidation)
	case it.Image == "":
		return fmt.Errorf("%w: image is required", ErrValidation)
	case it.Quantity < 0:
		return fmt.Errorf("%w: quantity must be non-negative", ErrValidation)
	case it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0):
		return fmt.Errorf("%w: price must be a non-negative number", ErrValidation)
	}
	cents := it.Price * 100
	if math.Abs(cents-math.Round(cents)) > 1e-6 {
		return fmt.Errorf("%w: price must have at most two decimal places", ErrValidation)
	}
	return nil
}
