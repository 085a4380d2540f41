package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/LilyNov/store/internal/catalog"
	"github.com/LilyNov/store/internal/identity"
)

// EventPublisher receives cart lifecycle events. Publishing is best-effort:
// the service logs failures but never rolls back a persisted mutation
// because of them.
type EventPublisher interface {
	PublishCartClaimed(ctx context.Context, rec *Record) error
	PublishCartsMerged(ctx context.Context, survivor *Record, supersededID string) error
}

// NopPublisher drops all events.
type NopPublisher struct{}

func (NopPublisher) PublishCartClaimed(context.Context, *Record) error { return nil }
func (NopPublisher) PublishCartsMerged(context.Context, *Record, string) error {
	return nil
}

// Service implements the cart operations. Every operation re-fetches the
// cart row and writes the full item collections back in a single update;
// concurrent writers race with last-writer-wins at the row level, which is
// acceptable for a cart (stock is re-validated at order placement).
type Service struct {
	repo    Repository
	catalog catalog.ProductCatalog
	events  EventPublisher
	logger  *log.Logger
	now     func() time.Time
}

func NewService(repo Repository, cat catalog.ProductCatalog, events EventPublisher, logger *log.Logger) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		repo:    repo,
		catalog: cat,
		events:  events,
		logger:  logger,
		now:     time.Now,
	}
}

// AddItem puts one unit of a product into the cart for the resolved
// identity, creating the cart on first add. Incrementing past the product's
// current stock is rejected.
func (s *Service) AddItem(ctx context.Context, id identity.Identity, productID string) (Result, error) {
	if id.Empty() {
		return fail(ErrCartSessionMissing, "Cart Session not found"), nil
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fail(ErrProductNotFound, "Product not found"), nil
		}
		return Result{}, fmt.Errorf("look up product %s: %w", productID, err)
	}

	rec, err := s.cartForMutation(ctx, id)
	if err != nil {
		return Result{}, err
	}

	if rec == nil {
		if product.Stock < 1 {
			return fail(ErrNotEnoughStock, "Not enough stock"), nil
		}
		var userID *string
		if id.UserID != "" {
			userID = &id.UserID
		}
		rec = &Record{
			UserID:        userID,
			SessionCartID: id.SessionCartID,
			Items:         MarshalItems([]Item{snapshot(product)}),
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return Result{}, err
		}
		return ok(fmt.Sprintf("%s added to cart", product.Name)), nil
	}

	items := s.parseCollection(rec.ID, "items", rec.Items)
	idx := indexOf(items, productID)
	var message string
	if idx >= 0 {
		if product.Stock < items[idx].Quantity+1 {
			return fail(ErrNotEnoughStock, "Not enough stock"), nil
		}
		items[idx].Quantity++
		message = fmt.Sprintf("%s updated in cart", product.Name)
	} else {
		if product.Stock < 1 {
			return fail(ErrNotEnoughStock, "Not enough stock"), nil
		}
		items = append(items, snapshot(product))
		message = fmt.Sprintf("%s added to cart", product.Name)
	}

	if err := s.repo.UpdateItems(ctx, rec.ID, MarshalItems(items), rec.SavedItems, rec.RemovedItems); err != nil {
		return Result{}, err
	}
	return ok(message), nil
}

// RemoveItem decrements a line by one, dropping the line entirely at zero.
func (s *Service) RemoveItem(ctx context.Context, id identity.Identity, productID string) (Result, error) {
	if id.Empty() {
		return fail(ErrCartSessionMissing, "Cart Session not found"), nil
	}

	rec, err := s.cartForMutation(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if rec == nil {
		return fail(ErrCartNotFound, "Cart not found"), nil
	}

	items := s.parseCollection(rec.ID, "items", rec.Items)
	idx := indexOf(items, productID)
	if idx < 0 {
		return fail(ErrItemNotFound, "Item not found"), nil
	}

	if items[idx].Quantity > 1 {
		items[idx].Quantity--
	} else {
		items = append(items[:idx], items[idx+1:]...)
	}

	if err := s.repo.UpdateItems(ctx, rec.ID, MarshalItems(items), rec.SavedItems, rec.RemovedItems); err != nil {
		return Result{}, err
	}
	return ok("Cart updated"), nil
}

// SaveForLater moves an active line into the saved collection, replacing any
// previously saved entry for the same product.
func (s *Service) SaveForLater(ctx context.Context, id identity.Identity, productID string) (Result, error) {
	if id.Empty() {
		return fail(ErrCartSessionMissing, "Cart Session not found"), nil
	}

	rec, err := s.cartForMutation(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if rec == nil {
		return fail(ErrCartNotFound, "Cart not found"), nil
	}

	items := s.parseCollection(rec.ID, "items", rec.Items)
	saved := s.parseCollection(rec.ID, "savedItems", rec.SavedItems)

	idx := indexOf(items, productID)
	if idx < 0 {
		return fail(ErrItemNotFound, "Item not found"), nil
	}

	moved := items[idx]
	moved.Saved = true
	items = append(items[:idx], items[idx+1:]...)

	if prev := indexOf(saved, productID); prev >= 0 {
		saved[prev] = moved
	} else {
		saved = append(saved, moved)
	}

	if err := s.repo.UpdateItems(ctx, rec.ID, MarshalItems(items), MarshalItems(saved), rec.RemovedItems); err != nil {
		return Result{}, err
	}
	return ok(fmt.Sprintf("%s saved for later", moved.Name)), nil
}

// MoveToCart returns a saved line to the active collection. When the product
// is already active the quantities add up.
func (s *Service) MoveToCart(ctx context.Context, id identity.Identity, productID string) (Result, error) {
	if id.Empty() {
		return fail(ErrCartSessionMissing, "Cart Session not found"), nil
	}

	rec, err := s.cartForMutation(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if rec == nil {
		return fail(ErrCartNotFound, "Cart not found"), nil
	}

	items := s.parseCollection(rec.ID, "items", rec.Items)
	saved := s.parseCollection(rec.ID, "savedItems", rec.SavedItems)

	idx := indexOf(saved, productID)
	if idx < 0 {
		return fail(ErrItemNotFound, "Item not found"), nil
	}

	moved := saved[idx]
	moved.Saved = false
	saved = append(saved[:idx], saved[idx+1:]...)

	if active := indexOf(items, productID); active >= 0 {
		items[active].Quantity += moved.Quantity
	} else {
		items = append(items, moved)
	}

	if err := s.repo.UpdateItems(ctx, rec.ID, MarshalItems(items), MarshalItems(saved), rec.RemovedItems); err != nil {
		return Result{}, err
	}
	return ok(fmt.Sprintf("%s moved to cart", moved.Name)), nil
}

// DeleteItem takes a line out of whichever collection holds it (active
// first, then saved) and appends a deletedAt-stamped copy to the removed
// audit trail.
func (s *Service) DeleteItem(ctx context.Context, id identity.Identity, productID string) (Result, error) {
	if id.Empty() {
		return fail(ErrCartSessionMissing, "Cart Session not found"), nil
	}

	rec, err := s.cartForMutation(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if rec == nil {
		return fail(ErrCartNotFound, "Cart not found"), nil
	}

	items := s.parseCollection(rec.ID, "items", rec.Items)
	saved := s.parseCollection(rec.ID, "savedItems", rec.SavedItems)
	removed := s.parseCollection(rec.ID, "removedItems", rec.RemovedItems)

	var deleted Item
	if idx := indexOf(items, productID); idx >= 0 {
		deleted = items[idx]
		items = append(items[:idx], items[idx+1:]...)
	} else if idx := indexOf(saved, productID); idx >= 0 {
		deleted = saved[idx]
		saved = append(saved[:idx], saved[idx+1:]...)
	} else {
		return fail(ErrItemNotFound, "Item not found"), nil
	}

	deletedAt := s.now().UTC()
	deleted.DeletedAt = &deletedAt
	removed = append(removed, deleted)

	if err := s.repo.UpdateItems(ctx, rec.ID, MarshalItems(items), MarshalItems(saved), MarshalItems(removed)); err != nil {
		return Result{}, err
	}
	return ok(fmt.Sprintf("%s removed from cart", deleted.Name)), nil
}

// GetCart returns the full cart with computed totals, or nil when no cart
// exists for the identity. Totals are recomputed on every read.
func (s *Service) GetCart(ctx context.Context, id identity.Identity) (*View, error) {
	if id.Empty() {
		return nil, nil
	}

	rec, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	items := s.parseCollection(rec.ID, "items", rec.Items)
	view := &View{
		ID:            rec.ID,
		SessionCartID: rec.SessionCartID,
		Items:         items,
		SavedItems:    s.parseCollection(rec.ID, "savedItems", rec.SavedItems),
		RemovedItems:  s.parseCollection(rec.ID, "removedItems", rec.RemovedItems),
		Totals:        ComputeTotals(items),
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
	if rec.UserID != nil {
		view.UserID = *rec.UserID
	}
	return view, nil
}

// cartForMutation resolves which cart a mutation applies to. When both a
// user and an anonymous session are present, claim/merge runs first so the
// mutation lands on the surviving cart.
func (s *Service) cartForMutation(ctx context.Context, id identity.Identity) (*Record, error) {
	switch {
	case id.UserID != "" && id.SessionCartID != "":
		return s.reconcile(ctx, id)
	case id.UserID != "":
		return s.repo.FindByUserID(ctx, id.UserID)
	default:
		return s.repo.FindBySessionID(ctx, id.SessionCartID)
	}
}

// lookup is the read-path resolution: the user's cart when one exists,
// otherwise the anonymous cart. No claim or merge happens on reads.
func (s *Service) lookup(ctx context.Context, id identity.Identity) (*Record, error) {
	if id.UserID != "" {
		rec, err := s.repo.FindByUserID(ctx, id.UserID)
		if err != nil || rec != nil {
			return rec, err
		}
	}
	if id.SessionCartID == "" {
		return nil, nil
	}
	return s.repo.FindBySessionID(ctx, id.SessionCartID)
}

func (s *Service) parseCollection(cartID, name string, raw []byte) []Item {
	items, dropped := ParseItems(raw)
	if dropped > 0 {
		s.logger.Printf("cart %s: salvaged %s collection, dropped %d malformed entries", cartID, name, dropped)
	}
	return items
}

func snapshot(p catalog.Product) Item {
	return Item{
		ProductID: p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		Image:     p.Image,
		Quantity:  1,
		Price:     p.Price,
	}
}

func indexOf(items []Item, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
