package cart

import (
	"context"
	"errors"

	"github.com/LilyNov/store/internal/identity"
)

// Reconcile outcome messages. The transport layer matches on these to decide
// whether the session cookie is spent.
const (
	MsgNoSessionCart      = "No session cart"
	MsgUserNotLoggedIn    = "User not logged in"
	MsgNoCartsToMerge     = "No carts to merge"
	MsgSessionCartClaimed = "Session cart claimed by user"
	MsgUserCartExists     = "User cart already exists"
	MsgCartsMerged        = "Carts merged"
)

// Reconcile unifies the anonymous session cart with the authenticated
// user's cart, exactly once. With only a session cart present the cart is
// claimed; with only a user cart present nothing changes; with both, the
// item lines are folded together, clamped to current stock, written to the
// user's cart and the session row is deleted. Re-running after a completed
// merge finds no session cart and degenerates to a no-op, so a partially
// completed merge is recovered by retrying.
//
// The caller owns the session cookie and clears it after a successful claim
// or merge; this method never touches transport state.
func (s *Service) Reconcile(ctx context.Context, id identity.Identity) (Result, error) {
	if id.SessionCartID == "" {
		return ok(MsgNoSessionCart), nil
	}
	if id.UserID == "" {
		return ok(MsgUserNotLoggedIn), nil
	}

	_, res, err := s.reconcileCarts(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// reconcile is the mutation-path entry: it returns the surviving cart (nil
// when neither cart exists yet) and swallows the human-readable outcome.
func (s *Service) reconcile(ctx context.Context, id identity.Identity) (*Record, error) {
	rec, _, err := s.reconcileCarts(ctx, id)
	return rec, err
}

func (s *Service) reconcileCarts(ctx context.Context, id identity.Identity) (*Record, Result, error) {
	sessionCart, err := s.repo.FindBySessionID(ctx, id.SessionCartID)
	if err != nil {
		return nil, Result{}, err
	}
	userCart, err := s.repo.FindByUserID(ctx, id.UserID)
	if err != nil {
		return nil, Result{}, err
	}

	switch {
	case sessionCart == nil && userCart == nil:
		return nil, ok(MsgNoCartsToMerge), nil

	case sessionCart != nil && userCart == nil:
		if err := s.repo.Claim(ctx, sessionCart.ID, id.UserID); err != nil {
			// Lost a race with another claim of the same session cart; the
			// user cart lookup below settles who won.
			if errors.Is(err, ErrCartNotFound) {
				claimed, lookupErr := s.repo.FindByUserID(ctx, id.UserID)
				if lookupErr != nil {
					return nil, Result{}, lookupErr
				}
				if claimed != nil {
					return claimed, ok(MsgUserCartExists), nil
				}
			}
			return nil, Result{}, err
		}
		sessionCart.UserID = &id.UserID
		s.publishClaimed(ctx, sessionCart)
		return sessionCart, ok(MsgSessionCartClaimed), nil

	case sessionCart == nil:
		return userCart, ok(MsgUserCartExists), nil
	}

	merged, err := s.mergeItems(ctx, sessionCart, userCart)
	if err != nil {
		return nil, Result{}, err
	}

	if err := s.repo.UpdateItems(ctx, userCart.ID, MarshalItems(merged), userCart.SavedItems, userCart.RemovedItems); err != nil {
		return nil, Result{}, err
	}
	if err := s.repo.Delete(ctx, sessionCart.ID); err != nil {
		// The merged items are already durable on the user cart; the next
		// reconcile attempt deletes the leftover session row.
		return nil, Result{}, err
	}

	userCart.Items = MarshalItems(merged)
	s.publishMerged(ctx, userCart, sessionCart.ID)
	return userCart, ok(MsgCartsMerged), nil
}

// mergeItems folds the session cart's lines into the user cart's, summing
// quantities on collision and clamping every line to the product's current
// stock. Lines clamped to zero (or for unknown products) are dropped, not
// rejected; only the single-item add path reports NotEnoughStock.
func (s *Service) mergeItems(ctx context.Context, sessionCart, userCart *Record) ([]Item, error) {
	merged := make([]Item, 0)
	position := make(map[string]int)

	fold := func(items []Item) {
		for _, it := range items {
			if at, seen := position[it.ProductID]; seen {
				merged[at].Quantity += it.Quantity
				continue
			}
			position[it.ProductID] = len(merged)
			merged = append(merged, it)
		}
	}
	fold(s.parseCollection(sessionCart.ID, "items", sessionCart.Items))
	fold(s.parseCollection(userCart.ID, "items", userCart.Items))

	productIDs := make([]string, 0, len(merged))
	for _, it := range merged {
		productIDs = append(productIDs, it.ProductID)
	}
	stock, err := s.catalog.GetStockMany(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	clamped := merged[:0]
	for _, it := range merged {
		if available := stock[it.ProductID]; it.Quantity > available {
			it.Quantity = available
		}
		if it.Quantity <= 0 {
			continue
		}
		clamped = append(clamped, it)
	}
	return clamped, nil
}

func (s *Service) publishClaimed(ctx context.Context, rec *Record) {
	if err := s.events.PublishCartClaimed(ctx, rec); err != nil {
		s.logger.Printf("cart %s: publish CartClaimed: %v", rec.ID, err)
	}
}

func (s *Service) publishMerged(ctx context.Context, survivor *Record, supersededID string) {
	if err := s.events.PublishCartsMerged(ctx, survivor, supersededID); err != nil {
		s.logger.Printf("cart %s: publish CartsMerged: %v", survivor.ID, err)
	}
}
