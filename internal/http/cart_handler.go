package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LilyNov/store/internal/cart"
	"github.com/LilyNov/store/internal/identity"
)

const sessionCartCookie = "sessionCartId"

// CartService is the slice of the cart core the handlers call.
type CartService interface {
	AddItem(ctx context.Context, id identity.Identity, productID string) (cart.Result, error)
	RemoveItem(ctx context.Context, id identity.Identity, productID string) (cart.Result, error)
	SaveForLater(ctx context.Context, id identity.Identity, productID string) (cart.Result, error)
	MoveToCart(ctx context.Context, id identity.Identity, productID string) (cart.Result, error)
	DeleteItem(ctx context.Context, id identity.Identity, productID string) (cart.Result, error)
	GetCart(ctx context.Context, id identity.Identity) (*cart.View, error)
	Reconcile(ctx context.Context, id identity.Identity) (cart.Result, error)
}

type Handler struct {
	svc      CartService
	resolver identity.Resolver
}

func NewHandler(svc CartService, resolver identity.Resolver) *Handler {
	return &Handler{svc: svc, resolver: resolver}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "cart-service"})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveIdentity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	view, err := h.svc.GetCart(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if view == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveIdentity(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	h.runMutation(w, r, id, req.ProductID, h.svc.AddItem)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.pathMutation(w, r, h.svc.RemoveItem)
}

func (h *Handler) SaveForLater(w http.ResponseWriter, r *http.Request) {
	h.pathMutation(w, r, h.svc.SaveForLater)
}

func (h *Handler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	h.pathMutation(w, r, h.svc.MoveToCart)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	h.pathMutation(w, r, h.svc.DeleteItem)
}

// Merge reconciles the anonymous session cart with the user's cart after
// login. On a completed claim or merge the session cookie is spent and gets
// cleared here; the service never touches transport state.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolveIdentity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.svc.Reconcile(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to merge carts")
		return
	}
	if res.Success && (res.Message == cart.MsgSessionCartClaimed || res.Message == cart.MsgCartsMerged) {
		clearSessionCookie(w)
	}
	writeJSON(w, statusFor(res), res)
}

type mutation func(ctx context.Context, id identity.Identity, productID string) (cart.Result, error)

func (h *Handler) pathMutation(w http.ResponseWriter, r *http.Request, op mutation) {
	id, ok := h.resolveIdentity(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	h.runMutation(w, r, id, productID, op)
}

func (h *Handler) runMutation(w http.ResponseWriter, r *http.Request, id identity.Identity, productID string, op mutation) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := op(ctx, id, productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart operation failed")
		return
	}
	writeJSON(w, statusFor(res), res)
}

func (h *Handler) resolveIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	var sessionCartID string
	if c, err := r.Cookie(sessionCartCookie); err == nil {
		sessionCartID = c.Value
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == r.Header.Get("Authorization") {
		token = ""
	}

	id, err := h.resolver.Resolve(r.Context(), token, sessionCartID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return identity.Identity{}, false
	}
	return id, true
}

func statusFor(res cart.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch {
	case errors.Is(res.Err, cart.ErrNotEnoughStock):
		return http.StatusConflict
	case errors.Is(res.Err, cart.ErrProductNotFound),
		errors.Is(res.Err, cart.ErrCartNotFound),
		errors.Is(res.Err, cart.ErrItemNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCartCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
