package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is keyed CRUD over the cart row. Lookups return (nil, nil) when
// no row matches; the service decides what absence means per operation.
type Repository interface {
	// FindBySessionID returns the unclaimed cart for an anonymous session.
	FindBySessionID(ctx context.Context, sessionCartID string) (*Record, error)
	FindByUserID(ctx context.Context, userID string) (*Record, error)
	Create(ctx context.Context, rec *Record) error
	// UpdateItems writes all three collections in a single row update.
	UpdateItems(ctx context.Context, id string, items, saved, removed json.RawMessage) error
	// Claim sets the owner on a still-anonymous cart.
	Claim(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id string) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const cartColumns = `id, user_id, session_cart_id, items, saved_items, removed_items, created_at, updated_at`

func (r *PostgresRepository) FindBySessionID(ctx context.Context, sessionCartID string) (*Record, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE session_cart_id=$1 AND user_id IS NULL`, sessionCartID)
	return scanCart(row)
}

func (r *PostgresRepository) FindByUserID(ctx context.Context, userID string) (*Record, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE user_id=$1`, userID)
	return scanCart(row)
}

func (r *PostgresRepository) Create(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Items == nil {
		rec.Items = json.RawMessage("[]")
	}
	if rec.SavedItems == nil {
		rec.SavedItems = json.RawMessage("[]")
	}
	if rec.RemovedItems == nil {
		rec.RemovedItems = json.RawMessage("[]")
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, session_cart_id, items, saved_items, removed_items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`, rec.ID, rec.UserID, rec.SessionCartID, rec.Items, rec.SavedItems, rec.RemovedItems).
		Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateItems(ctx context.Context, id string, items, saved, removed json.RawMessage) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE carts
		SET items=$2, saved_items=$3, removed_items=$4, updated_at=NOW()
		WHERE id=$1
	`, id, items, saved, removed)
	if err != nil {
		return fmt.Errorf("update cart items: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *PostgresRepository) Claim(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE carts
		SET user_id=$2, updated_at=NOW()
		WHERE id=$1 AND user_id IS NULL
	`, id, userID)
	if err != nil {
		return fmt.Errorf("claim cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func scanCart(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.SessionCartID,
		&rec.Items, &rec.SavedItems, &rec.RemovedItems,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan cart: %w", err)
	}
	return &rec, nil
}
