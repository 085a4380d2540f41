package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("product not found")

// Product is the catalog view the cart needs: a display snapshot plus the
// current stock ceiling.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Slug  string  `json:"slug"`
	Image string  `json:"image"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// ProductCatalog is the narrow read interface the cart core depends on.
// Products absent from the catalog have zero stock.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
	GetStockMany(ctx context.Context, productIDs []string) (map[string]int, error)
}

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresCatalog struct {
	pool DBPool
}

func NewPostgresCatalog(pool DBPool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

func (c *PostgresCatalog) GetProduct(ctx context.Context, productID string) (Product, error) {
	var p Product
	row := c.pool.QueryRow(ctx,
		`SELECT id, name, slug, image, price, stock FROM products WHERE id=$1`, productID)
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Image, &p.Price, &p.Stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (c *PostgresCatalog) GetStockMany(ctx context.Context, productIDs []string) (map[string]int, error) {
	stock := make(map[string]int, len(productIDs))
	if len(productIDs) == 0 {
		return stock, nil
	}

	rows, err := c.pool.Query(ctx,
		`SELECT id, stock FROM products WHERE id = ANY($1)`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var available int
		if err := rows.Scan(&id, &available); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stock[id] = available
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock: %w", err)
	}
	return stock, nil
}
