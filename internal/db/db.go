package db

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // register the postgres driver for migrations
)

func GetDSN() string {
	dsn := os.Getenv("CART_DB_DSN")
	if dsn == "" {
		log.Fatal("CART_DB_DSN not set")
	}
	return dsn
}

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// openDB opens a database/sql connection without pinging; migrations use the
// lib/pq driver while the service itself runs on pgx.
func openDB(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}
