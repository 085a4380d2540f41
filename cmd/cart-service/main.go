package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/LilyNov/store/internal/cart"
	"github.com/LilyNov/store/internal/catalog"
	"github.com/LilyNov/store/internal/db"
	"github.com/LilyNov/store/internal/events"
	httpapi "github.com/LilyNov/store/internal/http"
	"github.com/LilyNov/store/internal/identity"
)

func main() {
	_ = godotenv.Load()

	port := getEnv("PORT", "8082")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	logger := log.New(os.Stdout, "[cart-service] ", log.LstdFlags|log.Lshortfile)

	dsn := db.GetDSN()
	if err := db.RunMigrations(dsn, logger); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		logger.Fatalf("open db pool: %v", err)
	}
	defer pool.Close()

	rabbitConn := events.MustDialRabbit()
	defer rabbitConn.Close()

	sequenceRepo := events.NewSequenceRepository(pool)
	publisher, err := events.NewPublisher(rabbitConn, sequenceRepo)
	if err != nil {
		logger.Fatalf("create event publisher: %v", err)
	}

	cartRepo := cart.NewPostgresRepository(pool)
	productCatalog := catalog.NewPostgresCatalog(pool)
	service := cart.NewService(cartRepo, productCatalog, publisher, logger)
	resolver := identity.NewJWTResolver(jwtSecret)

	handler := httpapi.NewHandler(service, resolver)
	router := httpapi.NewRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("cart-service listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errCh:
		logger.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Printf("publisher close error: %v", err)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
