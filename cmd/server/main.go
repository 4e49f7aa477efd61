package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gitea.jw6.us/james/calplanner/internal/config"
	"gitea.jw6.us/james/calplanner/internal/gateway"
	httpserver "gitea.jw6.us/james/calplanner/internal/http"
	"gitea.jw6.us/james/calplanner/internal/http/session"
	"gitea.jw6.us/james/calplanner/internal/state"
	"gitea.jw6.us/james/calplanner/internal/store"
)

func main() {
	log.Println("Starting calplanner server...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("failed to create db pool: %v", err)
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	stor := store.New(pool)
	gw := gateway.New(stor.Events, cfg.Location)

	registry := state.NewRegistry(func(id string) *state.Session {
		return state.NewSession(id, gw, time.Now().In(cfg.Location), cfg.WeekStart)
	}, cfg.Session.IdleTimeout)
	defer registry.Close()

	sessions := session.NewManager(cfg, registry)
	r := httpserver.NewRouter(cfg, stor, gw, sessions)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
