package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"canteen/internal/config"
	"canteen/internal/database"
	"canteen/internal/handler"
	"canteen/internal/mw"
	"canteen/internal/resolver"
	"canteen/internal/service"
	"canteen/internal/store"
)

func main() {
	cfg := config.New()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(context.Background(), db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	st := store.NewPostgres(db)
	res := resolver.New(resolver.NewLeaseFile(cfg.LeaseFile))

	// Services
	menuSvc := service.NewMenuService(st)
	orderSvc := service.NewOrderService(st, res, time.Now, cfg.StrictStatusFlow)

	if err := menuSvc.Seed(context.Background()); err != nil {
		slog.Error("failed to seed menu", "error", err)
		os.Exit(1)
	}

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/menu", handler.ListMenuHandler(menuSvc))
	r.Get("/api/serving", handler.CurrentlyServingHandler(orderSvc))

	// Customer routes act on the caller's own device identity.
	r.Group(func(r chi.Router) {
		r.Use(mw.ClientAddr)

		r.Post("/api/order", handler.SubmitOrderHandler(orderSvc))
		r.Get("/api/order", handler.OrderStatusHandler(orderSvc))
		r.Delete("/api/order", handler.ClearOrderHandler(orderSvc))
	})

	// Staff dashboard routes; reachable from the staff network segment only.
	r.Get("/api/staff/orders", handler.ListOrdersHandler(orderSvc))
	r.Post("/api/staff/orders/{orderID}/status", handler.UpdateStatusHandler(orderSvc))

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", cfg.RunAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down...")

		ctxShut, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctxShut)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
