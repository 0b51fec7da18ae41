package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fast-food-fast/api"
	"fast-food-fast/bot"
	"fast-food-fast/config"
	"fast-food-fast/db"
	"fast-food-fast/events"
	"fast-food-fast/logger"
	"fast-food-fast/services"

	"golang.org/x/sync/errgroup"
)

const (
	serviceName     = "fast-food-fast"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(serviceName, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "serve":
		err = serve(ctx, cfg, log)
	case "migrate":
		err = runMigrate(ctx, cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [serve|migrate]\n", os.Args[0])
		os.Exit(2)
	}
	if err != nil {
		log.Error(cmd+"_failed", "startup", "exiting", err)
		os.Exit(1)
	}
}

func runMigrate(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	store, err := db.Open(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Migrate(ctx, migrations(), log)
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := db.Open(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("db_connected", "startup", "Connected to PostgreSQL")

	// Optional auto-migration, useful for fresh databases.
	if cfg.DB.AutoMigrate {
		if err := store.Migrate(ctx, migrations(), log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	users := services.NewUsers(store, services.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), log)
	if cfg.Auth.AdminUsername != "" {
		if err := users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			return fmt.Errorf("admin bootstrap: %w", err)
		}
	}

	var notifiers services.Notifiers
	var tgBot *bot.Notifier
	if cfg.Telegram.Token != "" && cfg.Telegram.AdminChatID != 0 {
		tgBot, err = bot.New(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, tgBot)
	}
	if cfg.RabbitMQ.URL != "" {
		pub, err := events.Dial(cfg.RabbitMQ.URL, log)
		if err != nil {
			return err
		}
		defer pub.Close()
		notifiers = append(notifiers, pub)
		log.Info("rabbitmq_connected", "startup", "Publishing order events to "+events.Exchange)
	}
	var notifier services.OrderNotifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	orders := services.NewOrders(store, users, notifier, log)
	server := api.NewServer(users, services.NewMenu(store), orders, store, log)

	httpSrv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTP.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server_started", "startup", "HTTP server listening", slog.Int("port", cfg.HTTP.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("graceful_shutdown_started", "shutdown", "Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})
	if tgBot != nil {
		g.Go(func() error {
			return tgBot.Listen(gctx, orders)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("graceful_shutdown_completed", "shutdown", "Server stopped")
	return nil
}
