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

	"github.com/joho/godotenv"

	"github.com/tasukuchiba/duo_chat_app/internal/chat"
	"github.com/tasukuchiba/duo_chat_app/internal/config"
	"github.com/tasukuchiba/duo_chat_app/internal/handlers"
	"github.com/tasukuchiba/duo_chat_app/internal/session"
	"github.com/tasukuchiba/duo_chat_app/internal/storage"
	"github.com/tasukuchiba/duo_chat_app/internal/websocket"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .envが無ければ環境変数のみで動かす
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded", "error", envErr)
	}
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	// ストレージの初期化
	store, cleanup, err := initStorage(cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "type", cfg.Storage.Type, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// WebSocket Hubの初期化と起動
	hub := websocket.NewHub(logger, cfg.CORS.AllowedOrigins)
	go hub.Run(ctx)

	chatService := chat.NewService(store, chat.WithNotifier(hub), chat.WithLogger(logger))
	sessions := session.NewManager(session.Options{
		Secret:     cfg.Session.Secret,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
	})

	messageHandler := handlers.NewMessageHandler(chatService, sessions, hub, logger)
	router := handlers.NewRouter(messageHandler, handlers.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("server starting", "addr", cfg.Server.Addr, "storage", cfg.Storage.Type)
	if err := runServer(ctx, srv); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// runServer はctxが終了するまでサーバーを動かし、終了時にグレースフルシャットダウンする
func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// initStorage は設定に基づいてストレージを初期化する
func initStorage(cfg config.StorageConfig, logger *slog.Logger) (storage.Storage, func(), error) {
	switch cfg.Type {
	case config.StoragePostgres:
		store, err := storage.NewPostgresStorage(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using PostgreSQL storage")
		return store, closer(store.Close, logger), nil

	case config.StorageSQLite:
		store, err := storage.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using SQLite storage", "path", cfg.SQLitePath)
		return store, closer(store.Close, logger), nil

	default:
		logger.Info("using in-memory storage")
		return storage.NewMemoryStorage(), func() {}, nil
	}
}

func closer(closeFn func() error, logger *slog.Logger) func() {
	return func() {
		if err := closeFn(); err != nil {
			logger.Error("error closing storage", "error", err)
		}
	}
}
