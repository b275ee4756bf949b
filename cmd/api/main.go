package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/workcity-chat/backend/internal/config"
	"github.com/zhouzirui/workcity-chat/backend/internal/event"
	"github.com/zhouzirui/workcity-chat/backend/internal/handler"
	"github.com/zhouzirui/workcity-chat/backend/internal/metrics"
	"github.com/zhouzirui/workcity-chat/backend/internal/middleware"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/commerce"
	"github.com/zhouzirui/workcity-chat/backend/internal/repository/memory"
	"github.com/zhouzirui/workcity-chat/backend/internal/repository/sqlstore"
	"github.com/zhouzirui/workcity-chat/backend/internal/service/chat"
	commerceservice "github.com/zhouzirui/workcity-chat/backend/internal/service/commerce"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	repo, closeRepo, err := openRepository(cfg.Store)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer closeRepo()

	chatService := chat.NewService(repo, m)

	// Order and product context backed by the seeded catalog
	catalog := commerce.NewMemoryStore(commerce.Seed())
	bus := event.NewBus[commerceservice.OrderStatusChanged]()
	commerceService := commerceservice.NewService(catalog, chatService, bus, m)

	if len(cfg.Auth.Tokens) == 0 {
		log.Println("warning: AUTH_TOKENS is empty, all write endpoints will answer 401")
	}
	auth := middleware.NewAuthenticator(cfg.Auth.Tokens)

	router := handler.NewRouter(chatService, commerceService, auth, m)

	startServer(ctx, cfg.Server, router)
}

func openRepository(storeCfg config.StoreConfig) (chat.Repository, func(), error) {
	if storeCfg.Driver == "memory" {
		log.Println("using in-memory session store, records are lost on restart")
		return memory.NewSessionRepository(), func() {}, nil
	}

	db, err := sqlstore.Open(storeCfg.Driver, storeCfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	repo, err := sqlstore.NewSessionRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	log.Printf("session store ready (driver=%s)", storeCfg.Driver)
	return repo, func() {
		if err := db.Close(); err != nil {
			log.Printf("warning: closing session store: %v", err)
		}
	}, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("workcity chat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Printf("server error: %v", err)
	}
}

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
