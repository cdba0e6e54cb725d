package main

import (
	"context"
	"errors"
	logg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fb "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/jaam8/poll_profiles/internal/api"
	"github.com/jaam8/poll_profiles/internal/auth"
	"github.com/jaam8/poll_profiles/internal/config"
	"github.com/jaam8/poll_profiles/internal/notify"
	"github.com/jaam8/poll_profiles/internal/repository"
	srv "github.com/jaam8/poll_profiles/internal/service"
	"github.com/jaam8/poll_profiles/internal/session"
	"github.com/jaam8/poll_profiles/internal/store"
	"github.com/jaam8/poll_profiles/pkg/firebase"
	"github.com/jaam8/poll_profiles/pkg/logger"
	"github.com/jaam8/poll_profiles/pkg/tarantool"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		logg.Fatalf("failed to load config: %s", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		logg.Fatalf("failed to initalize logger: %s", err)
	}
	defer log.Sync()

	var (
		db      store.Store
		closers []func() error
		app     *fb.App
	)

	if cfg.StoreBackend == config.BackendFirestore || cfg.Firebase.APIKey != "" {
		if app, err = firebase.New(ctx, cfg.Firebase); err != nil {
			log.Fatal("failed to initialize firebase", zap.Error(err))
		}
	}

	switch cfg.StoreBackend {
	case config.BackendTarantool:
		conn, err := tarantool.New(cfg.Tarantool)
		if err != nil {
			log.Fatal("failed to connect to Tarantool", zap.Error(err))
		}
		closers = append(closers, conn.Close)
		db = store.NewTarantoolStore(conn, log)
	case config.BackendFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			log.Fatal("failed to connect to Firestore", zap.Error(err))
		}
		closers = append(closers, client.Close)
		db = store.NewFirestoreStore(client, log)
	case config.BackendMemory:
		log.Warn("using in-memory store, data is lost on restart")
		db = store.NewMemoryStore()
	}

	var sessions session.Store
	if cfg.Redis.Host != "" {
		rs, err := session.NewRedisStore(ctx, cfg.Redis, cfg.SessionTTL)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		closers = append(closers, rs.Close)
		sessions = rs
	} else {
		log.Warn("REDIS_HOST not set, keeping sessions in memory")
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Mattermost.Enabled() {
		notifier = notify.NewMattermost(cfg.Mattermost, log)
	}

	var provider auth.Provider
	switch {
	case cfg.Firebase.APIKey != "":
		var admin *fbauth.Client
		if admin, err = app.Auth(ctx); err != nil {
			log.Warn("firebase admin auth unavailable, sign out will not revoke tokens", zap.Error(err))
			admin = nil
		}
		if provider, err = auth.NewIdentityToolkit(ctx, cfg.Firebase.APIKey, admin, log); err != nil {
			log.Fatal("failed to create auth provider", zap.Error(err))
		}
	case cfg.StoreBackend == config.BackendMemory:
		log.Warn("FIREBASE_API_KEY not set, using in-memory auth provider")
		provider = auth.NewFakeProvider()
	default:
		log.Fatal("FIREBASE_API_KEY is required")
	}

	repo := repository.New(db, log)
	profiles := srv.NewProfileService(repo, notifier, log, srv.ProfileOptions{
		HandleAttempts: cfg.HandleAttempts,
		DefaultImage:   cfg.DefaultImage,
	})
	authService := srv.NewAuthService(provider, profiles, sessions, log)
	handler := api.New(authService, profiles, log)

	server := &http.Server{
		Addr:              ":" + cfg.RestPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("listening", zap.String("port", cfg.RestPort), zap.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down server", zap.Error(err))
	}
	for _, c := range closers {
		if err := c(); err != nil {
			log.Warn("failed to close connection", zap.Error(err))
		}
	}
	log.Info("server graceful stopped")
}
