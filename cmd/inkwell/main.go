package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell/internal/account"
	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/db"
	httpx "inkwell/internal/http"
	"inkwell/internal/jobs"
	"inkwell/internal/logging"
	"inkwell/internal/progress"
	"inkwell/internal/store"
	"inkwell/internal/writing"
)

func main() {
	bootLog := logging.NewJSON(os.Stderr, "info")
	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "load config", "err", err)
		os.Exit(1)
	}
	log := logging.NewJSON(os.Stdout, cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log logging.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := progress.SystemClock(cfg.Location)

	var (
		st    store.Store
		queue *jobs.Repo
	)
	if cfg.DatabaseURL == "" {
		log.Warn(ctx, "DATABASE_URL not set, using in-memory store")
		st = store.NewMemoryStore()
	} else {
		gdb, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := db.AutoMigrateAndIndexes(gdb); err != nil {
			return err
		}
		st = &store.GormStore{DB: gdb}
		queue = &jobs.Repo{DB: gdb}
	}

	rdb, err := auth.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	jwtSvc := auth.NewJWT(cfg.JWTSecret, cfg.AccessTokenTTL)
	accounts := &account.Service{
		Store:    st,
		Clock:    clock,
		Log:      log.With("component", "account"),
		JWT:      jwtSvc,
		Sessions: auth.NewSessions(rdb, cfg.RefreshTokenTTL),
	}

	coord := writing.New(st, clock, log.With("component", "writing"), nil)
	if queue != nil {
		coord.Reconcile = queue

		worker := &jobs.Worker{
			ID:         cfg.WorkerID,
			Queue:      queue,
			Reconciler: coord,
			Log:        log.With("component", "worker"),
			Interval:   cfg.ReconcileInterval,
		}
		go worker.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(cfg, accounts, coord, jwtSvc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ch:
	case err := <-errCh:
		return err
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
