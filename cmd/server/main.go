package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"example.com/consensus_chess/internal/config"
	"example.com/consensus_chess/internal/logging"
	"example.com/consensus_chess/internal/rules"
	"example.com/consensus_chess/internal/rules/rulepack"
	"example.com/consensus_chess/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	catalog, err := loadCatalog(cfg.RulesScript)
	if err != nil {
		return err
	}
	log.Info("rule catalog loaded",
		zap.Strings("pieces", catalog.Names()),
		zap.String("script", cfg.RulesScript))

	hub := ws.NewHub(ws.Options{
		AllowOrigins:     cfg.OriginAllowlist,
		Catalog:          catalog,
		Threshold:        cfg.ConsensusThreshold,
		QueueSize:        cfg.CommandQueueSize,
		SubscriberBuffer: cfg.SubscriberBuffer,
		Logger:           log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           cors(cfg.OriginAllowlist, hub.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}

func loadCatalog(script string) (*rules.Catalog, error) {
	if script == "" {
		return rules.StandardCatalog(), nil
	}
	catalog, err := rulepack.LoadFile(script)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return catalog, nil
}

func cors(allow []string, next http.Handler) http.Handler {
	allowSet := map[string]struct{}{}
	for _, a := range allow {
		if a != "" {
			allowSet[a] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if _, ok := allowSet[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
