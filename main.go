/*
Package main
File: main.go
Description: Server entry point. Loads configuration and the game definition, restores
the player's progress, and runs the session cadences, the real-time WebSocket hub and
the HTTP API until interrupted. Progress is saved on the way out.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/everforgeworks/tap-the-cap/internal/api"
	"github.com/everforgeworks/tap-the-cap/internal/config"
	"github.com/everforgeworks/tap-the-cap/internal/logger"
	"github.com/everforgeworks/tap-the-cap/internal/session"
	"github.com/everforgeworks/tap-the-cap/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tap-the-cap: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Environment configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 2. Game definition (shop, tuning, device tiers)
	def, err := config.LoadGame(cfg.Game.File)
	if err != nil {
		return err
	}
	tier, exact := def.Tier(cfg.Game.DeviceTier)
	if !exact {
		log.Warn("unknown device tier, using fallback", zap.String("requested", cfg.Game.DeviceTier), zap.String("tier", tier.Name))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Progress store
	st, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer st.Close()

	// 4. Restore the session (offline earnings are credited here)
	sess, err := session.New(session.Options{
		Definition: def,
		Tier:       tier,
		Cadence:    cfg.Cadence,
		Store:      st,
		Logger:     log.Named("session"),
	})
	if err != nil {
		return err
	}
	if err := sess.Start(ctx); err != nil {
		return err
	}

	// 5. Real-time hub and HTTP API
	hub := api.NewHub(log.Named("hub"))
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      corsMiddleware(api.NewServer(sess, hub, log.Named("api")).Routes()),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return sess.Run(gctx, hub) })

	// 6. SIGHUP forces a checkpoint without restarting
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				if err := sess.Save(gctx); err != nil {
					log.Warn("checkpoint failed", zap.Error(err))
					continue
				}
				log.Info("checkpoint saved")
			}
		}
	})

	// 7. Serve until interrupted, then drain
	g.Go(func() error {
		log.Info("server listening", zap.String("app", cfg.AppName), zap.String("addr", srv.Addr), zap.String("tier", tier.Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}

// corsMiddleware lets a browser client served from another origin talk to the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
