package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Prsnt95/coup/internal/archive"
	"github.com/Prsnt95/coup/internal/config"
	"github.com/Prsnt95/coup/internal/game"
	"github.com/Prsnt95/coup/internal/logging"
	"github.com/Prsnt95/coup/internal/room"
	"github.com/Prsnt95/coup/internal/rules"
	"github.com/Prsnt95/coup/internal/telemetry"
	"github.com/Prsnt95/coup/internal/ws"
)

func main() {
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("config")
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn().Err(err).Msg("flush traces")
		}
	}()

	tableRules, err := loadRules(ctx, cfg)
	if err != nil {
		return err
	}

	roomOpts := []room.Option{room.WithRules(tableRules), room.WithGracePeriod(cfg.GracePeriod)}
	var store *archive.Store
	if cfg.ArchivePath != "" {
		store, err = archive.Open(ctx, cfg.ArchivePath, logger.With().Str("component", "archive").Logger())
		if err != nil {
			return err
		}
		defer store.Close()
		roomOpts = append(roomOpts, room.WithArchiver(store))
	}

	registry := room.NewRegistry(logger, roomOpts...)
	defer registry.Close()
	hub := ws.NewHub(registry, logger, ws.Options{
		AllowOrigins: cfg.OriginAllowlist,
		MessageRate:  cfg.MessageRate,
		MessageBurst: cfg.MessageBurst,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if store != nil {
		mux.HandleFunc("/archive/recent", recentGames(store, logger))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           cors(cfg.OriginAllowlist, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Int("maxPlayers", tableRules.MaxPlayers).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// loadRules layers the steal-blocker list and the Lua script over the defaults.
func loadRules(ctx context.Context, cfg config.Config) (game.Rules, error) {
	r := game.DefaultRules()
	var err error
	if len(cfg.StealBlockers) > 0 {
		if r, err = rules.WithStealBlockers(r, cfg.StealBlockers); err != nil {
			return game.Rules{}, err
		}
	}
	if cfg.RulesScript != "" {
		if r, err = rules.LoadFile(ctx, cfg.RulesScript, r); err != nil {
			return game.Rules{}, err
		}
	}
	return r, nil
}

func recentGames(store *archive.Store, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		recs, err := store.Recent(r.Context(), limit)
		if err != nil {
			logger.Error().Err(err).Msg("list archived games")
			http.Error(w, "archive unavailable", http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []archive.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(recs)
	}
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
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
