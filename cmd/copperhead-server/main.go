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

	"github.com/nonfamousd/copperhead-server/internal/config"
	chlog "github.com/nonfamousd/copperhead-server/internal/log"
	"github.com/nonfamousd/copperhead-server/internal/network"
	"github.com/nonfamousd/copperhead-server/internal/room"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("copperhead-server %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	chlog.Configure(chlog.Config{Level: cfg.LogLevel, Service: "copperhead"})
	logger := chlog.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := room.NewManagerSized(cfg.MaxRooms, cfg.TickRate, room.ExecLauncher{
		Binary:    cfg.BotBinary,
		ServerURL: cfg.AdvertisedWSURL(),
	}.Launch, cfg.GridWidth, cfg.GridHeight)
	defer mgr.Shutdown()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           network.NewServer(cfg, mgr).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("event", "server.start").
		Str("addr", cfg.ListenAddr).
		Str("tick_rate", cfg.TickRate.String()).
		Int("max_rooms", cfg.MaxRooms).
		Msg("CopperHead server started")
	logger.Info().
		Str("event", "server.connect_info").
		Str("client_url", cfg.ClientURL).
		Str("ws_url", cfg.AdvertisedWSURL()).
		Msg("open the client and paste the server URL")
	if cfg.InCodespaces() {
		logger.Warn().
			Str("event", "server.codespaces").
			Msg("make the forwarded port public: Ports tab, right-click the port, Port Visibility, Public")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Str("event", "server.shutdown").Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}
}
