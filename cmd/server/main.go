package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/RoomChat/internal/adapters/http"
	"github.com/dkeye/RoomChat/internal/app"
	"github.com/dkeye/RoomChat/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	// appCtx outlives the signal so rooms can notify members before sockets close.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	reg := app.NewRegistry()
	dir := app.NewDirectory(appCtx, reg)
	if err := reg.Publish(app.DirectoryName, dir); err != nil {
		log.Fatal().Err(err).Msg("failed to publish directory")
	}

	r := router.SetupRouter(appCtx, cfg, dir, reg)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("directory", app.DirectoryName).Msg("chat server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Rooms first, so members still connected get the close notification.
	if err := dir.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("rooms did not stop in time")
	}
	if err := reg.Withdraw(app.DirectoryName); err != nil {
		log.Error().Err(err).Msg("withdraw directory")
	}
	appCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
