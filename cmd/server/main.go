package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/interviewmeet/backend/internal/adapters/http"
	"github.com/interviewmeet/backend/internal/adapters/rtc"
	wssignal "github.com/interviewmeet/backend/internal/adapters/signal"
	"github.com/interviewmeet/backend/internal/adapters/vision"
	"github.com/interviewmeet/backend/internal/app"
	"github.com/interviewmeet/backend/internal/app/analysis"
	"github.com/interviewmeet/backend/internal/config"
	"github.com/interviewmeet/backend/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	conns := app.NewConnRegistry()
	rooms := app.NewRoomRegistry()
	extractor := vision.NewClient(cfg.VisionURL)

	rtcConfig := rtc.ConfigWithSTUN(cfg.STUNServers)
	newPeer := func(target core.SessionID) (core.MediaConnection, error) {
		return rtc.NewConnection(rtcConfig, target)
	}

	ctl := &wssignal.Controller{
		Ctx:   ctx,
		Conns: conns,
		Rooms: rooms,
	}
	ctl.Analysis = analysis.NewManager(ctx, newPeer, extractor, ctl)

	r := router.SetupRouter(ctx, cfg, ctl, rooms)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("InterviewMeet server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
