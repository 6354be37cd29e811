package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"craps-lite/apps/server/internal/config"
	"craps-lite/apps/server/internal/events"
	"craps-lite/apps/server/internal/gateway"
	"craps-lite/apps/server/internal/ledger"
	"craps-lite/apps/server/internal/lobby"
	"craps-lite/apps/server/internal/observability"
	"craps-lite/apps/server/internal/table"
)

const (
	reapInterval = time.Minute
	idleTTL      = 30 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := observability.NewLogger("server", "info")
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := observability.NewLogger("server", cfg.LogLevel)
	metrics := observability.NewMetrics()

	tableCfg, err := cfg.TableConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("table config")
	}

	ledgerService, ledgerMode, err := ledger.NewService(ledger.Options{
		Mode:        cfg.LedgerMode,
		SQLitePath:  cfg.LedgerPath,
		DatabaseURL: cfg.DatabaseURL,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init ledger service")
	}
	defer ledgerService.Close()

	publisher, err := events.NewPublisher(cfg.NATSURL, cfg.NATSSubject, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init roll publisher")
	}
	defer publisher.Close()

	lby, err := lobby.New(lobby.Options{
		MaxSessions: cfg.MaxSessions,
		Defaults:    tableCfg,
		Animation:   cfg.RollAnimation,
		FairDice:    strings.EqualFold(cfg.DiceMode, config.DiceFair),
		Ledger:      ledgerService,
		Metrics:     metrics,
		Logger:      logger,
		RollHooks: []table.RollHook{func(info table.RollInfo) {
			publisher.PublishRoll(rollMessage(info))
		}},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init lobby")
	}
	defer lby.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go lby.Run(ctx, reapInterval, idleTTL)

	gw := gateway.New(lby, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", metrics.HealthHandler)
	mux.Handle("/metrics", metrics.Handler())
	ledger.NewHTTPHandler(ledgerService).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Str("ledger", ledgerMode).
		Str("dice", cfg.DiceMode).
		Str("settlement", cfg.Settlement).
		Msg("starting server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("graceful shutdown")
		}
	}
}

func rollMessage(info table.RollInfo) events.RollMessage {
	res := info.Result
	return events.RollMessage{
		SessionID:   info.TableID,
		RollID:      info.RollID,
		Seq:         info.Seq,
		Dice:        [2]int{res.Dice.D1, res.Dice.D2},
		Total:       res.Total,
		PointBefore: res.PointBefore,
		PointAfter:  res.PointAfter,
		Winnings:    res.Winnings,
		Bankroll:    res.Snapshot.Bankroll,
		Log:         res.Log,
		Timestamp:   info.RolledAt,
	}
}
