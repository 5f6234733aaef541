package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog/log"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/db"
	"github.com/tradepulse/tradepulse/internal/engine"
	"github.com/tradepulse/tradepulse/internal/exchange"
	"github.com/tradepulse/tradepulse/internal/marketdata"
	"github.com/tradepulse/tradepulse/internal/metrics"
	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/risk"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	log.Info().
		Str("environment", cfg.App.Environment).
		Strs("symbols", cfg.Trading.Symbols).
		Msg("Starting trading engine")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *db.Store
	if cfg.Database.URL != "" {
		store, err = db.New(ctx, cfg.Database.URL, cfg.Database.PoolSize)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer store.Close()
	} else {
		log.Info().Msg("No database configured, running without order persistence")
	}

	// Live connectivity only when credentials are present. Otherwise the
	// session runs fully simulated.
	var client *binance.Client
	var source marketdata.Source
	if cfg.Binance.IsConfigured() {
		binance.UseTestnet = cfg.Binance.Network == config.NetworkTestnet
		client = binance.NewClient(cfg.Binance.APIKey, cfg.Binance.APISecret)
		source = marketdata.NewLiveSource(cfg.Binance)
	} else {
		log.Info().Msg("No exchange credentials, using synthetic market data")
		source = marketdata.NewSyntheticSource()
	}

	router := exchange.NewRouter(cfg.Binance, client)
	manager := marketdata.NewManager(source)

	pf := portfolio.New(cfg.Trading.InitialCapital)
	gate := risk.NewGate(risk.Limits{
		MaxPositionPct:  cfg.Risk.MaxPositionPct,
		MaxDailyLossPct: cfg.Risk.MaxDailyLossPct,
		MaxPositions:    cfg.Risk.MaxPositions,
	}, pf)

	var orderStore engine.OrderStore
	if store != nil {
		orderStore = store
	}
	eng := engine.New(pf, gate, router, manager, orderStore)

	for _, s := range []strategy.Strategy{
		strategy.NewMomentum("momentum", 20, 0.01),
		strategy.NewMeanReversion("mean_reversion", 20, 2.0),
	} {
		if err := eng.RegisterStrategy(s); err != nil {
			log.Fatal().Err(err).Msg("Failed to register strategy")
		}
	}

	var metricsServer *metrics.Server
	if cfg.Monitoring.EnableMetrics {
		metricsServer = metrics.NewServer(cfg.Monitoring.MetricsPort, log.Logger)
		if err := metricsServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start metrics server")
		}
	}

	if err := eng.Start(ctx, cfg.Trading.Symbols); err != nil {
		log.Fatal().Err(err).Msg("Failed to start engine")
	}

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	eng.Stop()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	snapshot := eng.Snapshot()
	log.Info().
		Float64("total_balance", snapshot.TotalBalance).
		Float64("available_balance", snapshot.AvailableBalance).
		Float64("unrealized_pnl", snapshot.UnrealizedPnL).
		Msg("Final portfolio state")
}
