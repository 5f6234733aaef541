package main

import (
	"context"
	"flag"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tradepulse/tradepulse/internal/backtest"
	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/db"
	"github.com/tradepulse/tradepulse/internal/exchange"
	"github.com/tradepulse/tradepulse/internal/history"
	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/risk"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	symbol := flag.String("symbol", "BTCUSDT", "Symbol to backtest")
	interval := flag.String("interval", "1h", "Candle interval (1m, 5m, 15m, 1h, 1d)")
	limit := flag.Int("limit", 500, "Number of candles to replay")
	strategyName := flag.String("strategy", "momentum", "Strategy: momentum, mean_reversion or grid")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	ctx := context.Background()

	var candleStore history.CandleStore
	if cfg.Database.URL != "" {
		store, err := db.New(ctx, cfg.Database.URL, cfg.Database.PoolSize)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer store.Close()
		candleStore = store
	}

	var cache *history.CandleCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		cache = history.NewCandleCache(client, 60*time.Second)
	}

	candles := history.NewService(candleStore, cache)

	var strat strategy.Strategy
	switch *strategyName {
	case "momentum":
		strat = strategy.NewMomentum("momentum", 20, 0.01)
	case "mean_reversion":
		strat = strategy.NewMeanReversion("mean_reversion", 20, 2.0)
	case "grid":
		strat = strategy.NewGrid("grid", 5, 0.01)
	default:
		log.Fatal().Str("strategy", *strategyName).Msg("Unknown strategy")
	}

	pf := portfolio.New(cfg.Trading.InitialCapital)
	gate := risk.NewGate(risk.Limits{
		MaxPositionPct:  cfg.Risk.MaxPositionPct,
		MaxDailyLossPct: cfg.Risk.MaxDailyLossPct,
		MaxPositions:    cfg.Risk.MaxPositions,
	}, pf)
	router := exchange.NewRouterWithBackend(exchange.NewSimBackend())

	harness := backtest.New(candles, pf, gate, router, strat)
	result, err := harness.Run(ctx, *symbol, *interval, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Backtest failed")
	}

	stats := backtest.ComputeStats(result.EquityCurve, cfg.Trading.RiskFreeRate)
	log.Info().
		Str("symbol", result.Symbol).
		Str("interval", result.Interval).
		Int("candles", result.Candles).
		Int("executed_signals", len(result.ExecutedSignals)).
		Int("rejected_signals", result.RejectedSignals).
		Float64("final_equity", result.FinalEquity).
		Float64("total_return_pct", result.TotalReturn()*100).
		Float64("max_drawdown_pct", stats.MaxDrawdownPct*100).
		Float64("sharpe_ratio", stats.SharpeRatio).
		Msg("Backtest result")
}
