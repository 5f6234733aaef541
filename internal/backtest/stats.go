package backtest

import "math"

// Stats summarizes the risk profile of an equity curve.
type Stats struct {
	MaxDrawdownPct float64 `json:"max_drawdown_pct"` // worst peak-to-trough fall, as a fraction
	Volatility     float64 `json:"volatility"`       // standard deviation of per-candle returns
	SharpeRatio    float64 `json:"sharpe_ratio"`     // mean excess return over volatility, per candle
}

// ComputeStats derives risk statistics from an equity curve. riskFreeRate
// is annualized; it is scaled down assuming hourly candles. Curves shorter
// than two samples yield zero stats.
func ComputeStats(curve []float64, riskFreeRate float64) Stats {
	var stats Stats
	if len(curve) < 2 {
		return stats
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1] == 0 {
			continue
		}
		returns = append(returns, curve[i]/curve[i-1]-1)
	}

	peak := curve[0]
	for _, equity := range curve {
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			drawdown := (peak - equity) / peak
			if drawdown > stats.MaxDrawdownPct {
				stats.MaxDrawdownPct = drawdown
			}
		}
	}

	if len(returns) == 0 {
		return stats
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	stats.Volatility = math.Sqrt(variance)

	if stats.Volatility > 0 {
		perCandleRate := riskFreeRate / (365.25 * 24)
		stats.SharpeRatio = (mean - perCandleRate) / stats.Volatility
	}
	return stats
}
