package portfolio

// AssetSnapshot describes one held symbol for the dashboard.
type AssetSnapshot struct {
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	MarketValue  float64 `json:"market_value"`
}

// Snapshot is the read-only dashboard view of the portfolio. The HTTP
// serving of this structure lives outside the engine.
type Snapshot struct {
	TotalBalance     float64                  `json:"total_balance"`
	AvailableBalance float64                  `json:"available_balance"`
	LockedBalance    float64                  `json:"locked_balance"`
	DailyPnL         float64                  `json:"daily_pnl"`
	UnrealizedPnL    float64                  `json:"unrealized_pnl"`
	Assets           map[string]AssetSnapshot `json:"assets"`
}

// TakeSnapshot derives the dashboard state from the portfolio and the
// latest marks.
func (p *Portfolio) TakeSnapshot(marks map[string]float64) Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	equity := p.cash
	unrealized := 0.0
	assets := make(map[string]AssetSnapshot, len(p.positions))
	for symbol, position := range p.positions {
		markPrice, ok := marks[symbol]
		if !ok {
			markPrice = position.AveragePrice
		}
		marketValue := position.MarketValue(markPrice)
		equity += marketValue
		unrealized += (markPrice - position.AveragePrice) * position.Quantity
		assets[symbol] = AssetSnapshot{
			Quantity:     position.Quantity,
			AveragePrice: position.AveragePrice,
			MarketValue:  marketValue,
		}
	}

	locked := equity - p.cash
	if locked < 0 {
		locked = 0
	}

	return Snapshot{
		TotalBalance:     equity,
		AvailableBalance: p.cash,
		LockedBalance:    locked,
		UnrealizedPnL:    unrealized,
		Assets:           assets,
	}
}
