package strategy

// priceWindow is a fixed-length sliding window of recent prices.
type priceWindow struct {
	size   int
	values []float64
}

func newPriceWindow(size int) *priceWindow {
	return &priceWindow{size: size}
}

func (w *priceWindow) push(value float64) {
	w.values = append(w.values, value)
	if len(w.values) > w.size {
		w.values = w.values[1:]
	}
}

func (w *priceWindow) full() bool {
	return len(w.values) >= w.size
}

func (w *priceWindow) mean() float64 {
	if len(w.values) == 0 {
		return 0
	}
	sum := 0.0
	for _, value := range w.values {
		sum += value
	}
	return sum / float64(len(w.values))
}
