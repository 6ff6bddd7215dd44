package core

// -----------------------------------------------------------------------------

// EMA folds data into an exponential moving average with smoothing factor
// 2/(window+1) and returns the final value. Empty input yields 0.
func EMA(data []float64, window int) float64 {
	if len(data) == 0 {
		return 0
	}
	if window < 1 {
		window = 1
	}

	alpha := 2.0 / (float64(window) + 1.0)
	ema := data[0]
	for _, v := range data[1:] {
		ema = alpha*v + (1-alpha)*ema
	}
	return ema
}
