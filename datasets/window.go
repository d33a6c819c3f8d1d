package datasets

import "fmt"

// WindowRange returns the inclusive row range of the feature window for
// target row t: [t-lookback-timesteps+1, t-lookback]. The window must lie in
// [first, last].
func WindowRange(t, lookback, timesteps, first, last int) (start, end int, err error) {
	if timesteps < 1 {
		return 0, 0, fmt.Errorf("timesteps must be >= 1, got %d: %w", timesteps, ErrInvalidConfig)
	}
	if lookback < 0 {
		return 0, 0, fmt.Errorf("lookback must be >= 0, got %d: %w", lookback, ErrInvalidConfig)
	}
	end = t - lookback
	start = end - timesteps + 1
	if start < first {
		return start, end, fmt.Errorf("window [%d, %d] for target row %d starts before row %d: %w",
			start, end, t, first, ErrOutOfRange)
	}
	if end > last {
		return start, end, fmt.Errorf("window [%d, %d] for target row %d ends after row %d: %w",
			start, end, t, last, ErrOutOfRange)
	}
	return start, end, nil
}
