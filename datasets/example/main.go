package main

// Example command that walks through the windowing workflow on a synthetic
// hourly series: a noisy daily sine wave with a temperature-like feature.
//
//   - fit a standardizer on the training span only
//   - build training and validation series generators
//   - pull a few batches and show how the cursor wraps
//   - build a forecast generator for the rows past the last known target
//
// Usage:
//
//	go run ./datasets/example
//	go run ./datasets/example -csv path/to/series.csv -time-column date -y value

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"time"

	"k8s.io/klog/v2"

	"github.com/Noofbiz/rnnwindow/datasets"
)

func main() {
	klog.InitFlags(nil)
	csvPath := flag.String("csv", "", "optional CSV to use instead of the synthetic series")
	timeCol := flag.String("time-column", "date", "timestamp column of -csv")
	target := flag.String("y", "value", "target column")
	flag.Parse()
	defer klog.Flush()

	tbl, err := loadOrSynthesize(*csvPath, *timeCol)
	if err != nil {
		klog.Exitf("failed to prepare table: %v", err)
	}
	fmt.Printf("Table: %d rows, columns %v, step %v\n", tbl.Len(), tbl.Names, tbl.Step())

	const (
		lookback  = 6  // predict six hours ahead
		timesteps = 24 // from one day of history
		batchSize = 16
	)
	last, err := tbl.LastObserved(*target)
	if err != nil {
		klog.Exitf("target column: %v", err)
	}
	first := lookback + timesteps - 1
	trainEnd := first + (last-first)*7/10

	// Scaling parameters come from the training span only.
	scaler, err := datasets.FitStandardizer(tbl, tbl.Names, 0, trainEnd)
	if err != nil {
		klog.Exitf("failed to fit scaler: %v", err)
	}

	train, err := datasets.NewSeriesGenerator(tbl, datasets.SeriesConfig{
		Y:            []string{*target},
		Lookback:     lookback,
		Timesteps:    timesteps,
		StartIndex:   first,
		EndIndex:     trainEnd,
		BatchSize:    batchSize,
		ReturnTarget: true,
		Prep:         scaler.Prep(),
	})
	if err != nil {
		klog.Exitf("failed to build training generator: %v", err)
	}
	val, err := datasets.NewSeriesGenerator(tbl, datasets.SeriesConfig{
		Y:            []string{*target},
		Lookback:     lookback,
		Timesteps:    timesteps,
		StartIndex:   trainEnd + 1,
		EndIndex:     last,
		BatchSize:    batchSize,
		ReturnTarget: true,
		Prep:         scaler.Prep(),
		Wrap:         datasets.WrapTruncate,
	})
	if err != nil {
		klog.Exitf("failed to build validation generator: %v", err)
	}
	fmt.Printf("Training: rows [%d, %d], %d steps per epoch\n", first, trainEnd, train.StepsPerEpoch())
	fmt.Printf("Validation: rows [%d, %d], %d steps per epoch\n", trainEnd+1, last, val.StepsPerEpoch())

	// Pull one more batch than an epoch holds to show the wraparound.
	for step := range train.StepsPerEpoch() + 1 {
		b, err := train.Next()
		if err != nil {
			klog.Exitf("training batch %d: %v", step, err)
		}
		if step == 0 || step >= train.StepsPerEpoch()-1 {
			fmt.Printf("  step %3d: rows %d..%d, features %v, targets %v, wraps %d\n",
				step, b.Rows[0], b.Rows[len(b.Rows)-1], b.Shape(), b.TargetShape(), train.Wraps())
		}
	}

	for step := range val.StepsPerEpoch() {
		_, inputs, labels, err := val.Yield()
		if err != nil {
			klog.Exitf("validation batch %d: %v", step, err)
		}
		if step == val.StepsPerEpoch()-1 {
			fmt.Printf("  last validation batch: inputs %v, labels %v\n",
				inputs[0].Shape(), labels[0].Shape())
		}
	}

	start, end, err := datasets.ForecastSpan(tbl, *target, lookback)
	if err != nil {
		fmt.Printf("Note: no forecast rows: %v\n", err)
		return
	}
	features := make([]string, 0, len(tbl.Names))
	for _, name := range tbl.Names {
		if name != *target {
			features = append(features, name)
		}
	}
	forecast, err := datasets.NewForecastGenerator(tbl, datasets.ForecastConfig{
		X:          features,
		Lookback:   lookback,
		Timesteps:  timesteps,
		StartIndex: start,
		EndIndex:   end,
		BatchSize:  end - start + 1,
		Prep:       scaler.Prep(),
	})
	if err != nil {
		klog.Exitf("failed to build forecast generator: %v", err)
	}
	b, err := forecast.Next()
	if err != nil {
		klog.Exitf("forecast batch: %v", err)
	}
	fmt.Printf("Forecast: rows [%d, %d] (table ends at %d), features %v, has targets: %v\n",
		start, end, tbl.Len()-1, b.Shape(), b.HasTargets())
}

// loadOrSynthesize reads path, or builds 30 days of hourly data whose last
// 12 target values are unknown.
func loadOrSynthesize(path, timeCol string) (*datasets.Table, error) {
	if path != "" {
		return datasets.LoadCSV(path, timeCol)
	}
	const n = 30 * 24
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	value := make([]float64, n)
	temp := make([]float64, n)
	for i := range n {
		times[i] = base.Add(time.Duration(i) * time.Hour)
		day := 2 * math.Pi * float64(i%24) / 24
		temp[i] = 10 + 8*math.Sin(day) + rng.NormFloat64()
		value[i] = 50 + 20*math.Sin(day-0.5) + 0.5*temp[i] + rng.NormFloat64()*2
		if i >= n-12 {
			value[i] = math.NaN()
		}
	}
	return datasets.NewTable(times, []string{"value", "temp"}, [][]float64{value, temp})
}
