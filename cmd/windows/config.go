package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Noofbiz/rnnwindow/datasets"
)

// defaultConfigJSON is written to disk when no -config path is given and the
// default file does not exist yet. Explicit CLI flags always override it.
//
// start_index -1 selects the first row whose window fits; end_index -1
// selects the last row (or the end of the forecast span).
const defaultConfigJSON = `{
  "csv": "data/series.csv",
  "time_column": "date",
  "x": [],
  "y": ["value"],
  "lookback": 1,
  "timesteps": 12,
  "batch_size": 32,
  "start_index": -1,
  "end_index": -1,
  "wrap": "fill",
  "return_target": true,
  "scale": "standard",
  "fill_forward": false,
  "forecast": false,
  "epochs": 2,
  "plot": ""
}
`

// Config is the merged JSON + CLI configuration of a run.
type Config struct {
	CSV        string `json:"csv"`
	TimeColumn string `json:"time_column"`

	X []string `json:"x"`
	Y []string `json:"y"`

	Lookback   int `json:"lookback"`
	Timesteps  int `json:"timesteps"`
	BatchSize  int `json:"batch_size"`
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`

	Wrap         string `json:"wrap"`
	ReturnTarget bool   `json:"return_target"`

	// Scale is one of "none", "standard" or "minmax". Scalers are fitted on
	// the generator span only.
	Scale       string `json:"scale"`
	FillForward bool   `json:"fill_forward"`

	Forecast bool   `json:"forecast"`
	Epochs   int    `json:"epochs"`
	Plot     string `json:"plot"`
}

func defaultConfig() Config {
	var c Config
	if err := json.Unmarshal([]byte(defaultConfigJSON), &c); err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return c
}

// loadConfig reads path on top of the embedded defaults.
func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	return c, nil
}

// ensureDefaultConfig writes the embedded defaults to path if it is missing.
// It reports whether a file was written.
func ensureDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, err
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfigJSON), 0644); err != nil {
		return false, err
	}
	return true, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// registerFlags binds CLI flags to cli. Only flags that were set on the
// command line are later copied over the JSON values by applyOverrides.
func registerFlags(fs *flag.FlagSet, cli *Config) {
	d := defaultConfig()
	fs.StringVar(&cli.CSV, "csv", d.CSV, "path to the input CSV")
	fs.StringVar(&cli.TimeColumn, "time-column", d.TimeColumn, "name of the timestamp column (empty for row numbers)")
	fs.Func("x", "comma-separated feature columns (default: every non-target column)", func(s string) error {
		cli.X = splitList(s)
		return nil
	})
	fs.Func("y", "comma-separated target columns", func(s string) error {
		cli.Y = splitList(s)
		return nil
	})
	fs.IntVar(&cli.Lookback, "lookback", d.Lookback, "rows between the end of a window and its target")
	fs.IntVar(&cli.Timesteps, "timesteps", d.Timesteps, "rows per feature window")
	fs.IntVar(&cli.BatchSize, "batch-size", d.BatchSize, "examples per batch")
	fs.IntVar(&cli.StartIndex, "start-index", d.StartIndex, "first target row (-1 = first row with a full window)")
	fs.IntVar(&cli.EndIndex, "end-index", d.EndIndex, "last target row (-1 = last usable row)")
	fs.StringVar(&cli.Wrap, "wrap", d.Wrap, "policy for batches crossing the end of the span: fill or truncate")
	fs.BoolVar(&cli.ReturnTarget, "return-target", d.ReturnTarget, "include target tensors in series batches")
	fs.StringVar(&cli.Scale, "scale", d.Scale, "feature scaling: none, standard or minmax")
	fs.BoolVar(&cli.FillForward, "fill-forward", d.FillForward, "fill NaN feature values with the previous value")
	fs.BoolVar(&cli.Forecast, "forecast", d.Forecast, "build a forecast generator over rows past the last known target")
	fs.IntVar(&cli.Epochs, "epochs", d.Epochs, "epochs to pull from the generator")
	fs.StringVar(&cli.Plot, "plot", d.Plot, "if set, write a PNG of the first batch to this path")
}

// applyOverrides copies every flag explicitly set in fs from cli into c.
func applyOverrides(c *Config, cli *Config, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "csv":
			c.CSV = cli.CSV
		case "time-column":
			c.TimeColumn = cli.TimeColumn
		case "x":
			c.X = cli.X
		case "y":
			c.Y = cli.Y
		case "lookback":
			c.Lookback = cli.Lookback
		case "timesteps":
			c.Timesteps = cli.Timesteps
		case "batch-size":
			c.BatchSize = cli.BatchSize
		case "start-index":
			c.StartIndex = cli.StartIndex
		case "end-index":
			c.EndIndex = cli.EndIndex
		case "wrap":
			c.Wrap = cli.Wrap
		case "return-target":
			c.ReturnTarget = cli.ReturnTarget
		case "scale":
			c.Scale = cli.Scale
		case "fill-forward":
			c.FillForward = cli.FillForward
		case "forecast":
			c.Forecast = cli.Forecast
		case "epochs":
			c.Epochs = cli.Epochs
		case "plot":
			c.Plot = cli.Plot
		}
	})
}

// span resolves the -1 placeholders of StartIndex and EndIndex against tbl.
func (c Config) span(tbl *datasets.Table) (start, end int, err error) {
	start, end = c.StartIndex, c.EndIndex
	if c.Forecast {
		if len(c.Y) == 0 {
			return 0, 0, fmt.Errorf("forecast span needs a target column")
		}
		fs, fe, err := datasets.ForecastSpan(tbl, c.Y[0], c.Lookback)
		if err != nil {
			return 0, 0, err
		}
		if start < 0 {
			start = fs
		}
		if end < 0 {
			end = fe
		}
		return start, end, nil
	}
	if start < 0 {
		start = c.Lookback + c.Timesteps - 1
	}
	if end < 0 {
		end = tbl.Len() - 1
	}
	return start, end, nil
}

// features returns the feature columns: the configured ones or every column
// that is not a target.
func (c Config) features(tbl *datasets.Table) []string {
	if len(c.X) > 0 {
		return c.X
	}
	return datasets.Complement(tbl.Names, c.Y)
}

// prep builds the preprocessing chain. Scalers are fitted over the rows the
// generator reads, clipped to the table.
func (c Config) prep(tbl *datasets.Table, start, end int) (datasets.PrepFunc, *datasets.Scaler, error) {
	var steps []datasets.PrepFunc
	cols := c.features(tbl)
	if c.FillForward {
		steps = append(steps, datasets.FillForward(cols...))
	}

	fitStart := max(start-c.Lookback-c.Timesteps+1, 0)
	fitEnd := min(end, tbl.Len()-1)
	var scaler *datasets.Scaler
	var err error
	switch strings.ToLower(c.Scale) {
	case "", "none":
	case "standard":
		scaler, err = datasets.FitStandardizer(tbl, cols, fitStart, fitEnd)
	case "minmax":
		scaler, err = datasets.FitMinMax(tbl, cols, fitStart, fitEnd)
	default:
		return nil, nil, fmt.Errorf("unknown scale %q", c.Scale)
	}
	if err != nil {
		return nil, nil, err
	}
	if scaler != nil {
		steps = append(steps, scaler.Prep())
	}
	if len(steps) == 0 {
		return nil, nil, nil
	}
	return datasets.Chain(steps...), scaler, nil
}

// generator builds the series or forecast generator described by c.
func (c Config) generator(tbl *datasets.Table) (*datasets.Generator, error) {
	wrap, err := datasets.ParseWrapPolicy(c.Wrap)
	if err != nil {
		return nil, err
	}
	start, end, err := c.span(tbl)
	if err != nil {
		return nil, err
	}
	prep, _, err := c.prep(tbl, start, end)
	if err != nil {
		return nil, err
	}

	if c.Forecast {
		return datasets.NewForecastGenerator(tbl, datasets.ForecastConfig{
			X:          c.features(tbl),
			Lookback:   c.Lookback,
			Timesteps:  c.Timesteps,
			StartIndex: start,
			EndIndex:   end,
			BatchSize:  c.BatchSize,
			Prep:       prep,
			Wrap:       wrap,
		})
	}
	return datasets.NewSeriesGenerator(tbl, datasets.SeriesConfig{
		X:            c.X,
		Y:            c.Y,
		Lookback:     c.Lookback,
		Timesteps:    c.Timesteps,
		StartIndex:   start,
		EndIndex:     end,
		BatchSize:    c.BatchSize,
		ReturnTarget: c.ReturnTarget,
		Prep:         prep,
		Wrap:         wrap,
	})
}
