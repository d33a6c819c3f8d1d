package main

// windows loads a time-series CSV, builds a series (or forecast) generator
// and pulls batches from it the way a fit/predict loop would, reporting
// shapes, wraparounds and buffer sizes.
//
// Usage:
//
//	go run ./cmd/windows -csv data/jena_climate.csv -time-column "Date Time" \
//	    -y "T (degC)" -lookback 144 -timesteps 720 -batch-size 128 -plot out/batch.png
//
// Without -config, a default windows.json is written next to the binary's
// working directory and used as the base configuration.

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"

	"github.com/Noofbiz/rnnwindow/datasets"
)

func main() {
	klog.InitFlags(nil)

	var cli Config
	registerFlags(flag.CommandLine, &cli)
	configPath := flag.String("config", "", "path to JSON configuration (default: windows.json, created if missing)")
	printEffectiveConfig := flag.Bool("print-effective-config", false, "print the effective (JSON+CLI merged) configuration and exit")
	flag.Parse()
	defer klog.Flush()

	path := *configPath
	if path == "" {
		path = "windows.json"
		wrote, err := ensureDefaultConfig(path)
		if err != nil {
			klog.Warningf("could not write default config %s: %v", path, err)
		} else if wrote {
			klog.Infof("Wrote default config to %s", path)
		}
	}

	cfg, err := loadConfig(path)
	if err != nil {
		klog.Warningf("using embedded defaults: %v", err)
	}
	applyOverrides(&cfg, &cli, flag.CommandLine)

	if *printEffectiveConfig {
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			klog.Exitf("failed to marshal config: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	if err := run(cfg); err != nil {
		klog.Exitf("%v", err)
	}
}

func run(cfg Config) error {
	if info, err := os.Stat(cfg.CSV); err == nil && info.IsDir() {
		found, err := datasets.FindCSVInAssets(cfg.CSV)
		if err != nil {
			return err
		}
		klog.Infof("Using %s from %s", filepath.Base(found), cfg.CSV)
		cfg.CSV = found
	}
	tbl, err := datasets.LoadCSV(cfg.CSV, cfg.TimeColumn)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", cfg.CSV, err)
	}
	if err := tbl.CheckSorted(); err != nil {
		return fmt.Errorf("table %s is not sorted: %w", cfg.CSV, err)
	}
	klog.Infof("Loaded %s: %s rows, %d columns, step %v",
		cfg.CSV, humanize.Comma(int64(tbl.Len())), len(tbl.Names), tbl.Step())

	gen, err := cfg.generator(tbl)
	if err != nil {
		return fmt.Errorf("failed to build generator: %w", err)
	}
	steps := gen.StepsPerEpoch()
	klog.Infof("Generator %s: features=%v targets=%v, %d steps per epoch",
		gen.Name(), gen.FeatureNames(), gen.TargetNames(), steps)

	start := time.Now()
	var total uint64
	for ep := range max(cfg.Epochs, 1) {
		var epochBytes uint64
		for step := range steps {
			b, err := gen.Next()
			if err != nil {
				return fmt.Errorf("epoch %d step %d: %w", ep, step, err)
			}
			if _, _, err := b.ToGomlxTensors(); err != nil {
				return fmt.Errorf("epoch %d step %d: %w", ep, step, err)
			}
			epochBytes += uint64(4 * (len(b.Features) + len(b.Targets)))

			if ep == 0 && step == 0 {
				klog.Infof("First batch: features %v, targets %v, rows %d..%d",
					b.Shape(), b.TargetShape(), b.Rows[0], b.Rows[len(b.Rows)-1])
				if cfg.Plot != "" {
					if err := plotBatch(cfg.Plot, b, gen.FeatureNames(), gen.TargetNames(), cfg.Lookback); err != nil {
						klog.Warningf("failed to plot first batch: %v", err)
					} else {
						klog.Infof("Wrote %s", cfg.Plot)
					}
				}
			}
		}
		total += epochBytes
		klog.Infof("Epoch %d: %d batches, %s materialized, cursor at row %d, %d wraps",
			ep+1, steps, humanize.Bytes(epochBytes), gen.Cursor(), gen.Wraps())
	}
	klog.Infof("Pulled %s batches (%s) in %v",
		humanize.Comma(int64(gen.Batches())), humanize.Bytes(total), time.Since(start))
	return nil
}
