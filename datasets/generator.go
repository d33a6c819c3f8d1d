package datasets

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"k8s.io/klog/v2"
)

// SeriesConfig configures a training/evaluation generator.
type SeriesConfig struct {
	// X selects the feature columns. Empty means every column not in Y.
	X []string

	// Y selects the target columns.
	Y []string

	// Lookback is the number of rows between the end of a feature window and
	// its target row.
	Lookback int

	// Timesteps is the number of rows in a feature window.
	Timesteps int

	// StartIndex and EndIndex bound the target rows, inclusive and 0-based.
	StartIndex int
	EndIndex   int

	BatchSize int

	// ReturnTarget toggles the target buffer. Without it batches carry
	// features only, e.g. for predict over a labelled span.
	ReturnTarget bool

	// Prep, when set, transforms the rows of each batch before values are
	// extracted.
	Prep PrepFunc

	// Wrap selects the policy for a batch that runs past EndIndex.
	Wrap WrapPolicy
}

// Validate checks the scalar parameters.
func (c SeriesConfig) Validate() error {
	if len(c.Y) == 0 && c.ReturnTarget {
		return fmt.Errorf("no target columns: %w", ErrInvalidConfig)
	}
	return validateWindow(c.Lookback, c.Timesteps, c.StartIndex, c.EndIndex, c.BatchSize)
}

// ForecastConfig configures a features-only generator whose target rows may
// run past the end of the table.
type ForecastConfig struct {
	X []string

	Lookback  int
	Timesteps int

	StartIndex int
	EndIndex   int

	BatchSize int

	Prep PrepFunc
	Wrap WrapPolicy
}

// Validate checks the scalar parameters.
func (c ForecastConfig) Validate() error {
	if len(c.X) == 0 {
		return fmt.Errorf("no feature columns: %w", ErrInvalidConfig)
	}
	return validateWindow(c.Lookback, c.Timesteps, c.StartIndex, c.EndIndex, c.BatchSize)
}

func validateWindow(lookback, timesteps, start, end, batchSize int) error {
	switch {
	case lookback < 0:
		return fmt.Errorf("lookback must be >= 0, got %d: %w", lookback, ErrInvalidConfig)
	case timesteps < 1:
		return fmt.Errorf("timesteps must be >= 1, got %d: %w", timesteps, ErrInvalidConfig)
	case batchSize < 1:
		return fmt.Errorf("batch size must be >= 1, got %d: %w", batchSize, ErrInvalidConfig)
	case start < 0:
		return fmt.Errorf("start index must be >= 0, got %d: %w", start, ErrInvalidConfig)
	case start > end:
		return fmt.Errorf("start index %d > end index %d: %w", start, end, ErrInvalidConfig)
	}
	return nil
}

// ForecastSpan returns the default forecast target rows for column y: from
// the row after its last known value up to the last row whose window still
// fits in the table.
func ForecastSpan(t *Table, y string, lookback int) (start, end int, err error) {
	last, err := t.LastObserved(y)
	if err != nil {
		return 0, 0, err
	}
	start, end = last+1, t.Len()-1+lookback
	if start > end {
		return start, end, fmt.Errorf("column %q is fully observed and lookback is 0: %w", y, ErrOutOfRange)
	}
	return start, end, nil
}

// Generator produces an endless sequence of windowed batches from a table.
// It is not safe for concurrent use; each instance owns its cursor.
type Generator struct {
	name  string
	table *Table

	xNames, yNames []string
	xIdx, yIdx     []int

	lookback     int
	timesteps    int
	returnTarget bool
	forecast     bool
	prep         PrepFunc

	// readFirst is the first row any window of the span reads.
	readFirst int

	cycler  *Cycler
	batches int
}

// NewSeriesGenerator validates cfg against tbl and returns a generator
// positioned at cfg.StartIndex.
func NewSeriesGenerator(tbl *Table, cfg SeriesConfig) (*Generator, error) {
	if tbl == nil {
		return nil, fmt.Errorf("table is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	x := cfg.X
	if len(x) == 0 {
		x = Complement(tbl.Names, cfg.Y)
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("no feature columns left after removing targets: %w", ErrInvalidConfig)
	}
	if cfg.EndIndex >= tbl.Len() {
		return nil, fmt.Errorf("end index %d past last row %d: %w", cfg.EndIndex, tbl.Len()-1, ErrOutOfRange)
	}

	g := &Generator{
		name:         fmt.Sprintf("series(%s)", strings.Join(cfg.Y, ",")),
		table:        tbl,
		xNames:       slices.Clone(x),
		lookback:     cfg.Lookback,
		timesteps:    cfg.Timesteps,
		returnTarget: cfg.ReturnTarget,
		prep:         cfg.Prep,
	}
	if cfg.ReturnTarget {
		g.yNames = slices.Clone(cfg.Y)
	}
	if err := g.init(cfg.StartIndex, cfg.EndIndex, cfg.BatchSize, cfg.Wrap); err != nil {
		return nil, err
	}
	return g, nil
}

// NewForecastGenerator returns a features-only generator. Target rows may lie
// past the end of the table as long as their windows fit in it.
func NewForecastGenerator(tbl *Table, cfg ForecastConfig) (*Generator, error) {
	if tbl == nil {
		return nil, fmt.Errorf("table is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		name:      fmt.Sprintf("forecast(%s)", strings.Join(cfg.X, ",")),
		table:     tbl,
		xNames:    slices.Clone(cfg.X),
		lookback:  cfg.Lookback,
		timesteps: cfg.Timesteps,
		forecast:  true,
		prep:      cfg.Prep,
	}
	if err := g.init(cfg.StartIndex, cfg.EndIndex, cfg.BatchSize, cfg.Wrap); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Generator) init(start, end, batchSize int, wrap WrapPolicy) error {
	var err error
	if g.xIdx, err = g.table.resolve(g.xNames); err != nil {
		return err
	}
	if g.yIdx, err = g.table.resolve(g.yNames); err != nil {
		return err
	}

	// windows move with the target row, so the two ends of the span bound
	// every window in between
	last := g.table.Len() - 1
	for _, t := range []int{start, end} {
		if _, _, err := WindowRange(t, g.lookback, g.timesteps, 0, last); err != nil {
			return err
		}
	}

	g.readFirst = start - g.lookback - g.timesteps + 1

	if g.cycler, err = NewCycler(start, end, batchSize, wrap); err != nil {
		return err
	}
	klog.V(1).Infof("%s: rows [%d, %d], lookback=%d timesteps=%d batch=%d wrap=%s features=%v targets=%v",
		g.name, start, end, g.lookback, g.timesteps, batchSize, wrap, g.xNames, g.yNames)
	return nil
}

// Complement returns the names in all that match none of drop. Names are
// compared the way column selectors are, ignoring case and surrounding space.
func Complement(all, drop []string) []string {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[normalizeName(d)] = true
	}
	var out []string
	for _, name := range all {
		if !skip[normalizeName(name)] {
			out = append(out, name)
		}
	}
	return out
}

// Next assembles the batch for the next group of target rows.
func (g *Generator) Next() (*Batch, error) {
	rows := g.cycler.Next()
	last := g.table.Len() - 1

	starts := make([]int, len(rows))
	hi := 0
	for i, t := range rows {
		ws, we, err := WindowRange(t, g.lookback, g.timesteps, 0, last)
		if err != nil {
			return nil, err
		}
		starts[i] = ws
		hi = max(hi, we)
		if g.returnTarget {
			hi = max(hi, t)
		}
	}

	src, offset, err := g.source(hi)
	if err != nil {
		return nil, err
	}
	xIdx, yIdx := g.xIdx, g.yIdx
	if src != g.table {
		if xIdx, err = src.resolve(g.xNames); err != nil {
			return nil, fmt.Errorf("after preprocessing: %w", err)
		}
		if yIdx, err = src.resolve(g.yNames); err != nil {
			return nil, fmt.Errorf("after preprocessing: %w", err)
		}
	}

	b := newBatch(rows, g.timesteps, len(xIdx), len(yIdx), g.returnTarget)
	for i, t := range rows {
		for s := range g.timesteps {
			p := starts[i] + s - offset
			off := b.featureOffset(i, s)
			for f, j := range xIdx {
				b.Features[off+f] = float32(src.Cols[j][p])
			}
		}
		if !g.returnTarget {
			continue
		}
		p := t - offset
		for k, j := range yIdx {
			v := src.Cols[j][p]
			if math.IsNaN(v) {
				return nil, fmt.Errorf("column %q at row %d: %w", src.Names[j], t, ErrMissingTarget)
			}
			b.Targets[i*b.NumTargets+k] = float32(v)
		}
	}
	g.batches++
	return b, nil
}

// source returns the table values are read from and the original row index
// of its first row. Without preprocessing this is the table itself.
//
// With preprocessing, Prep sees the contiguous rows from the first row any
// window of the span reads up to hi. Every batch hands it the same leading
// rows, so a row-order transform such as FillForward gives a row the same
// value whichever examples share its batch, including batches that wrap.
func (g *Generator) source(hi int) (*Table, int, error) {
	if g.prep == nil {
		return g.table, 0, nil
	}
	sub, err := g.table.Slice(g.readFirst, hi)
	if err != nil {
		return nil, 0, err
	}
	prepped, err := g.prep(sub)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrPrep, err)
	}
	if prepped == nil || prepped.Len() != sub.Len() {
		n := 0
		if prepped != nil {
			n = prepped.Len()
		}
		return nil, 0, fmt.Errorf("%w: returned %d rows for %d", ErrPrep, n, sub.Len())
	}
	return prepped, g.readFirst, nil
}

// Name implements Dataset.
func (g *Generator) Name() string {
	return g.name
}

// Yield implements Dataset. It returns the next batch as gomlx tensors; labels
// are nil when the generator does not return targets.
func (g *Generator) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	b, err := g.Next()
	if err != nil {
		return nil, nil, nil, err
	}
	in, la, err := b.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	inputs = []*tensors.Tensor{in}
	if la != nil {
		labels = []*tensors.Tensor{la}
	}
	return nil, inputs, labels, nil
}

// Reset implements Dataset by moving the cursor back to the start index.
func (g *Generator) Reset() {
	g.cycler.Reset()
	g.batches = 0
}

// StepsPerEpoch is the number of batches that cover the target span once.
func (g *Generator) StepsPerEpoch() int {
	return g.cycler.Steps()
}

// Cursor is the target row the next batch starts at.
func (g *Generator) Cursor() int {
	return g.cycler.Cursor()
}

// Wraps counts how many times the cursor has returned to the start index.
func (g *Generator) Wraps() int {
	return g.cycler.Wraps()
}

// Batches counts the batches produced since construction or the last Reset.
func (g *Generator) Batches() int {
	return g.batches
}

// FeatureNames are the columns copied into the feature buffer, in order.
func (g *Generator) FeatureNames() []string {
	return slices.Clone(g.xNames)
}

// TargetNames are the columns copied into the target buffer, in order.
func (g *Generator) TargetNames() []string {
	return slices.Clone(g.yNames)
}

// IsForecast reports whether the generator was built by NewForecastGenerator.
func (g *Generator) IsForecast() bool {
	return g.forecast
}
