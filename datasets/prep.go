package datasets

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PrepFunc transforms a contiguous run of table rows before a batch copies
// values out of them. It must return the same number of rows, in the same
// order, and keep every selected column.
type PrepFunc func(*Table) (*Table, error)

// Chain applies the functions left to right. Nil entries are skipped.
func Chain(fns ...PrepFunc) PrepFunc {
	return func(t *Table) (*Table, error) {
		var err error
		for i, fn := range fns {
			if fn == nil {
				continue
			}
			if t, err = fn(t); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
		}
		return t, nil
	}
}

// Scaler is an affine per-column transform, v' = (v - Center) / Scale, fitted
// once over a span of rows and applied to every batch.
type Scaler struct {
	Columns []string
	Center  []float64
	Scale   []float64
}

// FitStandardizer fits zero-mean unit-variance scaling over rows
// [start, end] of the given columns. NaN values are ignored.
func FitStandardizer(t *Table, cols []string, start, end int) (*Scaler, error) {
	return fitScaler(t, cols, start, end, func(v []float64) (float64, float64) {
		return stat.MeanStdDev(v, nil)
	})
}

// FitMinMax fits scaling of the given columns to [0, 1] over rows
// [start, end]. NaN values are ignored.
func FitMinMax(t *Table, cols []string, start, end int) (*Scaler, error) {
	return fitScaler(t, cols, start, end, func(v []float64) (float64, float64) {
		lo := floats.Min(v)
		return lo, floats.Max(v) - lo
	})
}

func fitScaler(t *Table, cols []string, start, end int, fit func([]float64) (float64, float64)) (*Scaler, error) {
	if start < 0 || end >= t.Len() || start > end {
		return nil, fmt.Errorf("fit span [%d, %d] of %d rows: %w", start, end, t.Len(), ErrOutOfRange)
	}
	idx, err := t.resolve(cols)
	if err != nil {
		return nil, err
	}
	s := &Scaler{
		Columns: make([]string, len(cols)),
		Center:  make([]float64, len(cols)),
		Scale:   make([]float64, len(cols)),
	}
	for k, j := range idx {
		known := make([]float64, 0, end-start+1)
		for _, v := range t.Cols[j][start : end+1] {
			if !math.IsNaN(v) {
				known = append(known, v)
			}
		}
		if len(known) == 0 {
			return nil, fmt.Errorf("column %q has no known values in [%d, %d]", cols[k], start, end)
		}
		center, scale := fit(known)
		// constant columns are centered but not scaled
		if scale == 0 || math.IsNaN(scale) {
			scale = 1
		}
		s.Columns[k] = t.Names[j]
		s.Center[k] = center
		s.Scale[k] = scale
	}
	return s, nil
}

// Prep returns a PrepFunc applying the scaler to its columns.
func (s *Scaler) Prep() PrepFunc {
	return func(t *Table) (*Table, error) {
		out := t
		for k, name := range s.Columns {
			src, err := t.Col(name)
			if err != nil {
				return nil, err
			}
			scaled := make([]float64, len(src))
			for i, v := range src {
				scaled[i] = (v - s.Center[k]) / s.Scale[k]
			}
			if out, err = out.With(name, scaled); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
}

// Inverse maps a scaled value of the named column back to its original unit.
func (s *Scaler) Inverse(col string, v float64) (float64, error) {
	for k, name := range s.Columns {
		if normalizeName(name) == normalizeName(col) {
			return v*s.Scale[k] + s.Center[k], nil
		}
	}
	return 0, fmt.Errorf("column %q not scaled: %w", col, ErrUnknownColumn)
}

// FillForward replaces NaN values of the named columns by the last known
// value above them. Leading NaNs stay NaN.
func FillForward(cols ...string) PrepFunc {
	return func(t *Table) (*Table, error) {
		out := t
		for _, name := range cols {
			src, err := t.Col(name)
			if err != nil {
				return nil, err
			}
			filled := make([]float64, len(src))
			last := math.NaN()
			for i, v := range src {
				if math.IsNaN(v) {
					v = last
				}
				filled[i] = v
				last = v
			}
			if out, err = out.With(name, filled); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
}
