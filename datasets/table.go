package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// Table is an ordered, regularly spaced series of rows. Each row has a
// timestamp and one value per named numeric column. Unknown values are NaN.
type Table struct {
	// Time holds one timestamp per row, in ascending order.
	Time []time.Time

	// Names are the numeric column names, in file order.
	Names []string

	// Cols[j][i] is the value of column Names[j] at row i.
	Cols [][]float64

	// index maps normalized names to column positions. NewTable builds it;
	// tables assembled as literals get it on first lookup.
	index map[string]int
}

// NewTable builds a table from column-major data. The time slice may be nil,
// in which case rows are stamped one second apart starting at the unix epoch.
func NewTable(times []time.Time, names []string, cols [][]float64) (*Table, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("%d names for %d columns", len(names), len(cols))
	}
	n := -1
	for j, c := range cols {
		if n == -1 {
			n = len(c)
		} else if len(c) != n {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", names[j], len(c), n)
		}
	}
	if n == -1 {
		n = len(times)
	}
	if times == nil {
		times = syntheticClock(n)
	}
	if len(times) != n {
		return nil, fmt.Errorf("time column has %d rows, expected %d", len(times), n)
	}

	t := &Table{Time: times, Names: names, Cols: cols}
	if err := t.buildIndex(); err != nil {
		return nil, err
	}
	return t, nil
}

func syntheticClock(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range n {
		out[i] = time.Unix(int64(i), 0).UTC()
	}
	return out
}

func (t *Table) buildIndex() error {
	t.index = make(map[string]int, len(t.Names))
	for j, name := range t.Names {
		key := normalizeName(name)
		if _, dup := t.index[key]; dup {
			return fmt.Errorf("duplicate column %q", name)
		}
		t.index[key] = j
	}
	return nil
}

// LoadCSV reads a header CSV into memory. timeCol names the timestamp column;
// when empty, rows get a synthetic one-second clock. All other columns must be
// numeric.
func LoadCSV(path, timeCol string) (*Table, error) {
	rows := csvRowHint(path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	timeIdx := -1
	if timeCol != "" {
		for i, col := range header {
			if normalizeName(col) == normalizeName(timeCol) {
				timeIdx = i
				break
			}
		}
		if timeIdx == -1 {
			return nil, fmt.Errorf("time column %q: %w", timeCol, ErrUnknownColumn)
		}
	}

	var names []string
	var srcIdx []int
	for i, col := range header {
		if i == timeIdx {
			continue
		}
		names = append(names, col)
		srcIdx = append(srcIdx, i)
	}

	cols := make([][]float64, len(names))
	for j := range cols {
		cols[j] = make([]float64, 0, rows)
	}
	var times []time.Time
	if timeIdx >= 0 {
		times = make([]time.Time, 0, rows)
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		if timeIdx >= 0 {
			ts, err := parseTime(record[timeIdx])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			times = append(times, ts)
		}
		for j, src := range srcIdx {
			v, err := parseValue(record[src])
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s at row %d: %w", names[j], line, err)
			}
			cols[j] = append(cols[j], v)
		}
	}

	return NewTable(times, names, cols)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Time)
}

// Index returns the position of the named column or -1.
func (t *Table) Index(name string) int {
	if t.index == nil {
		t.index = make(map[string]int, len(t.Names))
		for j, n := range t.Names {
			if _, dup := t.index[normalizeName(n)]; !dup {
				t.index[normalizeName(n)] = j
			}
		}
	}
	if j, ok := t.index[normalizeName(name)]; ok {
		return j
	}
	return -1
}

// Col returns the values of the named column.
func (t *Table) Col(name string) ([]float64, error) {
	j := t.Index(name)
	if j < 0 {
		return nil, fmt.Errorf("column %q: %w", name, ErrUnknownColumn)
	}
	return t.Cols[j], nil
}

// Take returns a new table made of the given rows, in the given order. Values
// are copied so the result can be modified freely.
func (t *Table) Take(rows []int) (*Table, error) {
	n := t.Len()
	times := make([]time.Time, len(rows))
	cols := make([][]float64, len(t.Cols))
	for j := range cols {
		cols[j] = make([]float64, len(rows))
	}
	for i, r := range rows {
		if r < 0 || r >= n {
			return nil, fmt.Errorf("row %d not in [0, %d): %w", r, n, ErrOutOfRange)
		}
		times[i] = t.Time[r]
		for j, c := range t.Cols {
			cols[j][i] = c[r]
		}
	}
	names := make([]string, len(t.Names))
	copy(names, t.Names)
	return NewTable(times, names, cols)
}

// Slice returns rows [start, end] inclusive.
func (t *Table) Slice(start, end int) (*Table, error) {
	if start < 0 || end >= t.Len() || start > end {
		return nil, fmt.Errorf("slice [%d, %d] of %d rows: %w", start, end, t.Len(), ErrOutOfRange)
	}
	rows := make([]int, end-start+1)
	for i := range rows {
		rows[i] = start + i
	}
	return t.Take(rows)
}

// With returns a copy of the table with the named column replaced, or
// appended when it does not exist yet.
func (t *Table) With(name string, values []float64) (*Table, error) {
	if len(values) != t.Len() {
		return nil, fmt.Errorf("column %q has %d rows, table has %d", name, len(values), t.Len())
	}
	names := make([]string, len(t.Names))
	copy(names, t.Names)
	cols := make([][]float64, len(t.Cols))
	copy(cols, t.Cols)
	if j := t.Index(name); j >= 0 {
		cols[j] = values
	} else {
		names = append(names, name)
		cols = append(cols, values)
	}
	return NewTable(t.Time, names, cols)
}

// LastObserved returns the last row where the named column is not NaN, or -1
// when the column has no known values.
func (t *Table) LastObserved(name string) (int, error) {
	c, err := t.Col(name)
	if err != nil {
		return -1, err
	}
	for i := len(c) - 1; i >= 0; i-- {
		if !math.IsNaN(c[i]) {
			return i, nil
		}
	}
	return -1, nil
}

// CheckSorted verifies timestamps never go backwards.
func (t *Table) CheckSorted() error {
	for i := 1; i < len(t.Time); i++ {
		if t.Time[i].Before(t.Time[i-1]) {
			return fmt.Errorf("row %d (%s) is earlier than row %d (%s)",
				i, t.Time[i].Format(time.RFC3339), i-1, t.Time[i-1].Format(time.RFC3339))
		}
	}
	return nil
}

// Step returns the spacing between the first two rows, or zero for tables
// shorter than two rows.
func (t *Table) Step() time.Duration {
	if len(t.Time) < 2 {
		return 0
	}
	return t.Time[1].Sub(t.Time[0])
}

// resolve maps column selectors to column positions.
func (t *Table) resolve(names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j := t.Index(name)
		if j < 0 {
			return nil, fmt.Errorf("column %q: %w", name, ErrUnknownColumn)
		}
		idx[i] = j
	}
	return idx, nil
}
