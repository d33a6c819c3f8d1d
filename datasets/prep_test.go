package datasets

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFitStandardizer(t *testing.T) {
	tbl := rampTable(t, 20)
	s, err := FitStandardizer(tbl, []string{"a"}, 0, 9)
	if err != nil {
		t.Fatalf("FitStandardizer failed: %v", err)
	}
	if !almostEqual(s.Center[0], 4.5) {
		t.Fatalf("expected mean 4.5, got %v", s.Center[0])
	}

	scaled, err := s.Prep()(tbl)
	if err != nil {
		t.Fatalf("Prep failed: %v", err)
	}
	a, _ := scaled.Col("a")
	var sum float64
	for _, v := range a[:10] {
		sum += v
	}
	if !almostEqual(sum, 0) {
		t.Fatalf("expected fitted span to be centered, sum=%v", sum)
	}

	back, err := s.Inverse("A", a[13])
	if err != nil {
		t.Fatalf("Inverse failed: %v", err)
	}
	if !almostEqual(back, 13) {
		t.Fatalf("expected inverse 13, got %v", back)
	}
	if _, err := s.Inverse("b", 0); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}

	// the source table is untouched
	src, _ := tbl.Col("a")
	if src[13] != 13 {
		t.Fatalf("Prep modified the source table")
	}
}

func TestFitMinMax(t *testing.T) {
	tbl := rampTable(t, 11)
	tbl.Cols[1][3] = math.NaN()
	s, err := FitMinMax(tbl, []string{"b"}, 0, 10)
	if err != nil {
		t.Fatalf("FitMinMax failed: %v", err)
	}
	scaled, err := s.Prep()(tbl)
	if err != nil {
		t.Fatalf("Prep failed: %v", err)
	}
	b, _ := scaled.Col("b")
	if b[0] != 0 || b[10] != 1 || !almostEqual(b[5], 0.5) {
		t.Fatalf("unexpected scaled values %v", b)
	}
	if !math.IsNaN(b[3]) {
		t.Fatalf("NaN should stay NaN, got %v", b[3])
	}
}

func TestFitScaler_Errors(t *testing.T) {
	tbl := rampTable(t, 5)
	if _, err := FitStandardizer(tbl, []string{"a"}, 0, 5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := FitMinMax(tbl, []string{"nope"}, 0, 4); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestFitScaler_ConstantColumn(t *testing.T) {
	tbl, err := NewTable(nil, []string{"c"}, [][]float64{{3, 3, 3}})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	s, err := FitStandardizer(tbl, []string{"c"}, 0, 2)
	if err != nil {
		t.Fatalf("FitStandardizer failed: %v", err)
	}
	if s.Scale[0] != 1 {
		t.Fatalf("expected unit scale for constant column, got %v", s.Scale[0])
	}
}

func TestFillForwardAndChain(t *testing.T) {
	nan := math.NaN()
	tbl, err := NewTable(nil, []string{"x"}, [][]float64{{nan, 1, nan, nan, 4}})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	shift := func(tb *Table) (*Table, error) {
		x, _ := tb.Col("x")
		out := make([]float64, len(x))
		for i, v := range x {
			out[i] = v + 1
		}
		return tb.With("x", out)
	}

	got, err := Chain(FillForward("x"), nil, shift)(tbl)
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	x, _ := got.Col("x")
	if !math.IsNaN(x[0]) {
		t.Fatalf("leading NaN should stay NaN, got %v", x[0])
	}
	want := []float64{2, 2, 2, 5}
	for i, w := range want {
		if x[i+1] != w {
			t.Fatalf("row %d: got %v want %v", i+1, x[i+1], w)
		}
	}

	if _, err := Chain(FillForward("missing"))(tbl); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn through Chain, got %v", err)
	}
}
