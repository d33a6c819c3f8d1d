package datasets

import (
	"errors"
	"reflect"
	"testing"
)

func TestCycler_Fill(t *testing.T) {
	c, err := NewCycler(1, 10, 4, WrapFill)
	if err != nil {
		t.Fatalf("NewCycler failed: %v", err)
	}
	want := [][]int{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 1, 2},
		{3, 4, 5, 6},
	}
	for i, w := range want {
		if got := c.Next(); !reflect.DeepEqual(got, w) {
			t.Fatalf("batch %d: got %v want %v", i, got, w)
		}
	}
	if c.Wraps() != 1 {
		t.Fatalf("expected 1 wrap, got %d", c.Wraps())
	}
	if c.Steps() != 3 || c.Span() != 10 {
		t.Fatalf("unexpected steps=%d span=%d", c.Steps(), c.Span())
	}
}

func TestCycler_Truncate(t *testing.T) {
	c, err := NewCycler(1, 10, 4, WrapTruncate)
	if err != nil {
		t.Fatalf("NewCycler failed: %v", err)
	}
	want := [][]int{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10},
		{1, 2, 3, 4},
	}
	for i, w := range want {
		if got := c.Next(); !reflect.DeepEqual(got, w) {
			t.Fatalf("batch %d: got %v want %v", i, got, w)
		}
	}
}

// One epoch of truncating batches covers the span exactly once and the next
// request resumes at the start.
func TestCycler_EpochCoverage(t *testing.T) {
	c, err := NewCycler(3, 16, 5, WrapTruncate)
	if err != nil {
		t.Fatalf("NewCycler failed: %v", err)
	}
	seen := make(map[int]int)
	for range c.Steps() {
		for _, r := range c.Next() {
			seen[r]++
		}
	}
	for r := 3; r <= 16; r++ {
		if seen[r] != 1 {
			t.Fatalf("row %d seen %d times", r, seen[r])
		}
	}
	if c.Cursor() != 3 {
		t.Fatalf("expected cursor back at 3, got %d", c.Cursor())
	}
}

func TestCycler_SpanSmallerThanBatch(t *testing.T) {
	c, err := NewCycler(0, 1, 5, WrapFill)
	if err != nil {
		t.Fatalf("NewCycler failed: %v", err)
	}
	if got := c.Next(); !reflect.DeepEqual(got, []int{0, 1, 0, 1, 0}) {
		t.Fatalf("unexpected batch %v", got)
	}
	if c.Wraps() != 2 {
		t.Fatalf("expected 2 wraps, got %d", c.Wraps())
	}
}

func TestCycler_Reset(t *testing.T) {
	c, _ := NewCycler(0, 9, 3, WrapFill)
	c.Next()
	c.Next()
	c.Reset()
	if c.Cursor() != 0 || c.Wraps() != 0 {
		t.Fatalf("Reset did not rewind: cursor=%d wraps=%d", c.Cursor(), c.Wraps())
	}
}

func TestCycler_Invalid(t *testing.T) {
	if _, err := NewCycler(0, 9, 0, WrapFill); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for zero batch, got %v", err)
	}
	if _, err := NewCycler(5, 4, 1, WrapFill); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for inverted span, got %v", err)
	}
	if _, err := NewCycler(0, 4, 1, WrapPolicy(7)); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for bad policy, got %v", err)
	}
}

func TestParseWrapPolicy(t *testing.T) {
	for in, want := range map[string]WrapPolicy{"": WrapFill, "Fill": WrapFill, "truncate": WrapTruncate} {
		got, err := ParseWrapPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseWrapPolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseWrapPolicy("pad"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
