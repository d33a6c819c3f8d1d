package datasets

import (
	"fmt"
	"strings"

	"k8s.io/klog/v2"
)

// WrapPolicy decides what happens when a batch reaches the end of the span
// before it is full.
type WrapPolicy int

const (
	// WrapFill completes the batch with rows from the start of the span, so
	// every batch has exactly BatchSize rows.
	WrapFill WrapPolicy = iota

	// WrapTruncate yields a short final batch; the next batch starts at the
	// beginning of the span.
	WrapTruncate
)

func (p WrapPolicy) String() string {
	switch p {
	case WrapFill:
		return "fill"
	case WrapTruncate:
		return "truncate"
	}
	return fmt.Sprintf("WrapPolicy(%d)", int(p))
}

// ParseWrapPolicy converts "fill" or "truncate" (case-insensitive). An empty
// string selects WrapFill.
func ParseWrapPolicy(s string) (WrapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fill", "cycle":
		return WrapFill, nil
	case "truncate", "short":
		return WrapTruncate, nil
	}
	return WrapFill, fmt.Errorf("unknown wrap policy %q: %w", s, ErrInvalidConfig)
}

// Cycler hands out target rows from [start, end] in groups of batchSize,
// forever. The cursor returns to start once it passes end.
type Cycler struct {
	start, end int
	batchSize  int
	policy     WrapPolicy

	cursor int
	wraps  int
}

// NewCycler validates the span and returns a cycler positioned at start.
func NewCycler(start, end, batchSize int, policy WrapPolicy) (*Cycler, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be >= 1, got %d: %w", batchSize, ErrInvalidConfig)
	}
	if start > end {
		return nil, fmt.Errorf("start index %d > end index %d: %w", start, end, ErrInvalidConfig)
	}
	if policy != WrapFill && policy != WrapTruncate {
		return nil, fmt.Errorf("%v: %w", policy, ErrInvalidConfig)
	}
	return &Cycler{
		start:     start,
		end:       end,
		batchSize: batchSize,
		policy:    policy,
		cursor:    start,
	}, nil
}

// Next returns the target rows of the next batch and advances the cursor.
func (c *Cycler) Next() []int {
	rows := make([]int, 0, c.batchSize)
	for len(rows) < c.batchSize {
		rows = append(rows, c.cursor)
		c.cursor++
		if c.cursor > c.end {
			c.cursor = c.start
			c.wraps++
			klog.V(2).Infof("cycler [%d, %d]: wrapped (%d total)", c.start, c.end, c.wraps)
			if c.policy == WrapTruncate {
				break
			}
		}
	}
	return rows
}

// Reset moves the cursor back to the start of the span.
func (c *Cycler) Reset() {
	c.cursor = c.start
	c.wraps = 0
}

// Cursor is the row the next batch starts at.
func (c *Cycler) Cursor() int {
	return c.cursor
}

// Span is the number of target rows in [start, end].
func (c *Cycler) Span() int {
	return c.end - c.start + 1
}

// Steps is the number of batches that cover the span once.
func (c *Cycler) Steps() int {
	return (c.Span() + c.batchSize - 1) / c.batchSize
}

// Wraps counts how many times the cursor has gone back to start.
func (c *Cycler) Wraps() int {
	return c.wraps
}

// Policy returns the wrap policy.
func (c *Cycler) Policy() WrapPolicy {
	return c.policy
}
