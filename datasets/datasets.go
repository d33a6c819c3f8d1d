package datasets

import (
	"errors"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// This package turns a time-ordered table into windowed batches for recurrent
// network training.
//
// Layout and intended usage:
//
// Table
//   - In-memory, regularly spaced rows with a timestamp and named numeric
//     columns. Loaded from CSV with LoadCSV or built with NewTable.
//
// Generator
//   - NewSeriesGenerator yields (features, targets) batches for fit/evaluate.
//   - NewForecastGenerator yields features only, for rows past the last known
//     target.
//   - Each call to Next (or Yield) produces one batch. The sequence never
//     ends: once the span is exhausted the cursor wraps back to StartIndex.
//
// Batches are kept as contiguous float32 buffers plus shape metadata and are
// converted to gomlx tensors by Batch.ToGomlxTensors.

// Dataset is the pull contract of gomlx training loops (train.Dataset).
// Generator implements it; Yield never reports io.EOF because the sequence is
// infinite.
type Dataset interface {
	Name() string
	Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error)
	Reset()
}

var (
	// ErrInvalidConfig reports a bad scalar parameter (timesteps, batch size, span).
	ErrInvalidConfig = errors.New("invalid generator configuration")
	// ErrOutOfRange reports a feature window that falls outside the table.
	ErrOutOfRange = errors.New("window out of table range")
	// ErrUnknownColumn reports a column selector that names no table column.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrMissingTarget reports a NaN target value in training mode.
	ErrMissingTarget = errors.New("missing target value")
	// ErrPrep reports a preprocessing function that failed or changed the row count.
	ErrPrep = errors.New("preprocessing failed")
)

var _ Dataset = (*Generator)(nil)
