package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Batch stores one generator step in flat contiguous buffers.
//
// Features is row-major with shape [BatchSize, Timesteps, NumFeatures].
// Targets is row-major with shape [BatchSize, NumTargets], or nil when the
// generator does not return targets.
type Batch struct {
	// Rows are the target row indices, one per example.
	Rows []int

	Features []float32
	Targets  []float32

	BatchSize   int
	Timesteps   int
	NumFeatures int
	NumTargets  int
}

func newBatch(rows []int, timesteps, numFeatures, numTargets int, withTargets bool) *Batch {
	b := &Batch{
		Rows:        rows,
		Features:    make([]float32, len(rows)*timesteps*numFeatures),
		BatchSize:   len(rows),
		Timesteps:   timesteps,
		NumFeatures: numFeatures,
	}
	if withTargets {
		b.NumTargets = numTargets
		b.Targets = make([]float32, len(rows)*numTargets)
	}
	return b
}

// Shape returns the feature tensor dimensions.
func (b *Batch) Shape() []int {
	return []int{b.BatchSize, b.Timesteps, b.NumFeatures}
}

// TargetShape returns the target tensor dimensions, or nil without targets.
func (b *Batch) TargetShape() []int {
	if b.Targets == nil {
		return nil
	}
	return []int{b.BatchSize, b.NumTargets}
}

// HasTargets reports whether the batch carries a target buffer.
func (b *Batch) HasTargets() bool {
	return b.Targets != nil
}

func (b *Batch) featureOffset(i, step int) int {
	return (i*b.Timesteps + step) * b.NumFeatures
}

// Feature returns feature f at window step of example i.
func (b *Batch) Feature(i, step, f int) float32 {
	return b.Features[b.featureOffset(i, step)+f]
}

// Target returns target k of example i.
func (b *Batch) Target(i, k int) float32 {
	return b.Targets[i*b.NumTargets+k]
}

// Window returns the [Timesteps][NumFeatures] view of example i. The inner
// slices alias the batch buffer.
func (b *Batch) Window(i int) [][]float32 {
	w := make([][]float32, b.Timesteps)
	for s := range b.Timesteps {
		off := b.featureOffset(i, s)
		w[s] = b.Features[off : off+b.NumFeatures]
	}
	return w
}

// ToGomlxTensors converts the batch to gomlx tensors. The label tensor is nil
// when the batch has no targets.
func (b *Batch) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	if want := b.BatchSize * b.Timesteps * b.NumFeatures; len(b.Features) != want {
		return nil, nil, fmt.Errorf("feature buffer has %d values, shape %v needs %d",
			len(b.Features), b.Shape(), want)
	}
	if b.BatchSize == 0 || b.Timesteps == 0 || b.NumFeatures == 0 {
		return tensors.FromAnyValue(make([][][]float32, 0)), nil, nil
	}

	// Reshape flat buffer into 3D slice
	data := make([][][]float32, b.BatchSize)
	for i := range b.BatchSize {
		data[i] = b.Window(i)
	}
	inT := tensors.FromAnyValue(data)

	if b.Targets == nil {
		return inT, nil, nil
	}
	if want := b.BatchSize * b.NumTargets; len(b.Targets) != want {
		return nil, nil, fmt.Errorf("target buffer has %d values, shape %v needs %d",
			len(b.Targets), b.TargetShape(), want)
	}
	labels := make([][]float32, b.BatchSize)
	for i := range b.BatchSize {
		labels[i] = b.Targets[i*b.NumTargets : (i+1)*b.NumTargets]
	}
	labT := tensors.FromAnyValue(labels)
	return inT, labT, nil
}
