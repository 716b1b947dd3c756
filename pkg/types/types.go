package types

import "fmt"

// Tensor is a dense float32 array as handed over by the host graph.
// Shape is outermost-first and Data is laid out row-major; Data must
// hold exactly the product of Shape.
type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// Rank returns the number of dimensions.
func (t Tensor) Rank() int { return len(t.Shape) }

// Elems returns the number of elements implied by Shape.
func (t Tensor) Elems() int {
	if len(t.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Validate checks that every dimension is positive and that Data
// matches Shape.
func (t Tensor) Validate() error {
	for _, d := range t.Shape {
		if d <= 0 {
			return fmt.Errorf("tensor: non-positive dimension %d in shape %v", d, t.Shape)
		}
	}
	if len(t.Data) != t.Elems() {
		return fmt.Errorf("tensor: have %d elements, shape %v wants %d", len(t.Data), t.Shape, t.Elems())
	}
	return nil
}

// BatchElem returns element i of a rank-4 batch tensor as a rank-3
// view sharing the underlying data.
func (t Tensor) BatchElem(i int) (Tensor, error) {
	if t.Rank() != 4 {
		return Tensor{}, fmt.Errorf("tensor: BatchElem needs rank 4, got %d", t.Rank())
	}
	if i < 0 || i >= t.Shape[0] {
		return Tensor{}, fmt.Errorf("tensor: batch index %d out of range [0,%d)", i, t.Shape[0])
	}
	stride := t.Shape[1] * t.Shape[2] * t.Shape[3]
	return Tensor{
		Shape: []int{t.Shape[1], t.Shape[2], t.Shape[3]},
		Data:  t.Data[i*stride : (i+1)*stride],
	}, nil
}

// ImageBatch is the canonical in-process image representation: a batch
// of N RGB images laid out (N, H, W, 3), values float32 in [0,1].
// Every image crossing a subsystem boundary uses this form, the
// failure fallback included.
type ImageBatch struct {
	N, H, W int
	Data    []float32
}

// NewImageBatch allocates a zeroed (solid black) batch.
func NewImageBatch(n, h, w int) ImageBatch {
	return ImageBatch{N: n, H: h, W: w, Data: make([]float32, n*h*w*3)}
}

// At returns channel c of pixel (x, y) in image n.
func (b ImageBatch) At(n, y, x, c int) float32 {
	return b.Data[((n*b.H+y)*b.W+x)*3+c]
}

// Set assigns channel c of pixel (x, y) in image n.
func (b ImageBatch) Set(n, y, x, c int, v float32) {
	b.Data[((n*b.H+y)*b.W+x)*3+c] = v
}

// Tensor converts the batch to its rank-4 tensor form.
func (b ImageBatch) Tensor() Tensor {
	return Tensor{Shape: []int{b.N, b.H, b.W, 3}, Data: b.Data}
}
