// Package imaging converts between host tensors and the media the
// remote API speaks: tensors out to PNG uploads, result URLs back into
// canonical image batches.
package imaging

import (
	"fmt"
	"image"
	"image/color"

	"falbridge/pkg/types"
)

// TensorToImage normalizes a host tensor into an 8-bit RGB image.
//
// Accepted ranks: 2 (grayscale, broadcast to three channels), 3
// (single image, channel-first when the leading dimension is 3,
// channel-last otherwise), 4 (batch; only the first element is used).
// Values are treated as floats in [0,1], scaled by 255 and clamped.
func TensorToImage(t types.Tensor) (*image.NRGBA, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Rank() == 4 {
		elem, err := t.BatchElem(0)
		if err != nil {
			return nil, err
		}
		t = elem
	}

	var h, w int
	var at func(y, x, c int) float32

	switch {
	case t.Rank() == 2:
		h, w = t.Shape[0], t.Shape[1]
		at = func(y, x, _ int) float32 { return t.Data[y*w+x] }
	case t.Rank() == 3 && t.Shape[0] == 3:
		// channel-first (3, H, W)
		h, w = t.Shape[1], t.Shape[2]
		at = func(y, x, c int) float32 { return t.Data[(c*h+y)*w+x] }
	case t.Rank() == 3:
		// channel-last (H, W, C)
		ch := t.Shape[2]
		if ch != 1 && ch != 3 {
			return nil, fmt.Errorf("imaging: unsupported channel count %d", ch)
		}
		h, w = t.Shape[0], t.Shape[1]
		at = func(y, x, c int) float32 {
			if ch == 1 {
				c = 0
			}
			return t.Data[(y*w+x)*ch+c]
		}
	default:
		return nil, fmt.Errorf("imaging: unsupported tensor rank %d", t.Rank())
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: clamp255(at(y, x, 0)),
				G: clamp255(at(y, x, 1)),
				B: clamp255(at(y, x, 2)),
				A: 255,
			})
		}
	}
	return img, nil
}

func clamp255(v float32) uint8 {
	s := v * 255
	if s < 0 {
		return 0
	}
	if s > 255 {
		return 255
	}
	return uint8(s)
}
