package imaging

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"

	// Result payloads may be png, jpeg or webp depending on the model.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"

	"falbridge/internal/falclient"
	"falbridge/pkg/types"
)

// blankSize is the edge length of the fallback image.
const blankSize = 512

// BlankImage is the uniform recovery value for every decode failure: a
// single 512x512 solid black frame in canonical batch form. Callers
// must not special-case it further.
func BlankImage() types.ImageBatch {
	return types.NewImageBatch(1, blankSize, blankSize)
}

// Decoder converts finished job payloads back into canonical image
// batches. Every failure path yields BlankImage(); callers never see
// an error from this type.
type Decoder struct {
	httpc  *http.Client
	logger zerolog.Logger
}

// NewDecoder builds a decoder. A nil httpc selects a default client
// with a generous fetch timeout.
func NewDecoder(logger zerolog.Logger, httpc *http.Client) *Decoder {
	if httpc == nil {
		httpc = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Decoder{
		httpc:  httpc,
		logger: logger.With().Str("component", "decoder").Logger(),
	}
}

// DecodeImages handles the multi-image response shape
// (images: [{url}, ...]), stacking frames along a new leading axis in
// payload order. On any failure the whole call degrades to the blank
// fallback; partial batches are never returned.
func (d *Decoder) DecodeImages(ctx context.Context, result falclient.JobResult) types.ImageBatch {
	urls, err := imageURLs(result)
	if err != nil {
		return d.fallback(err)
	}
	frames := make([]*image.NRGBA, 0, len(urls))
	for _, u := range urls {
		img, err := d.fetchImage(ctx, u)
		if err != nil {
			return d.fallback(err)
		}
		frames = append(frames, img)
	}
	batch, err := stackFrames(frames)
	if err != nil {
		return d.fallback(err)
	}
	return batch
}

// DecodeImage handles the single-image response shape (image: {url}),
// producing a batch of size 1.
func (d *Decoder) DecodeImage(ctx context.Context, result falclient.JobResult) types.ImageBatch {
	obj, ok := result["image"].(map[string]any)
	if !ok {
		return d.fallback(fmt.Errorf("result has no image object"))
	}
	u, ok := obj["url"].(string)
	if !ok {
		return d.fallback(fmt.Errorf("image object has no url"))
	}
	img, err := d.fetchImage(ctx, u)
	if err != nil {
		return d.fallback(err)
	}
	batch, err := stackFrames([]*image.NRGBA{img})
	if err != nil {
		return d.fallback(err)
	}
	return batch
}

func (d *Decoder) fallback(err error) types.ImageBatch {
	d.logger.Error().Err(err).Msg("result decode failed, returning blank image")
	return BlankImage()
}

func imageURLs(result falclient.JobResult) ([]string, error) {
	raw, ok := result["images"].([]any)
	if !ok {
		return nil, fmt.Errorf("result has no images array")
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("result images array is empty")
	}
	urls := make([]string, 0, len(raw))
	for i, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("images[%d] is not an object", i)
		}
		u, ok := obj["url"].(string)
		if !ok {
			return nil, fmt.Errorf("images[%d] has no url", i)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (d *Decoder) fetchImage(ctx context.Context, url string) (*image.NRGBA, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	src, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return toNRGBA(src), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	if img, ok := src.(*image.NRGBA); ok {
		return img
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return dst
}

// stackFrames stacks same-sized frames along a new leading axis.
func stackFrames(frames []*image.NRGBA) (types.ImageBatch, error) {
	if len(frames) == 0 {
		return types.ImageBatch{}, fmt.Errorf("no frames to stack")
	}
	w := frames[0].Bounds().Dx()
	h := frames[0].Bounds().Dy()
	batch := types.NewImageBatch(len(frames), h, w)
	for n, f := range frames {
		if f.Bounds().Dx() != w || f.Bounds().Dy() != h {
			return types.ImageBatch{}, fmt.Errorf("frame %d is %dx%d, want %dx%d", n, f.Bounds().Dx(), f.Bounds().Dy(), w, h)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px := f.NRGBAAt(x, y)
				batch.Set(n, y, x, 0, float32(px.R)/255)
				batch.Set(n, y, x, 1, float32(px.G)/255)
				batch.Set(n, y, x, 2, float32(px.B)/255)
			}
		}
	}
	return batch, nil
}
