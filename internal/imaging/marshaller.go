package imaging

import (
	"context"
	"image/png"
	"os"

	"github.com/rs/zerolog"

	"falbridge/internal/credentials"
	"falbridge/pkg/types"
)

// Marshaller turns host tensors into remote URLs via the store's
// client. All failures here are soft: logged once and reported as
// ok=false, never as an error to the caller.
type Marshaller struct {
	store  *credentials.Store
	logger zerolog.Logger
}

// NewMarshaller wires a marshaller to the shared credential store.
func NewMarshaller(store *credentials.Store, logger zerolog.Logger) *Marshaller {
	return &Marshaller{
		store:  store,
		logger: logger.With().Str("component", "marshaller").Logger(),
	}
}

// UploadImage renders the tensor to a temporary PNG and uploads it.
// The temporary file is removed on every exit path.
func (m *Marshaller) UploadImage(ctx context.Context, t types.Tensor) (string, bool) {
	img, err := TensorToImage(t)
	if err != nil {
		m.logger.Error().Err(err).Msg("tensor conversion failed, skipping upload")
		return "", false
	}
	f, err := os.CreateTemp("", "falbridge-*.png")
	if err != nil {
		m.logger.Error().Err(err).Msg("create temp file")
		return "", false
	}
	path := f.Name()
	defer os.Remove(path)
	encodeErr := png.Encode(f, img)
	closeErr := f.Close()
	if encodeErr != nil {
		m.logger.Error().Err(encodeErr).Msg("write temp png")
		return "", false
	}
	if closeErr != nil {
		m.logger.Error().Err(closeErr).Msg("close temp png")
		return "", false
	}
	url, err := m.store.Client().UploadFile(ctx, path)
	if err != nil {
		m.logger.Error().Err(err).Msg("image upload failed")
		return "", false
	}
	return url, true
}

// UploadRawFile uploads an existing file as-is.
func (m *Marshaller) UploadRawFile(ctx context.Context, path string) (string, bool) {
	url, err := m.store.Client().UploadFile(ctx, path)
	if err != nil {
		m.logger.Error().Err(err).Str("path", path).Msg("file upload failed")
		return "", false
	}
	return url, true
}

// PrepareImages uploads every image in t and returns the successful
// URLs in input order. Failed elements are dropped, so the result may
// be shorter than the batch; a nil tensor yields no URLs.
func (m *Marshaller) PrepareImages(ctx context.Context, t *types.Tensor) []string {
	if t == nil {
		return nil
	}
	if t.Rank() == 4 && t.Shape[0] > 1 {
		var urls []string
		for i := 0; i < t.Shape[0]; i++ {
			elem, err := t.BatchElem(i)
			if err != nil {
				m.logger.Error().Err(err).Int("index", i).Msg("bad batch element, skipping")
				continue
			}
			if url, ok := m.UploadImage(ctx, elem); ok {
				urls = append(urls, url)
			}
		}
		return urls
	}
	if url, ok := m.UploadImage(ctx, *t); ok {
		return []string{url}
	}
	return nil
}

// PrepareImageList is the slice form of PrepareImages, for callers
// holding independent single images rather than a batch tensor.
func (m *Marshaller) PrepareImageList(ctx context.Context, ts []types.Tensor) []string {
	var urls []string
	for _, t := range ts {
		if url, ok := m.UploadImage(ctx, t); ok {
			urls = append(urls, url)
		}
	}
	return urls
}
