package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"falbridge/internal/falclient"
	"falbridge/pkg/types"
)

func pngBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func isBlank(t *testing.T, b types.ImageBatch) {
	t.Helper()
	if b.N != 1 || b.H != 512 || b.W != 512 {
		t.Fatalf("fallback shape %dx%dx%d", b.N, b.H, b.W)
	}
	for _, v := range b.Data {
		if v != 0 {
			t.Fatalf("fallback is not solid black")
		}
	}
}

func TestDecodeImagesStacksInOrder(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	red := pngBytes(t, 4, 4, color.NRGBA{R: 255, A: 255})
	green := pngBytes(t, 4, 4, color.NRGBA{G: 255, A: 255})
	mux.HandleFunc("/red.png", func(w http.ResponseWriter, r *http.Request) { w.Write(red) })
	mux.HandleFunc("/green.png", func(w http.ResponseWriter, r *http.Request) { w.Write(green) })

	d := NewDecoder(zerolog.Nop(), srv.Client())
	result := falclient.JobResult{"images": []any{
		map[string]any{"url": srv.URL + "/red.png"},
		map[string]any{"url": srv.URL + "/green.png"},
	}}
	b := d.DecodeImages(context.Background(), result)
	if b.N != 2 || b.H != 4 || b.W != 4 {
		t.Fatalf("batch shape %dx%dx%d", b.N, b.H, b.W)
	}
	if b.At(0, 0, 0, 0) != 1 || b.At(0, 0, 0, 1) != 0 {
		t.Fatalf("frame 0 is not red")
	}
	if b.At(1, 0, 0, 1) != 1 || b.At(1, 0, 0, 0) != 0 {
		t.Fatalf("frame 1 is not green")
	}
}

func TestDecodeImagesFallsBackOnFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDecoder(zerolog.Nop(), srv.Client())
	result := falclient.JobResult{"images": []any{map[string]any{"url": srv.URL + "/x.png"}}}
	isBlank(t, d.DecodeImages(context.Background(), result))
}

func TestDecodeImagesFallsBackOnBadPayload(t *testing.T) {
	d := NewDecoder(zerolog.Nop(), nil)
	for _, result := range []falclient.JobResult{
		{},
		{"images": []any{}},
		{"images": []any{"not an object"}},
		{"images": []any{map[string]any{"width": float64(4)}}},
	} {
		isBlank(t, d.DecodeImages(context.Background(), result))
	}
}

func TestDecodeImagesFallsBackOnMixedSizes(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	small := pngBytes(t, 2, 2, color.NRGBA{A: 255})
	big := pngBytes(t, 4, 4, color.NRGBA{A: 255})
	mux.HandleFunc("/a.png", func(w http.ResponseWriter, r *http.Request) { w.Write(small) })
	mux.HandleFunc("/b.png", func(w http.ResponseWriter, r *http.Request) { w.Write(big) })

	d := NewDecoder(zerolog.Nop(), srv.Client())
	result := falclient.JobResult{"images": []any{
		map[string]any{"url": srv.URL + "/a.png"},
		map[string]any{"url": srv.URL + "/b.png"},
	}}
	isBlank(t, d.DecodeImages(context.Background(), result))
}

func TestDecodeImageSingle(t *testing.T) {
	blue := pngBytes(t, 3, 3, color.NRGBA{B: 255, A: 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(blue)
	}))
	defer srv.Close()

	d := NewDecoder(zerolog.Nop(), srv.Client())
	b := d.DecodeImage(context.Background(), falclient.JobResult{
		"image": map[string]any{"url": srv.URL + "/img.png"},
	})
	if b.N != 1 || b.H != 3 || b.W != 3 {
		t.Fatalf("batch shape %dx%dx%d", b.N, b.H, b.W)
	}
	if b.At(0, 1, 1, 2) != 1 {
		t.Fatalf("frame is not blue")
	}

	isBlank(t, d.DecodeImage(context.Background(), falclient.JobResult{}))
}

func TestBlankImage(t *testing.T) {
	isBlank(t, BlankImage())
}
