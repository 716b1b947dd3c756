package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"falbridge/internal/credentials"
	"falbridge/internal/falclient"
)

func testRunner(t *testing.T, srv *httptest.Server) *Runner {
	t.Helper()
	t.Setenv(credentials.EnvKey, "test-key")
	store := credentials.NewStore("", zerolog.Nop(),
		falclient.WithQueueURL(srv.URL),
		falclient.WithHTTPClient(srv.Client()),
		falclient.WithPollInterval(time.Millisecond))
	return NewRunner(store, zerolog.Nop())
}

func TestSubmitAndWait(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("POST /fal-ai/flux/dev", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"request_id":   "r1",
			"status_url":   srv.URL + "/status",
			"response_url": srv.URL + "/response",
		})
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "COMPLETED"})
	})
	mux.HandleFunc("GET /response", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	r := testRunner(t, srv)
	res, err := r.SubmitAndWait(context.Background(), "fal-ai/flux/dev", map[string]any{"prompt": "x"})
	if err != nil {
		t.Fatalf("SubmitAndWait: %v", err)
	}
	if res["ok"] != true {
		t.Fatalf("result %v", res)
	}
}

func TestSubmitAndWaitSubmissionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	r := testRunner(t, srv)
	if _, err := r.SubmitAndWait(context.Background(), "m", nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSubmitAndWaitFailedJob(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("POST /m", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"request_id":   "r2",
			"status_url":   srv.URL + "/status",
			"response_url": srv.URL + "/response",
		})
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "FAILED"})
	})

	r := testRunner(t, srv)
	if _, err := r.SubmitAndWait(context.Background(), "m", nil); err == nil {
		t.Fatalf("expected error for failed job")
	}
}

func TestErrorHandlers(t *testing.T) {
	r := NewRunner(nil, zerolog.Nop())
	err := errors.New("boom")

	b := r.ImageError("fal-ai/flux/dev", err)
	if b.N != 1 || b.H != 512 || b.W != 512 {
		t.Fatalf("image fallback shape %dx%dx%d", b.N, b.H, b.W)
	}
	for _, v := range b.Data {
		if v != 0 {
			t.Fatalf("image fallback is not black")
		}
	}
	if got := r.VideoError("m", err); got != "Error: Unable to generate video." {
		t.Fatalf("video fallback %q", got)
	}
	if got := r.TextError("m", err); got != "Error: Unable to generate text." {
		t.Fatalf("text fallback %q", got)
	}
}
