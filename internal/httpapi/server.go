package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"falbridge/pkg/types"
)

// KeyStore is the credential surface the HTTP layer needs.
type KeyStore interface {
	SetKey(key, name string)
	KeyDisplayName() string
}

// NodeLister exposes node descriptors for the host editor.
type NodeLister interface {
	Descriptors() []types.NodeDescriptor
}

// maxBodyBytes controls the maximum allowed request body size for JSON
// endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// zlog is an optional structured logger for the HTTP layer.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// NewMux builds the bridge's HTTP surface: credential switching and
// inspection, the key-status event stream, node descriptors, health
// and metrics.
func NewMux(store KeyStore, nodes NodeLister, hub *EventHub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	// The host frontend calls these routes from the browser.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(MetricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/fal-api/set-key", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.SetKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		key := strings.TrimSpace(req.Key)
		if key == "" {
			// Leave the active credential untouched.
			writeJSONError(w, http.StatusBadRequest, "no key provided")
			return
		}
		store.SetKey(key, strings.TrimSpace(req.Name))
		if zlog != nil {
			zlog.Info().Str("key_name", store.KeyDisplayName()).Msg("key switched via API")
		}
		writeJSON(w, types.SetKeyResponse{Status: "ok", ActiveKeyName: store.KeyDisplayName()})
	})

	// Returns the display name of the active key, never the key itself.
	r.Get("/fal-api/active-key-info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.KeyInfoResponse{ActiveKeyName: store.KeyDisplayName()})
	})

	r.Get("/fal-api/events", sseHandler(hub))

	r.Get("/nodes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.NodesResponse{Nodes: nodes.Descriptors()})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// sseHandler streams hub events to one observer as server-sent events.
func sseHandler(hub *EventHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fl, ok := w.(http.Flusher)
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		fl.Flush()

		ch := hub.Subscribe()
		defer hub.Unsubscribe(ch)
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, open := <-ch:
				if !open {
					return
				}
				payload, err := json.Marshal(ev.Data)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, payload)
				fl.Flush()
			}
		}
	}
}
