package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"falbridge/pkg/types"
)

type mockKeyStore struct {
	key, name string
	setCalls  int
}

func (m *mockKeyStore) SetKey(key, name string) {
	m.key, m.name = key, name
	m.setCalls++
}

func (m *mockKeyStore) KeyDisplayName() string {
	if m.name != "" {
		return m.name
	}
	return "config.ini / env"
}

type mockNodeLister struct{ descs []types.NodeDescriptor }

func (m *mockNodeLister) Descriptors() []types.NodeDescriptor { return m.descs }

func newTestMux(store *mockKeyStore) http.Handler {
	nodes := &mockNodeLister{descs: []types.NodeDescriptor{{ID: "TextToImage", DisplayName: "Text To Image"}}}
	return NewMux(store, nodes, NewEventHub(zerolog.Nop()))
}

func TestSetKey(t *testing.T) {
	store := &mockKeyStore{}
	mux := newTestMux(store)

	req := httptest.NewRequest(http.MethodPost, "/fal-api/set-key", strings.NewReader(`{"key":" k1 ","name":" work "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp types.SetKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.ActiveKeyName != "work" {
		t.Fatalf("response %+v", resp)
	}
	if store.key != "k1" || store.name != "work" {
		t.Fatalf("store got key=%q name=%q", store.key, store.name)
	}
	// the raw key never appears in the response
	if strings.Contains(rec.Body.String(), "k1") {
		t.Fatalf("response leaks the key: %s", rec.Body.String())
	}
}

func TestSetKeyBlankKeyRejected(t *testing.T) {
	store := &mockKeyStore{}
	mux := newTestMux(store)

	for _, body := range []string{`{"key":""}`, `{"key":"   "}`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/fal-api/set-key", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status %d", body, rec.Code)
		}
	}
	if store.setCalls != 0 {
		t.Fatalf("blank key must leave the credential untouched, SetKey called %d times", store.setCalls)
	}
}

func TestSetKeyBadRequests(t *testing.T) {
	store := &mockKeyStore{}
	mux := newTestMux(store)

	req := httptest.NewRequest(http.MethodPost, "/fal-api/set-key", strings.NewReader(`{"key":"k"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("content type: status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/fal-api/set-key", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status %d", rec.Code)
	}
	var errResp types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errResp.Error == "" || errResp.Code != http.StatusBadRequest {
		t.Fatalf("error body %+v", errResp)
	}
}

func TestActiveKeyInfo(t *testing.T) {
	store := &mockKeyStore{}
	mux := newTestMux(store)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fal-api/active-key-info", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp types.KeyInfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ActiveKeyName != "config.ini / env" {
		t.Fatalf("active key name %q", resp.ActiveKeyName)
	}

	store.name = "lab"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fal-api/active-key-info", nil))
	var resp2 types.KeyInfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp2); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp2.ActiveKeyName != "lab" {
		t.Fatalf("active key name %q", resp2.ActiveKeyName)
	}
}

func TestNodesEndpoint(t *testing.T) {
	mux := newTestMux(&mockKeyStore{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nodes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp types.NodesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Nodes) != 1 || resp.Nodes[0].ID != "TextToImage" {
		t.Fatalf("nodes %+v", resp.Nodes)
	}
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(&mockKeyStore{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux := newTestMux(&mockKeyStore{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}
