// Package falclient is a minimal client for the fal.ai queue and
// storage APIs: upload a file for a URL, submit a job, block for its
// terminal result. Retries and rate limiting are out of scope; every
// call is a single attempt and failures surface to the caller.
package falclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultQueueURL     = "https://queue.fal.run"
	defaultRestURL      = "https://rest.alpha.fal.ai"
	defaultTimeout      = 10 * time.Minute
	defaultPollInterval = 500 * time.Millisecond
)

// JobResult is the decoded JSON payload of a finished job.
type JobResult map[string]any

// Client talks to the fal APIs. It is bound to a single API key;
// switching keys means constructing a new Client. Safe for concurrent
// use.
type Client struct {
	key          string
	httpc        *http.Client
	queueURL     string
	restURL      string
	pollInterval time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

// WithQueueURL overrides the queue base URL.
func WithQueueURL(u string) Option {
	return func(c *Client) { c.queueURL = strings.TrimRight(u, "/") }
}

// WithRestURL overrides the REST/storage base URL.
func WithRestURL(u string) Option {
	return func(c *Client) { c.restURL = strings.TrimRight(u, "/") }
}

// WithPollInterval sets the delay between status polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// New constructs a client bound to key.
func New(key string, opts ...Option) *Client {
	c := &Client{
		key:          key,
		httpc:        &http.Client{Timeout: defaultTimeout},
		queueURL:     defaultQueueURL,
		restURL:      defaultRestURL,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) auth(req *http.Request) {
	req.Header.Set("Authorization", "Key "+c.key)
}

type initiateUploadRequest struct {
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

type initiateUploadResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}

// UploadFile uploads the file at path to fal storage and returns its
// public access URL.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}

	body, err := json.Marshal(initiateUploadRequest{ContentType: ct, FileName: filepath.Base(path)})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.restURL+"/storage/upload/initiate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.auth(req)
	req.Header.Set("Content-Type", "application/json")
	var init initiateUploadResponse
	if err := c.do(req, &init); err != nil {
		return "", fmt.Errorf("initiate upload: %w", err)
	}
	if init.UploadURL == "" || init.FileURL == "" {
		return "", fmt.Errorf("initiate upload: response missing URLs")
	}

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, init.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	put.Header.Set("Content-Type", ct)
	if err := c.do(put, nil); err != nil {
		return "", fmt.Errorf("upload bytes: %w", err)
	}
	return init.FileURL, nil
}

type queuedJob struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

// JobHandle tracks one submitted job. Handles stay valid even if the
// owning store later rebuilds its client for a new key.
type JobHandle struct {
	c           *Client
	RequestID   string
	statusURL   string
	responseURL string
}

// Submit enqueues arguments on the named endpoint (e.g.
// "fal-ai/flux/dev") and returns a handle for awaiting the result.
func (c *Client) Submit(ctx context.Context, endpoint string, args map[string]any) (*JobHandle, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queueURL+"/"+strings.Trim(endpoint, "/"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.auth(req)
	req.Header.Set("Content-Type", "application/json")
	var q queuedJob
	if err := c.do(req, &q); err != nil {
		return nil, fmt.Errorf("submit %s: %w", endpoint, err)
	}
	if q.StatusURL == "" || q.ResponseURL == "" {
		return nil, fmt.Errorf("submit %s: queue response missing status/response URLs", endpoint)
	}
	return &JobHandle{c: c, RequestID: q.RequestID, statusURL: q.StatusURL, responseURL: q.ResponseURL}, nil
}

type jobStatus struct {
	Status string `json:"status"`
}

// Terminal queue states. Anything else means the job is still queued
// or running.
const (
	statusCompleted = "COMPLETED"
	statusFailed    = "FAILED"
)

// Get blocks until the job reaches a terminal state and returns the
// response payload. A FAILED status or any transport error surfaces to
// the caller; there is no retry.
func (h *JobHandle) Get(ctx context.Context) (JobResult, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.statusURL, nil)
		if err != nil {
			return nil, err
		}
		h.c.auth(req)
		var st jobStatus
		if err := h.c.do(req, &st); err != nil {
			return nil, fmt.Errorf("poll status: %w", err)
		}
		switch st.Status {
		case statusCompleted:
			return h.fetchResult(ctx)
		case statusFailed:
			return nil, fmt.Errorf("job %s failed", h.RequestID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(h.c.pollInterval):
		}
	}
}

func (h *JobHandle) fetchResult(ctx context.Context) (JobResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.responseURL, nil)
	if err != nil {
		return nil, err
	}
	h.c.auth(req)
	var out JobResult
	if err := h.c.do(req, &out); err != nil {
		return nil, fmt.Errorf("fetch result: %w", err)
	}
	return out, nil
}

// do executes req and decodes a JSON body into out when out is
// non-nil. Non-2xx responses become errors carrying a body snippet.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
