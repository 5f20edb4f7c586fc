package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPKV talks to a managed key-value service over REST:
//
//	GET    {base}/kv/{key}         -> raw JSON value, 404 when absent
//	PUT    {base}/kv/{key}         <- raw JSON value
//	DELETE {base}/kv/{key}
//	GET    {base}/kv?prefix={p}    -> [{"key": ..., "value": ...}]
type HTTPKV struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPKV builds a client for baseURL. A zero timeout means 10s.
func NewHTTPKV(baseURL, apiKey string, timeout time.Duration) *HTTPKV {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPKV{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPKV) keyURL(key string) string {
	return h.baseURL + "/kv/" + url.PathEscape(key)
}

func (h *HTTPKV) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, target, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

func (h *HTTPKV) Get(ctx context.Context, key string) ([]byte, error) {
	return h.do(ctx, http.MethodGet, h.keyURL(key), nil)
}

func (h *HTTPKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := h.do(ctx, http.MethodPut, h.keyURL(key), value)
	return err
}

func (h *HTTPKV) Delete(ctx context.Context, key string) error {
	_, err := h.do(ctx, http.MethodDelete, h.keyURL(key), nil)
	return err
}

func (h *HTTPKV) List(ctx context.Context, prefix string) ([]Entry, error) {
	data, err := h.do(ctx, http.MethodGet, h.baseURL+"/kv?prefix="+url.QueryEscape(prefix), nil)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return entries, nil
}
