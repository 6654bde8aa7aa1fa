package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"evolve/internal/service"
)

// Client is an Uploader that posts documents to a running API server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// Health fails unless GET /health answers 200 with a healthy status.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to API at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API is not healthy: %s", resp.Status)
	}
	var report service.HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return fmt.Errorf("decode health: %w", err)
	}
	if report.Status != "healthy" {
		return fmt.Errorf("API is not healthy: %s", report.Error)
	}
	return nil
}

func (c *Client) Upload(ctx context.Context, upload service.UploadRequest) (service.UploadResult, error) {
	body, err := json.Marshal(upload)
	if err != nil {
		return service.UploadResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(body))
	if err != nil {
		return service.UploadResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return service.UploadResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return service.UploadResult{}, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	var out service.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return service.UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}
	return out, nil
}
