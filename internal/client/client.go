// Package client talks to a running codeartd over its HTTP API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talgya/codeart/internal/scene"
	"github.com/talgya/codeart/internal/studio"
)

// Status mirrors GET /api/v1/status.
type Status struct {
	Name      string                `json:"name"`
	Seed      int64                 `json:"seed"`
	Rows      int                   `json:"rows"`
	Cols      int                   `json:"cols"`
	Algorithm scene.HeightAlgorithm `json:"algorithm"`
	Mode      studio.Mode           `json:"mode"`
	Presets   int                   `json:"presets"`
	MaxCells  int                   `json:"max_cells"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Code, e.Message)
}

// Client calls the studio API. AdminKey is only needed for preset writes.
type Client struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// New creates a Client targeting the given API base URL.
func New(baseURL, adminKey string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Status fetches the server status.
func (c *Client) Status() (*Status, error) {
	var st Status
	if err := c.do(http.MethodGet, "/api/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Scene generates from the server's current parameters.
func (c *Client) Scene() (scene.SceneElements, error) {
	var elements scene.SceneElements
	err := c.do(http.MethodGet, "/api/v1/scene", nil, &elements)
	return elements, err
}

// GenerateScene generates from p without changing the server's session.
func (c *Client) GenerateScene(p scene.ArtParams) (scene.SceneElements, error) {
	var elements scene.SceneElements
	err := c.do(http.MethodPost, "/api/v1/scene", p, &elements)
	return elements, err
}

// Params fetches the server's current parameters.
func (c *Client) Params() (scene.ArtParams, error) {
	var p scene.ArtParams
	err := c.do(http.MethodGet, "/api/v1/params", nil, &p)
	return p, err
}

// PatchParams merges patch into the server's parameters and returns the result.
func (c *Client) PatchParams(patch studio.Patch) (scene.ArtParams, error) {
	var p scene.ArtParams
	err := c.do(http.MethodPatch, "/api/v1/params", patch, &p)
	return p, err
}

// SetSeed sets the server's seed. A nil seed asks the server to pick one.
func (c *Client) SetSeed(seed *int64) (int64, error) {
	var resp struct {
		Seed int64 `json:"seed"`
	}
	var body any
	if seed != nil {
		body = map[string]int64{"seed": *seed}
	}
	err := c.do(http.MethodPost, "/api/v1/seed", body, &resp)
	return resp.Seed, err
}

// Presets lists built-in and user presets.
func (c *Client) Presets() ([]studio.Preset, error) {
	var presets []studio.Preset
	err := c.do(http.MethodGet, "/api/v1/presets", nil, &presets)
	return presets, err
}

// SavePreset stores the server's current parameters under name.
func (c *Client) SavePreset(name string) (*studio.Preset, error) {
	var p studio.Preset
	if err := c.do(http.MethodPost, "/api/v1/presets", map[string]string{"name": name}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPreset makes the preset the server's current parameters.
func (c *Client) LoadPreset(id string) (*studio.Preset, error) {
	var p studio.Preset
	if err := c.do(http.MethodPost, "/api/v1/preset/"+id+"/load", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePreset removes a user preset.
func (c *Client) DeletePreset(id string) error {
	return c.do(http.MethodDelete, "/api/v1/preset/"+id, nil, nil)
}

// WaitReady polls the status endpoint with exponential backoff until it
// responds or timeout elapses.
func (c *Client) WaitReady(timeout time.Duration) error {
	backoff := 250 * time.Millisecond
	maxBackoff := 5 * time.Second
	deadline := time.Now().Add(timeout)

	for {
		_, err := c.Status()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("API not ready after %s: %w", timeout, err)
		}
		slog.Debug("API not ready, retrying...", "backoff", backoff, "error", err)
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
}

// do sends body as JSON (when non-nil) and decodes the response into target
// (when non-nil).
func (c *Client) do(method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AdminKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.AdminKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return &StatusError{
			Method:  method,
			Path:    path,
			Code:    resp.StatusCode,
			Message: strings.TrimSpace(string(msg)),
		}
	}

	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
