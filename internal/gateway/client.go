// Package gateway is the only component that talks to the toll/route
// simulation backend. It serializes requests and surfaces failures; it does
// not interpret payloads and never retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/toll-scenario/internal/models"
)

// Backend endpoints
const (
	PathTollZones      = "/toll_zones"
	PathHighways       = "/highways"
	PathSimulate       = "/simulate"
	PathUploadTracks   = "/upload_gps_tracks"
	PathDownloadTracks = "/download_gps_tracks"
)

var ErrUnexpectedStatus = errors.New("unexpected backend status")

// StatusError carries the status code of a failed backend call.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Client calls the backend over HTTP with JSON bodies.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client. token is sent as a bearer token when non-empty.
// A zero timeout means no client-side timeout.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchTollZones returns the toll-zone polygons.
func (c *Client) FetchTollZones(ctx context.Context) ([]models.TollZone, error) {
	var zones []models.TollZone
	if err := c.do(ctx, http.MethodGet, PathTollZones, nil, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

// FetchHighways returns the highway geometries.
func (c *Client) FetchHighways(ctx context.Context) ([]models.Highway, error) {
	var highways []models.Highway
	if err := c.do(ctx, http.MethodGet, PathHighways, nil, &highways); err != nil {
		return nil, err
	}
	return highways, nil
}

// Simulate submits a scenario and returns the per-vehicle results.
func (c *Client) Simulate(ctx context.Context, payload models.ScenarioPayload) ([]models.SimulationResult, error) {
	var results []models.SimulationResult
	if err := c.do(ctx, http.MethodPost, PathSimulate, payload, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// UploadTracks triggers GPS track ingestion.
func (c *Client) UploadTracks(ctx context.Context, req models.UploadTracksRequest) (models.TrackResponse, error) {
	var resp models.TrackResponse
	if err := c.do(ctx, http.MethodPost, PathUploadTracks, req, &resp); err != nil {
		return models.TrackResponse{}, err
	}
	return resp, nil
}

// DownloadTracks fetches the routes computed for an earlier asynchronous upload.
func (c *Client) DownloadTracks(ctx context.Context, req models.DownloadTracksRequest) (models.TrackResponse, error) {
	var resp models.TrackResponse
	if err := c.do(ctx, http.MethodPost, PathDownloadTracks, req, &resp); err != nil {
		return models.TrackResponse{}, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	log.WithFields(log.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("Backend call completed")
	return nil
}
