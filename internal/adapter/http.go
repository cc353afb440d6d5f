package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dkotelnikov/go-sync-ledger/models"
)

// HTTPClientConfig configures [NewHTTPEngineClient].
type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type httpEngineClient struct {
	client *resty.Client
}

// NewHTTPEngineClient constructs an HTTP/REST implementation of
// [EngineClient]. The base URL is normalised: a missing scheme defaults to
// http and trailing slashes are stripped.
func NewHTTPEngineClient(cfg HTTPClientConfig) (EngineClient, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid engine address: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &httpEngineClient{client: cli}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (h *httpEngineClient) RegisterDevice(ctx context.Context, req models.RegisterDeviceRequest) (models.DeviceSync, error) {
	var device models.DeviceSync
	if err := h.post(ctx, "/api/devices/register", req, &device); err != nil {
		return models.DeviceSync{}, fmt.Errorf("register device: %w", err)
	}
	return device, nil
}

func (h *httpEngineClient) Pull(ctx context.Context, req models.PullRequest) (models.PullResult, error) {
	var result models.PullResult
	if err := h.post(ctx, "/api/sync/pull", req, &result); err != nil {
		return models.PullResult{}, fmt.Errorf("pull: %w", err)
	}
	return result, nil
}

func (h *httpEngineClient) Push(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
	var result models.PushResult
	if err := h.post(ctx, "/api/sync/push", req, &result); err != nil {
		return models.PushResult{}, fmt.Errorf("push: %w", err)
	}
	return result, nil
}

func (h *httpEngineClient) Sync(ctx context.Context, req models.SyncRequest) (models.SyncResult, error) {
	var result models.SyncResult
	if err := h.post(ctx, "/api/sync", req, &result); err != nil {
		return models.SyncResult{}, fmt.Errorf("sync: %w", err)
	}
	return result, nil
}

func (h *httpEngineClient) ListConflicts(ctx context.Context, deviceID string) ([]models.PendingConflict, error) {
	req := h.client.R().SetContext(ctx)
	if deviceID != "" {
		req.SetQueryParam("device_id", deviceID)
	}

	resp, err := req.Get("/api/conflicts")
	if err != nil {
		return nil, fmt.Errorf("list conflicts request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}

	var response models.ConflictListResponse
	if err = json.Unmarshal(resp.Body(), &response); err != nil {
		return nil, fmt.Errorf("decode conflict list: %w", err)
	}

	return response.Conflicts, nil
}

func (h *httpEngineClient) ResolveConflict(ctx context.Context, conflictID int64, req models.ResolveConflictRequest) (models.ResolveResult, error) {
	var result models.ResolveResult
	path := "/api/conflicts/" + strconv.FormatInt(conflictID, 10) + "/resolve"
	if err := h.post(ctx, path, req, &result); err != nil {
		return models.ResolveResult{}, fmt.Errorf("resolve conflict %d: %w", conflictID, err)
	}
	return result, nil
}

func (h *httpEngineClient) ServerVersion(ctx context.Context) (string, error) {
	resp, err := h.client.R().SetContext(ctx).Get("/api/version")
	if err != nil {
		return "", fmt.Errorf("server version request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", fmt.Errorf("server version: %w", err)
	}

	return strings.TrimSpace(string(resp.Body())), nil
}

func (h *httpEngineClient) post(ctx context.Context, path string, body, out any) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	if out != nil {
		if err = json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
