package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gazetteer-data/common/config"
	"gazetteer-data/internal/domain"
	"gazetteer-data/internal/repository"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const codeSuccess = 2000

// envelope mirrors the Result wrapper the gazetteer API answers with.
type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// GazetteerClient fetches related-properties lists from a remote gazetteer API.
type GazetteerClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

var _ repository.PropertySource = (*GazetteerClient)(nil)

func NewGazetteerClient(cfg *config.HTTPClientConfig, logger *zap.Logger) *GazetteerClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json")

	return &GazetteerClient{httpClient: client, logger: logger}
}

func (c *GazetteerClient) ListByStreet(ctx context.Context, usrn int64) ([]domain.PropertyNode, error) {
	if usrn <= 0 {
		return nil, fmt.Errorf("usrn is required")
	}
	return c.fetch(ctx, "/properties", map[string]string{"usrn": strconv.FormatInt(usrn, 10)})
}

func (c *GazetteerClient) ListRelated(ctx context.Context, uprn int64) ([]domain.PropertyNode, error) {
	if uprn <= 0 {
		return nil, fmt.Errorf("uprn is required")
	}
	return c.fetch(ctx, "/properties/"+strconv.FormatInt(uprn, 10)+"/related", nil)
}

func (c *GazetteerClient) fetch(ctx context.Context, path string, query map[string]string) ([]domain.PropertyNode, error) {
	var body envelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(&body).
		Get(path)
	if err != nil {
		c.logger.Error("Gazetteer API call failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to call gazetteer API: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("Gazetteer API returned HTTP error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("gazetteer API error: HTTP %d", resp.StatusCode())
	}
	if body.Code != codeSuccess {
		c.logger.Error("Gazetteer API returned error",
			zap.String("path", path),
			zap.Int("code", body.Code),
			zap.String("message", body.Message),
		)
		if body.Message == "property not found" {
			return nil, repository.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("gazetteer API error: %s (code: %d)", body.Message, body.Code)
	}

	nodes := []domain.PropertyNode{}
	if len(body.Result) > 0 && string(body.Result) != "null" {
		if err := json.Unmarshal(body.Result, &nodes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
		}
	}
	return nodes, nil
}
