package recordapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/fuelsync/internal/config"
	"github.com/mamadbah2/fuelsync/internal/domain/models"
)

// ErrFetchFailed marks any upstream failure while pulling records.
var ErrFetchFailed = errors.New("record fetch failed")

// Client exposes the record API operations the pipeline uses.
type Client interface {
	FetchRecords(ctx context.Context, category models.Category) ([]map[string]any, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a record API client using the provided configuration values.
func NewClient(cfg config.APIConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Token)).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &APIClient{httpClient: restyClient}
}

// Envelope is the response shape of the data endpoint.
type Envelope struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
	Message string           `json:"message,omitempty"`
}

// FetchRecords pulls every record of a category.
func (c *APIClient) FetchRecords(ctx context.Context, category models.Category) ([]map[string]any, error) {
	result := new(Envelope)
	apiErr := new(Envelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("category", string(category)).
		SetResult(result).
		SetError(apiErr).
		Get("/api/data/json/{category}")
	if err != nil {
		return nil, fmt.Errorf("fetch %s records: %w: %w", category, ErrFetchFailed, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch %s records: %w: status=%d, message=%s",
			category, ErrFetchFailed, resp.StatusCode(), apiErr.Message)
	}

	if !result.Success {
		return nil, fmt.Errorf("fetch %s records: %w: api reported failure: %s", category, ErrFetchFailed, result.Message)
	}

	if result.Data == nil {
		return []map[string]any{}, nil
	}
	return result.Data, nil
}
