package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ClientConfig - конфигурация клиента compute-бэкенда.
type ClientConfig struct {
	EnqueueURL string
	AuthToken  string
	Timeout    time.Duration
}

// Client передаёт созданные матчи compute-бэкенду на исполнение.
// Успех означает принятый батч, а не сыгранные матчи: завершение
// матчей бэкенд сообщает отдельными вызовами.
type Client struct {
	enqueueURL string
	authToken  string
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.EnqueueURL == "" {
		return nil, errors.New("invalid execution configuration: enqueue URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		enqueueURL: cfg.EnqueueURL,
		authToken:  cfg.AuthToken,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) EnqueueMatches(ctx context.Context, matchIDs []int) error {
	if len(matchIDs) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{"match_ids": matchIDs})
	if err != nil {
		return fmt.Errorf("failed to encode enqueue request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.enqueueURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build enqueue request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execution enqueue request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("execution enqueue failed with status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
