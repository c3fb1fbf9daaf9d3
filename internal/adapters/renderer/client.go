// Package renderer はメール本文レンダリングサービスへの HTTP クライアントです。
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client は notification.TemplateRenderer の HTTP 実装です。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient は Client を生成します。
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	TemplateID string            `json:"templateId"`
	Params     map[string]string `json:"params"`
}

// Render はテンプレートとパラメータから HTML 本文を生成します。
func (c *Client) Render(ctx context.Context, templateID string, params map[string]string) (string, error) {
	body, err := json.Marshal(renderRequest{TemplateID: templateID, Params: params})
	if err != nil {
		return "", fmt.Errorf("renderer: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("renderer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("renderer: render %s: %w", templateID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("renderer: render %s returned status %d", templateID, resp.StatusCode)
	}

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("renderer: read response: %w", err)
	}
	return string(html), nil
}
