// Package directory は外部 HR ディレクトリ API への HTTP クライアントです。
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	core "github.com/ogurasousui/onboarding-checklist/internal/core/directory"
)

// Client は core/directory.Gateway の HTTP 実装です。
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

// FetchNewEmployees はフィルタに一致する従業員の一覧を取得します。
func (c *Client) FetchNewEmployees(ctx context.Context, tenant string, filter core.EmployeeFilter) ([]*core.Employee, error) {
	query := url.Values{}
	if filter.HiredFrom != nil {
		query.Set("hireDateFrom", filter.HiredFrom.Format("2006-01-02"))
	}
	if filter.HiredTo != nil {
		query.Set("hireDateTo", filter.HiredTo.Format("2006-01-02"))
	}
	if filter.IncludeManual {
		query.Set("includeManual", "true")
	}
	if len(filter.EventTypes) > 0 {
		query.Set("eventInfo", strings.Join(filter.EventTypes, ";"))
	}
	if filter.PersonID != "" {
		query.Set("personId", filter.PersonID)
	}

	var payload []employeePayload
	if err := c.get(ctx, fmt.Sprintf("/%s/employees?%s", url.PathEscape(tenant), query.Encode()), &payload); err != nil {
		return nil, err
	}

	employees := make([]*core.Employee, 0, len(payload))
	for i := range payload {
		employees = append(employees, toEmployee(&payload[i]))
	}
	return employees, nil
}

// FetchEmployee は 1 人の従業員を取得します。
func (c *Client) FetchEmployee(ctx context.Context, tenant, personID string) (*core.Employee, error) {
	var payload employeePayload
	err := c.get(ctx, fmt.Sprintf("/%s/employees/%s", url.PathEscape(tenant), url.PathEscape(personID)), &payload)
	if err != nil {
		return nil, err
	}
	return toEmployee(&payload), nil
}

// FetchOrganization は組織と通知チャネル設定を取得します。
func (c *Client) FetchOrganization(ctx context.Context, tenant string, organizationNumber int) (*core.Organization, error) {
	var payload organizationPayload
	err := c.get(ctx, fmt.Sprintf("/%s/organizations/%s", url.PathEscape(tenant), strconv.Itoa(organizationNumber)), &payload)
	if err != nil {
		return nil, err
	}
	return toOrganization(&payload), nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("directory: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("directory: %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("directory: decode response for %s: %w", path, err)
		}
		return nil
	case http.StatusNotFound:
		if strings.Contains(path, "/organizations/") {
			return core.ErrOrganizationNotFound
		}
		return core.ErrEmployeeNotFound
	default:
		return fmt.Errorf("directory: %s returned status %d", path, resp.StatusCode)
	}
}
