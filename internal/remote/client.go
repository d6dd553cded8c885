package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fieldcap/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Client talks to the remote capture store over its JSON API.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// Option customizes the remote client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient constructs a remote store client.
func NewClient(baseURL, apiToken string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiToken:   strings.TrimSpace(apiToken),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// UploadLocation requests a presigned destination for a capture image.
func (c *Client) UploadLocation(ctx context.Context, req UploadLocationRequest) (UploadLocation, error) {
	var location UploadLocation
	if err := c.postJSON(ctx, "/v1/upload-location", "upload location", req, &location); err != nil {
		return UploadLocation{}, err
	}
	if location.URL == "" || location.StoragePath == "" {
		return UploadLocation{}, services.Wrap(services.ErrTransient, "remote", "upload location", "server returned an incomplete location", nil)
	}
	return location, nil
}

// CreateRecord creates the structured capture record. The server dedups on
// req.RequestID, so re-sending after a lost response is safe.
func (c *Client) CreateRecord(ctx context.Context, req RecordRequest) (Record, error) {
	var record Record
	if err := c.postJSON(ctx, "/v1/records", "create record", req, &record); err != nil {
		return Record{}, err
	}
	if record.ID == "" {
		return Record{}, services.Wrap(services.ErrTransient, "remote", "create record", "server returned no record id", nil)
	}
	return record, nil
}

// CreateImageMetadata links the uploaded binary to its record.
func (c *Client) CreateImageMetadata(ctx context.Context, req ImageMetadataRequest) (ImageMetadata, error) {
	var metadata ImageMetadata
	if err := c.postJSON(ctx, "/v1/image-metadata", "create image metadata", req, &metadata); err != nil {
		return ImageMetadata{}, err
	}
	return metadata, nil
}

// CreateSupplier registers a supplier in the remote catalog.
func (c *Client) CreateSupplier(ctx context.Context, orgID, name string) (string, error) {
	var resp idResponse
	if err := c.postJSON(ctx, "/v1/suppliers", "create supplier", supplierRequest{OrgID: orgID, Name: name}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// CreateModel registers a model in the remote catalog.
func (c *Client) CreateModel(ctx context.Context, orgID, supplierID, name string) (string, error) {
	var resp idResponse
	if err := c.postJSON(ctx, "/v1/models", "create model", modelRequest{OrgID: orgID, SupplierID: supplierID, Name: name}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// CheckAuth verifies the configured token against the remote store.
func (c *Client) CheckAuth(ctx context.Context) error {
	endpoint, err := url.JoinPath(c.baseURL, "/v1/session")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "remote", "check auth", "build url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "remote", "check auth", "build request", err)
	}
	c.setAuthHeader(req)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError("remote", "check auth", started, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return classifyStatus("remote", "check auth", resp.StatusCode, started, body)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path, operation string, payload, out any) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "remote", operation, "remote base url is not configured", nil)
	}
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "remote", operation, "build url", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return services.Wrap(services.ErrValidation, "remote", operation, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return services.Wrap(services.ErrTransient, "remote", operation, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeader(req)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError("remote", operation, started, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return services.Wrap(services.ErrTransient, "remote", operation, "read response", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return classifyStatus("remote", operation, resp.StatusCode, started, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrTransient, "remote", operation, "decode response", err)
	}
	return nil
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
}

func classifyTransportError(component, operation string, started time.Time, err error) error {
	elapsed := time.Since(started).Round(time.Millisecond)
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, component, operation,
			fmt.Sprintf("request timed out after %s", elapsed), err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return services.Wrap(services.ErrTimeout, component, operation,
			fmt.Sprintf("request timed out after %s", elapsed), err)
	}
	return services.Wrap(services.ErrTransient, component, operation,
		fmt.Sprintf("request failed after %s", elapsed), err)
}

func classifyStatus(component, operation string, status int, started time.Time, body []byte) error {
	elapsed := time.Since(started).Round(time.Millisecond)
	message := fmt.Sprintf("http %d after %s", status, elapsed)
	if detail := serverMessage(body); detail != "" {
		message += ": " + detail
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrAuthorization, component, operation, message, nil)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return services.Wrap(services.ErrValidation, component, operation, message, nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, component, operation, message, nil)
	case status == http.StatusRequestTimeout:
		return services.Wrap(services.ErrTimeout, component, operation, message, nil)
	default:
		return services.Wrap(services.ErrTransient, component, operation, message, nil)
	}
}

func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}
