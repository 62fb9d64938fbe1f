package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pefman/cardstats/internal/dataset"
)

const unitsPath = "/api/unidades"

var defaultHTTPClient = &http.Client{Timeout: 8 * time.Second}

// Config holds API configuration
type Config struct {
	BaseURL string
}

// Client talks to the card statistics service.
type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		config:     Config{BaseURL: baseURL},
		httpClient: defaultHTTPClient,
	}
}

// WithHTTPClient returns a copy of c using h for requests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	cp := *c
	if h != nil {
		cp.httpClient = h
	}
	return &cp
}

// Response is a raw API reply. Non-2xx statuses are not errors.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Decode unmarshals the body into out.
func (r *Response) Decode(out any) error { return json.Unmarshal(r.Body, out) }

// Pretty returns the body as indented JSON, or as plain text when it is not JSON.
func (r *Response) Pretty() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Body, "", "    "); err != nil {
		return strings.TrimSpace(string(r.Body))
	}
	return buf.String()
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	base := strings.TrimRight(c.config.BaseURL, "/")
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// List fetches every record.
func (c *Client) List(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, unitsPath, nil)
}

// Top fetches the first n records.
func (c *Client) Top(ctx context.Context, n int) (*Response, error) {
	return c.do(ctx, http.MethodGet, unitsPath+"/top/"+strconv.Itoa(n), nil)
}

// Search looks up records by the service's name field.
func (c *Client) Search(ctx context.Context, value string) (*Response, error) {
	return c.do(ctx, http.MethodGet, unitsPath+"/busca/"+url.PathEscape(value), nil)
}

// Filter posts a field/value filter set.
func (c *Client) Filter(ctx context.Context, filters dataset.Fields) (*Response, error) {
	return c.do(ctx, http.MethodPost, unitsPath+"/filtro", filters)
}

// Insert creates a record. On 201 the assigned id is returned as well.
func (c *Client) Insert(ctx context.Context, fields dataset.Fields) (*Response, int, error) {
	resp, err := c.do(ctx, http.MethodPost, unitsPath, fields)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusCreated {
		return resp, 0, fmt.Errorf("api status %d", resp.StatusCode)
	}
	var rec dataset.Record
	if err := resp.Decode(&rec); err != nil {
		return resp, 0, fmt.Errorf("decode created record: %w", err)
	}
	return resp, rec.ID, nil
}

// Update overwrites fields of record id.
func (c *Client) Update(ctx context.Context, id int, fields dataset.Fields) (*Response, error) {
	return c.do(ctx, http.MethodPut, unitsPath+"/"+strconv.Itoa(id), fields)
}

// Delete removes record id.
func (c *Client) Delete(ctx context.Context, id int) (*Response, error) {
	return c.do(ctx, http.MethodDelete, unitsPath+"/"+strconv.Itoa(id), nil)
}
