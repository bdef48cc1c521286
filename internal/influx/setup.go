// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

// Package influx performs the one-time onboarding of an InfluxDB 2.x
// instance.
package influx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/toeirei/obskeeper/internal/logging"
)

// SetupRequest is the body of POST /api/v2/setup. The endpoint requires
// username and password even when auth is disabled.
type SetupRequest struct {
	Username               string `json:"username"`
	Password               string `json:"password"`
	Org                    string `json:"org"`
	Bucket                 string `json:"bucket"`
	RetentionPeriodSeconds int64  `json:"retentionPeriodSeconds"`
	Token                  string `json:"token,omitempty"`
}

// SetupResult reports what the server created.
type SetupResult struct {
	// Token is the operator token the server returned. It can differ from
	// the requested one.
	Token  string
	OrgID  string
	Bucket string
}

// SetupError is returned when the server does not answer 201.
type SetupError struct {
	StatusCode int
	Body       string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("influxdb setup failed with status %d: %s", e.StatusCode, e.Body)
}

// Client is a minimal InfluxDB client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL (e.g. http://host:8086). A nil h uses a
// default *http.Client.
func New(baseURL string, h *http.Client) *Client {
	if h == nil {
		h = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: h}
}

// Setup onboards the instance. It fails on any status other than 201,
// including the 422 an already onboarded instance answers with.
func (c *Client) Setup(ctx context.Context, req SetupRequest) (SetupResult, error) {
	buf, err := json.Marshal(req)
	if err != nil {
		return SetupResult{}, err
	}
	url := c.baseURL + "/api/v2/setup"
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return SetupResult{}, err
	}
	hr.Header.Set("Content-Type", "application/json")

	logging.Debugf("influxdb: POST %s", url)
	resp, err := c.http.Do(hr)
	if err != nil {
		return SetupResult{}, fmt.Errorf("connect to influxdb at %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return SetupResult{}, err
	}
	if resp.StatusCode != http.StatusCreated {
		return SetupResult{}, &SetupError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	res := gjson.ParseBytes(data)
	return SetupResult{
		Token:  res.Get("auth.token").String(),
		OrgID:  res.Get("org.id").String(),
		Bucket: res.Get("bucket.name").String(),
	}, nil
}
