/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package restconf is a client for an OpenDaylight controller's RESTCONF
// topology, inventory and change-notification resources.
package restconf

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
)

const (
	maxErrorBodyBytes = 4096
	maxBodyBytes      = 64 << 20
	idleConnTimeout   = 30 * time.Second
)

// Client issues RESTCONF requests against one controller. It holds no
// per-call state and is safe for concurrent use.
type Client struct {
	baseURL        *url.URL
	username       string
	password       string
	connectTimeout time.Duration
	httpClient     *http.Client
	logger         logger.Logger
}

// NewClient validates cfg and builds a client whose connections enforce
// the configured connect, write and read timeouts.
func NewClient(cfg *Config, log logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	connectTimeout := time.Duration(cfg.ConnectTimeout)

	dialer := &deadlineDialer{
		dialer:       &net.Dialer{Timeout: connectTimeout},
		readTimeout:  time.Duration(cfg.ReadTimeout),
		writeTimeout: time.Duration(cfg.WriteTimeout),
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: dialer.readTimeout,
		IdleConnTimeout:       idleConnTimeout,
		MaxIdleConnsPerHost:   4,
	}

	return &Client{
		baseURL:        base,
		username:       cfg.Username,
		password:       cfg.Password,
		connectTimeout: connectTimeout,
		httpClient:     &http.Client{Transport: transport},
		logger:         log,
	}, nil
}

// FetchNetworkTopology returns every topology in the operational store.
func (c *Client) FetchNetworkTopology(ctx context.Context) (*NetworkTopology, error) {
	body, err := c.get(ctx, networkTopologyPath, false)
	if err != nil {
		return nil, err
	}

	return decodeNetworkTopology(body)
}

// FetchTopology returns one operational topology.
func (c *Client) FetchTopology(ctx context.Context, topologyID string) (*Topology, error) {
	body, err := c.get(ctx, topologyPath(topologyID), false)
	if err != nil {
		return nil, err
	}

	return decodeTopology(body)
}

// FetchNodeFromTopology returns the topology view of a node, or nil when
// the controller reports the node as absent.
func (c *Client) FetchNodeFromTopology(ctx context.Context, topologyID, nodeID string) (*Node, error) {
	body, err := c.get(ctx, topologyNodePath(topologyID, nodeID), true)
	if err != nil || body == nil {
		return nil, err
	}

	return decodeNode(body)
}

// FetchNodeFromInventory returns the inventory view of a node, or nil when
// the controller reports the node as absent.
func (c *Client) FetchNodeFromInventory(ctx context.Context, nodeID string) (*InventoryNode, error) {
	body, err := c.get(ctx, inventoryNodePath(nodeID), true)
	if err != nil || body == nil {
		return nil, err
	}

	return decodeInventoryNode(body)
}

// get returns the response body. With allowNotFound a 404 yields a nil
// body and nil error.
func (c *Client) get(ctx context.Context, path string, allowNotFound bool) ([]byte, error) {
	resp, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound && allowNotFound {
		c.logger.Debug().Str("path", path).Msg("Resource not present in operational store")

		return nil, nil
	}

	if err := checkStatus(http.MethodGet, c.urlFor(path), resp, body); err != nil {
		return nil, err
	}

	return body, nil
}

// do sends one request with basic auth and reads the whole response body.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, []byte, error) {
	target := c.urlFor(path)

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, nil, &TransportError{Method: method, URL: target, Err: err}
	}

	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Err: err}
	}

	return resp, body, nil
}

func (c *Client) urlFor(path string) string {
	return c.baseURL.String() + path
}

func (c *Client) authHeader() http.Header {
	h := http.Header{}

	if c.username != "" || c.password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
		h.Set("Authorization", "Basic "+token)
	}

	return h
}

func checkStatus(method, target string, resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet := body
	if len(snippet) > maxErrorBodyBytes {
		snippet = snippet[:maxErrorBodyBytes]
	}

	return &TransportError{
		Method:     method,
		URL:        target,
		StatusCode: resp.StatusCode,
		Body:       string(snippet),
	}
}

// deadlineDialer dials with a connect timeout and returns connections that
// arm a fresh read or write deadline before every Read and Write. Write also
// re-arms the read deadline so a Read pending on a pooled connection gets
// the full read timeout for the new request.
type deadlineDialer struct {
	dialer       *net.Dialer
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (d *deadlineDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := d.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	return &deadlineConn{Conn: conn, readTimeout: d.readTimeout, writeTimeout: d.writeTimeout}, nil
}

type deadlineConn struct {
	net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.readTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}

	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	now := time.Now()

	if c.writeTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(now.Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}

	if c.readTimeout > 0 {
		if err := c.Conn.SetReadDeadline(now.Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}

	return c.Conn.Write(b)
}
