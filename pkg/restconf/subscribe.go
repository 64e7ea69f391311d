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

package restconf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
)

const closeWaitTimeout = 5 * time.Second

type subscriptionInput struct {
	Input subscriptionRequest `json:"input"`
}

type subscriptionRequest struct {
	Path      string `json:"path"`
	Datastore string `json:"sal-remote-augment:datastore"`
	Scope     string `json:"sal-remote-augment:scope"`
}

// CreateDataChangeSubscription registers interest in the operational
// subtree at instancePath and returns the controller's stream name.
func (c *Client) CreateDataChangeSubscription(ctx context.Context, instancePath string) (string, error) {
	payload, err := json.Marshal(subscriptionInput{Input: subscriptionRequest{
		Path:      instancePath,
		Datastore: datastoreOperational,
		Scope:     scopeSubtree,
	}})
	if err != nil {
		return "", fmt.Errorf("failed to encode subscription request: %w", err)
	}

	resp, body, err := c.do(ctx, http.MethodPost, createSubscriptionPath, payload)
	if err != nil {
		return "", err
	}

	if err := checkStatus(http.MethodPost, c.urlFor(createSubscriptionPath), resp, body); err != nil {
		return "", err
	}

	return decodeStreamName(body)
}

// ResolveStreamLocation turns a stream name into the websocket URL that
// delivers its notifications. The JSON "location" member is preferred
// over the Location header.
func (c *Client) ResolveStreamLocation(ctx context.Context, streamName string) (string, error) {
	path := streamLocationPath(streamName)

	resp, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}

	if err := checkStatus(http.MethodGet, c.urlFor(path), resp, body); err != nil {
		return "", err
	}

	location, err := decodeStreamLocation(body)
	if err != nil {
		return "", err
	}

	if location == "" {
		location = resp.Header.Get("Location")
	}

	if location == "" {
		return "", &DecodeError{Resource: resourceStream, Err: ErrNoStreamLocation}
	}

	return c.websocketURL(location)
}

// websocketURL resolves a possibly relative location against the base URL
// and maps http(s) to ws(s).
func (c *Client) websocketURL(location string) (string, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return "", &DecodeError{Resource: resourceStream, Err: fmt.Errorf("%w: location %q: %w", ErrInvalidField, location, err)}
	}

	u := c.baseURL.ResolveReference(ref)

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	return u.String(), nil
}

// SubscribeToChanges subscribes to changes below one topology and calls
// onSignal once per inbound message from the subscription's own
// goroutine. Message contents are not interpreted. On error nothing is
// left open.
func (c *Client) SubscribeToChanges(ctx context.Context, topologyID string, onSignal func([]byte)) (*Subscription, error) {
	streamName, err := c.CreateDataChangeSubscription(ctx, TopologyInstancePath(topologyID))
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	location, err := c.ResolveStreamLocation(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("resolve stream %s: %w", streamName, err)
	}

	dialer := &websocket.Dialer{
		NetDialContext:   (&net.Dialer{Timeout: c.connectTimeout}).DialContext,
		HandshakeTimeout: c.connectTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}

	conn, resp, err := dialer.DialContext(ctx, location, c.authHeader())
	if err != nil {
		te := &TransportError{Method: http.MethodGet, URL: location, Err: err}
		if resp != nil {
			te.StatusCode = resp.StatusCode
		}

		return nil, fmt.Errorf("open stream: %w", te)
	}

	sub := &Subscription{
		conn:     conn,
		location: location,
		done:     make(chan struct{}),
		logger:   c.logger,
	}

	go sub.readLoop(onSignal)

	c.logger.Info().
		Str("topology_id", topologyID).
		Str("stream", streamName).
		Str("location", location).
		Msg("Subscribed to topology changes")

	return sub, nil
}

// Subscription is an open change-notification stream.
type Subscription struct {
	conn      *websocket.Conn
	location  string
	done      chan struct{}
	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
	logger    logger.Logger
}

// Done is closed once the stream stops delivering messages.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) readLoop(onSignal func([]byte)) {
	defer close(s.done)

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closing.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn().Err(err).Str("location", s.location).Msg("Change stream ended")
			}

			return
		}

		onSignal(msg)
	}
}

// Close sends a close frame and waits a bounded time for the reader to
// exit. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)

		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "going away")
		if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWaitTimeout)); err != nil &&
			!errors.Is(err, websocket.ErrCloseSent) && !errors.Is(err, net.ErrClosed) {
			s.logger.Debug().Err(err).Msg("Failed to send close frame")
		}

		select {
		case <-s.done:
		case <-time.After(closeWaitTimeout):
		}

		s.closeErr = s.conn.Close()

		select {
		case <-s.done:
		case <-time.After(closeWaitTimeout):
			s.logger.Warn().Str("location", s.location).Msg("Change stream reader did not exit")
		}

		if errors.Is(s.closeErr, net.ErrClosed) {
			s.closeErr = nil
		}
	})

	return s.closeErr
}
