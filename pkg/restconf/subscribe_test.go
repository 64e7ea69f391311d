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
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStreamName = "data-change-event-subscription/network-topology:network-topology/datastore=OPERATIONAL/scope=SUBTREE"

type fakeController struct {
	server        *httptest.Server
	upgrader      websocket.Upgrader
	messages      []string
	locationStyle string // "body", "header" or "none"
	failResolve   bool

	subscribeBody atomic.Value
	wsAuth        atomic.Value
	wsDials       atomic.Int32
}

func newFakeController(t *testing.T, messages ...string) *fakeController {
	t.Helper()

	fc := &fakeController{messages: messages, locationStyle: "body"}

	mux := http.NewServeMux()
	mux.HandleFunc(createSubscriptionPath, fc.handleCreate)
	mux.HandleFunc(streamPath, fc.handleResolve)
	mux.HandleFunc("/ws", fc.handleStream)

	fc.server = httptest.NewServer(mux)
	t.Cleanup(fc.server.Close)

	return fc
}

func (fc *fakeController) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body map[string]map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fc.subscribeBody.Store(body)

	_, _ = w.Write([]byte(`{"output": {"stream-name": "` + testStreamName + `"}}`))
}

func (fc *fakeController) handleResolve(w http.ResponseWriter, r *http.Request) {
	if fc.failResolve {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("no such stream"))

		return
	}

	if strings.TrimPrefix(r.URL.Path, streamPath) != testStreamName {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	location := "ws://" + r.Host + "/ws"

	switch fc.locationStyle {
	case "body":
		_, _ = w.Write([]byte(`{"subscribe-to-notification:location": "` + location + `"}`))
	case "header":
		w.Header().Set("Location", "http://"+r.Host+"/ws")
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (fc *fakeController) handleStream(w http.ResponseWriter, r *http.Request) {
	fc.wsDials.Add(1)
	fc.wsAuth.Store(r.Header.Get("Authorization"))

	conn, err := fc.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	for _, m := range fc.messages {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			return
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type signalRecorder struct {
	mu       sync.Mutex
	payloads []string
}

func (s *signalRecorder) onSignal(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payloads = append(s.payloads, string(b))
}

func (s *signalRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.payloads)
}

func TestSubscribeToChanges(t *testing.T) {
	fc := newFakeController(t, "<notification>1</notification>", "<notification>2</notification>", "")
	client := newTestClient(t, fc.server.URL)

	rec := &signalRecorder{}

	sub, err := client.SubscribeToChanges(context.Background(), "flow:1", rec.onSignal)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.count() == 3 }, 2*time.Second, 10*time.Millisecond)

	body := fc.subscribeBody.Load().(map[string]map[string]string)
	assert.Equal(t, TopologyInstancePath("flow:1"), body["input"]["path"])
	assert.Equal(t, "OPERATIONAL", body["input"]["sal-remote-augment:datastore"])
	assert.Equal(t, "SUBTREE", body["input"]["sal-remote-augment:scope"])
	assert.True(t, strings.HasPrefix(fc.wsAuth.Load().(string), "Basic "))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case <-sub.Done():
	default:
		t.Fatal("reader still running after Close")
	}
}

func TestSubscribeToChangesLocationHeader(t *testing.T) {
	fc := newFakeController(t, "change")
	fc.locationStyle = "header"

	rec := &signalRecorder{}

	sub, err := newTestClient(t, fc.server.URL).SubscribeToChanges(context.Background(), "flow:1", rec.onSignal)
	require.NoError(t, err)

	t.Cleanup(func() { _ = sub.Close() })

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribeToChangesResolveFailure(t *testing.T) {
	fc := newFakeController(t)
	fc.failResolve = true

	sub, err := newTestClient(t, fc.server.URL).SubscribeToChanges(context.Background(), "flow:1", func([]byte) {})
	require.Error(t, err)
	assert.Nil(t, sub)
	assert.True(t, IsTransportError(err))
	assert.Zero(t, fc.wsDials.Load())
}

func TestSubscribeToChangesNoLocation(t *testing.T) {
	fc := newFakeController(t)
	fc.locationStyle = "none"

	_, err := newTestClient(t, fc.server.URL).SubscribeToChanges(context.Background(), "flow:1", func([]byte) {})
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
	assert.ErrorIs(t, err, ErrNoStreamLocation)
	assert.Zero(t, fc.wsDials.Load())
}

func TestCreateDataChangeSubscriptionMissingStreamName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"output": {}}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).CreateDataChangeSubscription(context.Background(), "/network-topology:network-topology")
	require.ErrorIs(t, err, ErrNoStreamName)
	assert.True(t, IsDecodeError(err))
}

func TestResolveStreamLocationRelative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"location": "/data-change-event-subscription/x"}`))
	}))
	defer server.Close()

	loc, err := newTestClient(t, server.URL).ResolveStreamLocation(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ws://"+strings.TrimPrefix(server.URL, "http://")+"/data-change-event-subscription/x", loc)
}

func TestSubscriptionCloseAfterServerHangup(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc(createSubscriptionPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"output": {"stream-name": "s"}}`))
	})
	mux.HandleFunc(streamPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"location": "ws://` + r.Host + `/ws"}`))
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		_ = conn.Close()
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	sub, err := newTestClient(t, server.URL).SubscribeToChanges(context.Background(), "flow:1", func([]byte) {})
	require.NoError(t, err)

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not observe hangup")
	}

	done := make(chan struct{})

	go func() {
		_ = sub.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * closeWaitTimeout):
		t.Fatal("Close blocked")
	}
}
