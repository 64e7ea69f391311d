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

package odlsync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/models"
	"github.com/carverauto/serviceradar-odl/pkg/restconf"
)

var errHandshake = errors.New("handshake failed")

type fakeSubscription struct {
	closed atomic.Int32
}

func (f *fakeSubscription) Close() error {
	f.closed.Add(1)
	return nil
}

type fakeStream struct {
	sub      *fakeSubscription
	err      error
	onSignal func([]byte)
	topology string
}

func (f *fakeStream) Subscribe(_ context.Context, topologyID string, onSignal func([]byte)) (Subscription, error) {
	f.topology = topologyID
	if f.err != nil {
		return nil, f.err
	}

	f.onSignal = onSignal

	return f.sub, nil
}

type fakeSignals struct {
	sub     *fakeSubscription
	err     error
	handler ImportHandler
}

func (f *fakeSignals) SubscribeImports(_ context.Context, handler ImportHandler) (Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.handler = handler

	return f.sub, nil
}

type serviceFixture struct {
	client  *MockTopologyClient
	nodes   *MockNodeStore
	links   *MockLinkStore
	events  *MockEventSink
	stream  *fakeStream
	signals *fakeSignals
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	return &serviceFixture{
		client:  NewMockTopologyClient(ctrl),
		nodes:   NewMockNodeStore(ctrl),
		links:   NewMockLinkStore(ctrl),
		events:  NewMockEventSink(ctrl),
		stream:  &fakeStream{sub: &fakeSubscription{}},
		signals: &fakeSignals{sub: &fakeSubscription{}},
	}
}

func (f *serviceFixture) deps() Dependencies {
	return Dependencies{
		Client:  f.client,
		Stream:  f.stream,
		Nodes:   f.nodes,
		Links:   f.links,
		Events:  f.events,
		Signals: f.signals,
	}
}

func testServiceConfig() *Config {
	return &Config{RefreshInterval: models.Duration(time.Hour)}
}

func stopService(t *testing.T, s *Service) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, s.Stop(ctx))
}

func TestNewServiceValidation(t *testing.T) {
	f := newServiceFixture(t)

	_, err := NewService(nil, f.deps(), logger.NewTestLogger())
	require.ErrorIs(t, err, ErrConfigNil)

	deps := f.deps()
	deps.Signals = nil

	_, err = NewService(testServiceConfig(), deps, logger.NewTestLogger())
	require.ErrorIs(t, err, ErrDependencyMissing)
}

func TestServiceWiresSignals(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newServiceFixture(t)
	cfg := testServiceConfig()

	svc, err := NewService(cfg, f.deps(), logger.NewTestLogger())
	require.NoError(t, err)

	assert.Equal(t, DefaultTopologyID, cfg.TopologyID)
	assert.Equal(t, DefaultOwner, cfg.Owner)

	require.NoError(t, svc.Start(context.Background()))

	require.NotNil(t, f.stream.onSignal)
	require.NotNil(t, f.signals.handler)
	assert.Equal(t, "flow:1", f.stream.topology)

	// a controller change wakes the refresher
	polled := make(chan struct{})

	f.nodes.EXPECT().DevicesInForeignSource(gomock.Any(), "ODL").
		DoAndReturn(func(context.Context, string) ([]*models.Device, error) {
			close(polled)
			return nil, nil
		})

	f.stream.onSignal([]byte("change"))

	select {
	case <-polled:
	case <-time.After(2 * time.Second):
		t.Fatal("change signal did not trigger a refresh")
	}

	// an import signal for the configured source runs the reconciler
	f.client.EXPECT().FetchTopology(gomock.Any(), "flow:1").Return(&restconf.Topology{ID: "flow:1"}, nil)
	f.nodes.EXPECT().DevicesInForeignSource(gomock.Any(), "ODL").Return(nil, nil)

	f.signals.handler(context.Background(), models.ImportSignal{Parameters: map[string]string{"foreignSource": "ODL"}})

	stopService(t, svc)

	assert.Equal(t, int32(1), f.stream.sub.closed.Load())
	assert.Equal(t, int32(1), f.signals.sub.closed.Load())

	stopService(t, svc)
	assert.Equal(t, int32(1), f.stream.sub.closed.Load())
}

func TestServiceToleratesSubscriptionFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newServiceFixture(t)
	f.stream.err = errHandshake

	svc, err := NewService(testServiceConfig(), f.deps(), logger.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, svc.Start(context.Background()))
	assert.NotNil(t, f.signals.handler)

	stopService(t, svc)
}

func TestServiceSubscriptionDisabled(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newServiceFixture(t)
	disabled := false
	cfg := testServiceConfig()
	cfg.SubscribeChanges = &disabled

	svc, err := NewService(cfg, f.deps(), logger.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, svc.Start(context.Background()))
	assert.Empty(t, f.stream.topology)

	stopService(t, svc)
}

func TestServiceImportSubscriptionFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newServiceFixture(t)
	f.signals.err = errHandshake

	svc, err := NewService(testServiceConfig(), f.deps(), logger.NewTestLogger())
	require.NoError(t, err)

	err = svc.Start(context.Background())
	require.ErrorIs(t, err, errHandshake)
	assert.Empty(t, f.stream.topology)
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := &Config{
		Controller: restconf.Config{BaseURL: "http://odl.local"},
		NATS:       models.NATSConfig{URL: "nats://localhost:4222"},
		Database:   models.CNPGDatabase{Host: "cnpg-rw"},
	}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://odl.local:8181", cfg.Controller.BaseURL)
	assert.Equal(t, DefaultForeignSource, cfg.ForeignSource)
	assert.Equal(t, DefaultRefreshInterval, time.Duration(cfg.RefreshInterval))
	assert.Equal(t, DefaultStopTimeout, time.Duration(cfg.StopTimeout))
	assert.True(t, cfg.SubscriptionEnabled())
	assert.Equal(t, "foreignSource", cfg.Events.ImportParameter)
}

func TestConfigValidateErrors(t *testing.T) {
	cfg := &Config{Controller: restconf.Config{BaseURL: "http://odl.local"}}
	require.Error(t, cfg.Validate())

	cfg = &Config{}
	require.ErrorIs(t, cfg.Validate(), restconf.ErrBaseURLRequired)
}
