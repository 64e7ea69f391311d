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
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/models"
	"github.com/carverauto/serviceradar-odl/pkg/restconf"
)

const testOwner = "odl-sync"

var errStoreDown = errors.New("store unavailable")

type linkKey struct {
	owner    string
	deviceID int64
	linkID   string
}

// memLinkStore is an in-memory LinkStore that counts mutations.
type memLinkStore struct {
	mu      sync.Mutex
	links   map[linkKey]*models.StoredLink
	saves   int
	deletes int
}

func newMemLinkStore(links ...*models.StoredLink) *memLinkStore {
	s := &memLinkStore{links: make(map[linkKey]*models.StoredLink)}
	for _, l := range links {
		s.links[keyOf(l)] = l
	}

	return s
}

func keyOf(l *models.StoredLink) linkKey {
	return linkKey{owner: l.Owner, deviceID: l.DeviceID, linkID: l.LinkID}
}

func (s *memLinkStore) OutgoingLinks(_ context.Context, deviceID int64) ([]*models.StoredLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.StoredLink

	for _, l := range s.links {
		if l.DeviceID == deviceID {
			c := *l
			out = append(out, &c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].LinkID < out[j].LinkID })

	return out, nil
}

func (s *memLinkStore) SaveLink(_ context.Context, link *models.StoredLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *link
	s.links[keyOf(link)] = &c
	s.saves++

	return nil
}

func (s *memLinkStore) DeleteLink(_ context.Context, link *models.StoredLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.links, keyOf(link))
	s.deletes++

	return nil
}

func (s *memLinkStore) ids(owner string, deviceID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string

	for k := range s.links {
		if k.owner == owner && k.deviceID == deviceID {
			ids = append(ids, k.linkID)
		}
	}

	sort.Strings(ids)

	return ids
}

func (s *memLinkStore) resetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves, s.deletes = 0, 0
}

func link(id, src, srcTP, dst, dstTP string) restconf.Link {
	return restconf.Link{ID: id, SourceNode: src, SourceTP: srcTP, DestNode: dst, DestTP: dstTP}
}

// testTopology: 1->2, 1->3, 2->1 and a dangling 1->9.
func testTopology() *restconf.Topology {
	return &restconf.Topology{
		ID: "flow:1",
		Nodes: []restconf.Node{
			{ID: "openflow:1"}, {ID: "openflow:2"}, {ID: "openflow:3"},
		},
		Links: []restconf.Link{
			link("openflow:1:1", "openflow:1", "openflow:1:1", "openflow:2", "openflow:2:1"),
			link("openflow:1:2", "openflow:1", "openflow:1:2", "openflow:3", "openflow:3:1"),
			link("openflow:2:1", "openflow:2", "openflow:2:1", "openflow:1", "openflow:1:1"),
			link("openflow:1:4", "openflow:1", "openflow:1:4", "openflow:9", "openflow:9:1"),
		},
	}
}

// testDevices: device 3 has a label that differs from its node id.
func testDevices() []*models.Device {
	return []*models.Device{
		odlDevice(1, "openflow:1"),
		odlDevice(2, "openflow:2"),
		{ID: 3, Label: "core-switch", ForeignSource: "ODL", ForeignID: "openflow_3"},
	}
}

func newTestReconciler(t *testing.T, links LinkStore) (*Reconciler, *MockTopologyClient, *MockNodeStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	client := NewMockTopologyClient(ctrl)
	nodes := NewMockNodeStore(ctrl)

	r := NewReconciler(ReconcilerConfig{
		TopologyID:    "flow:1",
		ForeignSource: "ODL",
		Owner:         testOwner,
	}, client, nodes, links, logger.NewTestLogger())

	return r, client, nodes
}

func TestReconcileConvergesStore(t *testing.T) {
	store := newMemLinkStore(
		&models.StoredLink{DeviceID: 1, LinkID: "openflow:1:1", Owner: testOwner, RemoteDeviceID: 2},
		&models.StoredLink{DeviceID: 1, LinkID: "stale", Owner: testOwner},
		&models.StoredLink{DeviceID: 1, LinkID: "manual", Owner: "operator"},
		&models.StoredLink{DeviceID: 3, LinkID: "gone", Owner: testOwner},
	)

	r, client, nodes := newTestReconciler(t, store)

	client.EXPECT().FetchTopology(gomock.Any(), "flow:1").Return(testTopology(), nil)
	nodes.EXPECT().DevicesInForeignSource(gomock.Any(), "ODL").Return(testDevices(), nil)

	result, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &ReconcileResult{Devices: 3, Inserted: 2, Deleted: 2, Unmapped: 1}, result)

	assert.Equal(t, []string{"openflow:1:1", "openflow:1:2"}, store.ids(testOwner, 1))
	assert.Equal(t, []string{"openflow:2:1"}, store.ids(testOwner, 2))
	assert.Empty(t, store.ids(testOwner, 3))
	assert.Equal(t, []string{"manual"}, store.ids("operator", 1))

	inserted := store.links[linkKey{owner: testOwner, deviceID: 1, linkID: "openflow:1:2"}]
	require.NotNil(t, inserted)
	assert.Equal(t, &models.StoredLink{
		DeviceID:        1,
		PortLabel:       "openflow:1:2",
		LinkID:          "openflow:1:2",
		LinkLabel:       LinkLabel,
		RemoteDeviceID:  3,
		RemotePortLabel: "openflow:3:1",
		Owner:           testOwner,
	}, inserted)
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newMemLinkStore()
	r, client, nodes := newTestReconciler(t, store)

	client.EXPECT().FetchTopology(gomock.Any(), "flow:1").Return(testTopology(), nil).Times(2)
	nodes.EXPECT().DevicesInForeignSource(gomock.Any(), "ODL").Return(testDevices(), nil).Times(2)

	first, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)

	store.resetCounts()

	second, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Zero(t, second.Inserted)
	assert.Zero(t, second.Deleted)
	assert.Zero(t, store.saves)
	assert.Zero(t, store.deletes)
}

func TestReconcileOwnerIsolation(t *testing.T) {
	foreign := &models.StoredLink{
		DeviceID: 1, LinkID: "openflow:1:1", Owner: "lldp", RemoteDeviceID: 42, LinkLabel: "lldp link",
	}
	store := newMemLinkStore(foreign)

	r, client, nodes := newTestReconciler(t, store)

	topology := testTopology()
	topology.Links = nil

	client.EXPECT().FetchTopology(gomock.Any(), "flow:1").Return(topology, nil)
	nodes.EXPECT().DevicesInForeignSource(gomock.Any(), "ODL").Return(testDevices(), nil)

	result, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)

	assert.Equal(t, foreign, store.links[keyOf(foreign)])
}

func TestReconcileCollidingForeignLinkNotOverwritten(t *testing.T) {
	foreign := &models.StoredLink{DeviceID: 1, LinkID: "openflow:1:1", Owner: "lldp", RemoteDeviceID: 42}
	store := newMemLinkStore(foreign)

	r, client, nodes := newTestReconciler(t, store)

	client.EXPECT().FetchTopology(gomock.Any(), "flow:1").Return(testTopology(), nil)
	nodes.EXPECT().DevicesInForeignSource(gomock.Any(), "ODL").Return(testDevices(), nil)

	_, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(42), store.links[keyOf(foreign)].RemoteDeviceID)
	assert.Contains(t, store.ids(testOwner, 1), "openflow:1:1")
}

func TestReconcileTopologyFailureLeavesStoreUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	links := NewMockLinkStore(ctrl)

	r, client, _ := newTestReconciler(t, links)

	client.EXPECT().FetchTopology(gomock.Any(), "flow:1").
		Return(nil, &restconf.TransportError{Method: "GET", StatusCode: 503})

	result, err := r.Reconcile(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, restconf.IsTransportError(err))
}

func TestReconcileStoreErrorsArePerDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	links := NewMockLinkStore(ctrl)

	r, client, nodes := newTestReconciler(t, links)

	client.EXPECT().FetchTopology(gomock.Any(), "flow:1").Return(testTopology(), nil)
	nodes.EXPECT().DevicesInForeignSource(gomock.Any(), "ODL").Return(testDevices(), nil)

	links.EXPECT().OutgoingLinks(gomock.Any(), int64(1)).Return(nil, errStoreDown)
	links.EXPECT().OutgoingLinks(gomock.Any(), int64(2)).Return(nil, nil)
	links.EXPECT().SaveLink(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, l *models.StoredLink) error {
		assert.Equal(t, int64(2), l.DeviceID)
		assert.Equal(t, int64(1), l.RemoteDeviceID)

		return nil
	})
	links.EXPECT().OutgoingLinks(gomock.Any(), int64(3)).Return([]*models.StoredLink{
		{DeviceID: 3, LinkID: "gone", Owner: testOwner},
	}, nil)
	links.EXPECT().DeleteLink(gomock.Any(), gomock.Any()).Return(errStoreDown)

	result, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ReconcileResult{Devices: 3, Inserted: 1, Failed: 2}, result)
}

func TestReconcileAmbiguousLabelSkipsLink(t *testing.T) {
	store := newMemLinkStore()
	r, client, nodes := newTestReconciler(t, store)

	devices := testDevices()
	devices = append(devices, &models.Device{ID: 4, Label: "openflow:2", ForeignID: "openflow_20"})

	client.EXPECT().FetchTopology(gomock.Any(), "flow:1").Return(testTopology(), nil)
	nodes.EXPECT().DevicesInForeignSource(gomock.Any(), "ODL").Return(devices, nil)

	result, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Unmapped)
	assert.Equal(t, []string{"openflow:1:2"}, store.ids(testOwner, 1))
}

func TestReconcileSkipsDevicesOfOtherTopologies(t *testing.T) {
	ctrl := gomock.NewController(t)
	links := NewMockLinkStore(ctrl)

	r, client, nodes := newTestReconciler(t, links)

	other := &models.Device{ID: 7, Label: "openflow:7", MetaData: NodeMetadata("flow:2", "openflow:7")}

	client.EXPECT().FetchTopology(gomock.Any(), "flow:1").Return(&restconf.Topology{ID: "flow:1"}, nil)
	nodes.EXPECT().DevicesInForeignSource(gomock.Any(), "ODL").Return([]*models.Device{other}, nil)

	result, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Devices)
}

func TestHandleImportSignalFiltersSource(t *testing.T) {
	tests := []struct {
		name   string
		signal models.ImportSignal
	}{
		{name: "other source", signal: models.ImportSignal{Parameters: map[string]string{"foreignSource": "NODES"}}},
		{name: "case differs", signal: models.ImportSignal{Parameters: map[string]string{"foreignSource": "odl"}}},
		{name: "missing parameter", signal: models.ImportSignal{Parameters: map[string]string{"url": "file:///x"}}},
		{name: "nil parameters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			links := NewMockLinkStore(ctrl)

			r, _, _ := newTestReconciler(t, links)

			r.HandleImportSignal(context.Background(), tt.signal)
		})
	}
}

func TestHandleImportSignalRunsReconcile(t *testing.T) {
	store := newMemLinkStore()
	r, client, nodes := newTestReconciler(t, store)

	client.EXPECT().FetchTopology(gomock.Any(), "flow:1").Return(testTopology(), nil)
	nodes.EXPECT().DevicesInForeignSource(gomock.Any(), "ODL").Return(testDevices(), nil)

	r.HandleImportSignal(context.Background(), models.ImportSignal{Parameters: map[string]string{"foreignSource": "ODL"}})

	assert.Equal(t, 3, store.saves)
}
