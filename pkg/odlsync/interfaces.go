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

//go:generate mockgen -destination=mock_odlsync.go -package=odlsync github.com/carverauto/serviceradar-odl/pkg/odlsync NodeStore,LinkStore,EventSink,TopologyClient

import (
	"context"

	"github.com/carverauto/serviceradar-odl/pkg/models"
	"github.com/carverauto/serviceradar-odl/pkg/restconf"
)

// NodeStore is the read side of the device inventory.
type NodeStore interface {
	// DevicesInForeignSource lists the managed devices imported from one source,
	// in inventory order.
	DevicesInForeignSource(ctx context.Context, foreignSource string) ([]*models.Device, error)
}

// LinkStore persists directed links between managed devices.
type LinkStore interface {
	// OutgoingLinks returns every stored link whose source is deviceID,
	// regardless of owner.
	OutgoingLinks(ctx context.Context, deviceID int64) ([]*models.StoredLink, error)
	// SaveLink inserts the link or updates the record with the same owner and link id.
	SaveLink(ctx context.Context, link *models.StoredLink) error
	DeleteLink(ctx context.Context, link *models.StoredLink) error
}

// EventSink delivers device events without waiting for acknowledgement.
type EventSink interface {
	PublishDeviceEvent(ctx context.Context, event models.DeviceEvent) error
}

// TopologyClient is the subset of the controller client used for syncing.
type TopologyClient interface {
	FetchTopology(ctx context.Context, topologyID string) (*restconf.Topology, error)
	FetchNodeFromTopology(ctx context.Context, topologyID, nodeID string) (*restconf.Node, error)
}

// Subscription is an open stream of signals. Close is idempotent.
type Subscription interface {
	Close() error
}

// ChangeStream opens controller change notifications for a topology.
type ChangeStream interface {
	Subscribe(ctx context.Context, topologyID string, onSignal func([]byte)) (Subscription, error)
}

// ImportHandler consumes import-completion signals. Deliveries never overlap.
type ImportHandler func(ctx context.Context, signal models.ImportSignal)

// ImportSignalSource delivers import-completion signals to one handler.
type ImportSignalSource interface {
	SubscribeImports(ctx context.Context, handler ImportHandler) (Subscription, error)
}

type restconfStream struct {
	client *restconf.Client
}

// NewChangeStream adapts a controller client to ChangeStream.
func NewChangeStream(client *restconf.Client) ChangeStream {
	return &restconfStream{client: client}
}

func (s *restconfStream) Subscribe(ctx context.Context, topologyID string, onSignal func([]byte)) (Subscription, error) {
	sub, err := s.client.SubscribeToChanges(ctx, topologyID, onSignal)
	if err != nil {
		return nil, err
	}

	return sub, nil
}
