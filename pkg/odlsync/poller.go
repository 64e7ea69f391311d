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
	"fmt"

	"github.com/carverauto/serviceradar-odl/pkg/models"
)

// StatusPoller answers whether a device is present in the controller's
// operational topology.
type StatusPoller struct {
	client          TopologyClient
	defaultTopology string
}

func NewStatusPoller(client TopologyClient, defaultTopology string) *StatusPoller {
	return &StatusPoller{client: client, defaultTopology: defaultTopology}
}

// Poll returns true when the controller knows the device's node and false
// when it answers "not found". Any other failure is returned as an error.
func (p *StatusPoller) Poll(ctx context.Context, d *models.Device) (bool, error) {
	ref, err := ResolveNodeRef(d, p.defaultTopology)
	if err != nil {
		return false, err
	}

	node, err := p.client.FetchNodeFromTopology(ctx, ref.TopologyID, ref.NodeID)
	if err != nil {
		return false, fmt.Errorf("poll node %s in %s: %w", ref.NodeID, ref.TopologyID, err)
	}

	return node != nil, nil
}
