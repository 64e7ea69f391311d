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
	"fmt"
	"strings"

	"github.com/carverauto/serviceradar-odl/pkg/models"
)

const (
	// MetadataContext scopes the metadata this service attaches to devices.
	MetadataContext = "ODL"

	MetadataNodeID      = "nodeId"
	MetadataNodeIDIndex = "nodeIdIndex"
	MetadataTopologyID  = "topologyId"

	// LinkLabel is the human-readable label of every stored link.
	LinkLabel = "ODL link"
)

// ForeignIDFromNodeID maps a controller node id to a device foreign id.
// Colons separate segments in node ids and become underscores.
func ForeignIDFromNodeID(nodeID string) string {
	return strings.ReplaceAll(nodeID, ":", "_")
}

// NodeIDFromForeignID reverses ForeignIDFromNodeID. It is exact for node
// ids that contain no literal underscore.
func NodeIDFromForeignID(foreignID string) string {
	return strings.ReplaceAll(foreignID, "_", ":")
}

// NodeIDIndex returns the last colon-delimited segment of a node id
// ("6" for "openflow:6").
func NodeIDIndex(nodeID string) string {
	if i := strings.LastIndexByte(nodeID, ':'); i >= 0 {
		return nodeID[i+1:]
	}

	return nodeID
}

// NodeMetadata builds the metadata recorded for a device created from a
// controller node.
func NodeMetadata(topologyID, nodeID string) []models.MetaData {
	return []models.MetaData{
		{Context: MetadataContext, Key: MetadataNodeID, Value: nodeID},
		{Context: MetadataContext, Key: MetadataNodeIDIndex, Value: NodeIDIndex(nodeID)},
		{Context: MetadataContext, Key: MetadataTopologyID, Value: topologyID},
	}
}

// NodeRef locates a device's counterpart on the controller.
type NodeRef struct {
	TopologyID string
	NodeID     string
}

// ResolveNodeRef reads the controller topology and node id of a device
// from its metadata. Without metadata the node id is derived from the
// foreign id and the topology defaults to defaultTopology.
func ResolveNodeRef(d *models.Device, defaultTopology string) (NodeRef, error) {
	ref := NodeRef{TopologyID: defaultTopology}

	if v, ok := d.MetaDataValue(MetadataContext, MetadataTopologyID); ok && v != "" {
		ref.TopologyID = v
	}

	if v, ok := d.MetaDataValue(MetadataContext, MetadataNodeID); ok && v != "" {
		ref.NodeID = v
	} else if d.ForeignID != "" {
		ref.NodeID = NodeIDFromForeignID(d.ForeignID)
	}

	if ref.NodeID == "" {
		return ref, fmt.Errorf("%w: device %d", ErrNoNodeID, d.ID)
	}

	return ref, nil
}
