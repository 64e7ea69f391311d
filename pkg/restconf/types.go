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
	"regexp"
)

// NetworkTopology is every topology in the controller's operational store.
type NetworkTopology struct {
	Topologies []Topology `json:"topologies"`
}

// Topology is a snapshot of one named graph.
type Topology struct {
	ID    string `json:"topology_id"`
	Nodes []Node `json:"nodes,omitempty"`
	Links []Link `json:"links,omitempty"`
}

// LinksBySourceNode groups the topology's links by source node id,
// preserving their order within each group.
func (t *Topology) LinksBySourceNode() map[string][]Link {
	out := make(map[string][]Link)

	for _, l := range t.Links {
		out[l.SourceNode] = append(out[l.SourceNode], l)
	}

	return out
}

// Node is the topology view of a controller node.
type Node struct {
	ID                string             `json:"node_id"`
	TerminationPoints []TerminationPoint `json:"termination_points,omitempty"`
}

type TerminationPoint struct {
	ID string `json:"tp_id"`
}

// Link is a directed single-hop link between two termination points.
type Link struct {
	ID         string `json:"link_id"`
	SourceNode string `json:"source_node"`
	SourceTP   string `json:"source_tp,omitempty"`
	DestNode   string `json:"dest_node"`
	DestTP     string `json:"dest_tp,omitempty"`
}

// InventoryNode is the inventory view of a controller node: hardware
// descriptors plus its connectors and their counters.
type InventoryNode struct {
	ID           string          `json:"id"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	Hardware     string          `json:"hardware,omitempty"`
	Software     string          `json:"software,omitempty"`
	SerialNumber string          `json:"serial_number,omitempty"`
	Description  string          `json:"description,omitempty"`
	IPAddress    string          `json:"ip_address,omitempty"`
	Connectors   []NodeConnector `json:"connectors,omitempty"`
}

// NodeConnector is a port on an inventory node. CurrentSpeed is in kbps.
type NodeConnector struct {
	ID              string          `json:"id"`
	Name            string          `json:"name,omitempty"`
	PortNumber      string          `json:"port_number,omitempty"`
	HardwareAddress string          `json:"hardware_address,omitempty"`
	CurrentSpeed    uint64          `json:"current_speed,omitempty"`
	Statistics      *PortStatistics `json:"statistics,omitempty"`
}

type PortStatistics struct {
	BytesReceived      uint64 `json:"bytes_received"`
	BytesTransmitted   uint64 `json:"bytes_transmitted"`
	PacketsReceived    uint64 `json:"packets_received"`
	PacketsTransmitted uint64 `json:"packets_transmitted"`
	ReceiveDrops       uint64 `json:"receive_drops"`
	TransmitDrops      uint64 `json:"transmit_drops"`
	ReceiveErrors      uint64 `json:"receive_errors"`
	TransmitErrors     uint64 `json:"transmit_errors"`
	DurationSeconds    uint64 `json:"duration_seconds"`
}

// PortMetric is the interface-style counter set derived from a connector.
type PortMetric struct {
	Instance         string `json:"instance"`
	IfName           string `json:"if_name"`
	IfHighSpeed      uint64 `json:"if_high_speed"`
	IfHCInOctets     uint64 `json:"if_hc_in_octets"`
	IfHCOutOctets    uint64 `json:"if_hc_out_octets"`
	IfHCInUcastPkts  uint64 `json:"if_hc_in_ucast_pkts"`
	IfHCOutUcastPkts uint64 `json:"if_hc_out_ucast_pkts"`
	TransmitDrops    uint64 `json:"transmit_drops"`
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// PortMetrics returns one entry per connector that reports statistics.
// Instance is the connector id with every non-alphanumeric character
// replaced by '_'; IfHighSpeed is in Mbps.
func (n *InventoryNode) PortMetrics() []PortMetric {
	metrics := make([]PortMetric, 0, len(n.Connectors))

	for _, c := range n.Connectors {
		if c.Statistics == nil {
			continue
		}

		metrics = append(metrics, PortMetric{
			Instance:         nonAlphanumeric.ReplaceAllString(c.ID, "_"),
			IfName:           c.Name,
			IfHighSpeed:      c.CurrentSpeed / 1000,
			IfHCInOctets:     c.Statistics.BytesReceived,
			IfHCOutOctets:    c.Statistics.BytesTransmitted,
			IfHCInUcastPkts:  c.Statistics.PacketsReceived,
			IfHCOutUcastPkts: c.Statistics.PacketsTransmitted,
			TransmitDrops:    c.Statistics.TransmitDrops,
		})
	}

	return metrics
}
