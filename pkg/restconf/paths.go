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
	"fmt"
	"net/url"
)

const (
	networkTopologyPath    = "/restconf/operational/network-topology:network-topology/"
	inventoryNodesPath     = "/restconf/operational/opendaylight-inventory:nodes/"
	createSubscriptionPath = "/restconf/operations/sal-remote:create-data-change-event-subscription"
	streamPath             = "/restconf/streams/stream/"

	datastoreOperational = "OPERATIONAL"
	scopeSubtree         = "SUBTREE"
)

func topologyPath(topologyID string) string {
	return networkTopologyPath + "topology/" + url.PathEscape(topologyID)
}

func topologyNodePath(topologyID, nodeID string) string {
	return topologyPath(topologyID) + "/node/" + url.PathEscape(nodeID)
}

func inventoryNodePath(nodeID string) string {
	return inventoryNodesPath + "node/" + url.PathEscape(nodeID)
}

// streamLocationPath keeps the '/' separators of the stream name, which
// the controller builds from the subscribed path.
func streamLocationPath(streamName string) string {
	return streamPath + streamName
}

// TopologyInstancePath is the data-store instance identifier of one
// topology, as accepted by the change subscription RPC.
func TopologyInstancePath(topologyID string) string {
	return fmt.Sprintf("/network-topology:network-topology/network-topology:topology[network-topology:topology-id='%s']", topologyID)
}
