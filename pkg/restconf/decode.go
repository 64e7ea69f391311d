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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	resourceNetworkTopology = "network-topology"
	resourceTopology        = "topology"
	resourceNode            = "node"
	resourceInventoryNode   = "inventory node"
	resourceSubscription    = "subscription"
	resourceStream          = "stream"
)

// object is a JSON object keyed by local member name. RESTCONF JSON
// qualifies top-level and augmented members with their module
// ("network-topology:topology", "flow-node-inventory:name"); the prefix
// is dropped so both forms decode the same way. Two members that share a
// local name under different prefixes are rejected.
type object map[string]json.RawMessage

func localName(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}

	return key
}

func parseObject(data []byte) (object, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, fmt.Errorf("%w: expected an object, got null", ErrInvalidField)
	}

	obj := make(object, len(raw))
	seen := make(map[string]string, len(raw))

	for k, v := range raw {
		name := localName(k)
		if prev, dup := seen[name]; dup {
			if prev > k {
				prev, k = k, prev
			}

			return nil, fmt.Errorf("%w: members %q and %q both decode as %q", ErrInvalidField, prev, k, name)
		}

		seen[name] = k
		obj[name] = v
	}

	return obj, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// scalar returns a string or number member as a string.
func (o object) scalar(name string) (string, bool, error) {
	raw, ok := o[name]
	if !ok || isNull(raw) {
		return "", false, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true, nil
	}

	return "", false, fmt.Errorf("%w: %s is not a scalar", ErrInvalidField, name)
}

func (o object) requiredString(name string) (string, error) {
	s, ok, err := o.scalar(name)
	if err != nil {
		return "", err
	}

	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, name)
	}

	return s, nil
}

func (o object) optionalString(name string) (string, error) {
	s, _, err := o.scalar(name)

	return s, err
}

func (o object) uint(name string) (uint64, error) {
	s, ok, err := o.scalar(name)
	if err != nil || !ok {
		return 0, err
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidField, name, err)
	}

	return v, nil
}

// child returns a nested object member; a missing member yields nil.
func (o object) child(name string) (object, error) {
	raw, ok := o[name]
	if !ok || isNull(raw) {
		return nil, nil
	}

	c, err := parseObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidField, name, err)
	}

	return c, nil
}

func (o object) requiredChild(name string) (object, error) {
	c, err := o.child(name)
	if err != nil {
		return nil, err
	}

	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, name)
	}

	return c, nil
}

// list returns a list member; a missing member yields an empty list.
func (o object) list(name string) ([]object, error) {
	raw, ok := o[name]
	if !ok || isNull(raw) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s is not a list: %w", ErrInvalidField, name, err)
	}

	out := make([]object, 0, len(items))

	for i, item := range items {
		obj, err := parseObject(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %w", ErrInvalidField, name, i, err)
		}

		out = append(out, obj)
	}

	return out, nil
}

// singleEntry unwraps the one-element list RESTCONF returns for a keyed
// list entry, e.g. {"topology":[{...}]}.
func singleEntry(data []byte, name string) (object, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	entries, err := root.list(name)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResult, name)
	}

	return entries[0], nil
}

func decodeNetworkTopology(data []byte) (*NetworkTopology, error) {
	nt, err := decodeNetworkTopologyBody(data)
	if err != nil {
		return nil, &DecodeError{Resource: resourceNetworkTopology, Err: err}
	}

	return nt, nil
}

func decodeNetworkTopologyBody(data []byte) (*NetworkTopology, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	container, err := root.requiredChild("network-topology")
	if err != nil {
		return nil, err
	}

	entries, err := container.list("topology")
	if err != nil {
		return nil, err
	}

	nt := &NetworkTopology{Topologies: make([]Topology, 0, len(entries))}

	for _, entry := range entries {
		t, err := topologyFromObject(entry)
		if err != nil {
			return nil, err
		}

		nt.Topologies = append(nt.Topologies, *t)
	}

	return nt, nil
}

func decodeTopology(data []byte) (*Topology, error) {
	entry, err := singleEntry(data, "topology")
	if err != nil {
		return nil, &DecodeError{Resource: resourceTopology, Err: err}
	}

	t, err := topologyFromObject(entry)
	if err != nil {
		return nil, &DecodeError{Resource: resourceTopology, Err: err}
	}

	return t, nil
}

func decodeNode(data []byte) (*Node, error) {
	entry, err := singleEntry(data, "node")
	if err != nil {
		return nil, &DecodeError{Resource: resourceNode, Err: err}
	}

	n, err := nodeFromObject(entry)
	if err != nil {
		return nil, &DecodeError{Resource: resourceNode, Err: err}
	}

	return n, nil
}

func decodeInventoryNode(data []byte) (*InventoryNode, error) {
	entry, err := singleEntry(data, "node")
	if err != nil {
		return nil, &DecodeError{Resource: resourceInventoryNode, Err: err}
	}

	n, err := inventoryNodeFromObject(entry)
	if err != nil {
		return nil, &DecodeError{Resource: resourceInventoryNode, Err: err}
	}

	return n, nil
}

func topologyFromObject(obj object) (*Topology, error) {
	id, err := obj.requiredString("topology-id")
	if err != nil {
		return nil, err
	}

	t := &Topology{ID: id}

	nodes, err := obj.list("node")
	if err != nil {
		return nil, fmt.Errorf("topology %s: %w", id, err)
	}

	for _, n := range nodes {
		node, err := nodeFromObject(n)
		if err != nil {
			return nil, fmt.Errorf("topology %s: %w", id, err)
		}

		t.Nodes = append(t.Nodes, *node)
	}

	links, err := obj.list("link")
	if err != nil {
		return nil, fmt.Errorf("topology %s: %w", id, err)
	}

	for _, l := range links {
		link, err := linkFromObject(l)
		if err != nil {
			return nil, fmt.Errorf("topology %s: %w", id, err)
		}

		t.Links = append(t.Links, *link)
	}

	return t, nil
}

func nodeFromObject(obj object) (*Node, error) {
	id, err := obj.requiredString("node-id")
	if err != nil {
		return nil, err
	}

	n := &Node{ID: id}

	tps, err := obj.list("termination-point")
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", id, err)
	}

	for _, tp := range tps {
		tpID, err := tp.requiredString("tp-id")
		if err != nil {
			return nil, fmt.Errorf("node %s: termination-point: %w", id, err)
		}

		n.TerminationPoints = append(n.TerminationPoints, TerminationPoint{ID: tpID})
	}

	return n, nil
}

func linkFromObject(obj object) (*Link, error) {
	id, err := obj.requiredString("link-id")
	if err != nil {
		return nil, err
	}

	src, err := obj.requiredChild("source")
	if err != nil {
		return nil, fmt.Errorf("link %s: %w", id, err)
	}

	dst, err := obj.requiredChild("destination")
	if err != nil {
		return nil, fmt.Errorf("link %s: %w", id, err)
	}

	l := &Link{ID: id}

	if l.SourceNode, err = src.requiredString("source-node"); err != nil {
		return nil, fmt.Errorf("link %s: %w", id, err)
	}

	if l.SourceTP, err = src.optionalString("source-tp"); err != nil {
		return nil, fmt.Errorf("link %s: %w", id, err)
	}

	if l.DestNode, err = dst.requiredString("dest-node"); err != nil {
		return nil, fmt.Errorf("link %s: %w", id, err)
	}

	if l.DestTP, err = dst.optionalString("dest-tp"); err != nil {
		return nil, fmt.Errorf("link %s: %w", id, err)
	}

	return l, nil
}

func inventoryNodeFromObject(obj object) (*InventoryNode, error) {
	id, err := obj.requiredString("id")
	if err != nil {
		return nil, err
	}

	n := &InventoryNode{ID: id}

	descriptors := []struct {
		name string
		dst  *string
	}{
		{"manufacturer", &n.Manufacturer},
		{"hardware", &n.Hardware},
		{"software", &n.Software},
		{"serial-number", &n.SerialNumber},
		{"description", &n.Description},
		{"ip-address", &n.IPAddress},
	}

	for _, d := range descriptors {
		if *d.dst, err = obj.optionalString(d.name); err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
	}

	connectors, err := obj.list("node-connector")
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", id, err)
	}

	for _, c := range connectors {
		nc, err := connectorFromObject(c)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}

		n.Connectors = append(n.Connectors, *nc)
	}

	return n, nil
}

func connectorFromObject(obj object) (*NodeConnector, error) {
	id, err := obj.requiredString("id")
	if err != nil {
		return nil, fmt.Errorf("node-connector: %w", err)
	}

	nc := &NodeConnector{ID: id}

	if nc.Name, err = obj.optionalString("name"); err != nil {
		return nil, fmt.Errorf("connector %s: %w", id, err)
	}

	if nc.PortNumber, err = obj.optionalString("port-number"); err != nil {
		return nil, fmt.Errorf("connector %s: %w", id, err)
	}

	if nc.HardwareAddress, err = obj.optionalString("hardware-address"); err != nil {
		return nil, fmt.Errorf("connector %s: %w", id, err)
	}

	if nc.CurrentSpeed, err = obj.uint("current-speed"); err != nil {
		return nil, fmt.Errorf("connector %s: %w", id, err)
	}

	stats, err := obj.child("flow-capable-node-connector-statistics")
	if err != nil {
		return nil, fmt.Errorf("connector %s: %w", id, err)
	}

	if stats != nil {
		if nc.Statistics, err = statisticsFromObject(stats); err != nil {
			return nil, fmt.Errorf("connector %s: %w", id, err)
		}
	}

	return nc, nil
}

func statisticsFromObject(obj object) (*PortStatistics, error) {
	ps := &PortStatistics{}

	pairs := []struct {
		container string
		member    string
		dst       *uint64
	}{
		{"bytes", "received", &ps.BytesReceived},
		{"bytes", "transmitted", &ps.BytesTransmitted},
		{"packets", "received", &ps.PacketsReceived},
		{"packets", "transmitted", &ps.PacketsTransmitted},
		{"duration", "second", &ps.DurationSeconds},
	}

	for _, p := range pairs {
		c, err := obj.child(p.container)
		if err != nil {
			return nil, err
		}

		if c == nil {
			continue
		}

		if *p.dst, err = c.uint(p.member); err != nil {
			return nil, fmt.Errorf("%s: %w", p.container, err)
		}
	}

	flat := []struct {
		name string
		dst  *uint64
	}{
		{"receive-drops", &ps.ReceiveDrops},
		{"transmit-drops", &ps.TransmitDrops},
		{"receive-errors", &ps.ReceiveErrors},
		{"transmit-errors", &ps.TransmitErrors},
	}

	for _, f := range flat {
		v, err := obj.uint(f.name)
		if err != nil {
			return nil, err
		}

		*f.dst = v
	}

	return ps, nil
}

// decodeStreamName extracts output.stream-name from a create-subscription reply.
func decodeStreamName(data []byte) (string, error) {
	root, err := parseObject(data)
	if err != nil {
		return "", &DecodeError{Resource: resourceSubscription, Err: err}
	}

	output, err := root.requiredChild("output")
	if err != nil {
		return "", &DecodeError{Resource: resourceSubscription, Err: err}
	}

	name, err := output.optionalString("stream-name")
	if err != nil {
		return "", &DecodeError{Resource: resourceSubscription, Err: err}
	}

	if name == "" {
		return "", &DecodeError{Resource: resourceSubscription, Err: ErrNoStreamName}
	}

	return name, nil
}

// decodeStreamLocation reads "location" from a stream resolution body. An
// empty body is not an error; the caller falls back to the Location header.
func decodeStreamLocation(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}

	root, err := parseObject(data)
	if err != nil {
		return "", &DecodeError{Resource: resourceStream, Err: err}
	}

	location, err := root.optionalString("location")
	if err != nil {
		return "", &DecodeError{Resource: resourceStream, Err: err}
	}

	return location, nil
}
