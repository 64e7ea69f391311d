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

package models

import "time"

// MetaData is a single context-scoped key/value pair attached to a device.
type MetaData struct {
	Context string `json:"context"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

// Device is the platform's record of a managed device.
type Device struct {
	ID            int64      `json:"id"`
	Label         string     `json:"label"`
	ForeignSource string     `json:"foreign_source"`
	ForeignID     string     `json:"foreign_id"`
	MetaData      []MetaData `json:"metadata,omitempty"`
}

// MetaDataValue returns the value stored under context/key.
func (d *Device) MetaDataValue(context, key string) (string, bool) {
	for _, m := range d.MetaData {
		if m.Context == context && m.Key == key {
			return m.Value, true
		}
	}

	return "", false
}

// StoredLink is a persisted directed link between two managed devices.
// Only the writer identified by Owner creates or removes it.
type StoredLink struct {
	DeviceID        int64     `json:"device_id"`
	PortLabel       string    `json:"port_label"`
	LinkID          string    `json:"link_id"`
	LinkLabel       string    `json:"link_label"`
	RemoteDeviceID  int64     `json:"remote_device_id"`
	RemotePortLabel string    `json:"remote_port_label"`
	Owner           string    `json:"owner"`
	LastUpdated     time.Time `json:"last_updated,omitempty"`
}
