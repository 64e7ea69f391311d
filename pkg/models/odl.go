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

// DeviceEventType discriminates device reachability events.
type DeviceEventType string

const (
	DeviceOnline  DeviceEventType = "online"
	DeviceOffline DeviceEventType = "offline"
)

// DeviceEvent reports a reachability transition of one managed device.
type DeviceEvent struct {
	Type     DeviceEventType `json:"type"`
	Source   string          `json:"source"`
	DeviceID int64           `json:"device_id"`
}

// ImportSignal announces that the inventory of one source was (re)imported.
type ImportSignal struct {
	Parameters map[string]string `json:"parameters"`
}

// Parameter returns a named signal parameter.
func (s ImportSignal) Parameter(name string) (string, bool) {
	v, ok := s.Parameters[name]

	return v, ok
}
