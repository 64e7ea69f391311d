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

import "errors"

var (
	// ErrUnmappedNode marks a controller node with no managed device.
	ErrUnmappedNode = errors.New("controller node has no managed device")
	// ErrAmbiguousNode marks a controller node matched by several devices.
	ErrAmbiguousNode  = errors.New("controller node matches more than one managed device")
	ErrNoNodeID       = errors.New("device has no controller node id")
	ErrStopTimeout    = errors.New("refresh worker did not stop in time")
	ErrAlreadyStarted = errors.New("already started")

	ErrConfigNil         = errors.New("config cannot be nil")
	ErrDependencyMissing = errors.New("required dependency is missing")
)
