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
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		payload  string
		wantKeys []string
		wantErr  bool
	}{
		{
			name:     "unqualified members",
			payload:  `{"node-id":"openflow:1","termination-point":[]}`,
			wantKeys: []string{"node-id", "termination-point"},
		},
		{
			name:     "module qualified members",
			payload:  `{"network-topology:topology":[],"flow-node-inventory:name":"s1"}`,
			wantKeys: []string{"topology", "name"},
		},
		{
			name:    "same local name under two modules",
			payload: `{"flow-node-inventory:name":"s1","other-module:name":"s2"}`,
			wantErr: true,
		},
		{
			name:    "qualified and unqualified collide",
			payload: `{"name":"s1","flow-node-inventory:name":"s2"}`,
			wantErr: true,
		},
		{
			name:    "null document",
			payload: `null`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			obj, err := parseObject([]byte(tc.payload))
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidField)

				return
			}

			require.NoError(t, err)

			keys := make([]string, 0, len(obj))
			for k := range obj {
				keys = append(keys, k)
			}

			assert.ElementsMatch(t, tc.wantKeys, keys)
		})
	}
}

func TestFetchTopologyRejectsCollidingMembers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"topology":[{"topology-id":"flow:1","node":[
			{"node-id":"openflow:1","a:inventory-node-ref":"/x","b:inventory-node-ref":"/y"}
		]}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).FetchTopology(context.Background(), "flow:1")
	require.ErrorIs(t, err, ErrInvalidField)
}
