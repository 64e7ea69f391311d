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

package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/serviceradar-odl/pkg/models"
)

func TestDevicesInForeignSourceGroupsMetadata(t *testing.T) {
	var none *string

	exec := &fakePgxExecutor{rows: [][]any{
		{int64(1), "openflow:1", "ODL", "openflow_1", strPtr("ODL"), strPtr("nodeId"), strPtr("openflow:1")},
		{int64(1), "openflow:1", "ODL", "openflow_1", strPtr("ODL"), strPtr("topologyId"), strPtr("flow:1")},
		{int64(2), "openflow:2", "ODL", "openflow_2", none, none, none},
		{int64(3), "core", "ODL", "openflow_3", strPtr("ODL"), strPtr("nodeIdIndex"), none},
	}}
	db := newTestDB(exec)

	devices, err := db.DevicesInForeignSource(context.Background(), "ODL")
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, []any{"ODL"}, exec.queries[0].args)

	assert.Equal(t, &models.Device{
		ID:            1,
		Label:         "openflow:1",
		ForeignSource: "ODL",
		ForeignID:     "openflow_1",
		MetaData: []models.MetaData{
			{Context: "ODL", Key: "nodeId", Value: "openflow:1"},
			{Context: "ODL", Key: "topologyId", Value: "flow:1"},
		},
	}, devices[0])

	assert.Empty(t, devices[1].MetaData)
	assert.Equal(t, []models.MetaData{{Context: "ODL", Key: "nodeIdIndex"}}, devices[2].MetaData)
}

func TestDevicesInForeignSourceErrors(t *testing.T) {
	db := newTestDB(&fakePgxExecutor{})

	_, err := db.DevicesInForeignSource(context.Background(), "")
	require.ErrorIs(t, err, ErrForeignSourceNeeded)

	db = newTestDB(&fakePgxExecutor{queryErr: errBoom})

	_, err = db.DevicesInForeignSource(context.Background(), "ODL")
	require.ErrorIs(t, err, ErrFailedToQuery)
}

func TestDevicesInForeignSourceEmpty(t *testing.T) {
	devices, err := newTestDB(&fakePgxExecutor{}).DevicesInForeignSource(context.Background(), "ODL")
	require.NoError(t, err)
	assert.Empty(t, devices)
}
