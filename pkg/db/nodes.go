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
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/serviceradar-odl/pkg/models"
)

const selectDevicesBySourceSQL = `
SELECT n.id, n.label, n.foreign_source, n.foreign_id, m.context, m.key, m.value
FROM inventory_nodes n
LEFT JOIN inventory_node_metadata m ON m.node_id = n.id
WHERE n.foreign_source = $1
ORDER BY n.id, m.context, m.key`

// DevicesInForeignSource lists the devices of one source ordered by id,
// each with its metadata.
func (db *DB) DevicesInForeignSource(ctx context.Context, foreignSource string) ([]*models.Device, error) {
	if foreignSource == "" {
		return nil, ErrForeignSourceNeeded
	}

	rows, err := db.executor.Query(ctx, selectDevicesBySourceSQL, foreignSource)
	if err != nil {
		return nil, fmt.Errorf("%w: devices of %s: %w", ErrFailedToQuery, foreignSource, err)
	}
	defer rows.Close()

	return scanDevices(rows)
}

// scanDevices folds the joined rows, which arrive grouped by device id,
// into one Device per id.
func scanDevices(rows pgx.Rows) ([]*models.Device, error) {
	var (
		devices []*models.Device
		current *models.Device
	)

	for rows.Next() {
		var (
			d                   models.Device
			mdContext, key, val *string
		)

		if err := rows.Scan(&d.ID, &d.Label, &d.ForeignSource, &d.ForeignID, &mdContext, &key, &val); err != nil {
			return nil, fmt.Errorf("%w: device row: %w", ErrFailedToScan, err)
		}

		if current == nil || current.ID != d.ID {
			current = &d
			devices = append(devices, current)
		}

		if mdContext != nil && key != nil {
			md := models.MetaData{Context: *mdContext, Key: *key}
			if val != nil {
				md.Value = *val
			}

			current.MetaData = append(current.MetaData, md)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate devices: %w", ErrFailedToQuery, err)
	}

	return devices, nil
}
