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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/serviceradar-odl/pkg/models"
)

const (
	selectOutgoingLinksSQL = `
SELECT device_id, port_label, link_id, link_label, remote_device_id, remote_port_label, owner, last_updated
FROM device_links
WHERE device_id = $1
ORDER BY owner, link_id`

	upsertLinkSQL = `
INSERT INTO device_links (
    device_id, port_label, link_id, link_label, remote_device_id, remote_port_label, owner, last_updated
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (owner, device_id, link_id) DO UPDATE SET
    port_label        = EXCLUDED.port_label,
    link_label        = EXCLUDED.link_label,
    remote_device_id  = EXCLUDED.remote_device_id,
    remote_port_label = EXCLUDED.remote_port_label,
    last_updated      = EXCLUDED.last_updated`

	deleteLinkSQL = `DELETE FROM device_links WHERE owner = $1 AND device_id = $2 AND link_id = $3`
)

// nowUTC is replaced in tests.
var nowUTC = func() time.Time { return time.Now().UTC() }

// OutgoingLinks returns every link stored for deviceID, whatever its owner.
func (db *DB) OutgoingLinks(ctx context.Context, deviceID int64) ([]*models.StoredLink, error) {
	rows, err := db.executor.Query(ctx, selectOutgoingLinksSQL, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: links of device %d: %w", ErrFailedToQuery, deviceID, err)
	}
	defer rows.Close()

	return scanLinks(rows)
}

// SaveLink inserts the link or updates the row with the same owner,
// device and link id. Rows of other owners are never touched.
func (db *DB) SaveLink(ctx context.Context, link *models.StoredLink) error {
	args, err := buildLinkArgs(link)
	if err != nil {
		return err
	}

	if _, err := db.executor.Exec(ctx, upsertLinkSQL, args...); err != nil {
		return fmt.Errorf("%w: link %s: %w", ErrFailedToInsert, link.LinkID, err)
	}

	return nil
}

// DeleteLink removes the row matching the link's owner, device and link id.
func (db *DB) DeleteLink(ctx context.Context, link *models.StoredLink) error {
	if err := validateLink(link); err != nil {
		return err
	}

	if _, err := db.executor.Exec(ctx, deleteLinkSQL, link.Owner, link.DeviceID, link.LinkID); err != nil {
		return fmt.Errorf("%w: link %s: %w", ErrFailedToDelete, link.LinkID, err)
	}

	return nil
}

func validateLink(link *models.StoredLink) error {
	switch {
	case link == nil:
		return ErrLinkNil
	case link.LinkID == "":
		return ErrLinkIDRequired
	case link.Owner == "":
		return ErrLinkOwnerRequired
	}

	return nil
}

func buildLinkArgs(link *models.StoredLink) ([]any, error) {
	if err := validateLink(link); err != nil {
		return nil, err
	}

	updated := link.LastUpdated
	if updated.IsZero() {
		updated = nowUTC()
	}

	return []any{
		link.DeviceID,
		link.PortLabel,
		link.LinkID,
		link.LinkLabel,
		link.RemoteDeviceID,
		link.RemotePortLabel,
		link.Owner,
		updated.UTC(),
	}, nil
}

func scanLinks(rows pgx.Rows) ([]*models.StoredLink, error) {
	var links []*models.StoredLink

	for rows.Next() {
		var l models.StoredLink

		if err := rows.Scan(
			&l.DeviceID,
			&l.PortLabel,
			&l.LinkID,
			&l.LinkLabel,
			&l.RemoteDeviceID,
			&l.RemotePortLabel,
			&l.Owner,
			&l.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("%w: link row: %w", ErrFailedToScan, err)
		}

		links = append(links, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate links: %w", ErrFailedToQuery, err)
	}

	return links, nil
}
