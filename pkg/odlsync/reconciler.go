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

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/models"
	"github.com/carverauto/serviceradar-odl/pkg/restconf"
)

// ReconcilerConfig holds the settings of a Reconciler.
type ReconcilerConfig struct {
	TopologyID    string
	ForeignSource string
	Owner         string
	// SourceParameter names the import signal parameter carrying the source.
	SourceParameter string
	// Meter records reconciliation counters. Nil uses the global meter provider.
	Meter metric.Meter
}

// ReconcileResult summarizes one reconciliation run.
type ReconcileResult struct {
	Devices  int
	Inserted int
	Deleted  int
	Unmapped int
	Failed   int
}

// Reconciler converges the owned links of every managed device to the
// links the controller reports for its node.
type Reconciler struct {
	client  TopologyClient
	nodes   NodeStore
	links   LinkStore
	cfg     ReconcilerConfig
	metrics *syncMetrics
	logger  logger.Logger
}

func NewReconciler(cfg ReconcilerConfig, client TopologyClient, nodes NodeStore, links LinkStore, log logger.Logger) *Reconciler {
	if cfg.SourceParameter == "" {
		cfg.SourceParameter = "foreignSource"
	}

	return &Reconciler{
		client:  client,
		nodes:   nodes,
		links:   links,
		cfg:     cfg,
		metrics: newSyncMetrics(cfg.Meter),
		logger:  log,
	}
}

// HandleImportSignal runs a reconciliation when the signal names the
// configured foreign source. Other signals are ignored.
func (r *Reconciler) HandleImportSignal(ctx context.Context, signal models.ImportSignal) {
	source, ok := signal.Parameter(r.cfg.SourceParameter)
	if !ok {
		r.logger.Warn().
			Str("parameter", r.cfg.SourceParameter).
			Msg("Import signal without source parameter, ignoring")

		return
	}

	if source != r.cfg.ForeignSource {
		r.logger.Debug().Str("foreign_source", source).Msg("Ignoring import signal for other source")
		return
	}

	result, err := r.Reconcile(ctx)

	r.metrics.reconciled(ctx, result)

	if err != nil {
		r.logger.Error().Err(err).Msg("Link reconciliation aborted")
		return
	}

	r.logger.Info().
		Int("devices", result.Devices).
		Int("inserted", result.Inserted).
		Int("deleted", result.Deleted).
		Int("unmapped", result.Unmapped).
		Int("failed", result.Failed).
		Msg("Link reconciliation completed")
}

// Reconcile performs one run. It returns an error only when the topology or
// the device list cannot be read, in which case the store is left untouched.
func (r *Reconciler) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "odlsync.reconcile")
	defer span.End()

	topology, err := r.client.FetchTopology(ctx, r.cfg.TopologyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch topology")

		return nil, fmt.Errorf("fetch topology %s: %w", r.cfg.TopologyID, err)
	}

	bySource := topology.LinksBySourceNode()

	devices, err := r.nodes.DevicesInForeignSource(ctx, r.cfg.ForeignSource)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list devices")

		return nil, fmt.Errorf("list devices of %s: %w", r.cfg.ForeignSource, err)
	}

	index := r.buildIndex(devices)
	result := &ReconcileResult{}

	for _, d := range devices {
		ref, err := ResolveNodeRef(d, r.cfg.TopologyID)
		if err != nil {
			r.logger.Warn().Err(err).Int64("device_id", d.ID).Msg("Skipping device without node id")
			continue
		}

		if ref.TopologyID != r.cfg.TopologyID {
			continue
		}

		result.Devices++

		r.reconcileDevice(ctx, d, bySource[ref.NodeID], index, result)
	}

	span.SetAttributes(
		attribute.String("odlsync.topology_id", r.cfg.TopologyID),
		attribute.Int("odlsync.devices", result.Devices),
		attribute.Int("odlsync.inserted", result.Inserted),
		attribute.Int("odlsync.deleted", result.Deleted),
		attribute.Int("odlsync.unmapped", result.Unmapped),
		attribute.Int("odlsync.failures", result.Failed),
	)

	return result, nil
}

func (r *Reconciler) reconcileDevice(
	ctx context.Context, d *models.Device, expected []restconf.Link, index *deviceIndex, result *ReconcileResult) {
	current, err := r.links.OutgoingLinks(ctx, d.ID)
	if err != nil {
		result.Failed++

		r.logger.Error().Err(err).Int64("device_id", d.ID).Msg("Failed to read stored links")

		return
	}

	owned := make(map[string]*models.StoredLink, len(current))

	for _, l := range current {
		if l.Owner == r.cfg.Owner {
			owned[l.LinkID] = l
		}
	}

	expectedIDs := make(map[string]struct{}, len(expected))

	for i := range expected {
		link := &expected[i]
		expectedIDs[link.ID] = struct{}{}

		if _, ok := owned[link.ID]; ok {
			continue
		}

		remote, err := index.resolve(link.DestNode)
		if err != nil {
			result.Unmapped++

			r.logger.Warn().Err(err).
				Str("link_id", link.ID).
				Str("dest_node", link.DestNode).
				Msg("Skipping link with unmapped destination")

			continue
		}

		stored := &models.StoredLink{
			DeviceID:        d.ID,
			PortLabel:       link.SourceTP,
			LinkID:          link.ID,
			LinkLabel:       LinkLabel,
			RemoteDeviceID:  remote.ID,
			RemotePortLabel: link.DestTP,
			Owner:           r.cfg.Owner,
		}

		if err := r.links.SaveLink(ctx, stored); err != nil {
			result.Failed++

			r.logger.Error().Err(err).Str("link_id", link.ID).Msg("Failed to save link")

			continue
		}

		result.Inserted++
	}

	for _, l := range current {
		if l.Owner != r.cfg.Owner {
			continue
		}

		if _, ok := expectedIDs[l.LinkID]; ok {
			continue
		}

		if err := r.links.DeleteLink(ctx, l); err != nil {
			result.Failed++

			r.logger.Error().Err(err).Str("link_id", l.LinkID).Msg("Failed to delete stale link")

			continue
		}

		result.Deleted++
	}
}

// deviceIndex resolves controller node ids to managed devices, first by
// label and then by the device's own node id.
type deviceIndex struct {
	byLabel   map[string]*models.Device
	byNodeID  map[string]*models.Device
	ambiguous map[string]struct{}
}

func (r *Reconciler) buildIndex(devices []*models.Device) *deviceIndex {
	idx := &deviceIndex{
		byLabel:   make(map[string]*models.Device, len(devices)),
		byNodeID:  make(map[string]*models.Device, len(devices)),
		ambiguous: make(map[string]struct{}),
	}

	for _, d := range devices {
		if d.Label != "" {
			if _, dup := idx.byLabel[d.Label]; dup {
				idx.ambiguous[d.Label] = struct{}{}
			}

			idx.byLabel[d.Label] = d
		}

		if ref, err := ResolveNodeRef(d, r.cfg.TopologyID); err == nil {
			if _, ok := idx.byNodeID[ref.NodeID]; !ok {
				idx.byNodeID[ref.NodeID] = d
			}
		}
	}

	for label := range idx.ambiguous {
		r.logger.Warn().Str("label", label).Msg("Device label is not unique within source")
	}

	return idx
}

func (idx *deviceIndex) resolve(nodeID string) (*models.Device, error) {
	if _, ok := idx.ambiguous[nodeID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousNode, nodeID)
	}

	if d, ok := idx.byLabel[nodeID]; ok {
		return d, nil
	}

	if d, ok := idx.byNodeID[nodeID]; ok {
		return d, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnmappedNode, nodeID)
}
