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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/serviceradar-odl/pkg/models"
)

const (
	meterName = "odlsync"

	metricRefreshCyclesTotal     = "odlsync_refresh_cycles_total"
	metricDeviceEventsTotal      = "odlsync_device_events_total"
	metricPollFailuresTotal      = "odlsync_poll_failures_total"
	metricReconcileRunsTotal     = "odlsync_reconcile_runs_total"
	metricReconcileLinksTotal    = "odlsync_reconcile_links_total"
	metricReconcileFailuresTotal = "odlsync_reconcile_device_failures_total"
)

// syncMetrics holds the counters of the refresher and the reconciler. An
// instrument that could not be created stays nil and is skipped.
type syncMetrics struct {
	refreshCycles     metric.Int64Counter
	deviceEvents      metric.Int64Counter
	pollFailures      metric.Int64Counter
	reconcileRuns     metric.Int64Counter
	reconcileLinks    metric.Int64Counter
	reconcileFailures metric.Int64Counter
}

func newSyncMetrics(meter metric.Meter) *syncMetrics {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			otel.Handle(err)
			return nil
		}

		return c
	}

	return &syncMetrics{
		refreshCycles:     counter(metricRefreshCyclesTotal, "Completed device status refresh cycles"),
		deviceEvents:      counter(metricDeviceEventsTotal, "Device online/offline events published"),
		pollFailures:      counter(metricPollFailuresTotal, "Device status polls that failed"),
		reconcileRuns:     counter(metricReconcileRunsTotal, "Link reconciliation runs by outcome"),
		reconcileLinks:    counter(metricReconcileLinksTotal, "Links inserted, deleted or skipped as unmapped"),
		reconcileFailures: counter(metricReconcileFailuresTotal, "Devices whose link reconciliation failed"),
	}
}

func (m *syncMetrics) refreshed(ctx context.Context, failures int) {
	if m.refreshCycles != nil {
		m.refreshCycles.Add(ctx, 1)
	}

	if m.pollFailures != nil && failures > 0 {
		m.pollFailures.Add(ctx, int64(failures))
	}
}

func (m *syncMetrics) eventPublished(ctx context.Context, eventType models.DeviceEventType) {
	if m.deviceEvents == nil {
		return
	}

	m.deviceEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(eventType))))
}

func (m *syncMetrics) reconciled(ctx context.Context, result *ReconcileResult) {
	if m.reconcileRuns != nil {
		status := "completed"
		if result == nil {
			status = "aborted"
		}

		m.reconcileRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}

	if result == nil {
		return
	}

	if m.reconcileLinks != nil {
		for action, n := range map[string]int{
			"inserted": result.Inserted,
			"deleted":  result.Deleted,
			"unmapped": result.Unmapped,
		} {
			if n > 0 {
				m.reconcileLinks.Add(ctx, int64(n), metric.WithAttributes(attribute.String("action", action)))
			}
		}
	}

	if m.reconcileFailures != nil && result.Failed > 0 {
		m.reconcileFailures.Add(ctx, int64(result.Failed))
	}
}
