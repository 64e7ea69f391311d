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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/models"
)

const tracerName = "odlsync"

// RefresherConfig holds the settings of a Refresher.
type RefresherConfig struct {
	ForeignSource string
	EventSource   string
	Interval      time.Duration
	// Meter records refresh counters. Nil uses the global meter provider.
	Meter metric.Meter
}

// Refresher polls every managed device on a single background worker and
// publishes an event whenever a device's presence changes. The first
// observation of a device always counts as a change.
type Refresher struct {
	nodes         NodeStore
	poller        *StatusPoller
	events        EventSink
	foreignSource string
	eventSource   string
	interval      time.Duration
	metrics       *syncMetrics
	logger        logger.Logger

	wake chan struct{}

	// status is written only by the worker; mu lets TrackedDevices read it.
	mu     sync.Mutex
	status map[int64]bool

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewRefresher creates a Refresher. A zero interval uses DefaultRefreshInterval.
func NewRefresher(cfg RefresherConfig, nodes NodeStore, poller *StatusPoller, events EventSink, log logger.Logger) *Refresher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	return &Refresher{
		nodes:         nodes,
		poller:        poller,
		events:        events,
		foreignSource: cfg.ForeignSource,
		eventSource:   cfg.EventSource,
		interval:      interval,
		metrics:       newSyncMetrics(cfg.Meter),
		logger:        log,
		wake:          make(chan struct{}, 1),
		status:        make(map[int64]bool),
	}
}

// Start launches the worker. The first cycle runs after one interval or
// the first Trigger, whichever comes first.
func (r *Refresher) Start(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	r.cancel = cancel
	r.done = make(chan struct{})
	r.started = true

	r.logger.Info().
		Str("foreign_source", r.foreignSource).
		Dur("interval", r.interval).
		Msg("Starting status refresher")

	go r.run(runCtx, r.done)

	return nil
}

// Stop cancels the worker, interrupting a pending wait or an in-flight
// cycle, and waits for it to exit until ctx is done.
func (r *Refresher) Stop(ctx context.Context) error {
	r.runMu.Lock()

	if !r.started {
		r.runMu.Unlock()
		return nil
	}

	r.cancel()
	done := r.done
	r.started = false
	r.runMu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrStopTimeout
	}
}

// Trigger requests an out-of-cycle refresh. It never blocks; triggers that
// arrive while one is already pending are coalesced.
func (r *Refresher) Trigger() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Signal adapts Trigger to a change-stream callback.
func (r *Refresher) Signal([]byte) {
	r.Trigger()
}

// TrackedDevices returns the number of devices with a recorded status.
// Entries are never evicted.
func (r *Refresher) TrackedDevices() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.status)
}

func (r *Refresher) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Status refresher stopping")
			return
		case <-timer.C:
		case <-r.wake:
			r.logger.Debug().Msg("Refresh triggered by controller change")
		}

		r.refresh(ctx)

		timer.Reset(r.interval)
	}
}

// refresh runs one polling cycle over every managed device.
func (r *Refresher) refresh(ctx context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "odlsync.refresh")
	defer span.End()

	devices, err := r.nodes.DevicesInForeignSource(ctx, r.foreignSource)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list devices")
		r.logger.Error().Err(err).Str("foreign_source", r.foreignSource).Msg("Failed to list managed devices")

		return
	}

	var emitted, failed int

	for _, d := range devices {
		if ctx.Err() != nil {
			return
		}

		online, err := r.poller.Poll(ctx, d)
		if err != nil {
			failed++

			r.logger.Error().Err(err).
				Int64("device_id", d.ID).
				Str("label", d.Label).
				Msg("Failed to poll device status")

			continue
		}

		if r.observe(ctx, d, online) {
			emitted++
		}
	}

	r.metrics.refreshed(ctx, failed)

	span.SetAttributes(
		attribute.Int("odlsync.devices", len(devices)),
		attribute.Int("odlsync.events", emitted),
		attribute.Int("odlsync.failures", failed),
	)

	r.logger.Debug().
		Int("devices", len(devices)).
		Int("events", emitted).
		Int("failures", failed).
		Msg("Status refresh completed")
}

// observe records the status of one device and publishes an event when it
// differs from the previous observation. It reports whether an event was sent.
func (r *Refresher) observe(ctx context.Context, d *models.Device, online bool) bool {
	r.mu.Lock()
	last, seen := r.status[d.ID]
	r.status[d.ID] = online
	r.mu.Unlock()

	if seen && last == online {
		return false
	}

	event := models.DeviceEvent{
		Type:     models.DeviceOffline,
		Source:   r.eventSource,
		DeviceID: d.ID,
	}

	if online {
		event.Type = models.DeviceOnline
	}

	if err := r.events.PublishDeviceEvent(ctx, event); err != nil {
		r.logger.Error().Err(err).
			Int64("device_id", d.ID).
			Str("event", string(event.Type)).
			Msg("Failed to publish device event")

		return false
	}

	r.metrics.eventPublished(ctx, event.Type)

	r.logger.Info().
		Int64("device_id", d.ID).
		Str("label", d.Label).
		Str("event", string(event.Type)).
		Msg("Device status changed")

	return true
}
