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

package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/models"
)

const (
	cloudEventsSpecVersion = "1.0"
	deviceEventTypePrefix  = "com.carverauto.serviceradar.odl.device."
)

// EventPublisher publishes device events as CloudEvents to JetStream
// without waiting for acknowledgements.
type EventPublisher struct {
	js      jetstream.JetStream
	subject string
	logger  logger.Logger
	now     func() time.Time
}

// NewEventPublisher creates an EventPublisher for subject.
func NewEventPublisher(js jetstream.JetStream, subject string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:      js,
		subject: subject,
		logger:  log,
		now:     time.Now,
	}
}

// PublishDeviceEvent enqueues the event. The returned error covers only
// marshaling and local enqueue failures; broker failures are logged by
// the JetStream context.
func (p *EventPublisher) PublishDeviceEvent(_ context.Context, event models.DeviceEvent) error {
	ce := p.cloudEvent(event)

	payload, err := json.Marshal(ce)
	if err != nil {
		return fmt.Errorf("failed to marshal device event: %w", err)
	}

	if _, err := p.js.PublishAsync(p.subject, payload, jetstream.WithMsgID(ce.ID)); err != nil {
		return fmt.Errorf("failed to publish device event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", ce.ID).
		Str("type", ce.Type).
		Int64("device_id", event.DeviceID).
		Msg("Queued device event")

	return nil
}

// Flush waits until queued events are acknowledged or ctx is done.
func (p *EventPublisher) Flush(ctx context.Context) error {
	select {
	case <-p.js.PublishAsyncComplete():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%d events still pending: %w", p.js.PublishAsyncPending(), ctx.Err())
	}
}

func (p *EventPublisher) cloudEvent(event models.DeviceEvent) models.CloudEvent {
	ts := p.now().UTC()

	return models.CloudEvent{
		SpecVersion:     cloudEventsSpecVersion,
		ID:              uuid.New().String(),
		Source:          event.Source,
		Type:            deviceEventTypePrefix + string(event.Type),
		DataContentType: "application/json",
		Subject:         p.subject,
		Time:            &ts,
		Data:            event,
	}
}
