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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/models"
)

const (
	importBufferSize   = 64
	importCloseTimeout = 5 * time.Second
)

var (
	errImportSubscriberClosed = errors.New("import subscription did not drain in time")
	errEmptyImportSignal      = errors.New("import signal carries no parameters")
)

// ImportHandler receives decoded inventory import signals.
type ImportHandler func(ctx context.Context, signal models.ImportSignal)

// ImportSubscriber listens for inventory import signals on a core NATS subject.
type ImportSubscriber struct {
	nc      *nats.Conn
	subject string
	logger  logger.Logger
}

// NewImportSubscriber creates a subscriber for subject.
func NewImportSubscriber(nc *nats.Conn, subject string, log logger.Logger) *ImportSubscriber {
	return &ImportSubscriber{nc: nc, subject: subject, logger: log}
}

// ImportSubscription is an active import signal subscription.
type ImportSubscription struct {
	sub    *nats.Subscription
	msgs   chan *nats.Msg
	cancel context.CancelFunc
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	err    error
}

// Subscribe starts delivering signals to handler. Signals are handled one at
// a time in arrival order; malformed messages are logged and dropped.
func (s *ImportSubscriber) Subscribe(ctx context.Context, handler ImportHandler) (*ImportSubscription, error) {
	msgs := make(chan *nats.Msg, importBufferSize)

	sub, err := s.nc.ChanSubscribe(s.subject, msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	is := &ImportSubscription{
		sub:    sub,
		msgs:   msgs,
		cancel: cancel,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go s.dispatch(runCtx, is, handler)

	s.logger.Info().Str("subject", s.subject).Msg("Subscribed to inventory import signals")

	return is, nil
}

func (s *ImportSubscriber) dispatch(ctx context.Context, is *ImportSubscription, handler ImportHandler) {
	defer close(is.done)

	for {
		select {
		case <-is.stop:
			return
		case msg := <-is.msgs:
			signal, err := decodeImportSignal(msg.Data)
			if err != nil {
				s.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("Dropping malformed import signal")

				continue
			}

			handler(ctx, signal)
		}
	}
}

// Close unsubscribes and waits for an in-flight handler to return. The
// handler's context is cancelled only if it does not finish within
// importCloseTimeout. It is safe to call more than once.
func (is *ImportSubscription) Close() error {
	is.once.Do(func() {
		if err := is.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) &&
			!errors.Is(err, nats.ErrBadSubscription) {
			is.err = fmt.Errorf("failed to unsubscribe: %w", err)
		}

		close(is.stop)
		defer is.cancel()

		timer := time.NewTimer(importCloseTimeout)
		defer timer.Stop()

		select {
		case <-is.done:
		case <-timer.C:
			is.err = errors.Join(is.err, errImportSubscriberClosed)
		}
	})

	return is.err
}

// decodeImportSignal accepts either a bare {"parameters": {...}} payload or a
// CloudEvent envelope carrying one as data.
func decodeImportSignal(data []byte) (models.ImportSignal, error) {
	var envelope struct {
		SpecVersion string            `json:"specversion"`
		Parameters  map[string]string `json:"parameters"`
		Data        json.RawMessage   `json:"data"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return models.ImportSignal{}, fmt.Errorf("failed to decode import signal: %w", err)
	}

	if envelope.SpecVersion != "" && len(envelope.Data) > 0 {
		var signal models.ImportSignal
		if err := json.Unmarshal(envelope.Data, &signal); err != nil {
			return models.ImportSignal{}, fmt.Errorf("failed to decode import signal data: %w", err)
		}

		envelope.Parameters = signal.Parameters
	}

	if len(envelope.Parameters) == 0 {
		return models.ImportSignal{}, errEmptyImportSignal
	}

	return models.ImportSignal{Parameters: envelope.Parameters}, nil
}
