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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/serviceradar-odl/pkg/lifecycle"
	"github.com/carverauto/serviceradar-odl/pkg/logger"
)

// Dependencies are the collaborators of a Service. Stream may be nil.
type Dependencies struct {
	Client  TopologyClient
	Stream  ChangeStream
	Nodes   NodeStore
	Links   LinkStore
	Events  EventSink
	Signals ImportSignalSource
}

// Service runs the status refresher and the link reconciler.
type Service struct {
	config     *Config
	deps       Dependencies
	refresher  *Refresher
	reconciler *Reconciler
	logger     logger.Logger

	mu      sync.Mutex
	changes Subscription
	imports Subscription
}

// NewService validates the configuration and wires the sync components.
func NewService(cfg *Config, deps Dependencies, log logger.Logger) (*Service, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	if deps.Client == nil || deps.Nodes == nil || deps.Links == nil || deps.Events == nil || deps.Signals == nil {
		return nil, ErrDependencyMissing
	}

	cfg.applyDefaults()

	refresher := NewRefresher(RefresherConfig{
		ForeignSource: cfg.ForeignSource,
		EventSource:   cfg.EventSource,
		Interval:      time.Duration(cfg.RefreshInterval),
	}, deps.Nodes, NewStatusPoller(deps.Client, cfg.TopologyID), deps.Events, lifecycle.Component(log, "refresher"))

	reconciler := NewReconciler(ReconcilerConfig{
		TopologyID:      cfg.TopologyID,
		ForeignSource:   cfg.ForeignSource,
		Owner:           cfg.Owner,
		SourceParameter: cfg.Events.ImportParameter,
	}, deps.Client, deps.Nodes, deps.Links, lifecycle.Component(log, "reconciler"))

	return &Service{
		config:     cfg,
		deps:       deps,
		refresher:  refresher,
		reconciler: reconciler,
		logger:     log,
	}, nil
}

// Refresher exposes the status refresher.
func (s *Service) Refresher() *Refresher {
	return s.refresher
}

// Reconciler exposes the link reconciler.
func (s *Service) Reconciler() *Reconciler {
	return s.reconciler
}

// Start launches the refresher, subscribes to import signals and, when
// enabled, to controller changes. A failed change subscription only
// disables the out-of-cycle refresh trigger.
func (s *Service) Start(ctx context.Context) error {
	if err := s.refresher.Start(ctx); err != nil {
		return err
	}

	imports, err := s.deps.Signals.SubscribeImports(ctx, s.reconciler.HandleImportSignal)
	if err != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(s.config.StopTimeout))
		defer cancel()

		_ = s.refresher.Stop(stopCtx)

		return fmt.Errorf("subscribe to import signals: %w", err)
	}

	s.mu.Lock()
	s.imports = imports
	s.mu.Unlock()

	if s.config.SubscriptionEnabled() && s.deps.Stream != nil {
		changes, err := s.deps.Stream.Subscribe(ctx, s.config.TopologyID, s.refresher.Signal)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("topology_id", s.config.TopologyID).
				Msg("Controller change subscription failed, relying on timer refresh")
		} else {
			s.mu.Lock()
			s.changes = changes
			s.mu.Unlock()
		}
	}

	s.logger.Info().
		Str("topology_id", s.config.TopologyID).
		Str("foreign_source", s.config.ForeignSource).
		Msg("ODL sync service started")

	return nil
}

// Stop closes the subscriptions and stops the refresher.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	changes, imports := s.changes, s.imports
	s.changes, s.imports = nil, nil
	s.mu.Unlock()

	var errs []error

	if changes != nil {
		if err := changes.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close change subscription: %w", err))
		}
	}

	if imports != nil {
		if err := imports.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close import subscription: %w", err))
		}
	}

	if err := s.refresher.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info().Msg("ODL sync service stopped")

	return errors.Join(errs...)
}
