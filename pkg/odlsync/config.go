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
	"fmt"
	"time"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/models"
	"github.com/carverauto/serviceradar-odl/pkg/restconf"
)

const (
	DefaultTopologyID      = "flow:1"
	DefaultForeignSource   = "ODL"
	DefaultOwner           = "odl-sync"
	DefaultEventSource     = "serviceradar-odl-sync"
	DefaultRefreshInterval = 30 * time.Second
	DefaultStopTimeout     = 10 * time.Second
)

// Config is the configuration of the sync service.
type Config struct {
	ListenAddr  string `json:"listen_addr"`
	ServiceName string `json:"service_name"`

	Controller restconf.Config `json:"controller"`

	TopologyID      string          `json:"topology_id"`
	ForeignSource   string          `json:"foreign_source"`
	Owner           string          `json:"owner"`
	EventSource     string          `json:"event_source"`
	RefreshInterval models.Duration `json:"refresh_interval"`
	StopTimeout     models.Duration `json:"stop_timeout"`
	// SubscribeChanges enables the controller change stream. Defaults to true.
	SubscribeChanges *bool `json:"subscribe_changes,omitempty"`

	NATS     models.NATSConfig   `json:"nats"`
	Events   models.EventsConfig `json:"events"`
	Database models.CNPGDatabase `json:"database"`
	Logging  *logger.Config      `json:"logging,omitempty"`
}

// Validate checks required settings and fills defaults.
func (c *Config) Validate() error {
	if err := c.Controller.Validate(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	if err := c.NATS.Validate(); err != nil {
		return fmt.Errorf("nats: %w", err)
	}

	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	c.applyDefaults()

	return nil
}

func (c *Config) applyDefaults() {
	if c.TopologyID == "" {
		c.TopologyID = DefaultTopologyID
	}

	if c.ForeignSource == "" {
		c.ForeignSource = DefaultForeignSource
	}

	if c.Owner == "" {
		c.Owner = DefaultOwner
	}

	if c.EventSource == "" {
		c.EventSource = DefaultEventSource
	}

	if c.ServiceName == "" {
		c.ServiceName = DefaultEventSource
	}

	c.RefreshInterval = models.Duration(c.RefreshInterval.OrDefault(DefaultRefreshInterval))
	c.StopTimeout = models.Duration(c.StopTimeout.OrDefault(DefaultStopTimeout))

	if c.SubscribeChanges == nil {
		enabled := true
		c.SubscribeChanges = &enabled
	}
}

// SubscriptionEnabled reports whether the controller change stream is used.
func (c *Config) SubscriptionEnabled() bool {
	return c.SubscribeChanges == nil || *c.SubscribeChanges
}
