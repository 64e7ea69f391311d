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

package restconf

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/carverauto/serviceradar-odl/pkg/models"
)

const (
	DefaultPort     = 8181
	DefaultUsername = "admin"
	DefaultPassword = "admin"

	DefaultConnectTimeout = 15 * time.Second
	DefaultWriteTimeout   = 15 * time.Second
	DefaultReadTimeout    = 60 * time.Second
)

// Config describes how to reach the controller's RESTCONF endpoint.
type Config struct {
	BaseURL        string          `json:"base_url"`
	Username       string          `json:"username"`
	Password       string          `json:"password"`
	ConnectTimeout models.Duration `json:"connect_timeout"`
	WriteTimeout   models.Duration `json:"write_timeout"`
	ReadTimeout    models.Duration `json:"read_timeout"`
}

// Validate checks BaseURL and fills defaults. A BaseURL without a port
// gets DefaultPort.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrBaseURLRequired
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(DefaultPort))
		c.BaseURL = u.String()
	}

	if c.Username == "" && c.Password == "" {
		c.Username = DefaultUsername
		c.Password = DefaultPassword
	}

	c.ConnectTimeout = models.Duration(c.ConnectTimeout.OrDefault(DefaultConnectTimeout))
	c.WriteTimeout = models.Duration(c.WriteTimeout.OrDefault(DefaultWriteTimeout))
	c.ReadTimeout = models.Duration(c.ReadTimeout.OrDefault(DefaultReadTimeout))

	return nil
}
