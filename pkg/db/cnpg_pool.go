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
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/models"
)

const (
	defaultCNPGPort = 5432
	sslModeKey      = "sslmode"
)

var validSSLModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// NewCNPGPool dials the configured CNPG cluster and returns a pgx pool.
func NewCNPGPool(ctx context.Context, cfg *models.CNPGDatabase, log logger.Logger) (*pgxpool.Pool, error) {
	connURL, err := buildCNPGConnURL(cfg)
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(connURL.String())
	if err != nil {
		return nil, fmt.Errorf("cnpg: failed to parse connection string: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}

	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}

	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime)
	}

	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = time.Duration(cfg.HealthCheckPeriod)
	}

	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = make(map[string]string)
	}

	if cfg.StatementTimeout > 0 {
		ms := time.Duration(cfg.StatementTimeout).Milliseconds()
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(ms, 10)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("cnpg: failed to initialize pool: %w", err)
	}

	if log != nil {
		log.Info().
			Str("host", connURL.Hostname()).
			Str("port", connURL.Port()).
			Int32("max_conns", poolConfig.MaxConns).
			Msg("connected to CNPG cluster")
	}

	return pool, nil
}

// buildCNPGConnURL renders the libpq URL for cfg. TLS files are passed as
// sslcert/sslkey/sslrootcert so pgx loads them itself.
func buildCNPGConnURL(cfg *models.CNPGDatabase) (*url.URL, error) {
	if cfg == nil {
		return nil, ErrCNPGConfigNil
	}

	if cfg.Host == "" {
		return nil, ErrCNPGHostRequired
	}

	port := cfg.Port
	if port == 0 {
		port = defaultCNPGPort
	}

	connURL := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:   "/" + cfg.Database,
	}

	if cfg.Username != "" {
		if cfg.Password != "" {
			connURL.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			connURL.User = url.User(cfg.Username)
		}
	}

	sslMode, err := resolveCNPGSSLMode(cfg)
	if err != nil {
		return nil, err
	}

	query := connURL.Query()

	for k, v := range cfg.ExtraRuntimeParams {
		if k == "" || strings.EqualFold(k, sslModeKey) {
			continue
		}

		query.Set(k, v)
	}

	query.Set(sslModeKey, sslMode)

	if cfg.ApplicationName != "" {
		query.Set("application_name", cfg.ApplicationName)
	}

	if cfg.TLS != nil {
		resolve := func(path string) string {
			if path == "" || filepath.IsAbs(path) || cfg.CertDir == "" {
				return path
			}

			return filepath.Join(cfg.CertDir, path)
		}

		certFile, keyFile, caFile := resolve(cfg.TLS.CertFile), resolve(cfg.TLS.KeyFile), resolve(cfg.TLS.CAFile)
		if certFile == "" || keyFile == "" || caFile == "" {
			return nil, ErrCNPGTLSIncomplete
		}

		query.Set("sslcert", certFile)
		query.Set("sslkey", keyFile)
		query.Set("sslrootcert", caFile)
	}

	connURL.RawQuery = query.Encode()

	return connURL, nil
}

// resolveCNPGSSLMode picks the sslmode from the config, then from the extra
// runtime params. Without either it is verify-full when TLS is configured
// and disable otherwise.
func resolveCNPGSSLMode(cfg *models.CNPGDatabase) (string, error) {
	mode := cfg.SSLMode

	if mode == "" {
		for k, v := range cfg.ExtraRuntimeParams {
			if strings.EqualFold(k, sslModeKey) {
				mode = v
				break
			}
		}
	}

	mode = strings.ToLower(strings.TrimSpace(mode))

	if mode == "" {
		if cfg.TLS != nil {
			return "verify-full", nil
		}

		return "disable", nil
	}

	if _, ok := validSSLModes[mode]; !ok {
		return "", fmt.Errorf("%w: %q", ErrCNPGInvalidSSLMode, mode)
	}

	if cfg.TLS != nil && mode == "disable" {
		return "", ErrCNPGTLSDisabled
	}

	return mode, nil
}
