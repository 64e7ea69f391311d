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

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/serviceradar-odl/pkg/config"
)

func TestLoadConfigLogsLoaderOutput(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv(config.DefaultEnvPrefix+"CONFIG_JSON", `{"service_name":"odl-sync"}`)

	var buf bytes.Buffer

	// The document may fail validation; only the loader's log line matters here.
	_, _ = loadConfig(context.Background(), "", &buf)

	assert.Contains(t, buf.String(), "Loaded configuration from CONFIG_JSON environment variable")
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	var buf bytes.Buffer

	cfg, err := loadConfig(context.Background(), filepath.Join(t.TempDir(), "missing.json"), &buf)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to load config")
}
