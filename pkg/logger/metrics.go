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

package logger

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.31.0"
	"google.golang.org/grpc/credentials"
)

const defaultMetricsExportInterval = 15 * time.Second

// MetricsConfig captures the information required to initialise the OTel metrics pipeline.
type MetricsConfig struct {
	ServiceName    string
	ServiceVersion string
	Logger         Logger
	OTel           *OTelConfig
	// ExportInterval controls how often metric data is pushed to the collector.
	ExportInterval time.Duration
	// Reader replaces the OTLP exporter, for example with a manual reader in tests.
	Reader sdkmetric.Reader
}

// InitializeMetrics installs a global MeterProvider. Instruments are exported
// only when OTel is enabled with an endpoint or a Reader is supplied. The
// caller owns Shutdown on the returned provider.
func InitializeMetrics(ctx context.Context, config MetricsConfig) (*sdkmetric.MeterProvider, error) {
	if config.ServiceName == "" {
		config.ServiceName = defaultServiceName
	}

	if config.ServiceVersion == "" {
		config.ServiceVersion = "dev"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics resource: %w", err)
	}

	mpOptions := []sdkmetric.Option{sdkmetric.WithResource(res)}

	reader := config.Reader
	exporting := config.OTel != nil && config.OTel.Enabled && config.OTel.Endpoint != ""

	if reader == nil && exporting {
		exporter, err := createMetricExporter(ctx, config.OTel)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}

		interval := config.ExportInterval
		if interval <= 0 {
			interval = defaultMetricsExportInterval
		}

		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))
	}

	if reader != nil {
		mpOptions = append(mpOptions, sdkmetric.WithReader(reader))
	}

	provider := sdkmetric.NewMeterProvider(mpOptions...)

	otel.SetMeterProvider(provider)

	if config.Logger != nil {
		config.Logger.Debug().
			Str("service", config.ServiceName).
			Bool("exporting", exporting).
			Msg("Initialized OpenTelemetry metrics")
	}

	return provider, nil
}

func createMetricExporter(ctx context.Context, config *OTelConfig) (sdkmetric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(config.Endpoint),
	}

	if config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	} else if config.TLS != nil {
		tlsConfig, err := setupTLSConfig(config.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to setup metrics TLS configuration: %w", err)
		}

		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(tlsConfig)))
	}

	if len(config.Headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(config.Headers))
	}

	return otlpmetricgrpc.New(ctx, opts...)
}
