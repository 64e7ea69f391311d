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
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/carverauto/serviceradar-odl/pkg/config"
	"github.com/carverauto/serviceradar-odl/pkg/db"
	"github.com/carverauto/serviceradar-odl/pkg/lifecycle"
	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/natsutil"
	"github.com/carverauto/serviceradar-odl/pkg/odlsync"
	"github.com/carverauto/serviceradar-odl/pkg/restconf"
	"github.com/carverauto/serviceradar-odl/pkg/version"
)

const flushTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "/etc/serviceradar/odl-sync.json", "Path to config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())

		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		log.Fatalf("odl-sync failed: %v", err)
	}
}

// loadConfig reads the service configuration, logging loader output to w
// until the configured logger exists.
func loadConfig(ctx context.Context, configPath string, w io.Writer) (*odlsync.Config, error) {
	var cfg odlsync.Config

	if err := config.NewConfig(logger.NewWriterLogger(w, zerolog.InfoLevel)).
		LoadAndValidate(ctx, configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

func run(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(ctx, configPath, os.Stderr)
	if err != nil {
		return err
	}

	mainLog, err := lifecycle.NewLoggerImpl(ctx, cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			log.Printf("Failed to shut down logger: %v", err)
		}
	}()

	mainLog.Info().Str("version", version.String()).Str("config", configPath).Msg("Starting odl-sync")

	tracingCfg := logger.TracingConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version.Version(),
		Logger:         mainLog,
	}
	if cfg.Logging != nil {
		tracingCfg.OTel = &cfg.Logging.OTel
	}

	tp, err := logger.InitializeTracing(ctx, tracingCfg)
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()

		if err := tp.Shutdown(shutdownCtx); err != nil {
			mainLog.Warn().Err(err).Msg("Failed to shut down tracer provider")
		}
	}()

	metricsCfg := logger.MetricsConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version.Version(),
		Logger:         mainLog,
		OTel:           tracingCfg.OTel,
	}

	mp, err := logger.InitializeMetrics(ctx, metricsCfg)
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()

		if err := mp.Shutdown(shutdownCtx); err != nil {
			mainLog.Warn().Err(err).Msg("Failed to shut down meter provider")
		}
	}()

	database, err := db.New(ctx, &cfg.Database, lifecycle.Component(mainLog, "db"))
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	client, err := restconf.NewClient(&cfg.Controller, lifecycle.Component(mainLog, "restconf"))
	if err != nil {
		return fmt.Errorf("failed to create controller client: %w", err)
	}

	natsLog := lifecycle.Component(mainLog, "nats")

	nc, err := natsutil.Connect(&cfg.NATS, cfg.ServiceName, natsLog)
	if err != nil {
		return err
	}
	defer nc.Close()

	js, err := natsutil.NewJetStream(nc, cfg.NATS.Domain, natsLog)
	if err != nil {
		return err
	}

	if err := natsutil.EnsureStream(ctx, js, cfg.Events.StreamName, cfg.Events.Subject); err != nil {
		return err
	}

	publisher := natsutil.NewEventPublisher(js, cfg.Events.Subject, natsLog)

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()

		if err := publisher.Flush(flushCtx); err != nil {
			mainLog.Warn().Err(err).Msg("Device events were not all acknowledged")
		}
	}()

	svc, err := odlsync.NewService(cfg, odlsync.Dependencies{
		Client:  client,
		Stream:  odlsync.NewChangeStream(client),
		Nodes:   database,
		Links:   database,
		Events:  publisher,
		Signals: importSource{natsutil.NewImportSubscriber(nc, cfg.Events.ImportSubject, natsLog)},
	}, mainLog)
	if err != nil {
		return err
	}

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ListenAddr:      cfg.ListenAddr,
		ServiceName:     cfg.ServiceName,
		Service:         svc,
		ShutdownTimeout: time.Duration(cfg.StopTimeout),
		Logger:          mainLog,
	})
}

// importSource adapts the NATS import subscriber to the sync service.
type importSource struct {
	subscriber *natsutil.ImportSubscriber
}

func (s importSource) SubscribeImports(ctx context.Context, handler odlsync.ImportHandler) (odlsync.Subscription, error) {
	sub, err := s.subscriber.Subscribe(ctx, natsutil.ImportHandler(handler))
	if err != nil {
		return nil, err
	}

	return sub, nil
}
