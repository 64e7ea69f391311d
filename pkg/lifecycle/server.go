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

// Package lifecycle runs long-lived services until the process is told to stop.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

var errServiceRequired = errors.New("service is required")

// Service is anything RunServer can start and stop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServerOptions configures RunServer.
type ServerOptions struct {
	// ListenAddr enables the gRPC health endpoint when non-empty.
	ListenAddr      string
	ServiceName     string
	Service         Service
	ShutdownTimeout time.Duration
	Logger          logger.Logger
}

// RunServer starts the service (and the health endpoint when configured),
// blocks until ctx is cancelled or SIGINT/SIGTERM arrives, then stops
// everything within the shutdown timeout.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	if opts == nil || opts.Service == nil {
		return errServiceRequired
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := opts.Service.Start(ctx); err != nil {
		return fmt.Errorf("failed to start %s: %w", opts.ServiceName, err)
	}

	log.Info().Str("service", opts.ServiceName).Msg("Service started")

	g, gctx := errgroup.WithContext(ctx)

	var (
		grpcServer   *grpc.Server
		healthServer *health.Server
	)

	if opts.ListenAddr != "" {
		lc := &net.ListenConfig{}

		lis, err := lc.Listen(ctx, "tcp", opts.ListenAddr)
		if err != nil {
			stopService(opts, log, shutdownTimeout)

			return fmt.Errorf("failed to listen on %s: %w", opts.ListenAddr, err)
		}

		grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		healthServer = health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthServer)
		healthServer.SetServingStatus(opts.ServiceName, healthpb.HealthCheckResponse_SERVING)

		g.Go(func() error {
			log.Info().Str("addr", lis.Addr().String()).Msg("Health endpoint listening")

			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("health endpoint failed: %w", err)
			}

			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		log.Info().Str("service", opts.ServiceName).Msg("Shutting down")

		if healthServer != nil {
			healthServer.Shutdown()
		}

		if grpcServer != nil {
			grpcServer.GracefulStop()
		}

		return nil
	})

	err := g.Wait()

	if stopErr := stopService(opts, log, shutdownTimeout); stopErr != nil && err == nil {
		err = stopErr
	}

	return err
}

func stopService(opts *ServerOptions, log logger.Logger, timeout time.Duration) error {
	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := opts.Service.Stop(stopCtx); err != nil {
		log.Error().Err(err).Str("service", opts.ServiceName).Msg("Service stop failed")

		return fmt.Errorf("failed to stop %s: %w", opts.ServiceName, err)
	}

	log.Info().Str("service", opts.ServiceName).Msg("Service stopped")

	return nil
}
