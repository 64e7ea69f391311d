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

// Package db stores device links and reads the device inventory from the
// CNPG cluster.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
	"github.com/carverauto/serviceradar-odl/pkg/models"
)

// pgxExecutor is the subset of *pgxpool.Pool used by DB.
type pgxExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// DB implements the link store and the read-only node store.
type DB struct {
	pool     *pgxpool.Pool
	executor pgxExecutor
	logger   logger.Logger
}

// New connects to the CNPG cluster and verifies the connection.
func New(ctx context.Context, cfg *models.CNPGDatabase, log logger.Logger) (*DB, error) {
	pool, err := NewCNPGPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cnpg: ping: %w", err)
	}

	return &DB{pool: pool, executor: pool, logger: log}, nil
}

// Close releases the pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate applies pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return runMigrations(ctx, db.executor, db.logger)
}

// execBatch runs every queued statement and reports the first failure
// together with its index. The batch executes as one implicit transaction.
func execBatch(ctx context.Context, executor pgxExecutor, batch *pgx.Batch, operation string) (err error) {
	if batch == nil || batch.Len() == 0 {
		return nil
	}

	br := executor.SendBatch(ctx, batch)
	defer func() {
		if closeErr := br.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%s batch close: %w", operation, closeErr)
		}
	}()

	for i := range batch.Len() {
		if _, err = br.Exec(); err != nil {
			return fmt.Errorf("%s batch exec (command %d): %w", operation, i, err)
		}
	}

	return nil
}
