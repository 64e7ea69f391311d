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
	"errors"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	errFakeScanArity  = errors.New("scan arity mismatch in fakeRows")
	errFakeQueryRow   = errors.New("QueryRow not implemented in fake")
	errFakeBatchQuery = errors.New("Query not implemented in fakeBatchResults")
	errBoom           = errors.New("boom")
	errCloseFailed    = errors.New("close failed")
)

type execCall struct {
	sql  string
	args []any
}

// fakePgxExecutor records statements and serves canned rows.
type fakePgxExecutor struct {
	execs   []execCall
	execErr error

	queries  []execCall
	rows     [][]any
	queryErr error
	rowsErr  error

	batches []*pgx.Batch
	br      *fakeBatchResults
}

func (f *fakePgxExecutor) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}

	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakePgxExecutor) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	return &fakeRows{data: f.rows, err: f.rowsErr}, nil
}

func (f *fakePgxExecutor) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{}
}

func (f *fakePgxExecutor) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batches = append(f.batches, b)
	if f.br == nil {
		f.br = &fakeBatchResults{}
	}

	return f.br
}

type fakeRow struct{}

func (fakeRow) Scan(...any) error { return errFakeQueryRow }

// fakeRows yields data row by row, assigning values to scan targets by type.
type fakeRows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}

	r.idx++

	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.idx-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return errFakeScanArity
	}

	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()

		if row[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}

		target.Set(reflect.ValueOf(row[i]))
	}

	return nil
}

type fakeBatchResults struct {
	execCalls int
	execErrAt int
	execErr   error

	closeCalls int
	closeErr   error
}

func (f *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	defer func() { f.execCalls++ }()

	if f.execErr != nil && f.execCalls == f.execErrAt {
		return pgconn.CommandTag{}, f.execErr
	}

	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeBatchResults) Query() (pgx.Rows, error) {
	return nil, errFakeBatchQuery
}

func (f *fakeBatchResults) QueryRow() pgx.Row {
	return fakeRow{}
}

func (f *fakeBatchResults) Close() error {
	f.closeCalls++
	return f.closeErr
}

func strPtr(s string) *string {
	return &s
}
