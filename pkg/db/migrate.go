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
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/serviceradar-odl/pkg/logger"
)

const migrationsTable = "odl_schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies every embedded *.up.sql file not yet recorded in
// the tracking table. Each file runs in a single batch together with its
// tracking row.
func runMigrations(ctx context.Context, executor pgxExecutor, log logger.Logger) error {
	if _, err := executor.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
		version     TEXT PRIMARY KEY,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("%w: create tracking table: %w", ErrFailedToInit, err)
	}

	applied, err := appliedVersions(ctx, executor)
	if err != nil {
		return err
	}

	names, err := migrationFiles(migrationsFS)
	if err != nil {
		return err
	}

	for _, name := range names {
		version := migrationVersion(name)
		if _, ok := applied[version]; ok {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("%w: read %s: %w", ErrFailedToInit, name, err)
		}

		batch := &pgx.Batch{}

		for _, stmt := range splitSQLStatements(string(content)) {
			batch.Queue(stmt)
		}

		batch.Queue(`INSERT INTO `+migrationsTable+` (version) VALUES ($1)`, version)

		log.Info().Str("migration", name).Msg("applying schema migration")

		if err := execBatch(ctx, executor, batch, name); err != nil {
			return fmt.Errorf("%w: %w", ErrFailedToInit, err)
		}
	}

	return nil
}

func appliedVersions(ctx context.Context, executor pgxExecutor) (map[string]struct{}, error) {
	rows, err := executor.Query(ctx, `SELECT version FROM `+migrationsTable)
	if err != nil {
		return nil, fmt.Errorf("%w: list applied migrations: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("%w: applied migration: %w", ErrFailedToScan, err)
		}

		applied[version] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate applied migrations: %w", ErrFailedToQuery, err)
	}

	return applied, nil
}

func migrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("%w: read embedded migrations: %w", ErrFailedToInit, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}

// migrationVersion returns the numeric prefix of a migration file name.
func migrationVersion(name string) string {
	version, _, _ := strings.Cut(name, "_")
	return version
}

// splitSQLStatements splits a script on top-level semicolons. Semicolons in
// comments, quoted strings and dollar-quoted bodies do not split.
func splitSQLStatements(script string) []string {
	var (
		out  []string
		cur  strings.Builder
		quot byte
		tag  string
	)

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}

		cur.Reset()
	}

	for i := 0; i < len(script); i++ {
		c := script[i]
		rest := script[i:]

		switch {
		case tag != "":
			if strings.HasPrefix(rest, tag) {
				cur.WriteString(tag)
				i += len(tag) - 1
				tag = ""

				continue
			}
		case quot != 0:
			if c == quot {
				quot = 0
			}
		case strings.HasPrefix(rest, "--"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				i = len(script)
			} else {
				i += end - 1
			}

			continue
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				i = len(script)
			} else {
				i += end + 3
			}

			continue
		case c == '\'' || c == '"':
			quot = c
		case c == '$':
			if t := dollarTag(rest); t != "" {
				tag = t
				cur.WriteString(t)
				i += len(t) - 1

				continue
			}
		case c == ';':
			flush()
			continue
		}

		cur.WriteByte(c)
	}

	flush()

	return out
}

// dollarTag returns the opening tag ($$ or $name$) at the start of s.
func dollarTag(s string) string {
	for i := 1; i < len(s); i++ {
		switch c := s[i]; {
		case c == '$':
			return s[:i+1]
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || i > 1 && c >= '0' && c <= '9':
		default:
			return ""
		}
	}

	return ""
}
