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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carverauto/visionconnect/pkg/logger"
)

const cnpgMigrationsTable = "cnpg_schema_migrations"

// pgxQuerier is the subset of *pgxpool.Pool the CNPG store depends on.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cnpgMigration struct {
	version    string
	statements []string
}

//nolint:gochecknoglobals // ordered schema history
var cnpgMigrations = []cnpgMigration{
	{
		version: "00000000000001",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id             UUID PRIMARY KEY,
				email          TEXT NOT NULL UNIQUE,
				password_hash  TEXT NOT NULL,
				created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS camera_devices (
				device_id     UUID PRIMARY KEY,
				owner_id      TEXT NOT NULL,
				device_name   TEXT NOT NULL,
				device_token  TEXT NOT NULL UNIQUE,
				device_uid    TEXT,
				status        TEXT NOT NULL DEFAULT 'pending',
				camera_model  TEXT NOT NULL,
				wifi_ssid     TEXT NOT NULL,
				local_ip      TEXT,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
				activated_at  TIMESTAMPTZ
			)`,
			`CREATE INDEX IF NOT EXISTS idx_camera_devices_owner
				ON camera_devices (owner_id, created_at DESC)`,
		},
	},
	{
		version: "00000000000002",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_camera_devices_uid
				ON camera_devices (device_uid) WHERE device_uid IS NOT NULL`,
		},
	},
	{
		version: "00000000000003",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS retired_device_tokens (
				device_token  TEXT PRIMARY KEY,
				device_id     UUID NOT NULL,
				retired_at    TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
		},
	},
}

// RunCNPGMigrations applies the camera and account schema in version order.
func RunCNPGMigrations(ctx context.Context, q pgxQuerier, log logger.Logger) error {
	if q == nil {
		return nil
	}

	if _, err := q.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version     TEXT PRIMARY KEY,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, cnpgMigrationsTable)); err != nil {
		return fmt.Errorf("cnpg migrations: create tracking table: %w", err)
	}

	applied, err := appliedCNPGVersions(ctx, q)
	if err != nil {
		return err
	}

	for _, m := range cnpgMigrations {
		if _, ok := applied[m.version]; ok {
			continue
		}

		log.Info().Str("migration", m.version).Msg("applying CNPG migration")

		for idx, stmt := range m.statements {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("cnpg migrations: statement %d in %s failed: %w", idx+1, m.version, err)
			}
		}

		if _, err := q.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (version) VALUES ($1)`, cnpgMigrationsTable), m.version); err != nil {
			return fmt.Errorf("cnpg migrations: record %s: %w", m.version, err)
		}
	}

	return nil
}

func appliedCNPGVersions(ctx context.Context, q pgxQuerier) (map[string]struct{}, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT version FROM %s`, cnpgMigrationsTable))
	if err != nil {
		return nil, fmt.Errorf("cnpg migrations: list applied versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("cnpg migrations: scan applied version: %w", err)
		}

		applied[version] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cnpg migrations: iterate applied versions: %w", err)
	}

	return applied, nil
}
