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
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
)

const pgUniqueViolation = "23505"

const cameraDeviceColumns = `
	device_id,
	owner_id,
	device_name,
	device_token,
	device_uid,
	status,
	camera_model,
	wifi_ssid,
	local_ip,
	created_at,
	activated_at`

// Tokens of deleted devices stay retired, so the insert is skipped for them.
const insertCameraDeviceSQL = `
INSERT INTO camera_devices (` + cameraDeviceColumns + `
)
SELECT $1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text,
	$7::text, $8::text, $9::text, $10::timestamptz, $11::timestamptz
WHERE NOT EXISTS (
	SELECT 1 FROM retired_device_tokens WHERE device_token = $4::text
)`

// The status predicate makes activation a single compare-and-set.
const activateCameraDeviceSQL = `
UPDATE camera_devices
SET device_uid = $2,
	local_ip = $3,
	status = 'active',
	activated_at = $4
WHERE device_token = $1
	AND status = 'pending'
RETURNING` + cameraDeviceColumns

const selectCameraDeviceByTokenSQL = `SELECT` + cameraDeviceColumns + `
FROM camera_devices
WHERE device_token = $1`

const selectCameraDeviceByIDSQL = `SELECT` + cameraDeviceColumns + `
FROM camera_devices
WHERE device_id = $1`

const listCameraDevicesByOwnerSQL = `SELECT` + cameraDeviceColumns + `
FROM camera_devices
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2`

const deleteCameraDeviceSQL = `
WITH removed AS (
	DELETE FROM camera_devices
	WHERE device_id = $1
		AND owner_id = $2
	RETURNING device_id, device_token
)
INSERT INTO retired_device_tokens (device_token, device_id)
SELECT device_token, device_id FROM removed`

// CNPGStore keeps camera devices and accounts in PostgreSQL.
type CNPGStore struct {
	pool    pgxQuerier
	closeFn func()
	logger  logger.Logger
}

var _ Service = (*CNPGStore)(nil)

// NewCNPGStore dials the cluster and hydrates the schema.
func NewCNPGStore(ctx context.Context, cfg *models.CNPGDatabase, log logger.Logger) (*CNPGStore, error) {
	pool, err := NewCNPGPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if err := RunCNPGMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	return newCNPGStore(pool, pool.Close, log), nil
}

func newCNPGStore(q pgxQuerier, closeFn func(), log logger.Logger) *CNPGStore {
	return &CNPGStore{pool: q, closeFn: closeFn, logger: log}
}

func (s *CNPGStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}

	return nil
}

func (s *CNPGStore) CreateDevice(ctx context.Context, rec *models.DeviceRecord) error {
	args, err := buildCameraDeviceArgs(rec)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, insertCameraDeviceSQL, args...)
	if err != nil {
		if isUniqueViolation(err, "device_token") {
			return models.ErrDeviceTokenConflict
		}

		return fmt.Errorf("%w: camera device: %w", ErrFailedToInsert, err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrDeviceTokenConflict
	}

	return nil
}

func (s *CNPGStore) ActivateDevice(
	ctx context.Context, token string, act *models.DeviceActivation) (*models.DeviceRecord, error) {
	row := s.pool.QueryRow(ctx, activateCameraDeviceSQL,
		token,
		act.DeviceUID,
		act.LocalIP,
		act.ActivatedAt.UTC(),
	)

	rec, err := scanCameraDevice(row)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *CNPGStore) GetDeviceByToken(ctx context.Context, token string) (*models.DeviceRecord, error) {
	return scanCameraDevice(s.pool.QueryRow(ctx, selectCameraDeviceByTokenSQL, token))
}

func (s *CNPGStore) GetDevice(ctx context.Context, deviceID string) (*models.DeviceRecord, error) {
	id, err := uuid.Parse(deviceID)
	if err != nil {
		return nil, models.ErrDeviceNotFound
	}

	return scanCameraDevice(s.pool.QueryRow(ctx, selectCameraDeviceByIDSQL, id))
}

func (s *CNPGStore) ListDevicesByOwner(ctx context.Context, ownerID string, limit int) ([]*models.DeviceRecord, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.pool.Query(ctx, listCameraDevicesByOwnerSQL, ownerID, lim)
	if err != nil {
		return nil, fmt.Errorf("%w: camera devices: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	out := make([]*models.DeviceRecord, 0)

	for rows.Next() {
		rec, err := scanCameraDevice(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: camera devices: %w", ErrFailedToQuery, err)
	}

	return out, nil
}

// DeleteDevice removes the record and retires its token in one statement.
func (s *CNPGStore) DeleteDevice(ctx context.Context, ownerID, deviceID string) error {
	id, err := uuid.Parse(deviceID)
	if err != nil {
		return models.ErrDeviceNotFound
	}

	tag, err := s.pool.Exec(ctx, deleteCameraDeviceSQL, id, ownerID)
	if err != nil {
		return fmt.Errorf("%w: delete camera device: %w", ErrDatabaseError, err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrDeviceNotFound
	}

	return nil
}

func buildCameraDeviceArgs(rec *models.DeviceRecord) ([]interface{}, error) {
	if rec == nil {
		return nil, models.ErrDeviceRecordNil
	}

	id, err := uuid.Parse(strings.TrimSpace(rec.DeviceID))
	if err != nil {
		return nil, fmt.Errorf("%w: device id: %w", models.ErrDeviceInvalidRequest, err)
	}

	if strings.TrimSpace(rec.DeviceToken) == "" {
		return nil, models.ErrDeviceTokenRequired
	}

	status := rec.Status
	if status == "" {
		status = models.DeviceStatusPending
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return []interface{}{
		id,
		rec.OwnerID,
		rec.DeviceName,
		rec.DeviceToken,
		rec.DeviceUID,
		string(status),
		rec.CameraModel,
		rec.WifiSSID,
		rec.LocalIP,
		createdAt.UTC(),
		utcPtr(rec.ActivatedAt),
	}, nil
}

func scanCameraDevice(row pgx.Row) (*models.DeviceRecord, error) {
	var (
		id          uuid.UUID
		rec         models.DeviceRecord
		status      string
		activatedAt *time.Time
	)

	err := row.Scan(
		&id,
		&rec.OwnerID,
		&rec.DeviceName,
		&rec.DeviceToken,
		&rec.DeviceUID,
		&status,
		&rec.CameraModel,
		&rec.WifiSSID,
		&rec.LocalIP,
		&rec.CreatedAt,
		&activatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrDeviceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: camera device: %w", ErrFailedToScan, err)
	}

	rec.DeviceID = id.String()
	rec.Status = models.DeviceStatus(status)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.ActivatedAt = utcPtr(activatedAt)

	return &rec, nil
}

func isUniqueViolation(err error, column string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}

	return column == "" || strings.Contains(pgErr.ConstraintName, column)
}

func utcPtr(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}

	v := ts.UTC()

	return &v
}
