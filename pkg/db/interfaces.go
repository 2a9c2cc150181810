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

// Package db pkg/db/interfaces.go
package db

import (
	"context"

	"github.com/carverauto/visionconnect/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/carverauto/visionconnect/pkg/db Service

// DeviceStore persists camera device records.
type DeviceStore interface {
	// CreateDevice inserts a new record. A reused device token yields models.ErrDeviceTokenConflict.
	CreateDevice(ctx context.Context, rec *models.DeviceRecord) error
	// ActivateDevice moves the record holding token from pending to active in a single
	// conditional update. models.ErrDeviceNotFound covers unknown, already active and
	// lost races alike.
	ActivateDevice(ctx context.Context, token string, act *models.DeviceActivation) (*models.DeviceRecord, error)
	GetDeviceByToken(ctx context.Context, token string) (*models.DeviceRecord, error)
	GetDevice(ctx context.Context, deviceID string) (*models.DeviceRecord, error)
	ListDevicesByOwner(ctx context.Context, ownerID string, limit int) ([]*models.DeviceRecord, error)
	// DeleteDevice removes a record only when it belongs to ownerID.
	DeleteDevice(ctx context.Context, ownerID, deviceID string) error
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Service is the full persistence surface used by the visionconnect core.
type Service interface {
	DeviceStore
	UserStore
	Close() error
}
