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

// Package api pkg/core/api/interfaces.go
package api

import (
	"context"

	"github.com/carverauto/visionconnect/pkg/models"
	"github.com/carverauto/visionconnect/pkg/signaling"
)

//go:generate mockgen -destination=mock_api_server.go -package=api github.com/carverauto/visionconnect/pkg/core/api ConnectionCounter,Provisioner

// Provisioner is the device onboarding surface served over HTTP.
type Provisioner interface {
	Initiate(ctx context.Context, req *models.DeviceInitiateRequest) (*models.DeviceInitiateResult, error)
	Activate(ctx context.Context, req *models.DeviceActivateRequest) (*models.DeviceRecord, error)
	CheckStatus(ctx context.Context, token string) (*models.DeviceStatusResult, error)
	ListDevices(ctx context.Context, ownerID string) ([]*models.DeviceRecord, error)
	GetDevice(ctx context.Context, ownerID, deviceID string) (*models.DeviceRecord, error)
	DeleteDevice(ctx context.Context, ownerID, deviceID string) error
}

// ConnectionCounter reports live signaling registrations per role.
type ConnectionCounter interface {
	Counts() map[signaling.Role]int
}
