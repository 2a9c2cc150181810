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

package provisioning

import (
	"context"

	"github.com/carverauto/visionconnect/pkg/models"
)

//go:generate mockgen -destination=mock_provisioning.go -package=provisioning github.com/carverauto/visionconnect/pkg/provisioning Store,EventPublisher

// Store is the device persistence the provisioning flow needs.
// ActivateDevice must be a single conditional update on token and pending status.
type Store interface {
	CreateDevice(ctx context.Context, rec *models.DeviceRecord) error
	ActivateDevice(ctx context.Context, token string, act *models.DeviceActivation) (*models.DeviceRecord, error)
	GetDeviceByToken(ctx context.Context, token string) (*models.DeviceRecord, error)
	GetDevice(ctx context.Context, deviceID string) (*models.DeviceRecord, error)
	ListDevicesByOwner(ctx context.Context, ownerID string, limit int) ([]*models.DeviceRecord, error)
	DeleteDevice(ctx context.Context, ownerID, deviceID string) error
}

// EventPublisher announces committed lifecycle transitions.
type EventPublisher interface {
	PublishDeviceEvent(ctx context.Context, eventType models.DeviceEventType, data *models.DeviceLifecycleEventData) error
}
