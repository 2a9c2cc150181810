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

// Package provisioning implements the camera onboarding state machine:
// token issuance, camera-side activation and status polling.
package provisioning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
	"github.com/carverauto/visionconnect/pkg/qrpayload"
)

const (
	// DefaultListLimit caps ListDevices.
	DefaultListLimit  = 100
	defaultDeviceName = "Unnamed Camera"
)

// Options tunes payload rendering and lets tests pin ids and clocks.
type Options struct {
	PublicURL string
	Compact   bool
	QRSize    int

	Now      func() time.Time
	NewToken func() string
	NewID    func() string
}

// Service owns the pending to active lifecycle of camera device records.
type Service struct {
	store     Store
	publisher EventPublisher
	opts      Options
	logger    logger.Logger
}

// NewService wires the store and an optional event publisher.
func NewService(store Store, publisher EventPublisher, opts Options, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewTestLogger()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.NewToken == nil {
		opts.NewToken = uuid.NewString
	}

	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	if opts.QRSize <= 0 {
		opts.QRSize = models.DefaultQRSize
	}

	return &Service{
		store:     store,
		publisher: publisher,
		opts:      opts,
		logger:    log,
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", models.ErrDeviceInvalidRequest, err)
}

// Initiate creates a pending record under a fresh single-use token and returns the
// onboarding payload the camera will scan. Nothing is persisted if the payload
// cannot be built.
func (s *Service) Initiate(ctx context.Context, req *models.DeviceInitiateRequest) (*models.DeviceInitiateResult, error) {
	result, err := s.initiate(ctx, req)
	recordOperation(ctx, opInitiate, err)

	return result, err
}

func (s *Service) initiate(ctx context.Context, req *models.DeviceInitiateRequest) (*models.DeviceInitiateResult, error) {
	if req == nil {
		return nil, models.ErrDeviceInvalidRequest
	}

	owner := strings.TrimSpace(req.OwnerID)
	if owner == "" {
		return nil, invalid(models.ErrDeviceOwnerRequired)
	}

	if strings.TrimSpace(req.CameraModel) == "" {
		return nil, invalid(models.ErrDeviceModelRequired)
	}

	if strings.TrimSpace(req.WifiSSID) == "" {
		return nil, invalid(models.ErrDeviceSSIDRequired)
	}

	name := strings.TrimSpace(req.DeviceName)
	if name == "" {
		name = defaultDeviceName
	}

	token := s.opts.NewToken()

	payload, err := qrpayload.Encode(qrpayload.Fields{
		WifiSSID:     req.WifiSSID,
		WifiPassword: req.WifiPassword,
		ServerURL:    s.opts.PublicURL,
		DeviceToken:  token,
		UserID:       owner,
		CameraModel:  req.CameraModel,
		Version:      qrpayload.Version,
	}, s.opts.Compact)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrProvisioningQREncoder, err)
	}

	image, err := qrpayload.Render(payload, s.opts.QRSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrProvisioningQREncoder, err)
	}

	decoded, err := qrpayload.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrProvisioningQREncoder, err)
	}

	rec := &models.DeviceRecord{
		DeviceID:    s.opts.NewID(),
		OwnerID:     owner,
		DeviceName:  name,
		DeviceToken: token,
		Status:      models.DeviceStatusPending,
		CameraModel: req.CameraModel,
		WifiSSID:    req.WifiSSID,
		CreatedAt:   s.opts.Now().UTC(),
	}

	if err := s.store.CreateDevice(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("device_id", rec.DeviceID).
		Str("owner_id", owner).
		Str("camera_model", rec.CameraModel).
		Bool("compact", s.opts.Compact).
		Msg("Issued device token")

	s.publish(ctx, models.DeviceEventProvisioned, rec, "")

	return &models.DeviceInitiateResult{
		Device:    rec,
		QRPayload: payload,
		QRCode:    image,
		QRData:    decoded.Map(),
	}, nil
}

// Activate applies the single pending to active transition for the token.
// Unknown tokens, already active records and lost races all return
// models.ErrDeviceNotFound.
func (s *Service) Activate(ctx context.Context, req *models.DeviceActivateRequest) (*models.DeviceRecord, error) {
	rec, err := s.activate(ctx, req)
	recordOperation(ctx, opActivate, err)

	return rec, err
}

func (s *Service) activate(ctx context.Context, req *models.DeviceActivateRequest) (*models.DeviceRecord, error) {
	if req == nil {
		return nil, models.ErrDeviceInvalidRequest
	}

	token := strings.TrimSpace(req.DeviceToken)
	if token == "" {
		return nil, invalid(models.ErrDeviceTokenRequired)
	}

	uid := strings.TrimSpace(req.DeviceUID)
	if uid == "" {
		return nil, invalid(models.ErrDeviceUIDRequired)
	}

	rec, err := s.store.ActivateDevice(ctx, token, &models.DeviceActivation{
		DeviceUID:   uid,
		LocalIP:     req.LocalIP,
		ActivatedAt: s.opts.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("device_id", rec.DeviceID).
		Str("device_uid", uid).
		Str("source_ip", req.SourceIP).
		Msg("Device activated")

	s.publish(ctx, models.DeviceEventActivated, rec, req.SourceIP)

	return rec, nil
}

// CheckStatus is the read-only poll the mobile app runs while the QR code is shown.
func (s *Service) CheckStatus(ctx context.Context, token string) (*models.DeviceStatusResult, error) {
	rec, err := s.store.GetDeviceByToken(ctx, strings.TrimSpace(token))
	recordOperation(ctx, opStatus, err)

	if err != nil {
		return nil, err
	}

	return &models.DeviceStatusResult{
		DeviceID:   rec.DeviceID,
		Status:     rec.Status,
		DeviceName: rec.DeviceName,
		Activated:  rec.IsActivated(),
	}, nil
}

func (s *Service) ListDevices(ctx context.Context, ownerID string) ([]*models.DeviceRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, invalid(models.ErrDeviceOwnerRequired)
	}

	return s.store.ListDevicesByOwner(ctx, ownerID, DefaultListLimit)
}

// GetDevice hides records owned by someone else behind models.ErrDeviceNotFound.
func (s *Service) GetDevice(ctx context.Context, ownerID, deviceID string) (*models.DeviceRecord, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, invalid(models.ErrDeviceIDRequired)
	}

	rec, err := s.store.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if rec.OwnerID != ownerID {
		return nil, models.ErrDeviceNotFound
	}

	return rec, nil
}

func (s *Service) DeleteDevice(ctx context.Context, ownerID, deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return invalid(models.ErrDeviceIDRequired)
	}

	if err := s.store.DeleteDevice(ctx, ownerID, deviceID); err != nil {
		return err
	}

	s.logger.Info().Str("device_id", deviceID).Str("owner_id", ownerID).Msg("Device removed")

	return nil
}

// publish is fire and forget; the transition has already committed.
func (s *Service) publish(ctx context.Context, eventType models.DeviceEventType, rec *models.DeviceRecord, sourceIP string) {
	if s.publisher == nil {
		return
	}

	data := &models.DeviceLifecycleEventData{
		DeviceID:    rec.DeviceID,
		OwnerID:     rec.OwnerID,
		CameraModel: rec.CameraModel,
		Status:      rec.Status,
		SourceIP:    sourceIP,
		Timestamp:   s.opts.Now().UTC(),
	}

	if rec.DeviceUID != nil {
		data.DeviceUID = *rec.DeviceUID
	}

	if rec.LocalIP != nil {
		data.LocalIP = *rec.LocalIP
	}

	if err := s.publisher.PublishDeviceEvent(ctx, eventType, data); err != nil {
		recordEventFailure(ctx, eventType)

		s.logger.Warn().
			Err(err).
			Str("event", string(eventType)).
			Str("device_id", rec.DeviceID).
			Msg("Failed to publish device lifecycle event")
	}
}
