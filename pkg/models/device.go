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

package models

import (
	"errors"
	"time"
)

// DeviceStatus represents the lifecycle state of a camera device record.
type DeviceStatus string

const (
	DeviceStatusPending DeviceStatus = "pending"
	DeviceStatusActive  DeviceStatus = "active"
	DeviceStatusOffline DeviceStatus = "offline"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceStatusPending, DeviceStatusActive, DeviceStatusOffline:
		return true
	default:
		return false
	}
}

var (
	ErrDeviceNotFound        = errors.New("device: not found")
	ErrDeviceInvalidRequest  = errors.New("device: invalid request")
	ErrDeviceTokenConflict   = errors.New("device: token already issued")
	ErrDeviceOwnerRequired   = errors.New("device: owner id is required")
	ErrDeviceTokenRequired   = errors.New("device: device token is required")
	ErrDeviceUIDRequired     = errors.New("device: device uid is required")
	ErrDeviceSSIDRequired    = errors.New("device: wifi ssid is required")
	ErrDeviceModelRequired   = errors.New("device: camera model is required")
	ErrDeviceIDRequired      = errors.New("device: device id is required")
	ErrDeviceRecordNil       = errors.New("device: record is nil")
	ErrProvisioningDisabled  = errors.New("device: provisioning service disabled")
	ErrProvisioningQREncoder = errors.New("device: qr payload encoding failed")
)

// DeviceRecord is the persisted camera record owned by a user account.
// DeviceUID stays nil until the camera activates with its device token.
type DeviceRecord struct {
	DeviceID    string       `json:"device_id"`
	OwnerID     string       `json:"owner_id"`
	DeviceName  string       `json:"device_name"`
	DeviceToken string       `json:"device_token"`
	DeviceUID   *string      `json:"device_uid"`
	Status      DeviceStatus `json:"status"`
	CameraModel string       `json:"camera_model"`
	WifiSSID    string       `json:"wifi_ssid"`
	LocalIP     *string      `json:"local_ip"`
	CreatedAt   time.Time    `json:"created_at"`
	ActivatedAt *time.Time   `json:"activated_at"`
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (d *DeviceRecord) Clone() *DeviceRecord {
	if d == nil {
		return nil
	}

	out := *d
	out.DeviceUID = cloneString(d.DeviceUID)
	out.LocalIP = cloneString(d.LocalIP)

	if d.ActivatedAt != nil {
		ts := *d.ActivatedAt
		out.ActivatedAt = &ts
	}

	return &out
}

// IsActivated reports whether the record completed the pending→active transition.
func (d *DeviceRecord) IsActivated() bool {
	return d != nil && d.Status == DeviceStatusActive
}

// DeviceActivation carries the fields applied by the single pending→active update.
type DeviceActivation struct {
	DeviceUID   string
	LocalIP     *string
	ActivatedAt time.Time
}

// DeviceInitiateRequest drives the creation of a pending device record.
type DeviceInitiateRequest struct {
	OwnerID      string
	CameraModel  string
	WifiSSID     string
	WifiPassword string
	DeviceName   string
}

// DeviceInitiateResult bundles the pending record with the onboarding payload.
type DeviceInitiateResult struct {
	Device    *DeviceRecord
	QRPayload string
	QRCode    string
	QRData    map[string]string
}

// DeviceActivateRequest is presented by the camera after scanning the QR code.
type DeviceActivateRequest struct {
	DeviceToken string
	DeviceUID   string
	LocalIP     *string
	SourceIP    string
}

// DeviceStatusResult answers status polls from the mobile app.
type DeviceStatusResult struct {
	DeviceID   string       `json:"device_id"`
	Status     DeviceStatus `json:"status"`
	DeviceName string       `json:"device_name,omitempty"`
	Activated  bool         `json:"activated"`
}

// CameraModel describes a supported camera for the onboarding picker.
type CameraModel struct {
	ModelID      string `json:"model_id"`
	ModelName    string `json:"model_name"`
	Manufacturer string `json:"manufacturer"`
	SupportsQR   bool   `json:"supports_qr"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}
