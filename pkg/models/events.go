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

import "time"

// CloudEvent represents a CloudEvents v1.0 message.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// DeviceEventType names a device lifecycle transition.
type DeviceEventType string

const (
	DeviceEventProvisioned DeviceEventType = "provisioned"
	DeviceEventActivated   DeviceEventType = "activated"
)

// DeviceLifecycleEventData is the payload published for provisioning transitions.
// The device token is never part of it.
type DeviceLifecycleEventData struct {
	DeviceID    string       `json:"device_id"`
	OwnerID     string       `json:"owner_id"`
	DeviceUID   string       `json:"device_uid,omitempty"`
	CameraModel string       `json:"camera_model"`
	Status      DeviceStatus `json:"status"`
	LocalIP     string       `json:"local_ip,omitempty"`
	SourceIP    string       `json:"source_ip,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}
