// Package qrpayload encodes camera onboarding parameters for QR transport.
package qrpayload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Version is stamped into every payload the service emits.
const Version = "1.0"

// compactKey marks the short-alias form and carries the payload version.
const compactKey = "c"

var ErrEmptyPayload = errors.New("qr payload is empty")

// Fields are the onboarding parameters a camera reads from the QR code.
type Fields struct {
	WifiSSID     string `json:"wifi_ssid,omitempty"`
	WifiPassword string `json:"wifi_password,omitempty"`
	ServerURL    string `json:"server_url,omitempty"`
	DeviceToken  string `json:"device_token,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	CameraModel  string `json:"camera_model,omitempty"`
	Version      string `json:"version,omitempty"`
}

// compactFields is the reduced alias table. server_url, user_id and camera_model
// have no alias and do not survive compact encoding, so a camera scanning a
// compact code cannot reach the server or link the owner on its own.
type compactFields struct {
	Version      string `json:"c"`
	WifiSSID     string `json:"s,omitempty"`
	WifiPassword string `json:"p,omitempty"`
	DeviceToken  string `json:"t,omitempty"`
}

// CompactDropped lists the descriptive fields lost by compact encoding.
var CompactDropped = []string{"server_url", "user_id", "camera_model"}

// Encode renders fields as JSON, either under full names or under the compact aliases.
func Encode(fields Fields, compact bool) (string, error) {
	var v interface{} = fields

	if compact {
		version := fields.Version
		if version == "" {
			version = Version
		}

		v = compactFields{
			Version:      version,
			WifiSSID:     fields.WifiSSID,
			WifiPassword: fields.WifiPassword,
			DeviceToken:  fields.DeviceToken,
		}
	}

	buf, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}

	return string(buf), nil
}

// Decode accepts either form. Missing or unrecognised keys are left empty.
func Decode(payload string) (Fields, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Fields{}, ErrEmptyPayload
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return Fields{}, fmt.Errorf("decode qr payload: %w", err)
	}

	if _, ok := probe[compactKey]; !ok {
		var fields Fields
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return Fields{}, fmt.Errorf("decode qr payload: %w", err)
		}

		return fields, nil
	}

	var c compactFields
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Fields{}, fmt.Errorf("decode compact qr payload: %w", err)
	}

	return Fields{
		WifiSSID:     c.WifiSSID,
		WifiPassword: c.WifiPassword,
		DeviceToken:  c.DeviceToken,
		Version:      c.Version,
	}, nil
}

// Map returns the non-empty fields keyed by their descriptive names.
func (f Fields) Map() map[string]string {
	out := make(map[string]string, 7)

	add := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}

	add("wifi_ssid", f.WifiSSID)
	add("wifi_password", f.WifiPassword)
	add("server_url", f.ServerURL)
	add("device_token", f.DeviceToken)
	add("user_id", f.UserID)
	add("camera_model", f.CameraModel)
	add("version", f.Version)

	return out
}
