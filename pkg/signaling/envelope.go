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

// Package signaling relays opaque messages between registered cameras and users.
package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidEnvelope is returned for any message that is not a valid variant for the sender.
	ErrInvalidEnvelope = errors.New("invalid signaling envelope")
	ErrSessionClosed   = errors.New("signaling session closed")
)

// Role identifies which side of the relay a connection speaks for.
type Role string

const (
	RoleDevice Role = "device"
	RoleUser   Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleDevice || r == RoleUser
}

const (
	typeRegister   = "register"
	typeRegistered = "registered"
	toUser         = "user"
)

// EnvelopeKind is the closed set of messages the relay understands.
type EnvelopeKind int

const (
	KindRegister EnvelopeKind = iota + 1
	KindForwardToUser
	KindForwardToDevice
)

func (k EnvelopeKind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindForwardToUser:
		return "forward-to-user"
	case KindForwardToDevice:
		return "forward-to-device"
	default:
		return "unknown"
	}
}

// Envelope is a parsed signaling message. Raw holds the original bytes, which are
// what gets forwarded.
type Envelope struct {
	Kind EnvelopeKind
	// Role and Key are set for KindRegister.
	Role Role
	Key  string
	// TargetRole and TargetKey are set for forward kinds.
	TargetRole Role
	TargetKey  string
	Raw        []byte
}

// wireEnvelope holds the routing fields the relay reads. Everything else is payload.
type wireEnvelope struct {
	Type      string `json:"type"`
	Role      string `json:"role"`
	UID       string `json:"uid"`
	UserID    string `json:"user_id"`
	To        string `json:"to"`
	TargetUID string `json:"target_uid"`
}

func readWire(raw []byte) (*wireEnvelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}

	return &w, nil
}

// ParseRegister validates the first message of a session.
func ParseRegister(raw []byte) (Envelope, error) {
	w, err := readWire(raw)
	if err != nil {
		return Envelope{}, err
	}

	if w.Type != typeRegister {
		return Envelope{}, fmt.Errorf("%w: expected register, got %q", ErrInvalidEnvelope, w.Type)
	}

	env := Envelope{Kind: KindRegister, Role: Role(w.Role), Raw: raw}

	switch env.Role {
	case RoleDevice:
		env.Key = strings.TrimSpace(w.UID)
	case RoleUser:
		env.Key = strings.TrimSpace(w.UserID)
	default:
		return Envelope{}, fmt.Errorf("%w: unknown role %q", ErrInvalidEnvelope, w.Role)
	}

	return env, nil
}

// ParseForward validates a message sent by an already registered party.
// Devices address users with {to:"user", user_id}; users address devices with {target_uid}.
func ParseForward(sender Role, raw []byte) (Envelope, error) {
	w, err := readWire(raw)
	if err != nil {
		return Envelope{}, err
	}

	if w.Type == typeRegister {
		return Envelope{}, fmt.Errorf("%w: session already registered", ErrInvalidEnvelope)
	}

	switch sender {
	case RoleDevice:
		if w.To != toUser || strings.TrimSpace(w.UserID) == "" {
			return Envelope{}, fmt.Errorf("%w: device messages need to=user and user_id", ErrInvalidEnvelope)
		}

		return Envelope{
			Kind:       KindForwardToUser,
			TargetRole: RoleUser,
			TargetKey:  strings.TrimSpace(w.UserID),
			Raw:        raw,
		}, nil
	case RoleUser:
		if strings.TrimSpace(w.TargetUID) == "" {
			return Envelope{}, fmt.Errorf("%w: user messages need target_uid", ErrInvalidEnvelope)
		}

		return Envelope{
			Kind:       KindForwardToDevice,
			TargetRole: RoleDevice,
			TargetKey:  strings.TrimSpace(w.TargetUID),
			Raw:        raw,
		}, nil
	default:
		return Envelope{}, fmt.Errorf("%w: unknown sender role %q", ErrInvalidEnvelope, sender)
	}
}

// registeredReply acknowledges a register envelope.
type registeredReply struct {
	Type   string `json:"type"`
	Role   Role   `json:"role"`
	UID    string `json:"uid,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

func buildRegisteredReply(role Role, key string) ([]byte, error) {
	reply := registeredReply{Type: typeRegistered, Role: role}

	if role == RoleDevice {
		reply.UID = key
	} else {
		reply.UserID = key
	}

	return json.Marshal(reply)
}
