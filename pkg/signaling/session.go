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

package signaling

import (
	"context"
	"fmt"
)

// State is the per-connection protocol state.
type State int

const (
	StateInit State = iota
	StateRegistered
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRegistered:
		return "REGISTERED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// releaser is implemented by registries that can remove an entry only for its owner.
type releaser interface {
	Release(role Role, key string, ch Channel) bool
}

// SessionOptions carry the caller identity established by the transport.
type SessionOptions struct {
	// VerifiedUserID is the identity proven by a bearer token, if any.
	VerifiedUserID string
	// RequireUserAuth rejects user registrations without a verified identity.
	RequireUserAuth bool
}

// Session drives one connection through INIT -> REGISTERED -> CLOSED. It is owned
// by the connection's read loop and is not safe for concurrent use.
type Session struct {
	relay *Relay
	ch    Channel
	opts  SessionOptions

	state State
	role  Role
	key   string
}

func NewSession(relay *Relay, ch Channel, opts SessionOptions) *Session {
	return &Session{relay: relay, ch: ch, opts: opts}
}

func (s *Session) State() State { return s.state }

// Identity returns the registered role and key. Both are empty before registration.
func (s *Session) Identity() (Role, string) {
	return s.role, s.key
}

// Handle processes one inbound message. Any error is terminal for the connection.
func (s *Session) Handle(ctx context.Context, raw []byte) error {
	switch s.state {
	case StateInit:
		return s.register(ctx, raw)
	case StateRegistered:
		return s.forward(ctx, raw)
	default:
		return ErrSessionClosed
	}
}

func (s *Session) register(ctx context.Context, raw []byte) error {
	env, err := ParseRegister(raw)
	if err != nil {
		return err
	}

	key, err := s.resolveKey(env)
	if err != nil {
		return err
	}

	reply, err := buildRegisteredReply(env.Role, key)
	if err != nil {
		return fmt.Errorf("build registered reply: %w", err)
	}

	// queue the acknowledgement before becoming addressable so it precedes any forwarded traffic
	if !s.ch.Deliver(reply) {
		return fmt.Errorf("%w: could not acknowledge registration", ErrSessionClosed)
	}

	s.relay.Registry().Register(env.Role, key, s.ch)
	s.state = StateRegistered
	s.role = env.Role
	s.key = key

	recordSession(ctx, env.Role, 1)

	return nil
}

func (s *Session) resolveKey(env Envelope) (string, error) {
	key := env.Key

	if env.Role != RoleUser {
		if key == "" {
			return "", fmt.Errorf("%w: device registration needs uid", ErrInvalidEnvelope)
		}

		return key, nil
	}

	verified := s.opts.VerifiedUserID

	switch {
	case verified != "" && key == "":
		key = verified
	case verified != "" && key != verified:
		return "", fmt.Errorf("%w: user_id does not match token identity", ErrInvalidEnvelope)
	case verified == "" && s.opts.RequireUserAuth:
		return "", fmt.Errorf("%w: user registration requires a bearer token", ErrInvalidEnvelope)
	}

	if key == "" {
		return "", fmt.Errorf("%w: user registration needs user_id", ErrInvalidEnvelope)
	}

	return key, nil
}

func (s *Session) forward(ctx context.Context, raw []byte) error {
	env, err := ParseForward(s.role, raw)
	if err != nil {
		return err
	}

	s.relay.Forward(ctx, env.TargetRole, env.TargetKey, env.Raw)

	return nil
}

// Close releases the registry entry, if any. It is idempotent.
// The release is owner-checked rather than an unconditional Unregister so a
// superseded session never evicts its replacement: the last registration wins.
func (s *Session) Close(ctx context.Context) {
	if s.state == StateClosed {
		return
	}

	wasRegistered := s.state == StateRegistered
	s.state = StateClosed

	if !wasRegistered {
		return
	}

	reg := s.relay.Registry()
	if r, ok := reg.(releaser); ok {
		r.Release(s.role, s.key, s.ch)
	} else {
		reg.Unregister(s.role, s.key)
	}

	recordSession(ctx, s.role, -1)
}
