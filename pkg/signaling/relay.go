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

	"github.com/carverauto/visionconnect/pkg/logger"
)

// Relay forwards raw messages to whichever channel is registered for a target.
// Delivery is best effort: an absent target or a full outbound queue drops the message.
type Relay struct {
	registry Registry
	logger   logger.Logger
}

func NewRelay(registry Registry, log logger.Logger) *Relay {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Relay{registry: registry, logger: log}
}

// Registry exposes the registry the relay reads from.
func (r *Relay) Registry() Registry {
	return r.registry
}

// Forward reports whether msg was handed to the target's channel. A miss is not an error.
func (r *Relay) Forward(ctx context.Context, role Role, key string, msg []byte) bool {
	ch, ok := r.registry.Lookup(role, key)
	if !ok {
		recordForward(ctx, role, outcomeMissing)

		r.logger.Debug().
			Str("target_role", string(role)).
			Str("target_key", key).
			Msg("Forward target not registered, dropping message")

		return false
	}

	if !ch.Deliver(msg) {
		recordForward(ctx, role, outcomeDropped)

		r.logger.Warn().
			Str("target_role", string(role)).
			Str("target_key", key).
			Int("bytes", len(msg)).
			Msg("Forward target not accepting messages, dropping")

		return false
	}

	recordForward(ctx, role, outcomeDelivered)

	return true
}
