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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/visionconnect/pkg/logger"
)

type fakeChannel struct {
	mu     sync.Mutex
	msgs   [][]byte
	reject bool
}

func (f *fakeChannel) Deliver(msg []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.reject {
		return false
	}

	f.msgs = append(f.msgs, msg)

	return true
}

func (f *fakeChannel) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = string(m)
	}

	return out
}

func TestRegistryForwardAndUnregister(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg, logger.NewTestLogger())
	chA := &fakeChannel{}

	reg.Register(RoleDevice, "cam1", chA)
	require.True(t, relay.Forward(context.Background(), RoleDevice, "cam1", []byte(`{"m":1}`)))
	assert.Equal(t, []string{`{"m":1}`}, chA.messages())

	reg.Unregister(RoleDevice, "cam1")
	assert.False(t, relay.Forward(context.Background(), RoleDevice, "cam1", []byte(`{"m":2}`)))
	assert.Len(t, chA.messages(), 1)

	// absent entries are a no-op
	reg.Unregister(RoleDevice, "cam1")
	reg.Unregister(RoleUser, "never")
}

func TestRegistrySupersedingRegistration(t *testing.T) {
	reg := NewRegistry()
	chA, chB := &fakeChannel{}, &fakeChannel{}

	reg.Register(RoleUser, "u1", chA)
	reg.Register(RoleUser, "u1", chB)

	got, ok := reg.Lookup(RoleUser, "u1")
	require.True(t, ok)
	assert.Same(t, chB, got)

	// the superseded holder cannot evict the new one
	assert.False(t, reg.Release(RoleUser, "u1", chA))

	got, ok = reg.Lookup(RoleUser, "u1")
	require.True(t, ok)
	assert.Same(t, chB, got)

	assert.True(t, reg.Release(RoleUser, "u1", chB))

	_, ok = reg.Lookup(RoleUser, "u1")
	assert.False(t, ok)
}

func TestRegistryRolesAreSeparateNamespaces(t *testing.T) {
	reg := NewRegistry()
	dev, usr := &fakeChannel{}, &fakeChannel{}

	reg.Register(RoleDevice, "same", dev)
	reg.Register(RoleUser, "same", usr)

	got, _ := reg.Lookup(RoleDevice, "same")
	assert.Same(t, dev, got)

	got, _ = reg.Lookup(RoleUser, "same")
	assert.Same(t, usr, got)

	assert.Equal(t, map[Role]int{RoleDevice: 1, RoleUser: 1}, reg.Counts())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg, nil)

	const workers = 32
	const rounds = 200

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			ch := &fakeChannel{}
			key := fmt.Sprintf("cam-%d", w%8)

			for i := 0; i < rounds; i++ {
				reg.Register(RoleDevice, key, ch)
				relay.Forward(context.Background(), RoleDevice, key, []byte("x"))

				if got, ok := reg.Lookup(RoleDevice, key); ok {
					assert.NotNil(t, got)
				}

				reg.Release(RoleDevice, key, ch)
			}
		}(w)
	}

	wg.Wait()

	assert.Equal(t, 0, reg.Counts()[RoleDevice])
}

func TestRelayDropsWhenChannelRefuses(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg, nil)

	reg.Register(RoleUser, "slow", &fakeChannel{reject: true})
	assert.False(t, relay.Forward(context.Background(), RoleUser, "slow", []byte("x")))
}
