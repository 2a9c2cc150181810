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
	"hash/fnv"
	"runtime"
	"sync"
)

// Channel is a live transport a registered party can be reached on.
// Deliver must not block; it reports whether the message was accepted.
type Channel interface {
	Deliver(msg []byte) bool
}

// Registry maps (role, key) to the channel currently registered under it.
type Registry interface {
	Register(role Role, key string, ch Channel)
	Unregister(role Role, key string)
	Lookup(role Role, key string) (Channel, bool)
}

type entryKey struct {
	role Role
	key  string
}

type registryShard struct {
	mu      sync.RWMutex
	entries map[entryKey]Channel
}

// ShardedRegistry is a Registry partitioned across RWMutex-guarded shards.
type ShardedRegistry struct {
	shards []*registryShard
}

var _ Registry = (*ShardedRegistry)(nil)

// NewRegistry sizes the shard set from GOMAXPROCS.
func NewRegistry() *ShardedRegistry {
	const (
		minShards = 4
		maxShards = 16
	)

	n := runtime.GOMAXPROCS(0)
	if n < minShards {
		n = minShards
	}

	if n > maxShards {
		n = maxShards
	}

	r := &ShardedRegistry{shards: make([]*registryShard, n)}
	for i := range r.shards {
		r.shards[i] = &registryShard{entries: make(map[entryKey]Channel)}
	}

	return r
}

func (r *ShardedRegistry) shardFor(k entryKey) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.role))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.key))

	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

// Register installs ch, silently replacing whatever held (role, key) before.
func (r *ShardedRegistry) Register(role Role, key string, ch Channel) {
	k := entryKey{role: role, key: key}
	sh := r.shardFor(k)

	sh.mu.Lock()
	sh.entries[k] = ch
	sh.mu.Unlock()
}

// Unregister removes (role, key) if present.
func (r *ShardedRegistry) Unregister(role Role, key string) {
	k := entryKey{role: role, key: key}
	sh := r.shardFor(k)

	sh.mu.Lock()
	delete(sh.entries, k)
	sh.mu.Unlock()
}

// Release removes (role, key) only while it is still held by ch, so a session that
// was superseded cannot evict its replacement on close.
func (r *ShardedRegistry) Release(role Role, key string, ch Channel) bool {
	k := entryKey{role: role, key: key}
	sh := r.shardFor(k)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if current, ok := sh.entries[k]; ok && current == ch {
		delete(sh.entries, k)
		return true
	}

	return false
}

func (r *ShardedRegistry) Lookup(role Role, key string) (Channel, bool) {
	k := entryKey{role: role, key: key}
	sh := r.shardFor(k)

	sh.mu.RLock()
	ch, ok := sh.entries[k]
	sh.mu.RUnlock()

	return ch, ok
}

// Counts reports the number of registered entries per role.
func (r *ShardedRegistry) Counts() map[Role]int {
	out := map[Role]int{RoleDevice: 0, RoleUser: 0}

	for _, sh := range r.shards {
		sh.mu.RLock()
		for k := range sh.entries {
			out[k.role]++
		}
		sh.mu.RUnlock()
	}

	return out
}
