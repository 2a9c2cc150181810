package db

import (
	"context"
	"sort"
	"sync"

	"github.com/carverauto/visionconnect/pkg/models"
)

// MemoryStore keeps records in process memory. It is the default for development
// and the reference behavior the SQL stores are tested against.
type MemoryStore struct {
	mu           sync.RWMutex
	devices      map[string]*models.DeviceRecord
	tokens       map[string]string
	retired      map[string]struct{}
	users        map[string]*models.User
	usersByEmail map[string]string
}

var _ Service = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices:      make(map[string]*models.DeviceRecord),
		tokens:       make(map[string]string),
		retired:      make(map[string]struct{}),
		users:        make(map[string]*models.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *MemoryStore) CreateDevice(_ context.Context, rec *models.DeviceRecord) error {
	if rec == nil {
		return models.ErrDeviceRecordNil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tokens[rec.DeviceToken]; exists {
		return models.ErrDeviceTokenConflict
	}

	if _, retired := m.retired[rec.DeviceToken]; retired {
		return models.ErrDeviceTokenConflict
	}

	if _, exists := m.devices[rec.DeviceID]; exists {
		return ErrFailedToInsert
	}

	m.devices[rec.DeviceID] = rec.Clone()
	m.tokens[rec.DeviceToken] = rec.DeviceID

	return nil
}

func (m *MemoryStore) ActivateDevice(
	_ context.Context, token string, act *models.DeviceActivation) (*models.DeviceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.tokens[token]
	if !ok {
		return nil, models.ErrDeviceNotFound
	}

	rec := m.devices[id]
	if rec == nil || rec.Status != models.DeviceStatusPending {
		return nil, models.ErrDeviceNotFound
	}

	uid := act.DeviceUID
	activatedAt := act.ActivatedAt

	rec.DeviceUID = &uid
	rec.LocalIP = cloneStringPtr(act.LocalIP)
	rec.Status = models.DeviceStatusActive
	rec.ActivatedAt = &activatedAt

	return rec.Clone(), nil
}

func (m *MemoryStore) GetDeviceByToken(_ context.Context, token string) (*models.DeviceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.tokens[token]
	if !ok {
		return nil, models.ErrDeviceNotFound
	}

	return m.devices[id].Clone(), nil
}

func (m *MemoryStore) GetDevice(_ context.Context, deviceID string) (*models.DeviceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.devices[deviceID]
	if !ok {
		return nil, models.ErrDeviceNotFound
	}

	return rec.Clone(), nil
}

// ListDevicesByOwner returns the owner's devices, newest first.
func (m *MemoryStore) ListDevicesByOwner(_ context.Context, ownerID string, limit int) ([]*models.DeviceRecord, error) {
	m.mu.RLock()

	out := make([]*models.DeviceRecord, 0)
	for _, rec := range m.devices {
		if rec.OwnerID == ownerID {
			out = append(out, rec.Clone())
		}
	}

	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// DeleteDevice removes the record and retires its token so it is never issued again.
func (m *MemoryStore) DeleteDevice(_ context.Context, ownerID, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.devices[deviceID]
	if !ok || rec.OwnerID != ownerID {
		return models.ErrDeviceNotFound
	}

	delete(m.devices, deviceID)
	delete(m.tokens, rec.DeviceToken)
	m.retired[rec.DeviceToken] = struct{}{}

	return nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	if user == nil {
		return ErrUserNil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByEmail[user.Email]; exists {
		return ErrUserExists
	}

	u := *user
	m.users[u.ID] = &u
	m.usersByEmail[u.Email] = u.ID

	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usersByEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}

	u := *m.users[id]

	return &u, nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	u := *user

	return &u, nil
}

func (*MemoryStore) Close() error { return nil }

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}
