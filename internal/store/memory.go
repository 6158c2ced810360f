package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/backend/internal/models"
)

// MemoryUserStore keeps users in process memory. It enforces the same
// uniqueness rules as the database schema and is used for local development
// and tests.
type MemoryUserStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*models.User
	byEmail    map[string]uuid.UUID
	byIdentity map[string]uuid.UUID
	now        func() time.Time
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:       make(map[uuid.UUID]*models.User),
		byEmail:    make(map[string]uuid.UUID),
		byIdentity: make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

func identityKey(provider models.Provider, subject string) string {
	return string(provider) + "|" + subject
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if _, ok := s.byID[u.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return ErrConflict
	}
	var idKey string
	if fed, ok := u.Identity().(models.FederatedIdentity); ok {
		idKey = identityKey(fed.Provider, fed.Subject)
		if _, taken := s.byIdentity[idKey]; taken {
			return ErrConflict
		}
	}

	now := s.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	stored := cloneUser(u)
	s.byID[u.ID] = stored
	s.byEmail[u.Email] = u.ID
	if idKey != "" {
		s.byIdentity[idKey] = u.ID
	}
	return nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *MemoryUserStore) FindByIdentity(_ context.Context, provider models.Provider, subject string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byIdentity[identityKey(provider, subject)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *MemoryUserStore) SetRefreshTokenHash(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshTokenHash = &hash
	u.UpdatedAt = s.now()
	return nil
}

func (s *MemoryUserStore) SwapRefreshTokenHash(_ context.Context, id uuid.UUID, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != current {
		return ErrStaleRefreshToken
	}
	u.RefreshTokenHash = &next
	u.UpdatedAt = s.now()
	return nil
}

func (s *MemoryUserStore) ClearRefreshTokenHash(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshTokenHash = nil
	u.UpdatedAt = s.now()
	return nil
}

func (s *MemoryUserStore) Ping(context.Context) error { return nil }

// Count returns the number of stored users.
func (s *MemoryUserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.ProviderID != nil {
		v := *u.ProviderID
		c.ProviderID = &v
	}
	if u.RefreshTokenHash != nil {
		v := *u.RefreshTokenHash
		c.RefreshTokenHash = &v
	}
	return &c
}
