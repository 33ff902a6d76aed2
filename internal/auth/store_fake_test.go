package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/models"
)

var _ UserStore = (*memStore)(nil)

// memStore is an in-memory UserStore.
type memStore struct {
	mu      sync.Mutex
	users   []*models.User
	blogs   map[string]models.Blog
	failAll error
}

func newMemStore() *memStore {
	return &memStore{blogs: map[string]models.Blog{}}
}

func (m *memStore) CreateUser(_ context.Context, username, email, hashedPw string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, u := range m.users {
		if u.Email == email {
			return nil, apperror.NewConflict("User already exists", nil)
		}
	}
	now := time.Now().UTC()
	u := &models.User{
		ID:        fmt.Sprintf("u%d", len(m.users)+1),
		Username:  username,
		Email:     email,
		Password:  hashedPw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.users = append(m.users, u)
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *memStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	u, err := m.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := &models.Profile{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
	for _, bid := range u.BlogCreated {
		p.BlogCreated = append(p.BlogCreated, m.blogs[bid])
	}
	return p, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
