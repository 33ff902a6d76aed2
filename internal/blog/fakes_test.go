package blog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/models"
)

// memBlogs is an in-memory BlogStore. ListBlogs returns newest first.
type memBlogs struct {
	mu    sync.Mutex
	blogs []models.Blog
	users map[string]models.User
	clock time.Time
}

func newMemBlogs() *memBlogs {
	return &memBlogs{
		users: map[string]models.User{},
		clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memBlogs) addUser(id, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = models.User{ID: id, Username: username, BlogCreated: []string{}}
}

func (m *memBlogs) CreateBlog(_ context.Context, b *models.Blog) (*models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[b.Author]
	if !ok {
		return nil, apperror.NewNotFound("User not found")
	}
	for _, existing := range m.blogs {
		if existing.Slug == b.Slug {
			return nil, apperror.NewConflict("Slug already exists", nil)
		}
	}
	m.clock = m.clock.Add(time.Hour)
	cp := *b
	cp.ID = fmt.Sprintf("b%d", len(m.blogs)+1)
	cp.CreatedAt = m.clock
	cp.UpdatedAt = m.clock
	m.blogs = append(m.blogs, cp)
	u.BlogCreated = append(u.BlogCreated, cp.ID)
	m.users[b.Author] = u
	return &cp, nil
}

func (m *memBlogs) GetBlogBySlug(_ context.Context, slug string) (*models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.blogs {
		if b.Slug == slug {
			cp := b
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("Blog not found")
}

func (m *memBlogs) ListBlogs(context.Context) ([]models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Blog, 0, len(m.blogs))
	for i := len(m.blogs) - 1; i >= 0; i-- {
		out = append(out, m.blogs[i])
	}
	return out, nil
}

func (m *memBlogs) UsersByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// memCounters mirrors the Redis counter semantics.
type memCounters struct {
	mu    sync.Mutex
	likes map[string]int64
	views map[string]int64
	err   error
}

func newMemCounters() *memCounters {
	return &memCounters{likes: map[string]int64{}, views: map[string]int64{}}
}

func (c *memCounters) Like(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.likes[id]++
	return c.likes[id], nil
}

func (c *memCounters) Unlike(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	if c.likes[id] > 0 {
		c.likes[id]--
	}
	return c.likes[id], nil
}

func (c *memCounters) View(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.views[id]++
	return c.views[id], nil
}

func (c *memCounters) Counts(_ context.Context, ids []string) (map[string]models.Engagement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make(map[string]models.Engagement, len(ids))
	for _, id := range ids {
		out[id] = models.Engagement{Likes: c.likes[id], Views: c.views[id]}
	}
	return out, nil
}

type cover struct {
	data        []byte
	contentType string
}

type memCovers struct {
	mu     sync.Mutex
	covers map[string]cover
}

func newMemCovers() *memCovers {
	return &memCovers{covers: map[string]cover{}}
}

func (c *memCovers) PutCover(_ context.Context, id string, data []byte, contentType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.covers[id] = cover{data: data, contentType: contentType}
	return nil
}

func (c *memCovers) GetCover(_ context.Context, id string) ([]byte, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cv, ok := c.covers[id]
	if !ok {
		return nil, "", apperror.NewNotFound("Cover not found")
	}
	return cv.data, cv.contentType, nil
}

func (c *memCovers) RemoveCover(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.covers, id)
	return nil
}
