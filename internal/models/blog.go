package models

import "time"

// Blog is a stored post. Tags are kept lowercased and trimmed.
type Blog struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Category  string    `json:"category,omitempty"`
	Featured  bool      `json:"featured"`
	Author    string    `json:"author"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateBlogRequest is the JSON body for POST /api/blogs.
type CreateBlogRequest struct {
	Title    string   `json:"title"    validate:"required"`
	Slug     string   `json:"slug"`
	Content  string   `json:"content"  validate:"required"`
	Excerpt  string   `json:"excerpt"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"     validate:"max=20,dive,max=40"`
	Featured bool     `json:"featured"`
}

// Engagement holds the counters for one blog.
type Engagement struct {
	Likes int64 `json:"likes"`
	Views int64 `json:"views"`
}
