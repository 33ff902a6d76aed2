// Package feed filters, paginates and relates blog summaries. All functions
// are pure: they never mutate their input and perform no I/O.
package feed

import (
	"slices"
	"strings"
)

const (
	// CategoryAll disables the category clause of Filter.
	CategoryAll = "All"

	DefaultPageSize     = 6
	DefaultRelatedLimit = 3
	DefaultFeatured     = 3
)

// Categories offered by the home page category pills.
var Categories = []string{CategoryAll, "Technology", "Design", "AI", "Innovation", "Lifestyle"}

// Summary is the view projection of a blog used by list pages.
type Summary struct {
	ID       string   `json:"id"`
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Author   string   `json:"author"`
	Date     string   `json:"date"`
	ReadTime string   `json:"readTime"`
	Likes    int64    `json:"likes"`
	Views    int64    `json:"views"`
	Comments int64    `json:"comments"`
	Featured bool     `json:"featured"`
}

// Page is one slice of a filtered list.
type Page struct {
	Items      []Summary `json:"blogs"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
	Total      int       `json:"total"`
}

// Filter keeps blogs whose category matches (or category is "All") and
// whose title, excerpt or any tag contains searchTerm, ignoring case.
// An empty category behaves like "All".
func Filter(blogs []Summary, searchTerm, category string) []Summary {
	term := strings.ToLower(searchTerm)
	out := make([]Summary, 0, len(blogs))
	for _, b := range blogs {
		if category != "" && category != CategoryAll && b.Category != category {
			continue
		}
		if term != "" && !matches(b, term) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matches(b Summary, term string) bool {
	if strings.Contains(strings.ToLower(b.Title), term) ||
		strings.Contains(strings.ToLower(b.Excerpt), term) {
		return true
	}
	return slices.ContainsFunc(b.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), term)
	})
}

// TotalPages is ceil(n / pageSize).
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return (n + pageSize - 1) / pageSize
}

// Paginate returns page pageIndex (1-based) of filtered. pageIndex is
// clamped into [1, TotalPages]; a non-positive pageSize means
// DefaultPageSize.
func Paginate(filtered []Summary, pageIndex, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := TotalPages(len(filtered), pageSize)

	page := pageIndex
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}

	start := min((page-1)*pageSize, len(filtered))
	end := min(page*pageSize, len(filtered))

	return Page{
		Items:      slices.Clone(filtered[start:end]),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: total,
		Total:      len(filtered),
	}
}

// RelatedOf returns up to limit blogs other than target that share its
// category or at least one tag, in their original order.
func RelatedOf(target Summary, blogs []Summary, limit int) []Summary {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	out := make([]Summary, 0, limit)
	for _, b := range blogs {
		if len(out) == limit {
			break
		}
		if b.ID == target.ID {
			continue
		}
		if (target.Category != "" && b.Category == target.Category) || sharesTag(target.Tags, b.Tags) {
			out = append(out, b)
		}
	}
	return out
}

func sharesTag(a, b []string) bool {
	for _, t := range a {
		if slices.Contains(b, t) {
			return true
		}
	}
	return false
}

// Featured returns the first limit featured blogs.
func Featured(blogs []Summary, limit int) []Summary {
	if limit <= 0 {
		limit = DefaultFeatured
	}
	out := make([]Summary, 0, limit)
	for _, b := range blogs {
		if len(out) == limit {
			break
		}
		if b.Featured {
			out = append(out, b)
		}
	}
	return out
}
