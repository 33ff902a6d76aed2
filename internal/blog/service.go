// Package blog implements publishing, reading and engagement on blog posts.
package blog

import (
	"context"
	"errors"
	"mime"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/feed"
	"github.com/ayush/blog-platform/internal/logging"
	"github.com/ayush/blog-platform/internal/models"
)

const maxSlugLen = 80

// BlogStore defines the interface for blog persistence. CreateBlog also
// records the blog in its author's blogCreated list.
type BlogStore interface {
	CreateBlog(ctx context.Context, b *models.Blog) (*models.Blog, error)
	GetBlogBySlug(ctx context.Context, slug string) (*models.Blog, error)
	ListBlogs(ctx context.Context) ([]models.Blog, error)
	UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// Counters defines the interface for like and view counters.
type Counters interface {
	Like(ctx context.Context, blogID string) (int64, error)
	Unlike(ctx context.Context, blogID string) (int64, error)
	View(ctx context.Context, blogID string) (int64, error)
	Counts(ctx context.Context, ids []string) (map[string]models.Engagement, error)
}

// Covers defines the interface for cover image storage.
type Covers interface {
	PutCover(ctx context.Context, blogID string, data []byte, contentType string) error
	GetCover(ctx context.Context, blogID string) ([]byte, string, error)
	RemoveCover(ctx context.Context, blogID string) error
}

// Detail is a blog summary with its full content.
type Detail struct {
	feed.Summary
	Content string `json:"content"`
}

// Post is a single blog with the posts related to it.
type Post struct {
	Blog    Detail         `json:"blog"`
	Related []feed.Summary `json:"related"`
}

// Listing is one feed page plus the featured posts.
type Listing struct {
	feed.Page
	Featured []feed.Summary `json:"featured"`
}

type Service struct {
	blogs    BlogStore
	counters Counters
	covers   Covers
	validate *validator.Validate
	log      logging.Logger
}

func NewService(blogs BlogStore, counters Counters, covers Covers, log logging.Logger) *Service {
	return &Service{
		blogs:    blogs,
		counters: counters,
		covers:   covers,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Create publishes a blog written by authorID. The slug defaults to one
// derived from the title.
func (s *Service) Create(ctx context.Context, authorID string, req models.CreateBlogRequest) (*models.Blog, error) {
	if authorID == "" {
		return nil, apperror.NewAuth("Not authenticated", nil)
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	req.Excerpt = strings.TrimSpace(req.Excerpt)
	req.Category = strings.TrimSpace(req.Category)
	req.Tags = NormalizeTags(req.Tags)

	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if strings.EqualFold(req.Category, feed.CategoryAll) {
		return nil, apperror.NewValidation("Category must not be " + feed.CategoryAll)
	}

	slugSource := req.Slug
	if strings.TrimSpace(slugSource) == "" {
		slugSource = req.Title
	}
	slug := Slugify(slugSource)
	if slug == "" {
		return nil, apperror.NewValidation("Slug must contain letters or digits")
	}

	created, err := s.blogs.CreateBlog(ctx, &models.Blog{
		Slug:     slug,
		Title:    req.Title,
		Content:  req.Content,
		Excerpt:  req.Excerpt,
		Category: req.Category,
		Featured: req.Featured,
		Author:   authorID,
		Tags:     req.Tags,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "blog created", "slug", created.Slug, "author", authorID)
	return created, nil
}

// Get returns the blog with the given slug and up to
// feed.DefaultRelatedLimit related posts.
func (s *Service) Get(ctx context.Context, slug string) (*Post, error) {
	target, err := s.blogs.GetBlogBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	all, err := s.blogs.ListBlogs(ctx)
	if err != nil {
		return nil, err
	}

	summaries := s.summarize(ctx, append([]models.Blog{*target}, all...))
	self := summaries[0]
	return &Post{
		Blog:    Detail{Summary: self, Content: target.Content},
		Related: feed.RelatedOf(self, summaries[1:], feed.DefaultRelatedLimit),
	}, nil
}

// List filters the feed by query and category and returns page page.
func (s *Service) List(ctx context.Context, query, category string, page int) (*Listing, error) {
	blogs, err := s.blogs.ListBlogs(ctx)
	if err != nil {
		return nil, err
	}
	summaries := s.summarize(ctx, blogs)

	return &Listing{
		Page:     feed.Paginate(feed.Filter(summaries, strings.TrimSpace(query), category), page, feed.DefaultPageSize),
		Featured: feed.Featured(summaries, feed.DefaultFeatured),
	}, nil
}

func (s *Service) Like(ctx context.Context, slug string) (*models.Engagement, error) {
	return s.engage(ctx, slug, s.counters.Like)
}

func (s *Service) Unlike(ctx context.Context, slug string) (*models.Engagement, error) {
	return s.engage(ctx, slug, s.counters.Unlike)
}

func (s *Service) View(ctx context.Context, slug string) (*models.Engagement, error) {
	return s.engage(ctx, slug, s.counters.View)
}

func (s *Service) engage(ctx context.Context, slug string, op func(context.Context, string) (int64, error)) (*models.Engagement, error) {
	b, err := s.blogs.GetBlogBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if _, err := op(ctx, b.ID); err != nil {
		return nil, err
	}
	counts, err := s.counters.Counts(ctx, []string{b.ID})
	if err != nil {
		return nil, err
	}
	e := counts[b.ID]
	return &e, nil
}

// PutCover replaces the cover image of a blog. Only its author may do so.
func (s *Service) PutCover(ctx context.Context, slug, userID, contentType string, data []byte) error {
	b, err := s.authoredBy(ctx, slug, userID)
	if err != nil {
		return err
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return apperror.NewValidation("Cover must be an image")
	}
	if len(data) == 0 {
		return apperror.NewValidation("Cover image is required")
	}

	if err := s.covers.PutCover(ctx, b.ID, data, mediaType); err != nil {
		return err
	}
	s.log.Info(ctx, "cover updated", "slug", slug, "bytes", len(data))
	return nil
}

// RemoveCover deletes the cover image of a blog. Only its author may do so.
// Removing a cover that was never set succeeds.
func (s *Service) RemoveCover(ctx context.Context, slug, userID string) error {
	b, err := s.authoredBy(ctx, slug, userID)
	if err != nil {
		return err
	}
	if err := s.covers.RemoveCover(ctx, b.ID); err != nil {
		return err
	}
	s.log.Info(ctx, "cover removed", "slug", slug)
	return nil
}

func (s *Service) authoredBy(ctx context.Context, slug, userID string) (*models.Blog, error) {
	b, err := s.blogs.GetBlogBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if userID == "" || b.Author != userID {
		return nil, apperror.NewAuth("Only the author can change the cover", nil)
	}
	return b, nil
}

func (s *Service) GetCover(ctx context.Context, slug string) ([]byte, string, error) {
	b, err := s.blogs.GetBlogBySlug(ctx, slug)
	if err != nil {
		return nil, "", err
	}
	return s.covers.GetCover(ctx, b.ID)
}

// summarize projects blogs onto feed summaries. Missing authors or an
// unavailable counter store degrade to blank names and zero counts.
func (s *Service) summarize(ctx context.Context, blogs []models.Blog) []feed.Summary {
	ids := make([]string, 0, len(blogs))
	authorIDs := make([]string, 0, len(blogs))
	seen := make(map[string]bool, len(blogs))
	for _, b := range blogs {
		ids = append(ids, b.ID)
		if !seen[b.Author] {
			seen[b.Author] = true
			authorIDs = append(authorIDs, b.Author)
		}
	}

	authors, err := s.blogs.UsersByIDs(ctx, authorIDs)
	if err != nil {
		s.log.Warn(ctx, "author lookup failed", "error", err)
	}
	counts, err := s.counters.Counts(ctx, ids)
	if err != nil {
		s.log.Warn(ctx, "counter lookup failed", "error", err)
	}

	out := make([]feed.Summary, 0, len(blogs))
	for _, b := range blogs {
		out = append(out, feed.Summarize(b, authors[b.Author].Username, counts[b.ID]))
	}
	return out
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if strings.HasPrefix(fe.Namespace(), "CreateBlogRequest.Tags") {
				return apperror.NewValidation("At most 20 tags of up to 40 characters are allowed")
			}
		}
	}
	return apperror.NewValidation("Title and content are required")
}

// NormalizeTags trims and lowercases tags, dropping empties and
// duplicates while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Slugify lowercases s and joins its runs of ASCII letters and digits
// with single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}
