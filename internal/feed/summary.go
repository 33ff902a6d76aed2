package feed

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ayush/blog-platform/internal/models"
)

const (
	wordsPerMinute = 200
	excerptRunes   = 160
	dateLayout     = "Jan 2, 2006"
)

// Summarize projects a stored blog onto a Summary. author is the display
// name of the blog's author.
func Summarize(b models.Blog, author string, e models.Engagement) Summary {
	excerpt := b.Excerpt
	if excerpt == "" {
		excerpt = Excerpt(b.Content)
	}
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return Summary{
		ID:       b.ID,
		Slug:     b.Slug,
		Title:    b.Title,
		Excerpt:  excerpt,
		Category: b.Category,
		Tags:     tags,
		Author:   author,
		Date:     b.CreatedAt.Format(dateLayout),
		ReadTime: ReadTime(b.Content),
		Likes:    e.Likes,
		Views:    e.Views,
		Featured: b.Featured,
	}
}

// ReadTime renders the reading time of content, at least one minute.
func ReadTime(content string) string {
	words := len(strings.Fields(content))
	minutes := max((words+wordsPerMinute-1)/wordsPerMinute, 1)
	return fmt.Sprintf("%d min read", minutes)
}

// Excerpt collapses whitespace in content and cuts it at a word boundary
// near excerptRunes.
func Excerpt(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(flat) <= excerptRunes {
		return flat
	}
	cut := string([]rune(flat)[:excerptRunes])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
