// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Article represents a blog post.
// ID is assigned by the store on insert and never changes afterwards.
type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update replaces the mutable fields of the article.
func (a *Article) Update(title, content string) {
	a.Title = title
	a.Content = content
}

// Excerpt returns the first n runes of the content, used by list views.
func (a *Article) Excerpt(n int) string {
	content := strings.TrimSpace(a.Content)
	runes := []rune(content)
	if n <= 0 || len(runes) <= n {
		return content
	}
	return string(runes[:n]) + "…"
}
