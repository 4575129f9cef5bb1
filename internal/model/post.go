package model

import (
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Slug      string    `json:"slug"`
	Status    Status    `json:"status"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined from the author's account on reads.
	Username   string `json:"username,omitempty"`
	AuthorName string `json:"author_name,omitempty"`

	ContentHTML string `json:"content_html,omitempty"`
}

// PostPatch is a partial update. Nil fields are left untouched.
type PostPatch struct {
	Title   *string
	Content *string
	Excerpt *string
	Status  *Status
}

func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil && p.Status == nil
}

func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Excerpt != nil {
		post.Excerpt = *p.Excerpt
	}
	if p.Status != nil {
		post.Status = *p.Status
	}
}
