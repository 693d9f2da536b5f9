package post

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("post not found")
	ErrSlugTaken = errors.New("post slug already exists")
)

const (
	ExcerptLength = 150
	DefaultPage   = 1
	DefaultLimit  = 10
	MaxLimit      = 100

	// MaxOffset bounds (page-1)*limit so it fits a Postgres integer OFFSET.
	MaxOffset = 1<<31 - 1
)

// AuthorRef is the expanded view of a post's author. Only the display name
// is ever resolved.
type AuthorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Comment struct {
	ID        int64     `json:"id"`
	Author    AuthorRef `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Post struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Content       string       `json:"content"`
	Excerpt       string       `json:"excerpt"`
	Category      *CategoryRef `json:"category"`
	Author        AuthorRef    `json:"author"`
	Tags          []string     `json:"tags"`
	FeaturedImage string       `json:"featuredImage,omitempty"`
	IsPublished   bool         `json:"isPublished"`
	ViewCount     int64        `json:"viewCount"`
	CommentCount  int          `json:"commentCount"`
	Comments      []Comment    `json:"comments,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// CreateRequest arrives as multipart form data (or JSON). Tags is the raw
// comma separated string.
type CreateRequest struct {
	Title       string `form:"title" json:"title" binding:"required,max=200"`
	Content     string `form:"content" json:"content" binding:"required"`
	Category    string `form:"category" json:"category" binding:"required"`
	Tags        string `form:"tags" json:"tags"`
	Excerpt     string `form:"excerpt" json:"excerpt" binding:"omitempty,max=500"`
	IsPublished bool   `form:"isPublished" json:"isPublished"`
}

type UpdateRequest struct {
	Title    *string   `json:"title" binding:"omitempty,max=200"`
	Content  *string   `json:"content"`
	Excerpt  *string   `json:"excerpt" binding:"omitempty,max=500"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

// Patch is the store level update. Nil fields are not touched.
type Patch struct {
	Title      *string
	Content    *string
	Excerpt    *string
	CategoryID *string
	Tags       *[]string
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil && p.CategoryID == nil && p.Tags == nil
}

// with pointers if optional, it will be nil
type ListFilter struct {
	CategoryID *string
	Limit      int
	Offset     int
}

type CommentRequest struct {
	Content string `json:"content" binding:"max=5000"`
}
