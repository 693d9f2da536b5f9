// Package service holds the blog's business rules: authentication, the
// category reference data and the post lifecycle. Services speak the
// apperr taxonomy; stores speak domain sentinel errors.
package service

import (
	"context"

	"github.com/geocoder89/bloghub/internal/domain/category"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/geocoder89/bloghub/internal/service")

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]category.Category, error)
	GetBySlug(ctx context.Context, slug string) (category.Category, error)
	GetByID(ctx context.Context, id string) (category.Category, error)
	Create(ctx context.Context, c category.Category) (category.Category, error)
	Update(ctx context.Context, id string, patch category.Patch) (category.Category, error)
	Delete(ctx context.Context, id string) error
}

type PostStore interface {
	Create(ctx context.Context, p post.Post) (post.Post, error)
	GetByID(ctx context.Context, id string) (post.Post, error)
	GetWithComments(ctx context.Context, id string) (post.Post, error)
	GetIDBySlug(ctx context.Context, slug string) (string, error)
	IncrementViews(ctx context.Context, slug string) (string, error)
	ListPublished(ctx context.Context, filter post.ListFilter) ([]post.Post, int, error)
	ListAllPublished(ctx context.Context) ([]post.Post, error)
	Search(ctx context.Context, q string) ([]post.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]post.Post, error)
	TogglePublish(ctx context.Context, id, authorID string) (post.Post, error)
	Update(ctx context.Context, id, authorID string, patch post.Patch) (post.Post, error)
	AddComment(ctx context.Context, postID string, c post.Comment) error
}

// endSpan records err on span (when it is a failure worth flagging) and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
