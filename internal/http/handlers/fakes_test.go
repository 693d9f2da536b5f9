package handlers_test

import (
	"context"

	"github.com/geocoder89/bloghub/internal/actorctx"
	"github.com/geocoder89/bloghub/internal/domain/category"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/service"
	"github.com/geocoder89/bloghub/internal/upload"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

var testAuthor = user.Identity{ID: "u-1", Name: "Alice", Email: "alice@example.com", Role: user.RoleUser}

// withIdentity stands in for RequireAuth.
func withIdentity(id user.Identity) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Request = ctx.Request.WithContext(actorctx.WithIdentity(ctx.Request.Context(), id))
		ctx.Next()
	}
}

// Fake implementation of handlers.PostService

type fakePostService struct {
	createFn  func(ctx context.Context, actor user.Identity, req post.CreateRequest, image *upload.File) (post.Post, error)
	listFn    func(ctx context.Context, page, limit int, categoryID string) (service.Page, error)
	feedFn    func(ctx context.Context) ([]post.Post, error)
	getFn     func(ctx context.Context, slug string) (post.Post, error)
	mineFn    func(ctx context.Context, actor user.Identity) ([]post.Post, error)
	toggleFn  func(ctx context.Context, actor user.Identity, id string) (post.Post, error)
	updateFn  func(ctx context.Context, actor user.Identity, id string, req post.UpdateRequest) (post.Post, error)
	commentFn func(ctx context.Context, actor user.Identity, slug, content string) (post.Post, error)
	searchFn  func(ctx context.Context, q string) ([]post.Post, error)
}

func (f *fakePostService) CreatePost(ctx context.Context, actor user.Identity, req post.CreateRequest, image *upload.File) (post.Post, error) {
	if f.createFn != nil {
		return f.createFn(ctx, actor, req, image)
	}
	return post.Post{}, nil
}

func (f *fakePostService) ListPublished(ctx context.Context, page, limit int, categoryID string) (service.Page, error) {
	if f.listFn != nil {
		return f.listFn(ctx, page, limit, categoryID)
	}
	return service.Page{Posts: []post.Post{}, Page: 1}, nil
}

func (f *fakePostService) Feed(ctx context.Context) ([]post.Post, error) {
	if f.feedFn != nil {
		return f.feedFn(ctx)
	}
	return []post.Post{}, nil
}

func (f *fakePostService) GetBySlug(ctx context.Context, slug string) (post.Post, error) {
	if f.getFn != nil {
		return f.getFn(ctx, slug)
	}
	return post.Post{}, nil
}

func (f *fakePostService) ListMine(ctx context.Context, actor user.Identity) ([]post.Post, error) {
	if f.mineFn != nil {
		return f.mineFn(ctx, actor)
	}
	return []post.Post{}, nil
}

func (f *fakePostService) TogglePublish(ctx context.Context, actor user.Identity, id string) (post.Post, error) {
	if f.toggleFn != nil {
		return f.toggleFn(ctx, actor, id)
	}
	return post.Post{}, nil
}

func (f *fakePostService) UpdatePost(ctx context.Context, actor user.Identity, id string, req post.UpdateRequest) (post.Post, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, actor, id, req)
	}
	return post.Post{}, nil
}

func (f *fakePostService) AddComment(ctx context.Context, actor user.Identity, slug string, content string) (post.Post, error) {
	if f.commentFn != nil {
		return f.commentFn(ctx, actor, slug, content)
	}
	return post.Post{}, nil
}

func (f *fakePostService) SearchPosts(ctx context.Context, q string) ([]post.Post, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, q)
	}
	return []post.Post{}, nil
}

// Fake implementation of handlers.CategoryService

type fakeCategoryService struct {
	listFn   func(ctx context.Context) ([]category.Category, error)
	getFn    func(ctx context.Context, slug string) (category.Category, error)
	createFn func(ctx context.Context, actor user.Identity, req category.CreateRequest) (category.Category, error)
	updateFn func(ctx context.Context, actor user.Identity, id string, req category.UpdateRequest) (category.Category, error)
	deleteFn func(ctx context.Context, actor user.Identity, id string) error
}

func (f *fakeCategoryService) List(ctx context.Context) ([]category.Category, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []category.Category{}, nil
}

func (f *fakeCategoryService) GetBySlug(ctx context.Context, slug string) (category.Category, error) {
	if f.getFn != nil {
		return f.getFn(ctx, slug)
	}
	return category.Category{}, nil
}

func (f *fakeCategoryService) Create(ctx context.Context, actor user.Identity, req category.CreateRequest) (category.Category, error) {
	if f.createFn != nil {
		return f.createFn(ctx, actor, req)
	}
	return category.Category{}, nil
}

func (f *fakeCategoryService) Update(ctx context.Context, actor user.Identity, id string, req category.UpdateRequest) (category.Category, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, actor, id, req)
	}
	return category.Category{}, nil
}

func (f *fakeCategoryService) Delete(ctx context.Context, actor user.Identity, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, actor, id)
	}
	return nil
}
