package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/bloghub/internal/config"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/geocoder89/bloghub/internal/service"
	"github.com/geocoder89/bloghub/internal/upload"
	"github.com/gin-gonic/gin"
)

const featuredImageField = "featuredImage"

type PostService interface {
	CreatePost(ctx context.Context, actor user.Identity, req post.CreateRequest, image *upload.File) (post.Post, error)
	ListPublished(ctx context.Context, page, limit int, categoryID string) (service.Page, error)
	Feed(ctx context.Context) ([]post.Post, error)
	GetBySlug(ctx context.Context, slug string) (post.Post, error)
	ListMine(ctx context.Context, actor user.Identity) ([]post.Post, error)
	TogglePublish(ctx context.Context, actor user.Identity, id string) (post.Post, error)
	UpdatePost(ctx context.Context, actor user.Identity, id string, req post.UpdateRequest) (post.Post, error)
	AddComment(ctx context.Context, actor user.Identity, slug string, content string) (post.Post, error)
	SearchPosts(ctx context.Context, q string) ([]post.Post, error)
}

type PostsHandler struct {
	svc PostService
}

func NewPostsHandler(svc PostService) *PostsHandler {
	return &PostsHandler{svc: svc}
}

// queryInt parses a positive integer query value; anything else is 0 and the
// service substitutes its default.
func queryInt(ctx *gin.Context, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(ctx.Query(key)))
	if err != nil {
		return 0
	}
	return n
}

func (h *PostsHandler) Create(ctx *gin.Context) {
	var req post.CreateRequest

	if !BindForm(ctx, &req) {
		return
	}

	var image *upload.File

	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		fh, err := ctx.FormFile(featuredImageField)

		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			RespondBadRequest(ctx, "Invalid featured image upload", nil)
			return
		default:
			f, err := fh.Open()
			if err != nil {
				RespondBadRequest(ctx, "Invalid featured image upload", nil)
				return
			}
			defer f.Close()

			image = &upload.File{Name: fh.Filename, Size: fh.Size, Reader: f}
		}
	}

	identity, _ := middlewares.IdentityFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	p, err := h.svc.CreatePost(cctx, identity, req, image)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusCreated, p)
}

func (h *PostsHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	page, err := h.svc.ListPublished(cctx, queryInt(ctx, "page"), queryInt(ctx, "limit"), ctx.Query("category"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       page.Posts,
		"page":       page.Page,
		"totalPages": page.TotalPages,
		"total":      page.Total,
	})
}

func (h *PostsHandler) Feed(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	posts, err := h.svc.Feed(cctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusOK, posts)
}

func (h *PostsHandler) Search(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	posts, err := h.svc.SearchPosts(cctx, ctx.Query("q"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusOK, posts)
}

func (h *PostsHandler) GetBySlug(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.svc.GetBySlug(cctx, ctx.Param("slug"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusOK, p)
}

func (h *PostsHandler) Mine(ctx *gin.Context) {
	identity, _ := middlewares.IdentityFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	posts, err := h.svc.ListMine(cctx, identity)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusOK, posts)
}

func (h *PostsHandler) TogglePublish(ctx *gin.Context) {
	identity, _ := middlewares.IdentityFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.svc.TogglePublish(cctx, identity, ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusOK, p)
}

func (h *PostsHandler) Update(ctx *gin.Context) {
	var req post.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	identity, _ := middlewares.IdentityFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.svc.UpdatePost(cctx, identity, ctx.Param("id"), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusOK, p)
}

func (h *PostsHandler) Comment(ctx *gin.Context) {
	var req post.CommentRequest

	if !BindJSON(ctx, &req) {
		return
	}

	identity, _ := middlewares.IdentityFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.svc.AddComment(cctx, identity, ctx.Param("slug"), req.Content)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusOK, p)
}
