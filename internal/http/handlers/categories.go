package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/bloghub/internal/config"
	"github.com/geocoder89/bloghub/internal/domain/category"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type CategoryService interface {
	List(ctx context.Context) ([]category.Category, error)
	GetBySlug(ctx context.Context, slug string) (category.Category, error)
	Create(ctx context.Context, actor user.Identity, req category.CreateRequest) (category.Category, error)
	Update(ctx context.Context, actor user.Identity, id string, req category.UpdateRequest) (category.Category, error)
	Delete(ctx context.Context, actor user.Identity, id string) error
}

type CategoriesHandler struct {
	svc CategoryService
}

func NewCategoriesHandler(svc CategoryService) *CategoriesHandler {
	return &CategoriesHandler{svc: svc}
}

func (h *CategoriesHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	cats, err := h.svc.List(cctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"success": true,
		"data":    cats,
	})
}

func (h *CategoriesHandler) GetBySlug(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.svc.GetBySlug(cctx, ctx.Param("slug"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusOK, c)
}

func (h *CategoriesHandler) Create(ctx *gin.Context) {
	var req category.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	identity, _ := middlewares.IdentityFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.svc.Create(cctx, identity, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusCreated, c)
}

func (h *CategoriesHandler) Update(ctx *gin.Context) {
	var req category.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	identity, _ := middlewares.IdentityFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.svc.Update(cctx, identity, ctx.Param("id"), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondData(ctx, http.StatusOK, c)
}

func (h *CategoriesHandler) Delete(ctx *gin.Context) {
	identity, _ := middlewares.IdentityFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Delete(cctx, identity, ctx.Param("id")); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Category removed",
	})
}
