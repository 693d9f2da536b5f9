package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/bloghub/internal/apperr"
	"github.com/geocoder89/bloghub/internal/cache"
	"github.com/geocoder89/bloghub/internal/domain/category"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/geocoder89/bloghub/internal/utils"
	"github.com/google/uuid"
)

type CategoryService struct {
	store CategoryStore
	cache listCache
	now   func() time.Time
}

func NewCategoryService(store CategoryStore, c cache.Store, prom *observability.Prom) *CategoryService {
	return &CategoryService{
		store: store,
		cache: listCache{store: c, prom: prom},
		now:   time.Now,
	}
}

func requireAdmin(actor user.Identity) error {
	if actor.IsZero() {
		return apperr.Unauthenticated("Not authorized")
	}
	if !actor.Role.CanManageCategories() {
		return apperr.Forbidden("Not authorized as an admin")
	}
	return nil
}

func (s *CategoryService) List(ctx context.Context) ([]category.Category, error) {
	gen, cached := s.cache.generation(ctx, nsCategories)
	key := utils.BuildCategoriesListCacheKey(gen)

	if cached {
		var out []category.Category
		if s.cache.get(ctx, nsCategories, key, &out) {
			return out, nil
		}
	}

	out, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Store("Could not list categories", err)
	}

	if cached {
		s.cache.set(ctx, key, out)
	}

	return out, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (category.Category, error) {
	c, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return category.Category{}, apperr.NotFound("Category not found")
		}
		return category.Category{}, apperr.Store("Could not fetch category", err)
	}

	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, actor user.Identity, req category.CreateRequest) (category.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return category.Category{}, err
	}

	name := strings.TrimSpace(req.Name)
	slug := utils.Slugify(name)
	if name == "" || slug == "" {
		return category.Category{}, apperr.Validation("Category name is required")
	}

	now := s.now().UTC()

	c, err := s.store.Create(ctx, category.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, category.ErrNameTaken) {
			return category.Category{}, apperr.Conflict("Category already exists")
		}
		return category.Category{}, apperr.Store("Could not create category", err)
	}

	s.cache.bump(ctx, nsCategories)

	return c, nil
}

// Update renames re-derive the slug; category slugs are admin owned and not permalinks.
func (s *CategoryService) Update(ctx context.Context, actor user.Identity, id string, req category.UpdateRequest) (category.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return category.Category{}, err
	}

	if !utils.IsUUID(id) {
		return category.Category{}, apperr.NotFound("Category not found")
	}

	var patch category.Patch

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		slug := utils.Slugify(name)
		if name == "" || slug == "" {
			return category.Category{}, apperr.Validation("Category name cannot be empty")
		}
		patch.Name = &name
		patch.Slug = &slug
	}

	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		patch.Description = &d
	}

	c, err := s.store.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, category.ErrNotFound):
			return category.Category{}, apperr.NotFound("Category not found")
		case errors.Is(err, category.ErrNameTaken):
			return category.Category{}, apperr.Conflict("Category already exists")
		default:
			return category.Category{}, apperr.Store("Could not update category", err)
		}
	}

	// posts embed the category name and slug
	s.cache.bump(ctx, nsCategories, nsPosts)

	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, actor user.Identity, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if !utils.IsUUID(id) {
		return apperr.NotFound("Category not found")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return apperr.NotFound("Category not found")
		}
		return apperr.Store("Could not delete category", err)
	}

	s.cache.bump(ctx, nsCategories, nsPosts)

	return nil
}
