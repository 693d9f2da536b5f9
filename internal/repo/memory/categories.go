package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/bloghub/internal/domain/category"
)

type CategoriesRepo struct {
	s *Store
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	r.s.mu.RLock()
	out := make([]category.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *CategoriesRepo) GetBySlug(ctx context.Context, slug string) (category.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.categories {
		if c.Slug == slug {
			return c, nil
		}
	}

	return category.Category{}, category.ErrNotFound
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id string) (category.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}

	return c, nil
}

// taken reports whether another category already uses name or slug.
// Caller holds the lock.
func (r *CategoriesRepo) taken(exceptID, name, slug string) bool {
	for id, c := range r.s.categories {
		if id == exceptID {
			continue
		}
		if c.Name == name || c.Slug == slug {
			return true
		}
	}
	return false
}

func (r *CategoriesRepo) Create(ctx context.Context, c category.Category) (category.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.taken("", c.Name, c.Slug) {
		return category.Category{}, category.ErrNameTaken
	}

	r.s.categories[c.ID] = c
	return c, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id string, patch category.Patch) (category.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}

	if patch.Name == nil && patch.Slug == nil && patch.Description == nil {
		return c, nil
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Slug != nil {
		c.Slug = *patch.Slug
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}

	if r.taken(id, c.Name, c.Slug) {
		return category.Category{}, category.ErrNameTaken
	}

	c.UpdatedAt = time.Now().UTC()
	r.s.categories[id] = c

	return c, nil
}

// Delete removes the category and detaches it from every post that referenced it.
func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return category.ErrNotFound
	}

	delete(r.s.categories, id)

	for _, rec := range r.s.posts {
		if rec.categoryID == id {
			rec.categoryID = ""
		}
	}

	return nil
}
