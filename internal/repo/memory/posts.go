package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/geocoder89/bloghub/internal/domain/category"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/domain/user"
)

type PostsRepo struct {
	s *Store
}

// expand resolves author and category the way the SQL join does. Caller
// holds at least the read lock.
func (r *PostsRepo) expand(rec *postRecord, withComments bool) post.Post {
	p := rec.post

	if u, ok := r.s.users[p.Author.ID]; ok {
		p.Author.Name = u.Name
	}

	p.Category = nil
	if c, ok := r.s.categories[rec.categoryID]; ok {
		p.Category = &post.CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}
	}

	p.Tags = append([]string{}, rec.post.Tags...)
	p.CommentCount = len(rec.comments)
	p.Comments = nil

	if withComments {
		p.Comments = make([]post.Comment, len(rec.comments))
		for i, c := range rec.comments {
			if u, ok := r.s.users[c.Author.ID]; ok {
				c.Author.Name = u.Name
			}
			p.Comments[i] = c
		}
	}

	return p
}

func (r *PostsRepo) bySlug(slug string) *postRecord {
	for _, rec := range r.s.posts {
		if rec.post.Slug == slug {
			return rec
		}
	}
	return nil
}

// collect filters and orders newest first, ties broken by id descending.
func (r *PostsRepo) collect(keep func(rec *postRecord) bool) []post.Post {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]post.Post, 0)
	for _, rec := range r.s.posts {
		if keep(rec) {
			out = append(out, r.expand(rec, false))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out
}

func (r *PostsRepo) Create(ctx context.Context, p post.Post) (post.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.bySlug(p.Slug) != nil {
		return post.Post{}, post.ErrSlugTaken
	}

	if _, ok := r.s.users[p.Author.ID]; !ok {
		return post.Post{}, user.ErrNotFound
	}

	var categoryID string
	if p.Category != nil {
		if _, ok := r.s.categories[p.Category.ID]; !ok {
			return post.Post{}, category.ErrNotFound
		}
		categoryID = p.Category.ID
	}

	p.ViewCount = 0
	p.Comments = nil
	if p.Tags == nil {
		p.Tags = []string{}
	}

	rec := &postRecord{post: p, categoryID: categoryID}
	r.s.posts[p.ID] = rec

	return r.expand(rec, false), nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.posts[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	return r.expand(rec, false), nil
}

func (r *PostsRepo) GetWithComments(ctx context.Context, id string) (post.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.posts[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	return r.expand(rec, true), nil
}

func (r *PostsRepo) GetIDBySlug(ctx context.Context, slug string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec := r.bySlug(slug)
	if rec == nil {
		return "", post.ErrNotFound
	}

	return rec.post.ID, nil
}

func (r *PostsRepo) IncrementViews(ctx context.Context, slug string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec := r.bySlug(slug)
	if rec == nil {
		return "", post.ErrNotFound
	}

	rec.post.ViewCount++
	return rec.post.ID, nil
}

func (r *PostsRepo) ListPublished(ctx context.Context, filter post.ListFilter) ([]post.Post, int, error) {
	all := r.collect(func(rec *postRecord) bool {
		if !rec.post.IsPublished {
			return false
		}
		return filter.CategoryID == nil || rec.categoryID == *filter.CategoryID
	})

	total := len(all)

	start := filter.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	return all[start:end], total, nil
}

func (r *PostsRepo) ListAllPublished(ctx context.Context) ([]post.Post, error) {
	return r.collect(func(rec *postRecord) bool {
		return rec.post.IsPublished
	}), nil
}

func (r *PostsRepo) Search(ctx context.Context, q string) ([]post.Post, error) {
	needle := strings.ToLower(q)

	return r.collect(func(rec *postRecord) bool {
		if !rec.post.IsPublished {
			return false
		}
		return strings.Contains(strings.ToLower(rec.post.Title), needle) ||
			strings.Contains(strings.ToLower(rec.post.Content), needle)
	}), nil
}

func (r *PostsRepo) ListByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	return r.collect(func(rec *postRecord) bool {
		return rec.post.Author.ID == authorID
	}), nil
}

// owned returns the record only when authorID owns it. Caller holds the lock.
func (r *PostsRepo) owned(id, authorID string) *postRecord {
	rec, ok := r.s.posts[id]
	if !ok || rec.post.Author.ID != authorID {
		return nil
	}
	return rec
}

func (r *PostsRepo) TogglePublish(ctx context.Context, id, authorID string) (post.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec := r.owned(id, authorID)
	if rec == nil {
		return post.Post{}, post.ErrNotFound
	}

	rec.post.IsPublished = !rec.post.IsPublished
	rec.post.UpdatedAt = time.Now().UTC()

	return r.expand(rec, false), nil
}

func (r *PostsRepo) Update(ctx context.Context, id, authorID string, patch post.Patch) (post.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec := r.owned(id, authorID)
	if rec == nil {
		return post.Post{}, post.ErrNotFound
	}

	if patch.CategoryID != nil {
		if _, ok := r.s.categories[*patch.CategoryID]; !ok {
			return post.Post{}, category.ErrNotFound
		}
		rec.categoryID = *patch.CategoryID
	}

	if patch.Title != nil {
		rec.post.Title = *patch.Title
	}
	if patch.Content != nil {
		rec.post.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		rec.post.Excerpt = *patch.Excerpt
	}
	if patch.Tags != nil {
		rec.post.Tags = append([]string{}, (*patch.Tags)...)
	}

	rec.post.UpdatedAt = time.Now().UTC()

	return r.expand(rec, false), nil
}

func (r *PostsRepo) AddComment(ctx context.Context, postID string, c post.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.posts[postID]
	if !ok {
		return post.ErrNotFound
	}

	r.s.commentSeq++
	c.ID = r.s.commentSeq
	rec.comments = append(rec.comments, c)

	return nil
}
