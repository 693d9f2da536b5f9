package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/bloghub/internal/apperr"
	"github.com/geocoder89/bloghub/internal/cache"
	"github.com/geocoder89/bloghub/internal/domain/category"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/geocoder89/bloghub/internal/upload"
	"github.com/geocoder89/bloghub/internal/utils"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const msgPostNotOwned = "Post not found or not authorized"

type PostServiceConfig struct {
	Storage        upload.Storage
	MaxUploadBytes int64
	Cache          cache.Store
	Prom           *observability.Prom
}

type PostService struct {
	posts      PostStore
	categories CategoryStore
	storage    upload.Storage
	maxUpload  int64
	cache      listCache
	prom       *observability.Prom
	now        func() time.Time
}

func NewPostService(posts PostStore, categories CategoryStore, cfg PostServiceConfig) *PostService {
	return &PostService{
		posts:      posts,
		categories: categories,
		storage:    cfg.Storage,
		maxUpload:  cfg.MaxUploadBytes,
		cache:      listCache{store: cfg.Cache, prom: cfg.Prom},
		prom:       cfg.Prom,
		now:        time.Now,
	}
}

// Page is one page of the public listing.
type Page struct {
	Posts      []post.Post `json:"data"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
	Total      int         `json:"total"`
}

// DeriveExcerpt is the first ExcerptLength characters of content followed by "...".
func DeriveExcerpt(content string) string {
	r := []rune(content)
	if len(r) > post.ExcerptLength {
		r = r[:post.ExcerptLength]
	}
	return string(r) + "..."
}

// ParseTags splits a comma separated list, trimming entries and dropping
// blanks and duplicates.
func ParseTags(raw string) []string {
	return cleanTags(strings.Split(raw, ","))
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))

	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}

	return out
}

// NormalizePaging applies defaults to non-positive values, caps limit, and
// caps page so the derived offset never overflows.
func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = post.DefaultPage
	}
	if limit < 1 {
		limit = post.DefaultLimit
	}
	if limit > post.MaxLimit {
		limit = post.MaxLimit
	}
	if maxPage := post.MaxOffset/limit + 1; page > maxPage {
		page = maxPage
	}
	return page, limit
}

func (s *PostService) resolveCategory(ctx context.Context, id string) (category.Category, error) {
	if !utils.IsUUID(id) {
		return category.Category{}, apperr.Validation("Invalid category")
	}

	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return category.Category{}, apperr.Validation("Category not found")
		}
		return category.Category{}, apperr.Store("Could not resolve category", err)
	}

	return c, nil
}

func (s *PostService) prepareImage(f *upload.File) (upload.Image, error) {
	img, err := upload.Prepare(*f, s.maxUpload)
	if err == nil {
		return img, nil
	}

	s.prom.IncUploads("rejected")

	switch {
	case errors.Is(err, upload.ErrNotImage):
		return upload.Image{}, apperr.Validation("Only image files are allowed!")
	case errors.Is(err, upload.ErrTooLarge):
		return upload.Image{}, apperr.Validation("Image is too large")
	default:
		return upload.Image{}, apperr.Validation("Could not read uploaded image")
	}
}

func (s *PostService) CreatePost(ctx context.Context, actor user.Identity, req post.CreateRequest, image *upload.File) (post.Post, error) {
	ctx, span := tracer.Start(ctx, "posts.create")
	var err error
	defer func() { endSpan(span, err) }()

	if actor.IsZero() {
		err = apperr.Unauthenticated("Not authorized")
		return post.Post{}, err
	}

	title := strings.TrimSpace(req.Title)
	categoryID := strings.TrimSpace(req.Category)

	if title == "" || strings.TrimSpace(req.Content) == "" || categoryID == "" {
		err = apperr.Validation("Title, content, and category are required")
		return post.Post{}, err
	}

	cat, err := s.resolveCategory(ctx, categoryID)
	if err != nil {
		return post.Post{}, err
	}

	slug := utils.Slugify(title)
	if slug == "" {
		err = apperr.Validation("Title must contain at least one letter or digit")
		return post.Post{}, err
	}

	excerpt := strings.TrimSpace(req.Excerpt)
	if excerpt == "" {
		excerpt = DeriveExcerpt(req.Content)
	}

	now := s.now().UTC()

	p := post.Post{
		ID:          uuid.NewString(),
		Title:       title,
		Slug:        slug,
		Content:     req.Content,
		Excerpt:     excerpt,
		Category:    &post.CategoryRef{ID: cat.ID},
		Author:      post.AuthorRef{ID: actor.ID},
		Tags:        ParseTags(req.Tags),
		IsPublished: req.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if image != nil {
		if s.storage == nil {
			err = apperr.Validation("Image uploads are disabled")
			return post.Post{}, err
		}

		img, perr := s.prepareImage(image)
		if perr != nil {
			err = perr
			return post.Post{}, err
		}

		ref, serr := s.storage.Save(ctx, img)
		if serr != nil {
			s.prom.IncUploads("failed")
			err = apperr.Store("Could not store image", serr)
			return post.Post{}, err
		}

		s.prom.IncUploads("stored")
		p.FeaturedImage = ref
	}

	created, cerr := s.posts.Create(ctx, p)
	if cerr != nil {
		s.discardImage(ctx, p.FeaturedImage)

		switch {
		case errors.Is(cerr, post.ErrSlugTaken):
			err = apperr.Conflict("A post with this title already exists")
		case errors.Is(cerr, category.ErrNotFound):
			err = apperr.Validation("Category not found")
		default:
			err = apperr.Store("Could not create post", cerr)
		}
		return post.Post{}, err
	}

	span.SetAttributes(attribute.String("post.id", created.ID), attribute.String("post.slug", created.Slug))

	s.cache.bump(ctx, nsPosts)

	return created, nil
}

// discardImage removes an image stored for a post that was never created.
func (s *PostService) discardImage(ctx context.Context, ref string) {
	if ref == "" || s.storage == nil {
		return
	}

	if err := s.storage.Delete(ctx, ref); err != nil {
		slog.WarnContext(ctx, "failed to remove orphaned upload", "ref", ref, "err", err)
	}
}

// ListPublished returns one page of published posts, newest first.
// categoryID narrows the listing when non-empty.
func (s *PostService) ListPublished(ctx context.Context, page, limit int, categoryID string) (Page, error) {
	ctx, span := tracer.Start(ctx, "posts.list_published")
	var err error
	defer func() { endSpan(span, err) }()

	page, limit = NormalizePaging(page, limit)

	var filter *string
	if c := strings.TrimSpace(categoryID); c != "" {
		if !utils.IsUUID(c) {
			// no post can reference a malformed id
			return Page{Posts: []post.Post{}, Page: page}, nil
		}
		filter = &c
	}

	gen, cached := s.cache.generation(ctx, nsPosts)
	key := utils.BuildPostsListCacheKey(gen, page, limit, filter)

	if cached {
		var hit Page
		if s.cache.get(ctx, nsPosts, key, &hit) {
			return hit, nil
		}
	}

	posts, total, lerr := s.posts.ListPublished(ctx, post.ListFilter{
		CategoryID: filter,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if lerr != nil {
		err = apperr.Store("Could not list posts", lerr)
		return Page{}, err
	}

	out := Page{
		Posts:      posts,
		Page:       page,
		TotalPages: (total + limit - 1) / limit,
		Total:      total,
	}

	if cached {
		s.cache.set(ctx, key, out)
	}

	return out, nil
}

// Feed is the unpaginated public feed.
func (s *PostService) Feed(ctx context.Context) ([]post.Post, error) {
	posts, err := s.posts.ListAllPublished(ctx)
	if err != nil {
		return nil, apperr.Store("Could not list posts", err)
	}
	return posts, nil
}

// GetBySlug counts a view and returns the post with its comments.
func (s *PostService) GetBySlug(ctx context.Context, slug string) (post.Post, error) {
	ctx, span := tracer.Start(ctx, "posts.get_by_slug")
	var err error
	defer func() { endSpan(span, err) }()

	span.SetAttributes(attribute.String("post.slug", slug))

	id, ierr := s.posts.IncrementViews(ctx, slug)
	if ierr != nil {
		if errors.Is(ierr, post.ErrNotFound) {
			return post.Post{}, apperr.NotFound("Post not found")
		}
		err = apperr.Store("Could not fetch post", ierr)
		return post.Post{}, err
	}

	s.prom.IncPostViews()

	p, gerr := s.posts.GetWithComments(ctx, id)
	if gerr != nil {
		if errors.Is(gerr, post.ErrNotFound) {
			return post.Post{}, apperr.NotFound("Post not found")
		}
		err = apperr.Store("Could not fetch post", gerr)
		return post.Post{}, err
	}

	return p, nil
}

func (s *PostService) ListMine(ctx context.Context, actor user.Identity) ([]post.Post, error) {
	if actor.IsZero() {
		return nil, apperr.Unauthenticated("Not authorized")
	}

	posts, err := s.posts.ListByAuthor(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Store("Could not list posts", err)
	}

	return posts, nil
}

// TogglePublish flips the publish flag. Someone else's post is reported as not found.
func (s *PostService) TogglePublish(ctx context.Context, actor user.Identity, id string) (post.Post, error) {
	ctx, span := tracer.Start(ctx, "posts.toggle_publish")
	var err error
	defer func() { endSpan(span, err) }()

	if actor.IsZero() {
		return post.Post{}, apperr.Unauthenticated("Not authorized")
	}

	if !utils.IsUUID(id) {
		return post.Post{}, apperr.NotFound(msgPostNotOwned)
	}

	p, terr := s.posts.TogglePublish(ctx, id, actor.ID)
	if terr != nil {
		if errors.Is(terr, post.ErrNotFound) {
			return post.Post{}, apperr.NotFound(msgPostNotOwned)
		}
		err = apperr.Store("Could not update post", terr)
		return post.Post{}, err
	}

	span.SetAttributes(attribute.Bool("post.published", p.IsPublished))

	s.cache.bump(ctx, nsPosts)

	return p, nil
}

// UpdatePost applies the supplied fields only. The slug, the author, the
// publish flag and the view count are never changed here.
func (s *PostService) UpdatePost(ctx context.Context, actor user.Identity, id string, req post.UpdateRequest) (post.Post, error) {
	ctx, span := tracer.Start(ctx, "posts.update")
	var err error
	defer func() { endSpan(span, err) }()

	if actor.IsZero() {
		return post.Post{}, apperr.Unauthenticated("Not authorized")
	}

	if !utils.IsUUID(id) {
		return post.Post{}, apperr.NotFound(msgPostNotOwned)
	}

	var patch post.Patch

	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			return post.Post{}, apperr.Validation("Title cannot be empty")
		}
		patch.Title = &t
	}

	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return post.Post{}, apperr.Validation("Content cannot be empty")
		}
		patch.Content = req.Content
	}

	if req.Excerpt != nil {
		e := strings.TrimSpace(*req.Excerpt)
		patch.Excerpt = &e
	}

	if req.Category != nil {
		c := strings.TrimSpace(*req.Category)
		if !utils.IsUUID(c) {
			return post.Post{}, apperr.Validation("Invalid category")
		}
		patch.CategoryID = &c
	}

	if req.Tags != nil {
		tags := cleanTags(*req.Tags)
		patch.Tags = &tags
	}

	p, uerr := s.posts.Update(ctx, id, actor.ID, patch)
	if uerr != nil {
		switch {
		case errors.Is(uerr, post.ErrNotFound):
			return post.Post{}, apperr.NotFound(msgPostNotOwned)
		case errors.Is(uerr, category.ErrNotFound):
			return post.Post{}, apperr.Validation("Category not found")
		default:
			err = apperr.Store("Could not update post", uerr)
			return post.Post{}, err
		}
	}

	if !patch.Empty() {
		s.cache.bump(ctx, nsPosts)
	}

	return p, nil
}

// AddComment appends a comment by actor to the post at slug and returns the
// post with every comment expanded.
func (s *PostService) AddComment(ctx context.Context, actor user.Identity, slug string, content string) (post.Post, error) {
	ctx, span := tracer.Start(ctx, "posts.add_comment")
	var err error
	defer func() { endSpan(span, err) }()

	if actor.IsZero() {
		return post.Post{}, apperr.Unauthenticated("Not authorized")
	}

	id, gerr := s.posts.GetIDBySlug(ctx, slug)
	if gerr != nil {
		if errors.Is(gerr, post.ErrNotFound) {
			return post.Post{}, apperr.NotFound("Post not found")
		}
		err = apperr.Store("Could not add comment", gerr)
		return post.Post{}, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return post.Post{}, apperr.Validation("Comment content is required")
	}

	aerr := s.posts.AddComment(ctx, id, post.Comment{
		Author:    post.AuthorRef{ID: actor.ID, Name: actor.Name},
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	if aerr != nil {
		if errors.Is(aerr, post.ErrNotFound) {
			return post.Post{}, apperr.NotFound("Post not found")
		}
		err = apperr.Store("Could not add comment", aerr)
		return post.Post{}, err
	}

	s.prom.IncCommentsAdded()
	s.cache.bump(ctx, nsPosts)

	p, gerr := s.posts.GetWithComments(ctx, id)
	if gerr != nil {
		err = apperr.Store("Could not load post", gerr)
		return post.Post{}, err
	}

	return p, nil
}

// SearchPosts is a case-insensitive substring match over published titles
// and content. The query is matched as given, so only the empty string
// matches every published post.
func (s *PostService) SearchPosts(ctx context.Context, q string) ([]post.Post, error) {
	ctx, span := tracer.Start(ctx, "posts.search")
	var err error
	defer func() { endSpan(span, err) }()

	posts, serr := s.posts.Search(ctx, q)
	if serr != nil {
		err = apperr.Store("Could not search posts", serr)
		return nil, err
	}

	return posts, nil
}
