package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/bloghub/internal/domain/category"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{
		pool: pool,
		prom: prom,
	}
}

// author and category are expanded in the same query; the password hash is
// never selected
const postSelect = `
	SELECT p.id::text,
		p.title,
		p.slug,
		p.content,
		p.excerpt,
		p.category_id::text,
		COALESCE(c.name, ''),
		COALESCE(c.slug, ''),
		p.author_id::text,
		u.name,
		p.tags,
		p.featured_image,
		p.is_published,
		p.view_count,
		(SELECT COUNT(*) FROM post_comments pc WHERE pc.post_id = p.id),
		p.created_at,
		p.updated_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN categories c ON c.id = p.category_id
`

// stable ordering: newest first, ties broken by id
const postOrder = ` ORDER BY p.created_at DESC, p.id DESC`

func scanPost(row pgx.Row) (post.Post, error) {
	var p post.Post
	var categoryID *string
	var categoryName, categorySlug string

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Content,
		&p.Excerpt,
		&categoryID,
		&categoryName,
		&categorySlug,
		&p.Author.ID,
		&p.Author.Name,
		&p.Tags,
		&p.FeaturedImage,
		&p.IsPublished,
		&p.ViewCount,
		&p.CommentCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return post.Post{}, err
	}

	if categoryID != nil {
		p.Category = &post.CategoryRef{ID: *categoryID, Name: categoryName, Slug: categorySlug}
	}

	if p.Tags == nil {
		p.Tags = []string{}
	}

	return p, nil
}

func (r *PostsRepo) queryPosts(ctx context.Context, op, query string, args ...any) ([]post.Post, error) {
	out := make([]post.Post, 0)

	err := observe(r.prom, op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPost(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *PostsRepo) Create(ctx context.Context, p post.Post) (post.Post, error) {
	var categoryID *string
	if p.Category != nil {
		categoryID = &p.Category.ID
	}

	err := observe(r.prom, "posts.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO posts (id, title, slug, content, excerpt, category_id, author_id, tags,
				featured_image, is_published, view_count, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,0,$11,$12)`,
			p.ID, p.Title, p.Slug, p.Content, p.Excerpt, categoryID, p.Author.ID, p.Tags,
			p.FeaturedImage, p.IsPublished, p.CreatedAt, p.UpdatedAt,
		)
		return e
	})

	if err != nil {
		if isUniqueViolation(err, "posts_slug_uniq") {
			return post.Post{}, post.ErrSlugTaken
		}
		if isForeignKeyViolation(err, "posts_author_id_fkey") {
			return post.Post{}, user.ErrNotFound
		}
		if isForeignKeyViolation(err, "posts_category_id_fkey") {
			return post.Post{}, category.ErrNotFound
		}
		return post.Post{}, err
	}

	return r.GetByID(ctx, p.ID)
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	var p post.Post

	err := observe(r.prom, "posts.get_by_id", func() error {
		var e error
		p, e = scanPost(r.pool.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

// GetWithComments loads a post plus its comments in insertion order.
func (r *PostsRepo) GetWithComments(ctx context.Context, id string) (post.Post, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return post.Post{}, err
	}

	comments := make([]post.Comment, 0)

	err = observe(r.prom, "posts.list_comments", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT pc.id, pc.author_id::text, u.name, pc.content, pc.created_at
			FROM post_comments pc
			JOIN users u ON u.id = pc.author_id
			WHERE pc.post_id = $1
			ORDER BY pc.id ASC`, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c post.Comment
			if err := rows.Scan(&c.ID, &c.Author.ID, &c.Author.Name, &c.Content, &c.CreatedAt); err != nil {
				return err
			}
			comments = append(comments, c)
		}
		return rows.Err()
	})

	if err != nil {
		return post.Post{}, err
	}

	p.Comments = comments
	p.CommentCount = len(comments)

	return p, nil
}

func (r *PostsRepo) GetIDBySlug(ctx context.Context, slug string) (string, error) {
	var id string

	err := observe(r.prom, "posts.get_id_by_slug", func() error {
		return r.pool.QueryRow(ctx, `SELECT id::text FROM posts WHERE slug = $1`, slug).Scan(&id)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", post.ErrNotFound
		}
		return "", err
	}

	return id, nil
}

// IncrementViews bumps view_count in a single statement so concurrent reads
// never lose an increment.
func (r *PostsRepo) IncrementViews(ctx context.Context, slug string) (string, error) {
	var id string

	err := observe(r.prom, "posts.increment_views", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE posts SET view_count = view_count + 1 WHERE slug = $1 RETURNING id::text`,
			slug,
		).Scan(&id)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", post.ErrNotFound
		}
		return "", err
	}

	return id, nil
}

func (r *PostsRepo) ListPublished(ctx context.Context, filter post.ListFilter) ([]post.Post, int, error) {
	var conds = []string{"p.is_published = TRUE"}
	var args []interface{}

	argsPosition := 1

	if filter.CategoryID != nil {
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", argsPosition))
		args = append(args, *filter.CategoryID)
		argsPosition++
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	var total int

	err := observe(r.prom, "posts.count_published", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	query := postSelect + where + postOrder + fmt.Sprintf(" LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, filter.Limit, filter.Offset)

	posts, err := r.queryPosts(ctx, "posts.list_published", query, args...)
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *PostsRepo) ListAllPublished(ctx context.Context) ([]post.Post, error) {
	return r.queryPosts(ctx, "posts.feed", postSelect+` WHERE p.is_published = TRUE`+postOrder)
}

func (r *PostsRepo) Search(ctx context.Context, q string) ([]post.Post, error) {
	return r.queryPosts(ctx, "posts.search",
		postSelect+` WHERE p.is_published = TRUE
			AND (p.title ILIKE '%' || $1 || '%' ESCAPE '\' OR p.content ILIKE '%' || $1 || '%' ESCAPE '\')`+postOrder,
		escapeLike(q),
	)
}

func (r *PostsRepo) ListByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	return r.queryPosts(ctx, "posts.list_by_author", postSelect+` WHERE p.author_id = $1`+postOrder, authorID)
}

// TogglePublish flips is_published for a post owned by authorID. A post owned
// by someone else is reported exactly like a missing one.
func (r *PostsRepo) TogglePublish(ctx context.Context, id, authorID string) (post.Post, error) {
	var updatedID string

	err := observe(r.prom, "posts.toggle_publish", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE posts SET is_published = NOT is_published, updated_at = NOW()
			WHERE id = $1 AND author_id = $2
			RETURNING id::text`,
			id, authorID,
		).Scan(&updatedID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	return r.GetByID(ctx, updatedID)
}

func (r *PostsRepo) Update(ctx context.Context, id, authorID string, patch post.Patch) (post.Post, error) {
	var sets []string
	args := []interface{}{id, authorID}

	argsPosition := 3

	if patch.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argsPosition))
		args = append(args, *patch.Title)
		argsPosition++
	}

	if patch.Content != nil {
		sets = append(sets, fmt.Sprintf("content = $%d", argsPosition))
		args = append(args, *patch.Content)
		argsPosition++
	}

	if patch.Excerpt != nil {
		sets = append(sets, fmt.Sprintf("excerpt = $%d", argsPosition))
		args = append(args, *patch.Excerpt)
		argsPosition++
	}

	if patch.CategoryID != nil {
		sets = append(sets, fmt.Sprintf("category_id = $%d", argsPosition))
		args = append(args, *patch.CategoryID)
		argsPosition++
	}

	if patch.Tags != nil {
		sets = append(sets, fmt.Sprintf("tags = $%d", argsPosition))
		args = append(args, *patch.Tags)
	}

	// nothing to change still has to prove ownership
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE posts SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 AND author_id = $2 RETURNING id::text`

	var updatedID string

	err := observe(r.prom, "posts.update", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(&updatedID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		if isForeignKeyViolation(err, "posts_category_id_fkey") {
			return post.Post{}, category.ErrNotFound
		}
		return post.Post{}, err
	}

	return r.GetByID(ctx, updatedID)
}

// AddComment appends a comment with a single INSERT; concurrent comments on
// the same post all land.
func (r *PostsRepo) AddComment(ctx context.Context, postID string, c post.Comment) error {
	err := observe(r.prom, "posts.add_comment", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO post_comments (post_id, author_id, content, created_at) VALUES ($1,$2,$3,$4)`,
			postID, c.Author.ID, c.Content, c.CreatedAt,
		)
		return e
	})

	if err != nil {
		if isForeignKeyViolation(err, "post_comments_post_id_fkey") {
			return post.ErrNotFound
		}
		return err
	}

	return nil
}
