package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/bloghub/internal/domain/category"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{pool: pool, prom: prom}
}

const categoryColumns = `id::text, name, slug, description, created_at, updated_at`

func scanCategory(row pgx.Row) (category.Category, error) {
	var c category.Category

	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt)

	return c, err
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	out := make([]category.Category, 0)

	err := observe(r.prom, "categories.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name ASC, id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanCategory(rows)
			if err != nil {
				return err
			}
			out = append(out, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *CategoriesRepo) GetBySlug(ctx context.Context, slug string) (category.Category, error) {
	return r.getOne(ctx, "categories.get_by_slug", `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id string) (category.Category, error) {
	return r.getOne(ctx, "categories.get_by_id", `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

func (r *CategoriesRepo) getOne(ctx context.Context, op, query string, arg any) (category.Category, error) {
	var c category.Category

	err := observe(r.prom, op, func() error {
		var e error
		c, e = scanCategory(r.pool.QueryRow(ctx, query, arg))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}

	return c, nil
}

func (r *CategoriesRepo) Create(ctx context.Context, c category.Category) (category.Category, error) {
	err := observe(r.prom, "categories.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO categories (id, name, slug, description, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			c.ID, c.Name, c.Slug, c.Description, c.CreatedAt, c.UpdatedAt,
		)
		return e
	})

	if err != nil {
		// name and slug are both unique; either collision is the same conflict to callers
		if isUniqueViolation(err, "") {
			return category.Category{}, category.ErrNameTaken
		}
		return category.Category{}, err
	}

	return c, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id string, patch category.Patch) (category.Category, error) {
	var sets []string
	var args []interface{}

	argsPosition := 2
	args = append(args, id)

	if patch.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argsPosition))
		args = append(args, *patch.Name)
		argsPosition++
	}

	if patch.Slug != nil {
		sets = append(sets, fmt.Sprintf("slug = $%d", argsPosition))
		args = append(args, *patch.Slug)
		argsPosition++
	}

	if patch.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argsPosition))
		args = append(args, *patch.Description)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE categories SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + categoryColumns

	var c category.Category

	err := observe(r.prom, "categories.update", func() error {
		var e error
		c, e = scanCategory(r.pool.QueryRow(ctx, query, args...))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		if isUniqueViolation(err, "") {
			return category.Category{}, category.ErrNameTaken
		}
		return category.Category{}, err
	}

	return c, nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := observe(r.prom, "categories.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return category.ErrNotFound
	}

	return nil
}
