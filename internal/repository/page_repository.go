package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/pkg/database"
)

const (
	pageColumns = `id, slug, title, content, description, is_public, owner_id, created_at, updated_at`

	pageWithOwnerSelect = `
		SELECT p.id, p.slug, p.title, p.content, p.description, p.is_public, p.owner_id,
			p.created_at, p.updated_at, u.name, u.email
		FROM pages p
		JOIN users u ON p.owner_id = u.id
	`
)

type pageRepository struct {
	db *database.Postgres
}

// NewPageRepository creates a new page repository
func NewPageRepository(db *database.Postgres) PageRepository {
	return &pageRepository{db: db}
}

func scanPage(row rowScanner, page *domain.Page, extra ...any) error {
	var description sql.NullString

	dest := []any{
		&page.ID,
		&page.Slug,
		&page.Title,
		&page.Content,
		&description,
		&page.IsPublic,
		&page.OwnerID,
		&page.CreatedAt,
		&page.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	if description.Valid {
		page.Description = &description.String
	}
	return nil
}

func scanPageWithOwner(row rowScanner) (domain.PageWithOwner, error) {
	var p domain.PageWithOwner
	err := scanPage(row, &p.Page, &p.OwnerName, &p.OwnerEmail)
	return p, err
}

// Create inserts a page and fills in the generated id and timestamps
func (r *pageRepository) Create(ctx context.Context, page *domain.Page) error {
	query := `
		INSERT INTO pages (slug, title, content, description, is_public, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		page.Slug,
		page.Title,
		page.Content,
		page.Description,
		page.IsPublic,
		page.OwnerID,
	).Scan(&page.ID, &page.CreatedAt, &page.UpdatedAt)

	if err != nil {
		err = database.WrapError(err)
		if errors.Is(err, database.ErrUniqueViolation) {
			return fmt.Errorf("page with slug %s already exists: %w", page.Slug, ErrDuplicateSlug)
		}
		return fmt.Errorf("failed to create page: %w", err)
	}

	return nil
}

// GetBySlug retrieves a page with its owner's name and email
func (r *pageRepository) GetBySlug(ctx context.Context, slug string) (*domain.PageWithOwner, error) {
	page, err := scanPageWithOwner(r.db.QueryRowContext(ctx, pageWithOwnerSelect+` WHERE p.slug = $1`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("page %q not found: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get page: %w", database.WrapError(err))
	}
	return &page, nil
}

// SlugExists reports whether a page already uses slug
func (r *pageRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pages WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", database.WrapError(err))
	}
	return exists, nil
}

// ListPublic returns public pages and their total count
func (r *pageRepository) ListPublic(ctx context.Context, opts ListOptions) ([]domain.PageWithOwner, int, error) {
	return r.list(ctx, `p.is_public = TRUE`, nil, opts, true)
}

// ListByOwner returns every page of one owner and their total count
func (r *pageRepository) ListByOwner(ctx context.Context, ownerID int64, opts ListOptions) ([]domain.PageWithOwner, int, error) {
	return r.list(ctx, `p.owner_id = $1`, []any{ownerID}, opts, true)
}

// Search matches title or content. With ownerID set the caller's private
// pages are included; otherwise only public pages match.
func (r *pageRepository) Search(ctx context.Context, term string, ownerID *int64, opts ListOptions) ([]domain.PageWithOwner, int, error) {
	where := `(p.title ILIKE $1 OR p.content ILIKE $1)`
	args := []any{containsPattern(term)}

	if ownerID != nil {
		where += ` AND (p.is_public = TRUE OR p.owner_id = $2)`
		args = append(args, *ownerID)
	} else {
		where += ` AND p.is_public = TRUE`
	}

	opts.OrderBy = "updated_at"
	opts.OrderDirection = "DESC"
	return r.list(ctx, where, args, opts, false)
}

func (r *pageRepository) list(ctx context.Context, where string, args []any, opts ListOptions, customOrder bool) ([]domain.PageWithOwner, int, error) {
	order := "ORDER BY p.updated_at DESC"
	if customOrder {
		var err error
		if order, err = OrderClause(PageOrderColumns, opts.OrderBy, opts.OrderDirection); err != nil {
			return nil, 0, err
		}
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM pages p WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pages: %w", database.WrapError(err))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	pageArgs := append(append([]any{}, args...), limit, opts.Offset)
	query := pageWithOwnerSelect + ` WHERE ` + where + ` ` + order +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(pageArgs)-1, len(pageArgs))

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := make([]domain.PageWithOwner, 0)
	for rows.Next() {
		page, err := scanPageWithOwner(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate pages: %w", err)
	}

	return pages, total, nil
}

// Update applies a partial update to a page owned by ownerID and bumps updated_at
func (r *pageRepository) Update(ctx context.Context, slug string, ownerID int64, update PageUpdate) (*domain.Page, error) {
	var set setClause
	if update.Title != nil {
		set.add("title", *update.Title)
	}
	if update.Content != nil {
		set.add("content", *update.Content)
	}
	if update.Description != nil {
		set.add("description", *update.Description)
	}
	if update.IsPublic != nil {
		set.add("is_public", *update.IsPublic)
	}

	if set.empty() {
		return nil, ErrNothingToUpdate
	}

	query := `UPDATE pages SET ` + set.String() + `, updated_at = NOW()` +
		` WHERE slug = ` + set.next(slug) + ` AND owner_id = ` + set.next(ownerID) +
		` RETURNING ` + pageColumns

	page := &domain.Page{}
	if err := scanPage(r.db.QueryRowContext(ctx, query, set.args...), page); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("page %q not found: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update page: %w", database.WrapError(err))
	}

	return page, nil
}

// Delete removes a page owned by ownerID
func (r *pageRepository) Delete(ctx context.Context, slug string, ownerID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE slug = $1 AND owner_id = $2`, slug, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("page %q not found: %w", slug, ErrNotFound)
	}

	return nil
}
