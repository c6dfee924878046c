package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/repository"
)

// pageService implements PageService interface
type pageService struct {
	pageRepo repository.PageRepository
}

// NewPageService creates a new page service
func NewPageService(pageRepo repository.PageRepository) PageService {
	return &pageService{pageRepo: pageRepo}
}

// Create stores a new page owned by ownerID. Pages are public unless stated otherwise.
func (s *pageService) Create(ctx context.Context, ownerID int64, req *dto.CreatePageRequest) (*domain.Page, error) {
	slug := strings.TrimSpace(req.Slug)

	available, err := s.IsSlugAvailable(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("page with slug %s already exists: %w", slug, repository.ErrDuplicateSlug)
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	page := &domain.Page{
		Slug:        slug,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Description: req.Description,
		IsPublic:    isPublic,
		OwnerID:     ownerID,
	}

	if err := s.pageRepo.Create(ctx, page); err != nil {
		return nil, err
	}

	return page, nil
}

// GetBySlug returns a page the viewer may read. viewerID is nil for anonymous callers.
func (s *pageService) GetBySlug(ctx context.Context, slug string, viewerID *int64) (*domain.PageWithOwner, error) {
	page, err := s.pageRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if !page.VisibleTo(viewerID) {
		return nil, fmt.Errorf("page %q is private: %w", slug, ErrForbidden)
	}

	page.CanEdit = viewerID != nil && page.IsOwnedBy(*viewerID)
	return page, nil
}

func (s *pageService) ListPublic(ctx context.Context, opts repository.ListOptions) ([]domain.PageWithOwner, int, error) {
	return s.pageRepo.ListPublic(ctx, opts)
}

func (s *pageService) ListByOwner(ctx context.Context, ownerID int64, opts repository.ListOptions) ([]domain.PageWithOwner, int, error) {
	pages, total, err := s.pageRepo.ListByOwner(ctx, ownerID, opts)
	if err != nil {
		return nil, 0, err
	}

	markEditable(pages, &ownerID)
	return pages, total, nil
}

// Search matches title or content. Private pages are only included for their owner
// and only when includePrivate is set.
func (s *pageService) Search(ctx context.Context, term string, includePrivate bool, ownerID *int64, opts repository.ListOptions) ([]domain.PageWithOwner, int, error) {
	var scope *int64
	if includePrivate {
		scope = ownerID
	}

	pages, total, err := s.pageRepo.Search(ctx, strings.TrimSpace(term), scope, opts)
	if err != nil {
		return nil, 0, err
	}

	markEditable(pages, ownerID)
	return pages, total, nil
}

// Update changes a page owned by ownerID
func (s *pageService) Update(ctx context.Context, slug string, ownerID int64, req *dto.UpdatePageRequest) (*domain.Page, error) {
	if err := s.authorize(ctx, slug, ownerID, "edit"); err != nil {
		return nil, err
	}

	update := repository.PageUpdate{
		Content:     req.Content,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		update.Title = &title
	}

	return s.pageRepo.Update(ctx, slug, ownerID, update)
}

// Delete removes a page owned by ownerID
func (s *pageService) Delete(ctx context.Context, slug string, ownerID int64) error {
	if err := s.authorize(ctx, slug, ownerID, "delete"); err != nil {
		return err
	}

	return s.pageRepo.Delete(ctx, slug, ownerID)
}

func (s *pageService) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	exists, err := s.pageRepo.SlugExists(ctx, slug)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// authorize tells a missing page (404) apart from a page owned by someone else (403)
func (s *pageService) authorize(ctx context.Context, slug string, userID int64, action string) error {
	page, err := s.pageRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to load page: %w", err)
	}

	if !page.IsOwnedBy(userID) {
		return fmt.Errorf("user %d may not %s page %q: %w", userID, action, slug, ErrForbidden)
	}

	return nil
}

func markEditable(pages []domain.PageWithOwner, viewerID *int64) {
	if viewerID == nil {
		return
	}
	for i := range pages {
		pages[i].CanEdit = pages[i].IsOwnedBy(*viewerID)
	}
}
