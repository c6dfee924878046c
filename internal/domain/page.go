package domain

import "time"

// Page is a slug-addressed document owned by a user
type Page struct {
	ID          int64     `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	Description *string   `json:"description" db:"description"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	OwnerID     int64     `json:"owner_id" db:"owner_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// PageWithOwner is a page joined with its owner's public fields
type PageWithOwner struct {
	Page
	OwnerName  string `json:"owner_name" db:"owner_name"`
	OwnerEmail string `json:"owner_email" db:"owner_email"`
	CanEdit    bool   `json:"can_edit"`
}

// IsOwnedBy reports whether userID owns the page
func (p *Page) IsOwnedBy(userID int64) bool {
	return p.OwnerID == userID
}

// VisibleTo reports whether a viewer (nil for anonymous) may read the page
func (p *Page) VisibleTo(viewerID *int64) bool {
	if p.IsPublic {
		return true
	}
	return viewerID != nil && p.IsOwnedBy(*viewerID)
}
