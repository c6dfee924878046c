package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/repository"
)

type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64

	// simulates a concurrent insert slipping past the pre-check
	hideExisting bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context, _ repository.ListOptions) ([]domain.User, int, error) {
	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (r *fakeUserRepo) Search(_ context.Context, term string) ([]domain.User, error) {
	users := make([]domain.User, 0)
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Name+" "+u.Email), strings.ToLower(term)) {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) Update(_ context.Context, id int64, update repository.UserUpdate) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.Age != nil {
		u.Age = update.Age
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.users, id)
	return u, nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	if r.hideExisting {
		return false, nil
	}
	for _, u := range r.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id int64) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	u.LastLogin = &now
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	u.ResetToken = nil
	u.ResetTokenExpires = nil
	return nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetToken = &tokenHash
	u.ResetTokenExpires = &expiresAt
	return nil
}

func (r *fakeUserRepo) GetByResetToken(_ context.Context, id int64, tokenHash string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != tokenHash ||
		u.ResetTokenExpires == nil || !u.ResetTokenExpires.After(time.Now()) {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token.Token]; ok {
		return repository.ErrDuplicateToken
	}
	stored := *token
	r.tokens[token.Token] = &stored
	return nil
}

func (r *fakeTokenRepo) GetValid(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok || !t.ExpiresAt.After(time.Now()) {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTokenRepo) Rotate(_ context.Context, userID int64, oldHash string, next *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[oldHash]
	if !ok || t.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.tokens, oldHash)
	stored := *next
	r.tokens[next.Token] = &stored
	return nil
}

func (r *fakeTokenRepo) DeleteForUser(_ context.Context, userID int64, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.tokens, tokenHash)
	return nil
}

func (r *fakeTokenRepo) DeleteAllForUser(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

func (r *fakeTokenRepo) count(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

type sentReset struct {
	email string
	token string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentReset
	err  error
	// gate, when set, holds every send until it is closed
	gate   chan struct{}
	ctxErr error
}

func (n *recordingNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	if n.gate != nil {
		<-n.gate
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentReset{email: email, token: token})
	n.ctxErr = ctx.Err()
	return n.err
}

func (n *recordingNotifier) last() (sentReset, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentReset{}, false
	}
	return n.sent[len(n.sent)-1], true
}

type fakePageRepo struct {
	pages   map[string]*domain.PageWithOwner
	nextID  int64
	created int

	lastSearchScope *int64
}

func newFakePageRepo() *fakePageRepo {
	return &fakePageRepo{pages: make(map[string]*domain.PageWithOwner)}
}

func (r *fakePageRepo) add(slug string, ownerID int64, public bool) {
	r.nextID++
	r.pages[slug] = &domain.PageWithOwner{
		Page: domain.Page{
			ID:       r.nextID,
			Slug:     slug,
			Title:    "Title " + slug,
			Content:  "content",
			IsPublic: public,
			OwnerID:  ownerID,
		},
		OwnerName: "owner",
	}
}

func (r *fakePageRepo) Create(_ context.Context, page *domain.Page) error {
	if _, ok := r.pages[page.Slug]; ok {
		return repository.ErrDuplicateSlug
	}
	r.created++
	r.nextID++
	page.ID = r.nextID
	r.pages[page.Slug] = &domain.PageWithOwner{Page: *page}
	return nil
}

func (r *fakePageRepo) GetBySlug(_ context.Context, slug string) (*domain.PageWithOwner, error) {
	p, ok := r.pages[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePageRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	_, ok := r.pages[slug]
	return ok, nil
}

func (r *fakePageRepo) filter(keep func(p *domain.PageWithOwner) bool) ([]domain.PageWithOwner, int, error) {
	pages := make([]domain.PageWithOwner, 0)
	for _, p := range r.pages {
		if keep(p) {
			pages = append(pages, *p)
		}
	}
	return pages, len(pages), nil
}

func (r *fakePageRepo) ListPublic(_ context.Context, _ repository.ListOptions) ([]domain.PageWithOwner, int, error) {
	return r.filter(func(p *domain.PageWithOwner) bool { return p.IsPublic })
}

func (r *fakePageRepo) ListByOwner(_ context.Context, ownerID int64, _ repository.ListOptions) ([]domain.PageWithOwner, int, error) {
	return r.filter(func(p *domain.PageWithOwner) bool { return p.OwnerID == ownerID })
}

func (r *fakePageRepo) Search(_ context.Context, term string, ownerID *int64, _ repository.ListOptions) ([]domain.PageWithOwner, int, error) {
	r.lastSearchScope = ownerID
	return r.filter(func(p *domain.PageWithOwner) bool {
		if !strings.Contains(p.Title, term) && !strings.Contains(p.Content, term) {
			return false
		}
		return p.IsPublic || (ownerID != nil && p.OwnerID == *ownerID)
	})
}

func (r *fakePageRepo) Update(_ context.Context, slug string, ownerID int64, update repository.PageUpdate) (*domain.Page, error) {
	p, ok := r.pages[slug]
	if !ok || p.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	if update.Title == nil && update.Content == nil && update.Description == nil && update.IsPublic == nil {
		return nil, repository.ErrNothingToUpdate
	}
	if update.Title != nil {
		p.Title = *update.Title
	}
	if update.IsPublic != nil {
		p.IsPublic = *update.IsPublic
	}
	cp := p.Page
	return &cp, nil
}

func (r *fakePageRepo) Delete(_ context.Context, slug string, ownerID int64) error {
	p, ok := r.pages[slug]
	if !ok || p.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.pages, slug)
	return nil
}

var errSendFailed = errors.New("smtp unavailable")
