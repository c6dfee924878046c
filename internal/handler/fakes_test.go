package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/domain"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/prperemyshlev/pages-service/internal/repository"
	"github.com/prperemyshlev/pages-service/internal/service"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// envelope mirrors dto.Envelope with a raw data payload for assertions
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func doRequest(r http.Handler, method, target string, body io.Reader, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// fakeAuthService accepts "Bearer token-<id>" for the users it knows
type fakeAuthService struct {
	users       map[int64]*domain.User
	loginErr    error
	registerErr error
	refreshErr  error
	loggedOut   []string
}

var _ service.AuthService = (*fakeAuthService)(nil)

func newFakeAuthService(users ...*domain.User) *fakeAuthService {
	f := &fakeAuthService{users: make(map[int64]*domain.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func tokenFor(id int64) string {
	return "Bearer token-" + strconv.FormatInt(id, 10)
}

func (f *fakeAuthService) result(user *domain.User) *service.AuthResult {
	return &service.AuthResult{User: user, AccessToken: "access", RefreshToken: "refresh"}
}

func (f *fakeAuthService) Register(_ context.Context, req *dto.RegisterRequest) (*service.AuthResult, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.result(&domain.User{ID: 42, Name: req.Name, Email: req.Email}), nil
}

func (f *fakeAuthService) Login(_ context.Context, req *dto.LoginRequest) (*service.AuthResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.result(&domain.User{ID: 42, Email: req.Email}), nil
}

func (f *fakeAuthService) RefreshToken(_ context.Context, token string) (*service.AuthResult, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.result(&domain.User{ID: 42}), nil
}

func (f *fakeAuthService) Logout(_ context.Context, _ int64, refreshToken, accessToken string) error {
	f.loggedOut = append(f.loggedOut, refreshToken, accessToken)
	return nil
}

func (f *fakeAuthService) LogoutAll(context.Context, int64) error { return nil }

func (f *fakeAuthService) RequestPasswordReset(context.Context, string) error { return nil }

func (f *fakeAuthService) ResetPassword(context.Context, string, string) error {
	return service.ErrInvalidResetToken
}

func (f *fakeAuthService) ChangePassword(context.Context, int64, string, string) error {
	return service.ErrIncorrectPassword
}

func (f *fakeAuthService) GetUser(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeAuthService) ValidateToken(_ context.Context, token string) (*domain.TokenClaims, error) {
	raw, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return nil, service.ErrInvalidToken
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, service.ErrInvalidToken
	}
	return &domain.TokenClaims{UserID: id}, nil
}

// fakePageService serves pages from a map keyed by slug
type fakePageService struct {
	pages        map[string]*domain.PageWithOwner
	created      []*dto.CreatePageRequest
	lastOpts     repository.ListOptions
	searchScoped bool
}

var _ service.PageService = (*fakePageService)(nil)

func newFakePageService() *fakePageService {
	return &fakePageService{pages: make(map[string]*domain.PageWithOwner)}
}

func (f *fakePageService) add(slug string, owner int64, public bool) {
	f.pages[slug] = &domain.PageWithOwner{Page: domain.Page{Slug: slug, Title: slug, OwnerID: owner, IsPublic: public}}
}

func (f *fakePageService) Create(_ context.Context, ownerID int64, req *dto.CreatePageRequest) (*domain.Page, error) {
	if _, ok := f.pages[req.Slug]; ok {
		return nil, repository.ErrDuplicateSlug
	}
	f.created = append(f.created, req)
	return &domain.Page{ID: 1, Slug: req.Slug, Title: req.Title, OwnerID: ownerID, IsPublic: true}, nil
}

func (f *fakePageService) GetBySlug(_ context.Context, slug string, viewerID *int64) (*domain.PageWithOwner, error) {
	p, ok := f.pages[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !p.VisibleTo(viewerID) {
		return nil, service.ErrForbidden
	}
	out := *p
	out.CanEdit = viewerID != nil && p.IsOwnedBy(*viewerID)
	return &out, nil
}

func (f *fakePageService) list(opts repository.ListOptions, keep func(*domain.PageWithOwner) bool) ([]domain.PageWithOwner, int, error) {
	f.lastOpts = opts
	out := make([]domain.PageWithOwner, 0)
	for _, p := range f.pages {
		if keep(p) {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (f *fakePageService) ListPublic(_ context.Context, opts repository.ListOptions) ([]domain.PageWithOwner, int, error) {
	return f.list(opts, func(p *domain.PageWithOwner) bool { return p.IsPublic })
}

func (f *fakePageService) ListByOwner(_ context.Context, ownerID int64, opts repository.ListOptions) ([]domain.PageWithOwner, int, error) {
	return f.list(opts, func(p *domain.PageWithOwner) bool { return p.IsOwnedBy(ownerID) })
}

func (f *fakePageService) Search(_ context.Context, term string, includePrivate bool, ownerID *int64, opts repository.ListOptions) ([]domain.PageWithOwner, int, error) {
	f.searchScoped = includePrivate && ownerID != nil
	return f.list(opts, func(p *domain.PageWithOwner) bool {
		return strings.Contains(p.Title, term) && p.VisibleTo(ownerID)
	})
}

func (f *fakePageService) owned(slug string, ownerID int64) (*domain.PageWithOwner, error) {
	p, ok := f.pages[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !p.IsOwnedBy(ownerID) {
		return nil, service.ErrForbidden
	}
	return p, nil
}

func (f *fakePageService) Update(_ context.Context, slug string, ownerID int64, req *dto.UpdatePageRequest) (*domain.Page, error) {
	p, err := f.owned(slug, ownerID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	return &p.Page, nil
}

func (f *fakePageService) Delete(_ context.Context, slug string, ownerID int64) error {
	if _, err := f.owned(slug, ownerID); err != nil {
		return err
	}
	delete(f.pages, slug)
	return nil
}

func (f *fakePageService) IsSlugAvailable(_ context.Context, slug string) (bool, error) {
	_, ok := f.pages[slug]
	return !ok, nil
}

// fakeUserService keeps users in a map
type fakeUserService struct {
	users    map[int64]*domain.User
	lastOpts repository.ListOptions
	listErr  error
}

var _ service.UserService = (*fakeUserService)(nil)

func newFakeUserService(users ...*domain.User) *fakeUserService {
	f := &fakeUserService{users: make(map[int64]*domain.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserService) Create(_ context.Context, req *dto.CreateUserRequest) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == req.Email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	u := &domain.User{ID: int64(len(f.users) + 1), Name: req.Name, Email: req.Email, Age: req.Age}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserService) List(_ context.Context, opts repository.ListOptions) ([]domain.User, int, error) {
	f.lastOpts = opts
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeUserService) Get(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserService) Update(_ context.Context, id int64, req *dto.UpdateUserRequest) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	return u, nil
}

func (f *fakeUserService) Delete(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.users, id)
	return u, nil
}

func (f *fakeUserService) EmailExists(context.Context, string, int64) (bool, error) {
	return false, nil
}

func (f *fakeUserService) Search(_ context.Context, term string) ([]domain.User, error) {
	out := make([]domain.User, 0)
	for _, u := range f.users {
		if strings.Contains(u.Name, strings.TrimSpace(term)) {
			out = append(out, *u)
		}
	}
	return out, nil
}
