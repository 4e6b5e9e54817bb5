package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"shop_api/internal/mailer"
	"shop_api/internal/model"
	"shop_api/internal/repository"

	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*model.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for id, other := range r.users {
		if id != u.ID && other.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	stored.FirstName, stored.LastName, stored.Email = u.FirstName, u.LastName, u.Email
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) SetOTP(ctx context.Context, id int64, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.OTPCode, u.OTPExpiresAt = &code, &expiresAt
	return nil
}

func (r *fakeUserRepo) ResetPassword(ctx context.Context, id int64, code, hash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.OTPCode == nil || *u.OTPCode != code || !u.OTPExpiresAt.After(now) {
		return false, nil
	}
	u.PasswordHash = hash
	u.OTPCode, u.OTPExpiresAt = nil, nil
	return true, nil
}

func (r *fakeUserRepo) UpdateProfilePicture(ctx context.Context, id int64, path string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	prev := u.ProfilePicture
	u.ProfilePicture = &path
	return prev, nil
}

type fakeProductRepo struct {
	mu         sync.Mutex
	nextID     int64
	products   map[int64]*model.Product
	stats      []model.CategoryStat
	statsCalls int
	bulkCalls  int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[int64]*model.Product{}}
}

func (r *fakeProductRepo) slugTaken(slug string, except int64) bool {
	for id, p := range r.products {
		if id != except && p.Slug == slug {
			return true
		}
	}
	return false
}

func (r *fakeProductRepo) Create(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugTaken(p.Slug, 0) {
		return repository.ErrDuplicate
	}
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	if r.slugTaken(p.Slug, p.ID) {
		return repository.ErrDuplicate
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) CategoryStats(ctx context.Context) ([]model.CategoryStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsCalls++
	return r.stats, nil
}

// BulkInsert skips duplicate slugs, like ON CONFLICT DO NOTHING.
func (r *fakeProductRepo) BulkInsert(ctx context.Context, products []model.Product) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulkCalls++
	var ids []int64
	for _, p := range products {
		if r.slugTaken(p.Slug, 0) {
			continue
		}
		r.nextID++
		p.ID = r.nextID
		cp := p
		r.products[p.ID] = &cp
		ids = append(ids, p.ID)
	}
	return ids, nil
}

type fakeImageRepo struct {
	nextID    int64
	images    map[int64]model.ProductImage
	createErr error
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{images: map[int64]model.ProductImage{}}
}

func (r *fakeImageRepo) CreateMany(ctx context.Context, images []model.ProductImage) error {
	if r.createErr != nil {
		return r.createErr
	}
	for i := range images {
		r.nextID++
		images[i].ID = r.nextID
		r.images[images[i].ID] = images[i]
	}
	return nil
}

func (r *fakeImageRepo) FindByID(ctx context.Context, id int64) (*model.ProductImage, error) {
	img, ok := r.images[id]
	if !ok {
		return nil, nil
	}
	return &img, nil
}

func (r *fakeImageRepo) FindByProduct(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	var out []model.ProductImage
	for _, img := range r.images {
		if img.ProductID == productID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r *fakeImageRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.images[id]; !ok {
		return repository.ErrImageNotFound
	}
	delete(r.images, id)
	return nil
}

type fakeCategoryRepo struct {
	categories []model.Category
}

func (r *fakeCategoryRepo) Create(ctx context.Context, c *model.Category) error {
	for _, existing := range r.categories {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	c.ID = int64(len(r.categories) + 1)
	r.categories = append(r.categories, *c)
	return nil
}

func (r *fakeCategoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	return r.categories, nil
}

// fakeStore keeps files in memory.
type fakeStore struct {
	mu      sync.Mutex
	files   map[string]string
	removed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string]string{}}
}

func (s *fakeStore) Save(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = string(b)
	return s.URL(key), nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	s.removed = append(s.removed, key)
	return nil
}

func (s *fakeStore) URL(key string) string { return "/uploads/" + key }

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeStatsCache struct {
	stats       []model.CategoryStat
	ok          bool
	getErr      error
	invalidated int
}

func (c *fakeStatsCache) Get(ctx context.Context) ([]model.CategoryStat, bool, error) {
	return c.stats, c.ok, c.getErr
}

func (c *fakeStatsCache) Set(ctx context.Context, stats []model.CategoryStat) error {
	c.stats, c.ok = stats, true
	return nil
}

func (c *fakeStatsCache) Invalidate(ctx context.Context) error {
	c.stats, c.ok = nil, false
	c.invalidated++
	return nil
}

var errBoom = errors.New("boom")

// uploads builds multipart file headers the way gin hands them to handlers.
func uploads(t *testing.T, field string, files map[string]string) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	t.Cleanup(func() { req.MultipartForm.RemoveAll() })
	return req.MultipartForm.File[field]
}
