package service

import (
	"context"
	"fmt"
	"testing"

	"shop_api/internal/model"
	"shop_api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	svc        ProductService
	products   *fakeProductRepo
	images     *fakeImageRepo
	categories *fakeCategoryRepo
	store      *fakeStore
	stats      *fakeStatsCache
}

func newProductFixture() *productFixture {
	f := &productFixture{
		products:   newFakeProductRepo(),
		images:     newFakeImageRepo(),
		categories: &fakeCategoryRepo{},
		store:      newFakeStore(),
		stats:      &fakeStatsCache{},
	}
	f.svc = NewProductService(ProductDeps{
		Products:   f.products,
		Images:     f.images,
		Categories: f.categories,
		Store:      f.store,
		Stats:      f.stats,
	})
	return f
}

func (f *productFixture) create(t *testing.T, name string, stock int) *model.Product {
	t.Helper()
	p, err := f.svc.Create(context.Background(), model.CreateProductRequest{Name: name, Price: 10, Stock: stock})
	require.NoError(t, err)
	return p
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Red Shoes":           "red-shoes",
		"Red    Shoes":        "red-shoes",
		"  Big\tBlue  Hat \n": "big-blue-hat",
		"single":              "single",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestCreateProduct_DerivesSlug(t *testing.T) {
	f := newProductFixture()

	p := f.create(t, "Red Shoes", 3)

	assert.Equal(t, "red-shoes", p.Slug)
	assert.Equal(t, 1, f.stats.invalidated)
}

func TestCreateProduct_DuplicateSlug(t *testing.T) {
	f := newProductFixture()
	f.create(t, "Red Shoes", 3)

	_, err := f.svc.Create(context.Background(), model.CreateProductRequest{Name: "red shoes", Price: 5})

	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newProductFixture()

	_, err := f.svc.Get(context.Background(), 42)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProduct(t *testing.T) {
	f := newProductFixture()
	p := f.create(t, "Red Shoes", 3)
	price := 19.5

	updated, err := f.svc.Update(context.Background(), p.ID, model.UpdateProductRequest{Price: &price})

	require.NoError(t, err)
	assert.Equal(t, 19.5, updated.Price)
	assert.Equal(t, "red-shoes", updated.Slug)

	_, err = f.svc.Update(context.Background(), 99, model.UpdateProductRequest{Price: &price})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	f := newProductFixture()
	p := f.create(t, "Red Shoes", 3)
	_, err := f.svc.AttachImages(context.Background(), p.ID, uploads(t, "images", map[string]string{"a.png": "a"}))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), p.ID))

	assert.Empty(t, f.store.files)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), p.ID), ErrNotFound)
}

func TestCategoryStats_UsesCache(t *testing.T) {
	f := newProductFixture()
	f.products.stats = []model.CategoryStat{{Count: 2, Average: 5, Min: 4, Max: 6}}

	first, err := f.svc.CategoryStats(context.Background())
	require.NoError(t, err)
	second, err := f.svc.CategoryStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.products.statsCalls)
}

func TestCategoryStats_CacheErrorFallsBackToStore(t *testing.T) {
	f := newProductFixture()
	f.stats.getErr = errBoom

	stats, err := f.svc.CategoryStats(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, stats)
	assert.Equal(t, 1, f.products.statsCalls)
}

func TestBulkImport(t *testing.T) {
	f := newProductFixture()
	f.create(t, "Red Shoes", 1)
	csv := "name,price,stock,description\nRed Shoes,10,1,dup\nBlue   Hat,4.5,7,\nGreen Scarf,3,2,warm\n"

	res, err := f.svc.BulkImport(context.Background(), uploads(t, "file", map[string]string{"products.csv": csv})[0])

	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	hat, _ := f.products.FindByID(context.Background(), res.IDs[0])
	assert.Equal(t, "blue-hat", hat.Slug)
	assert.Equal(t, 4.5, hat.Price)
	assert.Equal(t, 7, hat.Stock)
	assert.Nil(t, hat.Description)
}

func TestBulkImport_EmptySheet(t *testing.T) {
	f := newProductFixture()

	_, err := f.svc.BulkImport(context.Background(), uploads(t, "file", map[string]string{"products.csv": "name,price,stock\n"})[0])

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, f.products.bulkCalls)
	all, _ := f.products.FindAll(context.Background())
	assert.Empty(t, all)
}

func TestBulkImport_BadRowInsertsNothing(t *testing.T) {
	f := newProductFixture()
	csv := "name,price\nHat,4\nScarf,cheap\n"

	_, err := f.svc.BulkImport(context.Background(), uploads(t, "file", map[string]string{"products.csv": csv})[0])

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, f.products.bulkCalls)
}

func TestBulkImport_UnsupportedFormat(t *testing.T) {
	f := newProductFixture()

	_, err := f.svc.BulkImport(context.Background(), uploads(t, "file", map[string]string{"products.txt": "x"})[0])

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAttachImages(t *testing.T) {
	f := newProductFixture()
	p := f.create(t, "Red Shoes", 1)

	images, err := f.svc.AttachImages(context.Background(), p.ID, uploads(t, "images", map[string]string{"a.png": "a", "b.jpg": "b"}))

	require.NoError(t, err)
	require.Len(t, images, 2)
	for _, img := range images {
		assert.NotZero(t, img.ID)
		assert.Equal(t, p.ID, img.ProductID)
		assert.Equal(t, "/uploads/"+img.Path, img.URL)
		assert.Contains(t, f.store.files, img.Path)
	}

	got, err := f.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Images, 2)
}

func TestAttachImages_MissingProductStoresNothing(t *testing.T) {
	f := newProductFixture()

	_, err := f.svc.AttachImages(context.Background(), 7, uploads(t, "images", map[string]string{"a.png": "a"}))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.store.files)
}

func TestAttachImages_RecordFailureRemovesFiles(t *testing.T) {
	f := newProductFixture()
	p := f.create(t, "Red Shoes", 1)
	f.images.createErr = fmt.Errorf("failed to create product image: %w", repository.ErrInvalidReference)

	_, err := f.svc.AttachImages(context.Background(), p.ID, uploads(t, "images", map[string]string{"a.png": "a", "b.png": "b"}))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.store.files)
	assert.Len(t, f.store.removed, 2)
}

func TestAttachImages_TooMany(t *testing.T) {
	f := newProductFixture()
	p := f.create(t, "Red Shoes", 1)
	files := map[string]string{}
	for i := 0; i < MaxImagesPerCall+1; i++ {
		files[fmt.Sprintf("%02d.png", i)] = "x"
	}

	_, err := f.svc.AttachImages(context.Background(), p.ID, uploads(t, "images", files))

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.store.files)
}

func TestDeleteImage(t *testing.T) {
	f := newProductFixture()
	p := f.create(t, "Red Shoes", 1)
	images, err := f.svc.AttachImages(context.Background(), p.ID, uploads(t, "images", map[string]string{"a.png": "a"}))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteImage(context.Background(), images[0].ID))

	assert.Empty(t, f.store.files)
	assert.Empty(t, f.images.images)
	assert.ErrorIs(t, f.svc.DeleteImage(context.Background(), images[0].ID), ErrNotFound)
}

func TestCategories(t *testing.T) {
	f := newProductFixture()

	c, err := f.svc.CreateCategory(context.Background(), model.CreateCategoryRequest{Name: " Shoes "})
	require.NoError(t, err)
	assert.Equal(t, "Shoes", c.Name)

	_, err = f.svc.CreateCategory(context.Background(), model.CreateCategoryRequest{Name: "Shoes"})
	assert.ErrorIs(t, err, ErrConflict)

	all, err := f.svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
