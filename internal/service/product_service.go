package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strconv"
	"strings"

	"shop_api/internal/cache"
	"shop_api/internal/importer"
	"shop_api/internal/model"
	"shop_api/internal/observability"
	"shop_api/internal/repository"
	"shop_api/internal/storage"

	"go.uber.org/zap"
)

// ProductService manages the catalog, its images and categories
type ProductService interface {
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id int64) (*model.Product, error)
	Create(ctx context.Context, req model.CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, id int64, req model.UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
	CategoryStats(ctx context.Context) ([]model.CategoryStat, error)
	BulkImport(ctx context.Context, file *multipart.FileHeader) (*model.ImportResult, error)
	AttachImages(ctx context.Context, productID int64, files []*multipart.FileHeader) ([]model.ProductImage, error)
	DeleteImage(ctx context.Context, imageID int64) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, req model.CreateCategoryRequest) (*model.Category, error)
}

type ProductDeps struct {
	Products   repository.ProductRepository
	Images     repository.ImageRepository
	Categories repository.CategoryRepository
	Store      storage.FileStore
	Stats      cache.StatsCache
	Prom       *observability.Prom
	Log        *zap.Logger
}

type productService struct {
	ProductDeps
}

// NewProductService creates a new ProductService
func NewProductService(deps ProductDeps) ProductService {
	if deps.Stats == nil {
		deps.Stats = cache.NoopStatsCache{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &productService{ProductDeps: deps}
}

func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.Products.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	images, err := s.Images.FindByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Images = images
	return product, nil
}

func (s *productService) Create(ctx context.Context, req model.CreateProductRequest) (*model.Product, error) {
	product := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Stock:       req.Stock,
		Description: req.Description,
		Slug:        strings.TrimSpace(req.Slug),
		CategoryID:  req.CategoryID,
	}
	if product.Slug == "" {
		product.Slug = Slugify(product.Name)
	}
	if product.Slug == "" {
		return nil, newError(ErrInvalidInput, "product name is required")
	}

	if err := s.Products.Create(ctx, product); err != nil {
		return nil, productWriteError(err)
	}
	s.invalidateStats(ctx)
	return product, nil
}

func (s *productService) Update(ctx context.Context, id int64, req model.UpdateProductRequest) (*model.Product, error) {
	product, err := s.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Slug != nil {
		product.Slug = strings.TrimSpace(*req.Slug)
		if product.Slug == "" {
			product.Slug = Slugify(product.Name)
		}
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}

	if err := s.Products.Update(ctx, product); err != nil {
		return nil, productWriteError(err)
	}
	s.invalidateStats(ctx)
	// category name may have changed
	updated, err := s.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrProductNotFound
	}
	return updated, nil
}

// Delete removes the product; its image rows cascade, the files are removed best-effort.
func (s *productService) Delete(ctx context.Context, id int64) error {
	images, err := s.Images.FindByProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	for _, img := range images {
		s.removeFile(ctx, img.Path)
	}
	s.invalidateStats(ctx)
	return nil
}

// CategoryStats is served from the cache when present. Cache failures only degrade to a DB read.
func (s *productService) CategoryStats(ctx context.Context) ([]model.CategoryStat, error) {
	if stats, ok, err := s.Stats.Get(ctx); err != nil {
		s.Log.Warn("stats cache read failed", zap.Error(err))
	} else if ok {
		return stats, nil
	}

	stats, err := s.Products.CategoryStats(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []model.CategoryStat{}
	}
	if err := s.Stats.Set(ctx, stats); err != nil {
		s.Log.Warn("stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

// BulkImport inserts every row of the sheet in one transaction. Rows whose slug
// already exists, or whose category is unknown, are skipped.
func (s *productService) BulkImport(ctx context.Context, file *multipart.FileHeader) (*model.ImportResult, error) {
	if file == nil {
		return nil, ErrEmptyImport
	}
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	rows, err := importer.ReadRows(file.Filename, src)
	switch {
	case errors.Is(err, importer.ErrNoRows):
		return nil, ErrEmptyImport
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return nil, newError(ErrInvalidInput, err.Error())
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	drafts, err := importer.ToDrafts(rows)
	if err != nil {
		return nil, newError(ErrInvalidInput, err.Error())
	}

	products := make([]model.Product, len(drafts))
	for i, d := range drafts {
		slug := d.Slug
		if slug == "" {
			slug = Slugify(d.Name)
		}
		products[i] = model.Product{
			Name:        d.Name,
			Price:       d.Price,
			Stock:       d.Stock,
			Description: d.Description,
			Slug:        slug,
			CategoryID:  d.CategoryID,
		}
	}

	ids, err := s.Products.BulkInsert(ctx, products)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}

	result := &model.ImportResult{
		Rows:     len(products),
		Inserted: len(ids),
		Skipped:  len(products) - len(ids),
		IDs:      ids,
	}
	s.Prom.ImportedRows(result.Inserted, result.Skipped)
	s.Log.Info("products imported",
		zap.String("file", file.Filename),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
	)
	if result.Inserted > 0 {
		s.invalidateStats(ctx)
	}
	return result, nil
}

// AttachImages stores the files and records them. Nothing is stored for a
// missing product, and stored files are removed again if recording fails.
func (s *productService) AttachImages(ctx context.Context, productID int64, files []*multipart.FileHeader) ([]model.ProductImage, error) {
	if len(files) == 0 {
		return nil, ErrNoImages
	}
	if len(files) > MaxImagesPerCall {
		return nil, ErrTooManyImages
	}
	for _, fh := range files {
		if err := validateImage(fh); err != nil {
			return nil, err
		}
	}

	product, err := s.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	prefix := path.Join(imageDirProducts, strconv.FormatInt(productID, 10))
	images := make([]model.ProductImage, 0, len(files))
	for _, fh := range files {
		stored, err := storage.SaveUpload(ctx, s.Store, prefix, fh)
		if err != nil {
			s.removeImages(ctx, images)
			return nil, err
		}
		images = append(images, model.ProductImage{ProductID: productID, Path: stored.Key, URL: stored.URL})
	}

	if err := s.Images.CreateMany(ctx, images); err != nil {
		s.removeImages(ctx, images)
		// product deleted between the check and the insert
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return images, nil
}

func (s *productService) DeleteImage(ctx context.Context, imageID int64) error {
	img, err := s.Images.FindByID(ctx, imageID)
	if err != nil {
		return err
	}
	if img == nil {
		return ErrImageNotFound
	}

	s.removeFile(ctx, img.Path)
	if err := s.Images.Delete(ctx, imageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrImageNotFound
		}
		return err
	}
	return nil
}

func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.Categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

func (s *productService) CreateCategory(ctx context.Context, req model.CreateCategoryRequest) (*model.Category, error) {
	category := &model.Category{Name: strings.TrimSpace(req.Name)}
	if category.Name == "" {
		return nil, newError(ErrInvalidInput, "category name is required")
	}
	if err := s.Categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCategoryTaken
		}
		return nil, err
	}
	return category, nil
}

func productWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrSlugTaken
	case errors.Is(err, repository.ErrInvalidReference):
		return ErrUnknownCategory
	}
	return err
}

func (s *productService) invalidateStats(ctx context.Context) {
	if err := s.Stats.Invalidate(ctx); err != nil {
		s.Log.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *productService) removeImages(ctx context.Context, images []model.ProductImage) {
	for _, img := range images {
		s.removeFile(ctx, img.Path)
	}
}

func (s *productService) removeFile(ctx context.Context, key string) {
	if err := s.Store.Remove(ctx, key); err != nil {
		s.Log.Warn("failed to remove stored file", zap.String("key", key), zap.Error(err))
	}
}
