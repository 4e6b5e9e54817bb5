package repository

import (
	"context"
	"errors"
	"fmt"

	"shop_api/internal/model"
	"shop_api/internal/observability"

	"github.com/jackc/pgx/v5"
)

// ImageRepository defines operations for product image records
type ImageRepository interface {
	CreateMany(ctx context.Context, images []model.ProductImage) error
	FindByID(ctx context.Context, id int64) (*model.ProductImage, error)
	FindByProduct(ctx context.Context, productID int64) ([]model.ProductImage, error)
	Delete(ctx context.Context, id int64) error
}

type imageRepository struct {
	db   DB
	prom *observability.Prom
}

func NewImageRepository(db DB, prom *observability.Prom) ImageRepository {
	return &imageRepository{db: db, prom: prom}
}

// CreateMany inserts all images in one transaction, filling in ids and timestamps.
func (r *imageRepository) CreateMany(ctx context.Context, images []model.ProductImage) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin image insert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	sql := `INSERT INTO product_images (product_id, path, url) VALUES ($1, $2, $3) RETURNING id, created_at`
	for i := range images {
		img := &images[i]
		err = observe(r.prom, "product_images.create", func() error {
			return tx.QueryRow(ctx, sql, img.ProductID, img.Path, img.URL).Scan(&img.ID, &img.CreatedAt)
		})
		if err != nil {
			return fmt.Errorf("failed to create product image: %w", mapPgError(err))
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product images: %w", err)
	}
	return nil
}

// FindByID retrieves an image record. A missing image is (nil, nil).
func (r *imageRepository) FindByID(ctx context.Context, id int64) (*model.ProductImage, error) {
	img := &model.ProductImage{}
	err := observe(r.prom, "product_images.find_by_id", func() error {
		return r.db.QueryRow(ctx, `SELECT id, product_id, path, url, created_at FROM product_images WHERE id = $1`, id).
			Scan(&img.ID, &img.ProductID, &img.Path, &img.URL, &img.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product image: %w", err)
	}
	return img, nil
}

func (r *imageRepository) FindByProduct(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	images := []model.ProductImage{}
	err := observe(r.prom, "product_images.find_by_product", func() error {
		rows, err := r.db.Query(ctx, `SELECT id, product_id, path, url, created_at FROM product_images WHERE product_id = $1 ORDER BY id`, productID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var img model.ProductImage
			if err := rows.Scan(&img.ID, &img.ProductID, &img.Path, &img.URL, &img.CreatedAt); err != nil {
				return err
			}
			images = append(images, img)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	return images, nil
}

func (r *imageRepository) Delete(ctx context.Context, id int64) error {
	var affected int64
	err := observe(r.prom, "product_images.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM product_images WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete product image: %w", err)
	}
	if affected == 0 {
		return ErrImageNotFound
	}
	return nil
}
