package repository

import (
	"context"
	"fmt"

	"shop_api/internal/model"
	"shop_api/internal/observability"
)

// CategoryRepository defines operations for category data
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindAll(ctx context.Context) ([]model.Category, error)
}

type categoryRepository struct {
	db   DB
	prom *observability.Prom
}

func NewCategoryRepository(db DB, prom *observability.Prom) CategoryRepository {
	return &categoryRepository{db: db, prom: prom}
}

func (r *categoryRepository) Create(ctx context.Context, c *model.Category) error {
	err := observe(r.prom, "categories.create", func() error {
		return r.db.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id, created_at`, c.Name).
			Scan(&c.ID, &c.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to create category: %w", mapPgError(err))
	}
	return nil
}

func (r *categoryRepository) FindAll(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	err := observe(r.prom, "categories.find_all", func() error {
		rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c model.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
				return err
			}
			categories = append(categories, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
