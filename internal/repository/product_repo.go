package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop_api/internal/model"
	"shop_api/internal/observability"

	"github.com/jackc/pgx/v5"
)

// bulkInsertChunk bounds the rows per INSERT statement (6 params each, well under pgx's 65535).
const bulkInsertChunk = 500

// ProductRepository defines operations for product data
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id int64) error
	CategoryStats(ctx context.Context) ([]model.CategoryStat, error)
	BulkInsert(ctx context.Context, products []model.Product) ([]int64, error)
}

type productRepository struct {
	db   DB
	prom *observability.Prom
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db DB, prom *observability.Prom) ProductRepository {
	return &productRepository{db: db, prom: prom}
}

const productSelect = `SELECT p.id, p.name, p.price::float8, p.stock, p.description, p.slug, p.category_id, c.name, p.created_at, p.updated_at
        FROM products p LEFT JOIN categories c ON c.id = p.category_id`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Stock, &p.Description, &p.Slug,
		&p.CategoryID, &p.CategoryName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new product
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	sql := `INSERT INTO products (name, price, stock, description, slug, category_id)
            VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`
	err := observe(r.prom, "products.create", func() error {
		return r.db.QueryRow(ctx, sql, p.Name, p.Price, p.Stock, p.Description, p.Slug, p.CategoryID).
			Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to create product: %w", mapPgError(err))
	}
	return nil
}

// FindAll lists products with their category name
func (r *productRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := observe(r.prom, "products.find_all", func() error {
		rows, err := r.db.Query(ctx, productSelect+` ORDER BY p.id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			products = append(products, *p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// FindByID retrieves a product by ID. A missing product is (nil, nil).
func (r *productRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	var product *model.Product
	err := observe(r.prom, "products.find_by_id", func() error {
		var err error
		product, err = scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// Update modifies an existing product
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	sql := `UPDATE products
            SET name = $1, price = $2, stock = $3, description = $4, slug = $5, category_id = $6
            WHERE id = $7 RETURNING updated_at`
	err := observe(r.prom, "products.update", func() error {
		return r.db.QueryRow(ctx, sql, p.Name, p.Price, p.Stock, p.Description, p.Slug, p.CategoryID, p.ID).
			Scan(&p.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", mapPgError(err))
	}
	return nil
}

// Delete removes a product; images and purchases cascade
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	var affected int64
	err := observe(r.prom, "products.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CategoryStats groups products by category, ordered by category id with
// uncategorized products last.
func (r *productRepository) CategoryStats(ctx context.Context) ([]model.CategoryStat, error) {
	sql := `SELECT p.category_id, c.name, COUNT(*),
                   AVG(p.price)::float8, MIN(p.price)::float8, MAX(p.price)::float8
            FROM products p LEFT JOIN categories c ON c.id = p.category_id
            GROUP BY p.category_id, c.name
            ORDER BY p.category_id ASC NULLS LAST`
	stats := []model.CategoryStat{}
	err := observe(r.prom, "products.category_stats", func() error {
		rows, err := r.db.Query(ctx, sql)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s model.CategoryStat
			if err := rows.Scan(&s.CategoryID, &s.CategoryName, &s.Count, &s.Average, &s.Min, &s.Max); err != nil {
				return err
			}
			stats = append(stats, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get category stats: %w", err)
	}
	return stats, nil
}

// BulkInsert inserts products in one transaction. Rows that collide with a
// unique constraint, or reference a category that does not exist, are skipped.
// It returns the ids of the inserted rows.
func (r *productRepository) BulkInsert(ctx context.Context, products []model.Product) (ids []int64, err error) {
	if len(products) == 0 {
		return nil, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin bulk insert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for start := 0; start < len(products); start += bulkInsertChunk {
		end := min(start+bulkInsertChunk, len(products))
		sql, args := buildBulkInsert(products[start:end])

		err = observe(r.prom, "products.bulk_insert", func() error {
			rows, err := tx.Query(ctx, sql, args...)
			if err != nil {
				return err
			}
			defer rows.Close()
			for rows.Next() {
				var id int64
				if err := rows.Scan(&id); err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return rows.Err()
		})
		if err != nil {
			return nil, fmt.Errorf("failed to insert products: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit bulk insert: %w", err)
	}
	return ids, nil
}

func buildBulkInsert(products []model.Product) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO products (name, price, stock, description, slug, category_id)
        SELECT v.name, v.price, v.stock, v.description, v.slug, v.category_id
        FROM (VALUES `)

	args := make([]any, 0, len(products)*6)
	for i, p := range products {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 6
		fmt.Fprintf(&sb, "($%d::text, $%d::numeric, $%d::int, $%d::text, $%d::text, $%d::bigint)",
			n+1, n+2, n+3, n+4, n+5, n+6)
		args = append(args, p.Name, p.Price, p.Stock, p.Description, p.Slug, p.CategoryID)
	}

	sb.WriteString(`) AS v(name, price, stock, description, slug, category_id)
        WHERE v.category_id IS NULL OR EXISTS (SELECT 1 FROM categories c WHERE c.id = v.category_id)
        ON CONFLICT DO NOTHING
        RETURNING id`)
	return sb.String(), args
}
