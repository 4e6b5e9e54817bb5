package repository

import (
	"context"
	"errors"
	"fmt"

	"shop_api/internal/model"
	"shop_api/internal/observability"

	"github.com/jackc/pgx/v5"
)

// PurchaseRepository records purchases and adjusts stock
type PurchaseRepository interface {
	Buy(ctx context.Context, userID, productID int64) (*model.Purchase, error)
	FindAllWithProducts(ctx context.Context) (map[int64][]model.PurchasedProduct, error)
}

type purchaseRepository struct {
	db   DB
	prom *observability.Prom
}

func NewPurchaseRepository(db DB, prom *observability.Prom) PurchaseRepository {
	return &purchaseRepository{db: db, prom: prom}
}

// Buy decrements stock by one and records the purchase in a single transaction.
// The decrement is conditional on stock > 0, so concurrent buyers of the last
// unit cannot both succeed.
func (r *purchaseRepository) Buy(ctx context.Context, userID, productID int64) (purchase *model.Purchase, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin purchase: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var userExists bool
	err = observe(r.prom, "purchases.user_exists", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&userExists)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !userExists {
		err = ErrUserNotFound
		return nil, err
	}

	var remaining int
	err = observe(r.prom, "purchases.decrement_stock", func() error {
		return tx.QueryRow(ctx, `UPDATE products SET stock = stock - 1 WHERE id = $1 AND stock > 0 RETURNING stock`, productID).
			Scan(&remaining)
	})
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		// Zero rows: either the product is gone or it has no stock left.
		var productExists bool
		err = observe(r.prom, "purchases.product_exists", func() error {
			return tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&productExists)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check product: %w", err)
		}
		if productExists {
			err = ErrOutOfStock
		} else {
			err = ErrProductNotFound
		}
		return nil, err
	}

	purchase = &model.Purchase{UserID: userID, ProductID: productID}
	err = observe(r.prom, "purchases.insert", func() error {
		return tx.QueryRow(ctx, `INSERT INTO users_products (user_id, product_id) VALUES ($1, $2) RETURNING id, created_at`, userID, productID).
			Scan(&purchase.ID, &purchase.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", mapPgError(err))
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}
	return purchase, nil
}

// FindAllWithProducts returns every purchase joined with its product, keyed by user id.
func (r *purchaseRepository) FindAllWithProducts(ctx context.Context) (map[int64][]model.PurchasedProduct, error) {
	sql := `SELECT up.user_id, up.id, p.id, p.name, p.price::float8, up.created_at
            FROM users_products up JOIN products p ON p.id = up.product_id
            ORDER BY up.user_id, up.id`
	byUser := make(map[int64][]model.PurchasedProduct)
	err := observe(r.prom, "purchases.find_all", func() error {
		rows, err := r.db.Query(ctx, sql)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var userID int64
			var pp model.PurchasedProduct
			if err := rows.Scan(&userID, &pp.PurchaseID, &pp.ProductID, &pp.ProductName, &pp.Price, &pp.PurchasedAt); err != nil {
				return err
			}
			byUser[userID] = append(byUser[userID], pp)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return byUser, nil
}
