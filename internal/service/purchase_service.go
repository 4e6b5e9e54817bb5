package service

import (
	"context"
	"errors"

	"shop_api/internal/model"
	"shop_api/internal/observability"
	"shop_api/internal/repository"

	"go.uber.org/zap"
)

// PurchaseService sells single units of stock
type PurchaseService interface {
	Buy(ctx context.Context, productID, userID int64) (*model.Purchase, error)
}

type purchaseService struct {
	repo repository.PurchaseRepository
	prom *observability.Prom
	log  *zap.Logger
}

func NewPurchaseService(repo repository.PurchaseRepository, prom *observability.Prom, log *zap.Logger) PurchaseService {
	if log == nil {
		log = zap.NewNop()
	}
	return &purchaseService{repo: repo, prom: prom, log: log}
}

// Buy takes one unit of the product for the user. Stock is checked and
// decremented in one statement, so it never goes below zero.
func (s *purchaseService) Buy(ctx context.Context, productID, userID int64) (*model.Purchase, error) {
	purchase, err := s.repo.Buy(ctx, userID, productID)
	if err != nil {
		var result string
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			result, err = "user_not_found", ErrUserNotFound
		case errors.Is(err, repository.ErrProductNotFound):
			result, err = "product_not_found", ErrProductNotFound
		case errors.Is(err, repository.ErrOutOfStock):
			result, err = "out_of_stock", ErrOutOfStock
		default:
			result = "error"
		}
		s.prom.PurchaseResult(result)
		return nil, err
	}

	s.prom.PurchaseResult("success")
	s.log.Info("product purchased",
		zap.Int64("purchase_id", purchase.ID),
		zap.Int64("product_id", productID),
		zap.Int64("user_id", userID),
	)
	return purchase, nil
}
