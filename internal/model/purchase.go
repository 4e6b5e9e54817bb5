package model

import "time"

// Purchase links a user with a bought product. Rows are never updated.
type Purchase struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PurchasedProduct is a purchase joined with the product it refers to.
type PurchasedProduct struct {
	PurchaseID  int64     `json:"purchase_id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Price       float64   `json:"price"`
	PurchasedAt time.Time `json:"purchased_at"`
}
