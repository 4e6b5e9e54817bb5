package model

import (
	"math"
	"time"
)

// Column limits: products.price is NUMERIC(12,2), products.stock is INTEGER.
const (
	MaxPrice = 9999999999.99
	MaxStock = math.MaxInt32
)

// Product is a catalog entry. Stock never goes below zero.
type Product struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Price        float64        `json:"price"`
	Stock        int            `json:"stock"`
	Description  *string        `json:"description,omitempty"`
	Slug         string         `json:"slug"`
	CategoryID   *int64         `json:"category_id,omitempty"`
	CategoryName *string        `json:"category_name,omitempty"`
	Images       []ProductImage `json:"images,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Price       float64 `json:"price" binding:"gte=0,lte=9999999999.99"`
	Stock       int     `json:"stock" binding:"gte=0,lte=2147483647"`
	Description *string `json:"description"`
	Slug        string  `json:"slug" binding:"omitempty,max=255"`
	CategoryID  *int64  `json:"category_id" binding:"omitempty,gt=0"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" binding:"omitempty,max=255"`
	Price       *float64 `json:"price,omitempty" binding:"omitempty,gte=0,lte=9999999999.99"`
	Stock       *int     `json:"stock,omitempty" binding:"omitempty,gte=0,lte=2147483647"`
	Description *string  `json:"description,omitempty"`
	Slug        *string  `json:"slug,omitempty" binding:"omitempty,max=255"`
	CategoryID  *int64   `json:"category_id,omitempty" binding:"omitempty,gt=0"`
}

// ProductImage is a stored file attached to a product.
type ProductImage struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Rows     int     `json:"rows"`
	Inserted int     `json:"inserted"`
	Skipped  int     `json:"skipped"`
	IDs      []int64 `json:"ids"`
}
