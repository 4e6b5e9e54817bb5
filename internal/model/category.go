package model

import "time"

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CategoryStat holds per-category price aggregates. CategoryID is nil for
// products without a category.
type CategoryStat struct {
	CategoryID   *int64  `json:"category_id"`
	CategoryName *string `json:"category_name"`
	Count        int64   `json:"count"`
	Average      float64 `json:"average"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
}
