package categories

import "errors"

// Category groups inventory rows and optionally owns a synergy ID prefix.
type Category struct {
	ID     int64  `json:"id"`
	Label  string `json:"label"`
	Prefix string `json:"prefix,omitempty"`
}

// CategoryInput carries create/update payloads.
type CategoryInput struct {
	Label  string `json:"label" validate:"required,min=1,max=120"`
	Prefix string `json:"prefix" validate:"omitempty,alphanum,max=12"`
}

// ErrDuplicateCategory indicates a label or prefix collision.
var ErrDuplicateCategory = errors.New("categories: duplicate label or prefix")

// ErrCategoryNotFound indicates a missing category.
var ErrCategoryNotFound = errors.New("categories: not found")
