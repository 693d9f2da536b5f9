package category

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("category not found")
	ErrNameTaken = errors.New("category name already exists")
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=80"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// partial update, nil fields are left untouched
type UpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=80"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// Patch is what a store applies on update. Slug travels with Name.
type Patch struct {
	Name        *string
	Slug        *string
	Description *string
}
