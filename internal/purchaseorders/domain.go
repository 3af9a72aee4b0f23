package purchaseorders

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// POStatus enumerates purchase order states.
type POStatus string

const (
	// StatusOpen means the PO can still be edited and exploded.
	StatusOpen POStatus = "OPEN"
	// StatusExploded means intake rows were already minted from it.
	StatusExploded POStatus = "EXPLODED"
)

// PurchaseOrder is a supplier purchase to be exploded into intake rows.
type PurchaseOrder struct {
	ID        uuid.UUID `json:"id"`
	Supplier  string    `json:"supplier"`
	Note      string    `json:"note,omitempty"`
	Status    POStatus  `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	Lines     []Line    `json:"lines"`
}

// Line is one category/quantity pair on a purchase order.
type Line struct {
	ID         int64   `json:"id"`
	CategoryID int64   `json:"categoryId" validate:"required"`
	Quantity   int     `json:"quantity" validate:"required,gt=0"`
	UnitCost   float64 `json:"unitCost" validate:"gte=0"`
	Title      string  `json:"title,omitempty"`
}

// POInput carries create payloads.
type POInput struct {
	Supplier string `json:"supplier" validate:"required,min=1,max=200"`
	Note     string `json:"note"`
	Lines    []Line `json:"lines" validate:"required,min=1,dive"`
}

// ErrPONotFound indicates a missing purchase order.
var ErrPONotFound = errors.New("purchaseorders: not found")

// ErrAlreadyExploded indicates the PO was exploded before.
var ErrAlreadyExploded = errors.New("purchaseorders: already exploded")

// ErrPrefixMissing indicates a line category without a synergy prefix.
var ErrPrefixMissing = errors.New("purchaseorders: category has no prefix")
