package rows

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"time"
)

// Status enumerates the lifecycle stages of an inventory row.
type Status string

const (
	// StatusIntake marks a freshly exploded row awaiting testing.
	StatusIntake Status = "INTAKE"
	// StatusTested marks a row graded by a tester.
	StatusTested Status = "TESTED"
	// StatusPosted marks a row listed on eBay.
	StatusPosted Status = "POSTED"
	// StatusInStore marks a row shelved for walk-in sale.
	StatusInStore Status = "IN_STORE"
	// StatusSold marks a completed sale.
	StatusSold Status = "SOLD"
	// StatusRMA marks a returned row.
	StatusRMA Status = "RMA"
	// StatusScrap marks a row written off.
	StatusScrap Status = "SCRAP"
)

// AllStatuses lists every lifecycle stage in order.
var AllStatuses = []Status{StatusIntake, StatusTested, StatusPosted, StatusInStore, StatusSold, StatusRMA, StatusScrap}

// Valid reports whether the status is a known lifecycle stage.
func (s Status) Valid() bool {
	switch s {
	case StatusIntake, StatusTested, StatusPosted, StatusInStore, StatusSold, StatusRMA, StatusScrap:
		return true
	}
	return false
}

// InventoryRow models one physical item tracked through the resale pipeline.
type InventoryRow struct {
	ID             int64     `json:"id"`
	SynergyID      string    `json:"synergyId"`
	Status         Status    `json:"status"`
	CategoryID     int64     `json:"categoryId,omitempty"`
	Grade          string    `json:"grade,omitempty"`
	Title          string    `json:"title,omitempty"`
	ListPrice      float64   `json:"listPrice,omitempty"`
	SoldPrice      float64   `json:"soldPrice,omitempty"`
	UnitCost       float64   `json:"unitCost,omitempty"`
	TesterComments string    `json:"testerComments,omitempty"`
	EbayItemURL    string    `json:"ebayItemUrl,omitempty"`
	EbayListingID  string    `json:"ebayListingId,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

// Key returns the synergy identifier, falling back to the numeric ID for
// rows that have not been assigned one yet.
func (r InventoryRow) Key() string {
	if r.SynergyID != "" {
		return r.SynergyID
	}
	return strconv.FormatInt(r.ID, 10)
}

// UnmarshalJSON normalizes field-name variants once at the API boundary.
// Older exports emit snake_case for the eBay linkage fields.
func (r *InventoryRow) UnmarshalJSON(data []byte) error {
	type alias InventoryRow
	aux := struct {
		*alias
		EbayItemURLSnake   string `json:"ebay_item_url"`
		EbayListingIDSnake string `json:"ebay_listing_id"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.EbayItemURL == "" {
		r.EbayItemURL = aux.EbayItemURLSnake
	}
	if r.EbayListingID == "" {
		r.EbayListingID = aux.EbayListingIDSnake
	}
	return nil
}

// RowPatch carries a partial update; nil fields are left untouched.
type RowPatch struct {
	Status         *Status  `json:"status,omitempty"`
	CategoryID     *int64   `json:"categoryId,omitempty"`
	Grade          *string  `json:"grade,omitempty"`
	Title          *string  `json:"title,omitempty"`
	ListPrice      *float64 `json:"listPrice,omitempty" validate:"omitempty,gte=0"`
	SoldPrice      *float64 `json:"soldPrice,omitempty" validate:"omitempty,gte=0"`
	TesterComments *string  `json:"testerComments,omitempty"`
	EbayItemURL    *string  `json:"ebayItemUrl,omitempty"`
	EbayListingID  *string  `json:"ebayListingId,omitempty"`
}

// IntakeInput describes a batch of rows minted from a purchase order line.
type IntakeInput struct {
	CategoryID int64
	Prefix     string
	Quantity   int
	UnitCost   float64
	Title      string
}

var synergyIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+-\d+$`)

// ValidSynergyID reports whether the identifier matches PREFIX-NUMBER.
func ValidSynergyID(id string) bool {
	return synergyIDPattern.MatchString(id)
}

// ErrInvalidStatus indicates a status outside the lifecycle enum.
var ErrInvalidStatus = errors.New("rows: invalid status")

// ErrInvalidSynergyID indicates a malformed row key.
var ErrInvalidSynergyID = errors.New("rows: invalid synergy id")

// ErrInvalidQuantity indicates a non-positive intake quantity.
var ErrInvalidQuantity = errors.New("rows: quantity must be positive")
