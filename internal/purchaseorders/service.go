package purchaseorders

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/synergy-ops/synergy-ops/internal/categories"
	"github.com/synergy-ops/synergy-ops/internal/rows"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Insert(ctx context.Context, po PurchaseOrder) error
	Get(ctx context.Context, id uuid.UUID) (PurchaseOrder, error)
	List(ctx context.Context) ([]PurchaseOrder, error)
	MarkExploded(ctx context.Context, id uuid.UUID) error
}

// RowsPort mints intake rows from exploded lines.
type RowsPort interface {
	CreateIntake(ctx context.Context, input rows.IntakeInput) ([]rows.InventoryRow, error)
}

// CatalogPort resolves line categories to their synergy prefixes.
type CatalogPort interface {
	Get(ctx context.Context, id int64) (categories.Category, error)
}

// Service coordinates purchase order operations, including the explode
// step that turns supplier lines into INTAKE inventory rows.
type Service struct {
	repo     RepositoryPort
	rowsSvc  RowsPort
	catalog  CatalogPort
	validate *validator.Validate
}

// NewService builds Service.
func NewService(repo RepositoryPort, rowsSvc RowsPort, catalog CatalogPort) *Service {
	return &Service{repo: repo, rowsSvc: rowsSvc, catalog: catalog, validate: validator.New()}
}

// Create records a new OPEN purchase order.
func (s *Service) Create(ctx context.Context, input POInput) (PurchaseOrder, error) {
	if err := s.validate.Struct(input); err != nil {
		return PurchaseOrder{}, fmt.Errorf("purchaseorders: %w", err)
	}
	po := PurchaseOrder{
		ID:        uuid.New(),
		Supplier:  input.Supplier,
		Note:      input.Note,
		Status:    StatusOpen,
		CreatedAt: time.Now().UTC(),
		Lines:     input.Lines,
	}
	if err := s.repo.Insert(ctx, po); err != nil {
		return PurchaseOrder{}, err
	}
	return po, nil
}

// Get fetches one purchase order with lines.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns all purchase orders.
func (s *Service) List(ctx context.Context) ([]PurchaseOrder, error) {
	return s.repo.List(ctx)
}

// Explode mints sequential synergy IDs for every line of an OPEN order and
// inserts INTAKE rows. The status flip happens first so a concurrent
// explode of the same order turns into ErrAlreadyExploded instead of
// minting rows twice.
func (s *Service) Explode(ctx context.Context, id uuid.UUID) (int, error) {
	po, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if po.Status != StatusOpen {
		return 0, ErrAlreadyExploded
	}
	if err := s.repo.MarkExploded(ctx, id); err != nil {
		return 0, err
	}

	total := 0
	for _, line := range po.Lines {
		category, err := s.catalog.Get(ctx, line.CategoryID)
		if err != nil {
			return total, fmt.Errorf("purchaseorders: resolve category %d: %w", line.CategoryID, err)
		}
		if category.Prefix == "" {
			return total, fmt.Errorf("%w: category %q", ErrPrefixMissing, category.Label)
		}
		minted, err := s.rowsSvc.CreateIntake(ctx, rows.IntakeInput{
			CategoryID: line.CategoryID,
			Prefix:     category.Prefix,
			Quantity:   line.Quantity,
			UnitCost:   line.UnitCost,
			Title:      line.Title,
		})
		if err != nil {
			return total, err
		}
		total += len(minted)
	}
	return total, nil
}
