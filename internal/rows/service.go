package rows

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/synergy-ops/synergy-ops/internal/live"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListByStatus(ctx context.Context, status Status) ([]InventoryRow, error)
	GetByID(ctx context.Context, id int64) (InventoryRow, error)
	Patch(ctx context.Context, id int64, patch RowPatch) (InventoryRow, error)
	Delete(ctx context.Context, id int64) (string, error)
}

// EventPublisher pushes live events to connected console sessions.
type EventPublisher interface {
	Publish(ctx context.Context, name string, payload any) error
}

// Service coordinates inventory row operations.
type Service struct {
	repo     RepositoryPort
	events   EventPublisher
	validate *validator.Validate
}

// NewService builds Service.
func NewService(repo RepositoryPort, events EventPublisher) *Service {
	return &Service{repo: repo, events: events, validate: validator.New()}
}

// List returns rows in one lifecycle stage.
func (s *Service) List(ctx context.Context, status Status) ([]InventoryRow, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByStatus(ctx, status)
}

// Get fetches one row by numeric ID.
func (s *Service) Get(ctx context.Context, id int64) (InventoryRow, error) {
	return s.repo.GetByID(ctx, id)
}

// BulkSave upserts a snapshot of rows by synergy key inside one transaction
// and notifies listeners with the row count only. The backend is the upsert
// authority; callers re-fetch on the bulk event rather than trusting their
// local copy.
func (s *Service) BulkSave(ctx context.Context, snapshot []InventoryRow) (int, error) {
	for _, row := range snapshot {
		if !row.Status.Valid() {
			return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, row.Status)
		}
		if !ValidSynergyID(row.SynergyID) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSynergyID, row.SynergyID)
		}
		if row.ListPrice < 0 || row.SoldPrice < 0 {
			return 0, errors.New("rows: price must be >= 0")
		}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, row := range snapshot {
			if err := tx.UpsertRow(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, live.EventRowBulkUpserted, map[string]int{"count": len(snapshot)})
	}
	return len(snapshot), nil
}

// Patch applies a partial update and pushes the full updated row.
func (s *Service) Patch(ctx context.Context, id int64, patch RowPatch) (InventoryRow, error) {
	if err := s.validate.Struct(patch); err != nil {
		return InventoryRow{}, fmt.Errorf("rows: %w", err)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return InventoryRow{}, ErrInvalidStatus
	}
	row, err := s.repo.Patch(ctx, id, patch)
	if err != nil {
		return InventoryRow{}, err
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, live.EventRowUpserted, row)
	}
	return row, nil
}

// Delete removes a row and pushes its key to listeners.
func (s *Service) Delete(ctx context.Context, id int64) error {
	synergyID, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, live.EventRowDeleted, map[string]string{"synergyId": synergyID})
	}
	return nil
}

// CreateIntake mints sequential synergy IDs under the category prefix and
// inserts INTAKE rows. Used by the purchase-order explode step.
func (s *Service) CreateIntake(ctx context.Context, input IntakeInput) ([]InventoryRow, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if input.Prefix == "" {
		return nil, errors.New("rows: prefix required")
	}
	minted := make([]InventoryRow, 0, input.Quantity)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		start, err := tx.NextSequence(ctx, input.Prefix, input.Quantity)
		if err != nil {
			return err
		}
		for i := 0; i < input.Quantity; i++ {
			row := InventoryRow{
				SynergyID:  fmt.Sprintf("%s-%04d", input.Prefix, start+i),
				Status:     StatusIntake,
				CategoryID: input.CategoryID,
				Title:      input.Title,
				UnitCost:   input.UnitCost,
			}
			id, err := tx.InsertRow(ctx, row)
			if err != nil {
				return err
			}
			row.ID = id
			minted = append(minted, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, live.EventRowBulkUpserted, map[string]int{"count": len(minted)})
	}
	return minted, nil
}
