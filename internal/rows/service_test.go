package rows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	byKey     map[string]InventoryRow
	byID      map[int64]InventoryRow
	sequences map[string]int
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byKey:     make(map[string]InventoryRow),
		byID:      make(map[int64]InventoryRow),
		sequences: make(map[string]int),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListByStatus(ctx context.Context, status Status) ([]InventoryRow, error) {
	var out []InventoryRow
	for _, row := range r.byID {
		if row.Status == status {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id int64) (InventoryRow, error) {
	row, ok := r.byID[id]
	if !ok {
		return InventoryRow{}, ErrRowNotFound
	}
	return row, nil
}

func (r *memoryRepo) Patch(ctx context.Context, id int64, patch RowPatch) (InventoryRow, error) {
	row, ok := r.byID[id]
	if !ok {
		return InventoryRow{}, ErrRowNotFound
	}
	if patch.Status != nil {
		row.Status = *patch.Status
	}
	if patch.Grade != nil {
		row.Grade = *patch.Grade
	}
	if patch.ListPrice != nil {
		row.ListPrice = *patch.ListPrice
	}
	if patch.TesterComments != nil {
		row.TesterComments = *patch.TesterComments
	}
	r.byID[id] = row
	r.byKey[row.Key()] = row
	return row, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) (string, error) {
	row, ok := r.byID[id]
	if !ok {
		return "", ErrRowNotFound
	}
	delete(r.byID, id)
	delete(r.byKey, row.Key())
	return row.SynergyID, nil
}

func (tx *memoryTx) UpsertRow(ctx context.Context, row InventoryRow) error {
	if existing, ok := tx.repo.byKey[row.SynergyID]; ok {
		row.ID = existing.ID
	} else {
		tx.repo.nextID++
		row.ID = tx.repo.nextID
	}
	tx.repo.byKey[row.SynergyID] = row
	tx.repo.byID[row.ID] = row
	return nil
}

func (tx *memoryTx) NextSequence(ctx context.Context, prefix string, count int) (int, error) {
	start := tx.repo.sequences[prefix] + 1
	tx.repo.sequences[prefix] += count
	return start, nil
}

func (tx *memoryTx) InsertRow(ctx context.Context, row InventoryRow) (int64, error) {
	tx.repo.nextID++
	row.ID = tx.repo.nextID
	tx.repo.byKey[row.SynergyID] = row
	tx.repo.byID[row.ID] = row
	return row.ID, nil
}

type capturedEvent struct {
	name    string
	payload any
}

type memoryPublisher struct {
	events []capturedEvent
}

func (p *memoryPublisher) Publish(ctx context.Context, name string, payload any) error {
	p.events = append(p.events, capturedEvent{name: name, payload: payload})
	return nil
}

func TestBulkSaveUpsertsAndPublishesCount(t *testing.T) {
	repo := newMemoryRepo()
	events := &memoryPublisher{}
	svc := NewService(repo, events)
	ctx := context.Background()

	snapshot := []InventoryRow{
		{SynergyID: "LAP-0001", Status: StatusTested, Grade: "A"},
		{SynergyID: "LAP-0002", Status: StatusTested, Grade: "B"},
	}
	count, err := svc.BulkSave(ctx, snapshot)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Len(t, repo.byKey, 2)

	// Saving again with a change upserts in place, no duplicate.
	snapshot[0].Grade = "C"
	_, err = svc.BulkSave(ctx, snapshot)
	require.NoError(t, err)
	require.Len(t, repo.byKey, 2)
	require.Equal(t, "C", repo.byKey["LAP-0001"].Grade)

	require.Len(t, events.events, 2)
	require.Equal(t, "row.bulkUpserted", events.events[0].name)
	require.Equal(t, map[string]int{"count": 2}, events.events[0].payload)
}

func TestBulkSaveRejectsBadRows(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.BulkSave(ctx, []InventoryRow{{SynergyID: "LAP-0001", Status: "SHIPPED"}})
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.BulkSave(ctx, []InventoryRow{{SynergyID: "no spaces allowed", Status: StatusTested}})
	require.ErrorIs(t, err, ErrInvalidSynergyID)

	_, err = svc.BulkSave(ctx, []InventoryRow{{SynergyID: "LAP-0001", Status: StatusTested, ListPrice: -5}})
	require.Error(t, err)
}

func TestPatchPublishesFullRow(t *testing.T) {
	repo := newMemoryRepo()
	events := &memoryPublisher{}
	svc := NewService(repo, events)
	ctx := context.Background()

	_, err := svc.BulkSave(ctx, []InventoryRow{{SynergyID: "LAP-0001", Status: StatusTested}})
	require.NoError(t, err)
	events.events = nil

	grade := "A"
	updated, err := svc.Patch(ctx, 1, RowPatch{Grade: &grade})
	require.NoError(t, err)
	require.Equal(t, "A", updated.Grade)

	require.Len(t, events.events, 1)
	require.Equal(t, "row.upserted", events.events[0].name)
	require.Equal(t, updated, events.events[0].payload)
}

func TestPatchRejectsInvalidInput(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	bad := Status("LOST")
	_, err := svc.Patch(ctx, 1, RowPatch{Status: &bad})
	require.ErrorIs(t, err, ErrInvalidStatus)

	negative := -1.0
	_, err = svc.Patch(ctx, 1, RowPatch{ListPrice: &negative})
	require.Error(t, err)
}

func TestDeletePublishesKey(t *testing.T) {
	repo := newMemoryRepo()
	events := &memoryPublisher{}
	svc := NewService(repo, events)
	ctx := context.Background()

	_, err := svc.BulkSave(ctx, []InventoryRow{{SynergyID: "LAP-0001", Status: StatusSold}})
	require.NoError(t, err)
	events.events = nil

	require.NoError(t, svc.Delete(ctx, 1))
	require.Empty(t, repo.byID)
	require.Len(t, events.events, 1)
	require.Equal(t, "row.deleted", events.events[0].name)
	require.Equal(t, map[string]string{"synergyId": "LAP-0001"}, events.events[0].payload)
}

func TestCreateIntakeMintsSequentialIDs(t *testing.T) {
	repo := newMemoryRepo()
	events := &memoryPublisher{}
	svc := NewService(repo, events)
	ctx := context.Background()

	minted, err := svc.CreateIntake(ctx, IntakeInput{CategoryID: 7, Prefix: "LAP", Quantity: 3, UnitCost: 120})
	require.NoError(t, err)
	require.Len(t, minted, 3)
	require.Equal(t, "LAP-0001", minted[0].SynergyID)
	require.Equal(t, "LAP-0002", minted[1].SynergyID)
	require.Equal(t, "LAP-0003", minted[2].SynergyID)
	for _, row := range minted {
		require.Equal(t, StatusIntake, row.Status)
		require.True(t, ValidSynergyID(row.SynergyID))
	}

	// The sequence continues across batches.
	minted, err = svc.CreateIntake(ctx, IntakeInput{CategoryID: 7, Prefix: "LAP", Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, "LAP-0004", minted[0].SynergyID)
	require.Equal(t, "LAP-0005", minted[1].SynergyID)

	require.Len(t, events.events, 2)
	require.Equal(t, "row.bulkUpserted", events.events[0].name)
}

func TestCreateIntakeRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.CreateIntake(ctx, IntakeInput{Prefix: "LAP", Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.CreateIntake(ctx, IntakeInput{Quantity: 2})
	require.Error(t, err)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.List(context.Background(), Status("BOGUS"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}
