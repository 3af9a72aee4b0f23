package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	byID   map[int64]Category
	labels map[string]bool
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]Category), labels: make(map[string]bool)}
}

func (r *memoryRepo) List(ctx context.Context) ([]Category, error) {
	out := make([]Category, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Category, error) {
	c, ok := r.byID[id]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	return c, nil
}

func (r *memoryRepo) Insert(ctx context.Context, input CategoryInput) (Category, error) {
	if r.labels[input.Label] {
		return Category{}, ErrDuplicateCategory
	}
	r.nextID++
	c := Category{ID: r.nextID, Label: input.Label, Prefix: input.Prefix}
	r.byID[c.ID] = c
	r.labels[c.Label] = true
	return c, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, input CategoryInput) (Category, error) {
	c, ok := r.byID[id]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	delete(r.labels, c.Label)
	c.Label = input.Label
	c.Prefix = input.Prefix
	r.byID[id] = c
	r.labels[c.Label] = true
	return c, nil
}

func (r *memoryRepo) SetPrefix(ctx context.Context, id int64, prefix string) (Category, error) {
	c, ok := r.byID[id]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	c.Prefix = prefix
	r.byID[id] = c
	return c, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	c, ok := r.byID[id]
	if !ok {
		return ErrCategoryNotFound
	}
	delete(r.labels, c.Label)
	delete(r.byID, id)
	return nil
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

func TestCreateUpdateDeletePublishEvents(t *testing.T) {
	events := &memoryPublisher{}
	svc := NewService(newMemoryRepo(), events)
	ctx := context.Background()

	c, err := svc.Create(ctx, CategoryInput{Label: "Laptops", Prefix: "LAP"})
	require.NoError(t, err)
	require.Equal(t, "LAP", c.Prefix)

	_, err = svc.Update(ctx, c.ID, CategoryInput{Label: "Business Laptops", Prefix: "LAP"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))

	require.Len(t, events.events, 3)
	require.Equal(t, "category.created", events.events[0].name)
	require.Equal(t, "category.updated", events.events[1].name)
	require.Equal(t, "category.deleted", events.events[2].name)
}

func TestCreateValidatesLabel(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.Create(context.Background(), CategoryInput{Label: ""})
	require.Error(t, err)
}

func TestCreateDuplicateLabel(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CategoryInput{Label: "Laptops"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CategoryInput{Label: "Laptops"})
	require.ErrorIs(t, err, ErrDuplicateCategory)
}

func TestSetPrefixPublishesAssignment(t *testing.T) {
	events := &memoryPublisher{}
	svc := NewService(newMemoryRepo(), events)
	ctx := context.Background()

	c, err := svc.Create(ctx, CategoryInput{Label: "Monitors"})
	require.NoError(t, err)
	events.events = nil

	updated, err := svc.SetPrefix(ctx, c.ID, "MON")
	require.NoError(t, err)
	require.Equal(t, "MON", updated.Prefix)

	require.Len(t, events.events, 1)
	require.Equal(t, "prefix.set", events.events[0].name)
	require.Equal(t, map[string]any{"categoryId": c.ID, "prefix": "MON"}, events.events[0].payload)
}

func TestSetPrefixRejectsBadPrefix(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, CategoryInput{Label: "Monitors"})
	require.NoError(t, err)

	_, err = svc.SetPrefix(ctx, c.ID, "")
	require.Error(t, err)
	_, err = svc.SetPrefix(ctx, c.ID, "MON-X")
	require.Error(t, err)
}
