package categories

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/synergy-ops/synergy-ops/internal/live"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	Insert(ctx context.Context, input CategoryInput) (Category, error)
	Update(ctx context.Context, id int64, input CategoryInput) (Category, error)
	SetPrefix(ctx context.Context, id int64, prefix string) (Category, error)
	Delete(ctx context.Context, id int64) error
}

// EventPublisher pushes live events to connected console sessions.
type EventPublisher interface {
	Publish(ctx context.Context, name string, payload any) error
}

// Service coordinates category CRUD. Every mutation is pushed live so open
// poster sessions see manager changes without a reload.
type Service struct {
	repo     RepositoryPort
	events   EventPublisher
	validate *validator.Validate
}

// NewService builds Service.
func NewService(repo RepositoryPort, events EventPublisher) *Service {
	return &Service{repo: repo, events: events, validate: validator.New()}
}

// List returns all categories.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// Get fetches one category.
func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a category and publishes category.created.
func (s *Service) Create(ctx context.Context, input CategoryInput) (Category, error) {
	if err := s.validate.Struct(input); err != nil {
		return Category{}, fmt.Errorf("categories: %w", err)
	}
	c, err := s.repo.Insert(ctx, input)
	if err != nil {
		return Category{}, err
	}
	s.publish(ctx, live.EventCategoryCreated, c)
	return c, nil
}

// Update modifies a category and publishes category.updated.
func (s *Service) Update(ctx context.Context, id int64, input CategoryInput) (Category, error) {
	if err := s.validate.Struct(input); err != nil {
		return Category{}, fmt.Errorf("categories: %w", err)
	}
	c, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return Category{}, err
	}
	s.publish(ctx, live.EventCategoryUpdated, c)
	return c, nil
}

// SetPrefix assigns the synergy ID prefix and publishes prefix.set.
func (s *Service) SetPrefix(ctx context.Context, id int64, prefix string) (Category, error) {
	if err := s.validate.Var(prefix, "required,alphanum,max=12"); err != nil {
		return Category{}, fmt.Errorf("categories: prefix: %w", err)
	}
	c, err := s.repo.SetPrefix(ctx, id, prefix)
	if err != nil {
		return Category{}, err
	}
	s.publish(ctx, live.EventPrefixSet, map[string]any{"categoryId": c.ID, "prefix": c.Prefix})
	return c, nil
}

// Delete removes a category and publishes category.deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, live.EventCategoryDeleted, map[string]int64{"id": id})
	return nil
}

func (s *Service) publish(ctx context.Context, name string, payload any) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, name, payload)
}
