package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/synergy-ops/synergy-ops/internal/live"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Insert(ctx context.Context, msg Message) error
	ListThread(ctx context.Context, thread string, limit int) ([]Message, error)
}

// EventPublisher pushes live events to connected console sessions.
type EventPublisher interface {
	Publish(ctx context.Context, name string, payload any) error
}

// Service coordinates chat threads.
type Service struct {
	repo     RepositoryPort
	events   EventPublisher
	validate *validator.Validate
}

// NewService builds Service.
func NewService(repo RepositoryPort, events EventPublisher) *Service {
	return &Service{repo: repo, events: events, validate: validator.New()}
}

// ListThread returns a thread's messages.
func (s *Service) ListThread(ctx context.Context, thread string, limit int) ([]Message, error) {
	if thread == "" {
		return nil, ErrEmptyThread
	}
	return s.repo.ListThread(ctx, thread, limit)
}

// Post stores a message and publishes message.new.
func (s *Service) Post(ctx context.Context, thread, authorID string, input MessageInput) (Message, error) {
	if thread == "" {
		return Message{}, ErrEmptyThread
	}
	if err := s.validate.Struct(input); err != nil {
		return Message{}, fmt.Errorf("chat: %w", err)
	}
	msg := Message{
		ID:        uuid.New(),
		Thread:    thread,
		AuthorID:  authorID,
		Body:      input.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, msg); err != nil {
		return Message{}, err
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, live.EventMessageNew, msg)
	}
	return msg, nil
}
