package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message is one chat entry in a named thread.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Thread    string    `json:"thread"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageInput carries a post payload.
type MessageInput struct {
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

// ErrEmptyThread indicates a missing thread name.
var ErrEmptyThread = errors.New("chat: thread required")
