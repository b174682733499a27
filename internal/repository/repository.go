package repository

import (
	"context"
	"errors"

	"flatmate/internal/model"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// ListingStore reads and writes rental listings
type ListingStore interface {
	// ListListings returns listings matching every non-nil filter. Nil filters match everything.
	ListListings(ctx context.Context, filters *model.SearchFilters) ([]model.Listing, error)
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
	CreateListing(ctx context.Context, listing *model.Listing) error
	BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
}

// ConversationStore persists conversations and their messages
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID int64, title string) (*model.Conversation, error)
	GetConversation(ctx context.Context, id int64) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error)
	// CreateMessage appends a message and bumps the conversation's updated_at
	CreateMessage(ctx context.Context, conversationID int64, role model.Role, content string) (*model.Message, error)
	ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error)
}

// AppointmentStore persists viewing appointments
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, appt *model.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*model.Appointment, error)
	ListAppointments(ctx context.Context, userID int64) ([]model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, status model.AppointmentStatus) (*model.Appointment, error)
	CountActiveAppointments(ctx context.Context, userID int64) (int, error)
}

// Store is the full persistence surface used by the server
type Store interface {
	ListingStore
	ConversationStore
	AppointmentStore
	Close() error
}

var (
	_ Store = (*PostgresRepository)(nil)
	_ Store = (*MemoryRepository)(nil)
)
