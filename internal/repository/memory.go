package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"flatmate/internal/model"
)

// MemoryRepository is an in-process Store. Data is lost on restart.
type MemoryRepository struct {
	mu sync.RWMutex

	nextID        int64
	listings      map[int64]model.Listing
	embeddings    map[int64][]float32
	conversations map[int64]model.Conversation
	messages      map[int64][]model.Message
	appointments  map[int64]model.Appointment

	now func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		listings:      make(map[int64]model.Listing),
		embeddings:    make(map[int64][]float32),
		conversations: make(map[int64]model.Conversation),
		messages:      make(map[int64][]model.Message),
		appointments:  make(map[int64]model.Appointment),
		now:           time.Now,
	}
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

func (r *MemoryRepository) id() int64 {
	r.nextID++
	return r.nextID
}

// ListListings filters listings the same way the SQL store does
func (r *MemoryRepository) ListListings(ctx context.Context, filters *model.SearchFilters) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Listing{}
	for _, l := range r.listings {
		if matchesFilters(&l, filters) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matchesFilters(l *model.Listing, f *model.SearchFilters) bool {
	if f == nil {
		return true
	}
	if f.Location != nil && !strings.Contains(strings.ToLower(l.Location), strings.ToLower(*f.Location)) {
		return false
	}
	if f.MinPrice != nil && l.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}
	if f.Bedrooms != nil && l.Bedrooms < *f.Bedrooms {
		return false
	}
	return true
}

func (r *MemoryRepository) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (r *MemoryRepository) CreateListing(ctx context.Context, listing *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing.ID = r.id()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = r.now()
	}
	r.listings[listing.ID] = *listing
	return nil
}

func (r *MemoryRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	success := 0
	var errs []string
	for _, item := range items {
		if _, ok := r.listings[item.ListingID]; !ok {
			errs = append(errs, fmt.Sprintf("listing %d: not found", item.ListingID))
			continue
		}
		r.embeddings[item.ListingID] = append([]float32(nil), item.Embedding...)
		success++
	}
	return success, errs
}

func (r *MemoryRepository) CreateConversation(ctx context.Context, userID int64, title string) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	conv := model.Conversation{ID: r.id(), UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}
	r.conversations[conv.ID] = conv
	return &conv, nil
}

func (r *MemoryRepository) GetConversation(ctx context.Context, id int64) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &conv, nil
}

func (r *MemoryRepository) ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Conversation{}
	for _, c := range r.conversations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) CreateMessage(ctx context.Context, conversationID int64, role model.Role, content string) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return nil, ErrNotFound
	}

	msg := model.Message{
		ID:             r.id(),
		ConversationID: conversationID,
		Content:        content,
		Role:           role,
		CreatedAt:      r.now(),
	}
	r.messages[conversationID] = append(r.messages[conversationID], msg)

	conv.UpdatedAt = msg.CreatedAt
	r.conversations[conversationID] = conv
	return &msg, nil
}

func (r *MemoryRepository) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.Message{}, r.messages[conversationID]...), nil
}

func (r *MemoryRepository) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[appt.ListingID]; !ok {
		return fmt.Errorf("failed to create appointment: listing %d: %w", appt.ListingID, ErrNotFound)
	}
	appt.ID = r.id()
	appt.CreatedAt = r.now()
	r.appointments[appt.ID] = *appt
	return nil
}

func (r *MemoryRepository) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &appt, nil
}

func (r *MemoryRepository) ListAppointments(ctx context.Context, userID int64) ([]model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Appointment{}
	for _, a := range r.appointments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ScheduledTime.Before(out[j].ScheduledTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) UpdateAppointmentStatus(ctx context.Context, id int64, status model.AppointmentStatus) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	appt.Status = status
	r.appointments[id] = appt
	return &appt, nil
}

func (r *MemoryRepository) CountActiveAppointments(ctx context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.appointments {
		if a.UserID == userID && a.Status != model.AppointmentCancelled {
			n++
		}
	}
	return n, nil
}
