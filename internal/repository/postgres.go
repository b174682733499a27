package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"flatmate/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

//go:embed schema.sql
var schemaSQL string

const listingColumns = `
	id, title, description, price, location, bedrooms, bathrooms, size, image_url,
	contact_info, nearest_transport, transport_distance, created_at`

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the tables if they do not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ListListings performs a filtered listing query
func (r *PostgresRepository) ListListings(ctx context.Context, filters *model.SearchFilters) ([]model.Listing, error) {
	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	if filters != nil {
		if filters.Location != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("location ILIKE $%d", argIndex))
			args = append(args, "%"+escapeLike(*filters.Location)+"%")
			argIndex++
		}
		if filters.MinPrice != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("price >= $%d", argIndex))
			args = append(args, *filters.MinPrice)
			argIndex++
		}
		if filters.MaxPrice != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("price <= $%d", argIndex))
			args = append(args, *filters.MaxPrice)
			argIndex++
		}
		if filters.Bedrooms != nil {
			whereClauses = append(whereClauses, fmt.Sprintf("bedrooms >= $%d", argIndex))
			args = append(args, *filters.Bedrooms)
			argIndex++
		}
	}

	query := fmt.Sprintf("SELECT %s FROM listings WHERE %s", listingColumns, strings.Join(whereClauses, " AND "))

	listings := []model.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	return listings, nil
}

// GetListing retrieves a single listing by its ID
func (r *PostgresRepository) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	query := fmt.Sprintf("SELECT %s FROM listings WHERE id = $1", listingColumns)
	if err := r.db.GetContext(ctx, &listing, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

// CreateListing inserts a listing and fills in its generated fields
func (r *PostgresRepository) CreateListing(ctx context.Context, listing *model.Listing) error {
	query := `
		INSERT INTO listings (
			title, description, price, location, bedrooms, bathrooms, size, image_url,
			contact_info, nearest_transport, transport_distance
		) VALUES (
			:title, :description, :price, :location, :bedrooms, :bathrooms, :size, :image_url,
			:contact_info, :nearest_transport, :transport_distance
		) RETURNING id, created_at`

	rows, err := r.db.NamedQueryContext(ctx, query, listing)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&listing.ID, &listing.CreatedAt); err != nil {
			return fmt.Errorf("failed to read listing id: %w", err)
		}
	}
	return rows.Err()
}

// BatchUpdateEmbeddings updates embeddings for multiple listings
func (r *PostgresRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE listings SET embedding = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errs
	}
	defer stmt.Close()

	for _, item := range items {
		res, err := stmt.ExecContext(ctx, pgvector.NewVector(item.Embedding), item.ListingID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("listing %d: %v", item.ListingID, err))
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			errs = append(errs, fmt.Sprintf("listing %d: not found", item.ListingID))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}

	return success, errs
}

// CreateConversation inserts a new conversation for userID
func (r *PostgresRepository) CreateConversation(ctx context.Context, userID int64, title string) (*model.Conversation, error) {
	var conv model.Conversation
	query := `
		INSERT INTO conversations (user_id, title)
		VALUES ($1, $2)
		RETURNING id, user_id, title, created_at, updated_at`
	if err := r.db.GetContext(ctx, &conv, query, userID, title); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

// GetConversation retrieves a conversation by its ID
func (r *PostgresRepository) GetConversation(ctx context.Context, id int64) (*model.Conversation, error) {
	var conv model.Conversation
	query := `SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = $1`
	if err := r.db.GetContext(ctx, &conv, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations returns the user's conversations, most recently active first
func (r *PostgresRepository) ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error) {
	convs := []model.Conversation{}
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &convs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// CreateMessage appends a message and touches the conversation in one transaction
func (r *PostgresRepository) CreateMessage(ctx context.Context, conversationID int64, role model.Role, content string) (*model.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var msg model.Message
	query := `
		INSERT INTO messages (conversation_id, content, role)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, content, role, created_at`
	if err := tx.GetContext(ctx, &msg, query, conversationID, content, string(role)); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, conversationID); err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}
	return &msg, nil
}

// ListMessages returns a conversation's messages in creation order
func (r *PostgresRepository) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	msgs := []model.Message{}
	query := `
		SELECT id, conversation_id, content, role, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &msgs, query, conversationID); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

const appointmentColumns = `id, user_id, listing_id, scheduled_time, status, notes, created_at`

// CreateAppointment inserts an appointment and fills in its generated fields
func (r *PostgresRepository) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (user_id, listing_id, scheduled_time, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.db.QueryRowxContext(ctx, query, appt.UserID, appt.ListingID, appt.ScheduledTime, string(appt.Status), appt.Notes).
		Scan(&appt.ID, &appt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// GetAppointment retrieves an appointment by its ID
func (r *PostgresRepository) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	var appt model.Appointment
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = $1", appointmentColumns)
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

// ListAppointments returns the user's appointments ordered by scheduled time
func (r *PostgresRepository) ListAppointments(ctx context.Context, userID int64) ([]model.Appointment, error) {
	appts := []model.Appointment{}
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE user_id = $1 ORDER BY scheduled_time, id", appointmentColumns)
	if err := r.db.SelectContext(ctx, &appts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// UpdateAppointmentStatus sets the status of an appointment
func (r *PostgresRepository) UpdateAppointmentStatus(ctx context.Context, id int64, status model.AppointmentStatus) (*model.Appointment, error) {
	var appt model.Appointment
	query := fmt.Sprintf("UPDATE appointments SET status = $1 WHERE id = $2 RETURNING %s", appointmentColumns)
	if err := r.db.GetContext(ctx, &appt, query, string(status), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return &appt, nil
}

// CountActiveAppointments counts the user's appointments that are not cancelled
func (r *PostgresRepository) CountActiveAppointments(ctx context.Context, userID int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM appointments WHERE user_id = $1 AND status <> 'cancelled'`
	if err := r.db.GetContext(ctx, &n, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return n, nil
}

// escapeLike escapes ILIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
