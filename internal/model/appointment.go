package model

import "time"

// AppointmentStatus is the lifecycle state of a viewing
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled:
		return true
	}
	return false
}

// Appointment is a scheduled viewing of a listing
type Appointment struct {
	ID            int64             `json:"id" db:"id"`
	UserID        int64             `json:"userId" db:"user_id"`
	ListingID     int64             `json:"listingId" db:"listing_id"`
	ScheduledTime time.Time         `json:"scheduledTime" db:"scheduled_time"`
	Status        AppointmentStatus `json:"status" db:"status"`
	Notes         *string           `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time         `json:"createdAt" db:"created_at"`
}

// CreateAppointmentRequest is the payload for scheduling a viewing
type CreateAppointmentRequest struct {
	ListingID     int64     `json:"listingId" binding:"required,gt=0"`
	ScheduledTime time.Time `json:"scheduledTime" binding:"required"`
	Notes         *string   `json:"notes,omitempty" binding:"omitempty,max=1000"`
}

// UpdateAppointmentStatusRequest is the payload for changing a viewing status
type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,appointment_status"`
}

// LeaseAnalysisRequest is the payload for lease analysis
type LeaseAnalysisRequest struct {
	Text string `json:"text" binding:"required"`
}
