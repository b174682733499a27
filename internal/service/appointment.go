package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flatmate/internal/model"
	"flatmate/internal/repository"
)

var (
	// ErrAppointmentNotFound is returned when an appointment is missing or owned by someone else
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrAppointmentInPast is returned when scheduling a viewing that has already happened
	ErrAppointmentInPast = errors.New("scheduled time must be in the future")
	// ErrAppointmentLimit is returned when a user has too many active appointments
	ErrAppointmentLimit = errors.New("too many active appointments")
	// ErrInvalidStatus is returned for unknown appointment statuses
	ErrInvalidStatus = errors.New("invalid appointment status")
)

// AppointmentService schedules property viewings
type AppointmentService struct {
	appointments repository.AppointmentStore
	listings     repository.ListingStore
	maxActive    int
	locks        *keyedMutex
	now          func() time.Time
}

// NewAppointmentService creates an appointment service. maxActive <= 0 means unlimited.
func NewAppointmentService(appointments repository.AppointmentStore, listings repository.ListingStore, maxActive int) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		listings:     listings,
		maxActive:    maxActive,
		locks:        newKeyedMutex(),
		now:          time.Now,
	}
}

// Create schedules a pending viewing of a listing for userID
func (s *AppointmentService) Create(ctx context.Context, userID int64, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if !req.ScheduledTime.After(s.now()) {
		return nil, ErrAppointmentInPast
	}

	if _, err := s.listings.GetListing(ctx, req.ListingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}

	// count and insert under one lock so concurrent requests cannot exceed the limit
	unlock := s.locks.Lock(userID)
	defer unlock()

	if s.maxActive > 0 {
		active, err := s.appointments.CountActiveAppointments(ctx, userID)
		if err != nil {
			return nil, err
		}
		if active >= s.maxActive {
			return nil, fmt.Errorf("%w: limit is %d", ErrAppointmentLimit, s.maxActive)
		}
	}

	appt := &model.Appointment{
		UserID:        userID,
		ListingID:     req.ListingID,
		ScheduledTime: req.ScheduledTime.UTC(),
		Status:        model.AppointmentPending,
		Notes:         req.Notes,
	}
	if err := s.appointments.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// List returns the user's appointments
func (s *AppointmentService) List(ctx context.Context, userID int64) ([]model.Appointment, error) {
	return s.appointments.ListAppointments(ctx, userID)
}

// UpdateStatus changes the status of one of the user's appointments
func (s *AppointmentService) UpdateStatus(ctx context.Context, userID, id int64, status model.AppointmentStatus) (*model.Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	appt, err := s.appointments.GetAppointment(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	if appt.UserID != userID {
		return nil, ErrAppointmentNotFound
	}

	if status == model.AppointmentPending || status == model.AppointmentConfirmed {
		unlock := s.locks.Lock(userID)
		defer unlock()
		// reviving a cancelled appointment counts against the limit again
		if appt.Status == model.AppointmentCancelled && s.maxActive > 0 {
			active, err := s.appointments.CountActiveAppointments(ctx, userID)
			if err != nil {
				return nil, err
			}
			if active >= s.maxActive {
				return nil, fmt.Errorf("%w: limit is %d", ErrAppointmentLimit, s.maxActive)
			}
		}
	}

	return s.appointments.UpdateAppointmentStatus(ctx, id, status)
}
