package handler

import (
	"net/http"
	"strconv"

	"flatmate/internal/model"
	"flatmate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AppointmentHandler handles viewing appointment HTTP requests
type AppointmentHandler struct {
	appointments *service.AppointmentService
	log          logrus.FieldLogger
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointments *service.AppointmentService, log logrus.FieldLogger) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, log: log}
}

// Create handles POST /api/v1/appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	appt, err := h.appointments.Create(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// List handles GET /api/v1/appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	appts, err := h.appointments.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// UpdateStatus handles PATCH /api/v1/appointments/:id/status
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID"})
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	appt, err := h.appointments.UpdateStatus(c.Request.Context(), currentUserID(c), id, req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}
