package handler

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"flatmate/internal/auth"
	"flatmate/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ctxRequestID = "requestId"
	ctxUserID    = "userId"
)

// RequestIDMiddleware attaches a unique id to each request and echoes it in X-Request-Id
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Writer.Header().Set("X-Request-Id", id)
		c.Set(ctxRequestID, id)
		c.Next()
	}
}

// LogMiddleware logs one line per request
func LogMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": c.GetString(ctxRequestID),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
		})
		if userID, ok := c.Get(ctxUserID); ok {
			entry = entry.WithField("user_id", userID)
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}

// AuthMiddleware requires a valid bearer token and stores the caller's user id
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		userID, err := auth.ValidateToken(strings.TrimSpace(header[7:]), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ctxUserID, userID)
		c.Next()
	}
}

// currentUserID returns the id stored by AuthMiddleware
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request models
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("appointment_status", func(fl validator.FieldLevel) bool {
				return model.AppointmentStatus(fl.Field().String()).Valid()
			})
		}
	})
}
