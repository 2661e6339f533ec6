package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"storefront/internal/db"
)

// HealthHandler reports database reachability.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(gormDB *gorm.DB) *HealthHandler {
	return &HealthHandler{db: gormDB}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Check answers 200 when the database responds and 503 otherwise.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := db.Ping(ctx, h.db); err != nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "down"})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Database: "up"})
}
