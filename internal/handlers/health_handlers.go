package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "Workshop Logistics Request API"
	serviceVersion = "1.0.0"
)

// Health handles GET /health and GET /api/health.
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := "Connected"
	if err := h.DB.PingContext(ctx); err != nil {
		database = "Unavailable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.Config.Env,
		"uptime":      int64(time.Since(h.StartedAt).Seconds()),
		"database":    database,
	})
}

// Index handles GET / with a short endpoint listing.
func (h *Handlers) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   serviceName,
		"version":   serviceVersion,
		"endpoints": gin.H{
			"POST /api/register":             "Register admin user",
			"POST /api/login":                "Admin login",
			"POST /api/requests":             "Submit logistics request",
			"GET /api/requests":              "List requests (admin)",
			"GET /api/requests/export":       "Export requests to Excel (admin)",
			"GET /api/requests/:id":          "Get one request (admin)",
			"PATCH /api/requests/:id/status": "Update request status (admin)",
			"DELETE /api/requests/:id":       "Delete request (admin)",
			"GET /api/files/:filename":       "Download attachment (authenticated)",
			"GET /uploads/:filename?sig=":    "Download attachment via signed link",
		},
	})
}
