package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/01moynul/workshop-logistics/internal/export"
	"github.com/01moynul/workshop-logistics/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	// maxUploadsPerRequest bounds the request body together with the
	// per-file limit.
	maxUploadsPerRequest = 20
	formOverheadBytes    = 1 << 20
)

// SubmitRequest handles POST /api/requests (public, multipart).
//
// Order of work: validate the form, items and attachments; write the files;
// then create the user, request and items in one transaction. Files written
// before a failed transaction stay on disk unreferenced.
func (h *Handlers) SubmitRequest(c *gin.Context) {
	bodyLimit := h.Files.MaxSize()*maxUploadsPerRequest + formOverheadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	var form SubmitRequestForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	name := strings.TrimSpace(form.Name)
	email := normalizeEmail(form.Email)
	teamName := strings.TrimSpace(form.TeamName)
	if name == "" || email == "" || teamName == "" || strings.TrimSpace(form.Items) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: name, email, teamName, or items"})
		return
	}

	items, tokens, err := parseItems(form.Items)
	if err != nil {
		respondError(c, err, "Failed to create request")
		return
	}

	var mf *multipart.Form
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if mf, err = c.MultipartForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
			return
		}
	}
	uploads, err := matchAttachments(tokens, mf)
	if err != nil {
		respondError(c, err, "Failed to create request")
		return
	}

	// Every file is checked before the first one is written.
	for _, fh := range uploads {
		if fh == nil {
			continue
		}
		if err := h.Files.CheckSize(fh); err != nil {
			respondError(c, err, "Failed to create request")
			return
		}
	}
	for i, fh := range uploads {
		if fh == nil {
			continue
		}
		stored, err := h.Files.Store(fh)
		if err != nil {
			logOrphans(items, "failed upload")
			respondError(c, err, "Failed to store attachment")
			return
		}
		items[i].SampleFile = &stored
	}

	request, err := h.createRequest(c.Request.Context(), email, name, teamName, items)
	if err != nil {
		logOrphans(items, "failed submission")
		respondError(c, err, "Failed to create request")
		return
	}

	log.Printf("Request %d created for %s with %d items", request.ID, email, len(request.Items))
	c.JSON(http.StatusOK, request)
}

// logOrphans reports files already written for a submission that was not
// saved.
func logOrphans(items []models.Item, reason string) {
	for _, item := range items {
		if item.SampleFile != nil {
			log.Printf("orphaned upload after %s: %s", reason, *item.SampleFile)
		}
	}
}

// createRequest persists the user (if new), the request and all items
// atomically.
func (h *Handlers) createRequest(ctx context.Context, email, name, teamName string, items []models.Item) (*models.Request, error) {
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	user, err := resolveUser(ctx, tx, email, name, teamName)
	if err != nil {
		return nil, err
	}

	request := &models.Request{
		UserID:    user.ID,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		User:      user,
		Items:     make([]models.Item, 0, len(items)),
	}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO requests (user_id, status, created_at) VALUES (?, ?, ?)`,
		request.UserID, request.Status, request.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}
	if request.ID, err = result.LastInsertId(); err != nil {
		return nil, err
	}

	itemQuery := `INSERT INTO items (request_id, name, description, quantity, price, source, sample_file)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, item := range items {
		item.RequestID = request.ID
		result, err := tx.ExecContext(ctx, itemQuery,
			item.RequestID, item.Name, item.Description, item.Quantity, item.Price, item.Source, item.SampleFile)
		if err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
		if item.ID, err = result.LastInsertId(); err != nil {
			return nil, err
		}
		request.Items = append(request.Items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return request, nil
}

// GetAllRequests handles GET /api/requests (admin).
func (h *Handlers) GetAllRequests(c *gin.Context) {
	requests, err := loadRequests(c.Request.Context(), h.DB, 0)
	if err != nil {
		respondError(c, err, "Failed to fetch requests")
		return
	}
	c.JSON(http.StatusOK, requests)
}

// GetRequest handles GET /api/requests/:id (admin).
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	requests, err := loadRequests(c.Request.Context(), h.DB, id)
	if err != nil {
		respondError(c, err, "Failed to fetch request")
		return
	}
	if len(requests) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}
	c.JSON(http.StatusOK, requests[0])
}

type UpdateStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdateRequestStatus handles PATCH /api/requests/:id/status (admin).
func (h *Handlers) UpdateRequestStatus(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	status := strings.ToUpper(strings.TrimSpace(input.Status))
	if !models.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + input.Status})
		return
	}

	result, err := h.DB.ExecContext(c.Request.Context(), `UPDATE requests SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		respondError(c, err, "Failed to update request")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged.
		var exists int
		err := h.DB.QueryRowContext(c.Request.Context(), `SELECT 1 FROM requests WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

// DeleteRequest handles DELETE /api/requests/:id (admin). Items go with it;
// stored files are kept.
func (h *Handlers) DeleteRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	result, err := h.DB.ExecContext(c.Request.Context(), `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		respondError(c, err, "Failed to delete request")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportRequests handles GET /api/requests/export (admin). It renders the
// same data as GetAllRequests.
func (h *Handlers) ExportRequests(c *gin.Context) {
	requests, err := loadRequests(c.Request.Context(), h.DB, 0)
	if err != nil {
		respondError(c, err, "Failed to export requests")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, requests, h.signedFileURL); err != nil {
		respondError(c, err, "Failed to export requests")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// loadRequests returns requests with their user and items, newest first.
// id == 0 loads every request.
func loadRequests(ctx context.Context, q Querier, id int64) ([]models.Request, error) {
	requests, err := queryRequests(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return requests, nil
	}

	items, err := queryItems(ctx, q, id)
	if err != nil {
		return nil, err
	}

	index := make(map[int64]int, len(requests))
	for i := range requests {
		index[requests[i].ID] = i
	}
	for _, item := range items {
		if i, ok := index[item.RequestID]; ok {
			requests[i].Items = append(requests[i].Items, item)
		}
	}
	return requests, nil
}

func queryRequests(ctx context.Context, q Querier, id int64) ([]models.Request, error) {
	query := `SELECT r.id, r.user_id, r.status, r.created_at,
			u.id, u.email, u.name, u.team_name, u.role, u.created_at
		FROM requests r
		JOIN users u ON u.id = r.user_id`
	var args []any
	if id != 0 {
		query += ` WHERE r.id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	requests := []models.Request{}
	for rows.Next() {
		r := models.Request{User: &models.User{}, Items: []models.Item{}}
		if err := rows.Scan(&r.ID, &r.UserID, &r.Status, &r.CreatedAt,
			&r.User.ID, &r.User.Email, &r.User.Name, &r.User.TeamName, &r.User.Role, &r.User.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func queryItems(ctx context.Context, q Querier, requestID int64) ([]models.Item, error) {
	query := `SELECT id, request_id, name, description, quantity, price, source, sample_file FROM items`
	var args []any
	if requestID != 0 {
		query += ` WHERE request_id = ?`
		args = append(args, requestID)
	}
	query += ` ORDER BY request_id, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.RequestID, &it.Name, &it.Description,
			&it.Quantity, &it.Price, &it.Source, &it.SampleFile); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func requestIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return 0, false
	}
	return id, true
}
