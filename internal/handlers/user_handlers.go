package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/workshop-logistics/internal/models"
	"github.com/gin-gonic/gin"
)

// --- Admin Registration & Login ---

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	TeamName string `json:"teamName"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /api/register. Every registered account is an ADMIN;
// requesters never register, they are created by the submission form.
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	ctx := c.Request.Context()
	email := normalizeEmail(input.Email)

	if _, err := findUserByEmail(ctx, h.DB, email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		respondError(c, err, "Failed to register user")
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := &models.User{
		Email:        email,
		PasswordHash: password.Hash,
		Name:         strings.TrimSpace(input.Name),
		TeamName:     strings.TrimSpace(input.TeamName),
		Role:         models.RoleAdmin,
	}
	if err := insertUser(ctx, h.DB, user); err != nil {
		respondError(c, err, "Failed to register user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email})
}

// Login handles POST /api/login.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}

	user, err := findUserByEmail(c.Request.Context(), h.DB, normalizeEmail(input.Email))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil || !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// EnsureAdmin creates the bootstrap administrator, or resets its password to
// the configured one if the account already exists. An existing requester
// with the admin email is promoted.
func (h *Handlers) EnsureAdmin(ctx context.Context) error {
	cfg := h.Config.Admin
	if cfg.Password == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}
	email := normalizeEmail(cfg.Email)

	var password models.Password
	if err := password.Set(cfg.Password); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	existing, err := findUserByEmail(ctx, h.DB, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		admin := &models.User{
			Email:        email,
			PasswordHash: password.Hash,
			Name:         cfg.Name,
			TeamName:     "Administration",
			Role:         models.RoleAdmin,
		}
		if err := insertUser(ctx, h.DB, admin); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		log.Printf("Admin user created: %s", email)
	case err != nil:
		return fmt.Errorf("look up admin: %w", err)
	default:
		_, err := h.DB.ExecContext(ctx, `UPDATE users SET password = ?, role = ? WHERE id = ?`,
			password.Hash, models.RoleAdmin, existing.ID)
		if err != nil {
			return fmt.Errorf("update admin password: %w", err)
		}
		if !existing.IsAdmin() {
			log.Printf("Existing user promoted to admin: %s", email)
		}
		log.Printf("Admin user already exists, password synced: %s", email)
	}
	return nil
}

// resolveUser returns the user owning email, creating a USER with an empty
// password when none exists. Existing users are never modified.
func resolveUser(ctx context.Context, q Querier, email, name, teamName string) (*models.User, error) {
	user, err := findUserByEmail(ctx, q, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	user = &models.User{
		Email:    email,
		Name:     name,
		TeamName: teamName,
		Role:     models.RoleUser,
	}
	if err := insertUser(ctx, q, user); err != nil {
		return nil, err
	}
	return user, nil
}

func findUserByEmail(ctx context.Context, q Querier, email string) (*models.User, error) {
	var u models.User
	err := q.QueryRowContext(ctx,
		`SELECT id, email, password, name, team_name, role, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.TeamName, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func insertUser(ctx context.Context, q Querier, u *models.User) error {
	u.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := q.ExecContext(ctx,
		`INSERT INTO users (email, password, name, team_name, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.Name, u.TeamName, u.Role, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = result.LastInsertId()
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
