package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/01moynul/workshop-logistics/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationError is a missing or malformed input field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ParseError means the items payload was not a JSON array of objects.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "items must be a JSON array: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

func validationf(msg string) error {
	return &ValidationError{Message: msg}
}

// bindingMessage turns gin binding failures into a short client message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	var missing []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, lowerFirst(fe.Field()))
		case "email":
			return "Invalid email address"
		case "min":
			return fmt.Sprintf("%s must be at least %s characters", lowerFirst(fe.Field()), fe.Param())
		default:
			return fmt.Sprintf("Invalid value for %s", lowerFirst(fe.Field()))
		}
	}
	return "Missing required fields: " + strings.Join(missing, ", ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// respondError maps an error to its status code. Unknown errors are logged
// and reported as a generic 500.
func respondError(c *gin.Context, err error, fallback string) {
	var vErr *ValidationError
	var pErr *ParseError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
	case errors.As(err, &pErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": pErr.Error()})
	case errors.Is(err, storage.ErrFileTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
	default:
		log.Printf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
