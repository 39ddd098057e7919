package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/01moynul/workshop-logistics/internal/storage"
	"github.com/gin-gonic/gin"
)

// ServeFile handles GET /api/files/:filename for authenticated callers.
func (h *Handlers) ServeFile(c *gin.Context) {
	h.sendStoredFile(c, c.Param("filename"))
}

// ServeSignedUpload handles GET /uploads/:filename. The link must carry a
// "sig" token issued for exactly this file, as embedded in the export.
func (h *Handlers) ServeSignedUpload(c *gin.Context) {
	filename := c.Param("filename")
	sig := c.Query("sig")
	if sig == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Signed link required"})
		return
	}
	if err := h.Tokens.ValidateFileLink(sig, filename); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired link"})
		return
	}
	h.sendStoredFile(c, filename)
}

func (h *Handlers) sendStoredFile(c *gin.Context, filename string) {
	path, err := h.Files.Path(filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		respondError(c, err, "Failed to read file")
		return
	}
	c.File(path)
}

// signedFileURL builds the absolute, time-limited download URL for a stored file.
func (h *Handlers) signedFileURL(filename string) (string, error) {
	sig, err := h.Tokens.SignFileLink(filename)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/uploads/%s?sig=%s", h.Config.PublicBaseURL, url.PathEscape(filename), url.QueryEscape(sig)), nil
}
