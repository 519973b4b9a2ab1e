package revision

import (
	"net/http"

	"file-manager/internal/errors"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetText(c *gin.Context) {
	content, err := h.service.CurrentContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": content})
}

type SaveTextRequest struct {
	Content string `json:"content"`
}

func (h *Handler) SaveText(c *gin.Context) {
	var form SaveTextRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	authorID, _ := c.Get("user_id")

	id, err := h.service.Append(c.Request.Context(), c.Param("id"), authorID.(string), form.Content)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": id})
}

// ListRecent serves the admin view of the latest revisions.
func (h *Handler) ListRecent(c *gin.Context) {
	revisions, err := h.service.RecentRevisions(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, revisions)
}
