package audit

import (
	"net/http"
	"strings"

	"file-manager/internal/utils"

	"github.com/gin-gonic/gin"
)

// Handler serves the admin audit log view.
type Handler struct {
	repository EntryRepository
}

func NewHandler(repository EntryRepository) *Handler {
	return &Handler{repository: repository}
}

func (h *Handler) ListLogs(c *gin.Context) {
	var types []string
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}

	page, pageSize := utils.GetPaginationParams(c)

	entries, total, err := h.repository.Query(c.Request.Context(), types, page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     entries,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}
