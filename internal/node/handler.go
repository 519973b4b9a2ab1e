package node

import (
	"net/http"

	"file-manager/internal/errors"
	"file-manager/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func currentUserID(c *gin.Context) string {
	id, _ := c.Get("user_id")
	userID, _ := id.(string)
	return userID
}

// parentFilter parses the parentId query param. Absent means no parent filter;
// an empty or "null" value means root-level only.
func parentFilter(c *gin.Context) (*string, bool) {
	raw, set := c.GetQuery("parentId")
	if !set {
		return nil, false
	}
	if raw == "" || raw == "null" {
		return nil, true
	}
	return &raw, true
}

func (h *Handler) List(c *gin.Context) {
	parentID, parentSet := parentFilter(c)
	page, pageSize := utils.GetPaginationParams(c)

	result, err := h.service.List(c.Request.Context(), currentUserID(c), ListOptions{
		ParentID:   parentID,
		ParentSet:  parentSet,
		NameQuery:  c.Query("q"),
		TypeFilter: c.Query("type"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Get(c *gin.Context) {
	n, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, n)
}

type CreateFolderRequest struct {
	Name     string  `json:"name" binding:"required,min=1,max=255"`
	ParentID *string `json:"parentId"`
}

func (h *Handler) CreateFolder(c *gin.Context) {
	var form CreateFolderRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	folder, err := h.service.CreateFolder(c.Request.Context(), currentUserID(c), form.Name, form.ParentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, folder)
}

func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.BadRequest("Missing file field", err))
		return
	}

	var parentID *string
	if raw, set := c.GetPostForm("parentId"); set && raw != "" && raw != "null" {
		parentID = &raw
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.Error(errors.BadRequest("Can't read uploaded file", err))
		return
	}
	defer src.Close()

	n, err := h.service.Upload(
		c.Request.Context(),
		currentUserID(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		src,
		parentID,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, n)
}

type MoveRequest struct {
	ParentID *string `json:"parentId"`
}

func (h *Handler) Move(c *gin.Context) {
	var form MoveRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	moved, err := h.service.Move(c.Request.Context(), currentUserID(c), c.Param("id"), form.ParentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, moved)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) GetContent(c *gin.Context) {
	path, mimeType, err := h.service.ResolveContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Type", mimeType)
	c.File(path)
}
