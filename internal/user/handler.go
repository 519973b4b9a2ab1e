package user

import (
	"net/http"

	"file-manager/internal/audit"
	"file-manager/internal/auth"
	"file-manager/internal/config"
	"file-manager/internal/errors"

	"github.com/gin-gonic/gin"
)

type AuditRecorder interface {
	Record(ev audit.Event)
}

// Handler handles HTTP requests for authentication
type Handler struct {
	service  Service
	recorder AuditRecorder
}

// NewHandler creates a new user handler
func NewHandler(service Service, recorder AuditRecorder) *Handler {
	return &Handler{service: service, recorder: recorder}
}

// FormLogin represents login form data
type FormLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	u, err := h.service.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	token, err := auth.GenerateToken(u.ID, u.Role)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	c.SetCookie(
		auth.CookieName,
		token,
		int(auth.SessionTTL.Seconds()),
		"/",
		"",
		config.AppConfig.Environment == "production", // Secure
		true, // HttpOnly
	)

	h.recorder.Record(audit.Event{
		Type:       "auth.login",
		ActorID:    u.ID,
		TargetID:   u.ID,
		TargetType: "user",
		TargetName: u.Email,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the current session's user, or null when there is no valid
// session. Never an error: the client uses this to probe login state.
func (h *Handler) Me(c *gin.Context) {
	token := auth.TokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusOK, nil)
		return
	}

	parsedToken, err := auth.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	userID, _, err := auth.GetDataFromToken(parsedToken)
	if err != nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	u, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, u.ToSafeUser())
}

// Logout clears the session cookie
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", config.AppConfig.Environment == "production", true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
