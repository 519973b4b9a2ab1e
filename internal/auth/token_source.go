package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CookieName is the httpOnly cookie carrying the session token.
const CookieName = "token"

// TokenFromRequest reads the session token from the cookie or the
// Authorization header (bearer). Returns "" when neither is present.
func TokenFromRequest(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(CookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := ctx.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	return ""
}
