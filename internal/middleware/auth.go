package middleware

import (
	"context"

	"file-manager/internal/auth"
	"file-manager/internal/errors"
	"file-manager/internal/user"

	"github.com/gin-gonic/gin"
)

type UserProvider interface {
	GetUserByID(ctx context.Context, id string) (*user.User, error)
}

type Auth struct {
	UserService UserProvider
}

func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := auth.TokenFromRequest(ctx)
		if token == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		parsedToken, err := auth.VerifyToken(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		userID, _, err := auth.GetDataFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		// Re-read the user so role changes take effect immediately,
		// not at token renewal.
		u, err := m.UserService.GetUserByID(ctx.Request.Context(), userID)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid user!", err))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", u.ID)
		ctx.Set("user_email", u.Email)
		ctx.Set("user_role", u.Role)
		ctx.Next()
	}
}

// RequireRole guards a route group behind a role. Must run after AuthMiddleWare.
func RequireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		current, exists := ctx.Get("user_role")
		if !exists {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		if current.(string) != role {
			ctx.Error(errors.Forbidden("Insufficient role!", nil))
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
