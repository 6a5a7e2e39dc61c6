package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
)

// AdminChecker resolves whether a user may use admin routes.
type AdminChecker interface {
	RequireAdmin(ctx context.Context, userID uint64) (*models.User, error)
}

// RequireAdmin allows the request through only when the stored role of the
// authenticated user is admin. Must run after RequireAuth.
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if _, err := checker.RequireAdmin(c.Request.Context(), userID); err != nil {
			apierrors.RespondWithDomainError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}
