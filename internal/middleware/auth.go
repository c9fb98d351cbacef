package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/pkg/jwt"
	"github.com/dealdesk/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const userIDKey = "user_id"

var (
	errNoToken     = errors.New("bearer token required")
	errUnknownUser = errors.New("token names an unknown user")
)

// Auth requires a valid bearer JWT naming a user that still exists. The user
// id becomes the actor recorded by every mutation.
func Auth(db *gorm.DB, signer *jwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := authenticate(c.Request.Context(), db, signer, c.GetHeader("Authorization"))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func authenticate(ctx context.Context, db *gorm.DB, signer *jwt.Signer, header string) (string, error) {
	raw := bearerToken(header)
	if raw == "" {
		return "", errNoToken
	}
	claims, err := signer.Parse(raw)
	if err != nil {
		return "", err
	}
	var user models.UserModel
	err = db.WithContext(ctx).Select("id").Where("id = ?", claims.UserID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errUnknownUser
	}
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// CurrentUserID is the authenticated actor, or "" on public routes.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// bearerToken accepts "Bearer <jwt>" in any case, or a bare token.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
