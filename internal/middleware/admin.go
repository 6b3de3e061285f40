package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/scdri/backend/internal/authctx"
	"github.com/scdri/backend/internal/dto"
	"github.com/scdri/backend/internal/models"
	"github.com/scdri/backend/internal/services"
	"gorm.io/gorm"
)

// AdminRequired checks the caller's role in the database rather than trusting
// the token, so a demoted or banned admin loses access immediately.
func AdminRequired(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := authctx.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).Select("id", "role", "is_banned").First(&user, "id = ?", userID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if !user.IsAdmin() || user.IsBanned {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}

		authctx.SetActor(c, services.Actor{ID: user.ID, Role: user.Role})
		return c.Next()
	}
}
