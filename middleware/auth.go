package middleware

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/models"
	"schoolhub/utils"
)

// AuthMiddleware verifies the bearer token and stashes the caller's
// user ID in locals for the handlers.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

// AdminMiddleware requires an admin or super_admin account. The role is
// read from the users table on every request so a demoted account loses
// access without waiting for its token to expire.
func AdminMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return requireRole(db, cfg, models.RoleAdmin, models.RoleSuperAdmin)
}

// SuperAdminMiddleware gates user management and session mutation.
func SuperAdminMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return requireRole(db, cfg, models.RoleSuperAdmin)
}

func requireRole(db *gorm.DB, cfg *config.Config, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		for _, role := range roles {
			if user.Role == role {
				c.Locals("userID", userID)
				c.Locals("role", user.Role)
				return c.Next()
			}
		}
		return utils.Forbidden(c, "Insufficient privileges")
	}
}
