package controllers

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/models"
	"schoolhub/utils"
)

// UsersController manages staff accounts. Every route behind it is
// super-admin only.
type UsersController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	validate *validator.Validate
}

func NewUsersController(db *gorm.DB, cfg *config.Config) *UsersController {
	return &UsersController{DB: db, Cfg: cfg, validate: validator.New()}
}

type createUserInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" validate:"omitempty,oneof=admin super_admin"`
}

func (uc *UsersController) List(c *fiber.Ctx) error {
	var users []models.User
	if err := uc.DB.Order("created_at ASC").Find(&users).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		result = append(result, fiber.Map{
			"id":           u.ID,
			"email":        u.Email,
			"display_name": u.DisplayName,
			"role":         u.Role,
			"created_at":   u.CreatedAt,
		})
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func (uc *UsersController) Create(c *fiber.Ctx) error {
	var input createUserInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := uc.validate.Struct(input); err != nil {
		return utils.ValidationError(c, fieldErrors(err))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	role := input.Role
	if role == "" {
		role = models.RoleAdmin
	}
	user := models.User{
		Email:        input.Email,
		PasswordHash: string(hashed),
		DisplayName:  input.DisplayName,
		Role:         role,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		return utils.Conflict(c, "A user with this email already exists")
	}

	return utils.Created(c, fiber.Map{"id": user.ID, "email": user.Email, "role": user.Role})
}

func (uc *UsersController) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var input struct {
		DisplayName *string `json:"display_name"`
		Role        *string `json:"role"`
		Password    *string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.Role != nil {
		if *input.Role != models.RoleAdmin && *input.Role != models.RoleSuperAdmin {
			return utils.BadRequest(c, "Invalid role")
		}
		user.Role = *input.Role
	}
	if input.Password != nil && *input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hashed)
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"id": user.ID, "role": user.Role})
}

func (uc *UsersController) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	// Anti-lockout: a super admin cannot delete their own account.
	callerID, _ := c.Locals("userID").(uint)
	if uint(id) == callerID {
		return utils.BadRequest(c, "You cannot delete your own account")
	}

	res := uc.DB.Delete(&models.User{}, id)
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not delete user")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "User not found")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": id})
}

// fieldErrors flattens validator errors into field -> tag for the
// validation response envelope.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}
