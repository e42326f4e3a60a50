package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/models"
	"schoolhub/utils"
)

// SettingsController serves the school-settings singleton: card dates,
// per-class fees, and contact details. Reads feed the public site and
// student ID cards; writes are staff only.
type SettingsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewSettingsController(db *gorm.DB, cfg *config.Config) *SettingsController {
	return &SettingsController{DB: db, Cfg: cfg}
}

func (sc *SettingsController) Get(c *fiber.Ctx) error {
	var settings models.SchoolSettings
	if err := sc.DB.First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Success(c, fiber.StatusOK, nil)
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, settings)
}

// Update patches only the fields present in the request body, creating
// the singleton row on first write.
func (sc *SettingsController) Update(c *fiber.Ctx) error {
	var input struct {
		CardIssueDate  *string              `json:"cardIssueDate"`
		CardExpiryDate *string              `json:"cardExpiryDate"`
		ClassFees      []models.ClassFee    `json:"classFees"`
		SchoolAddress  *string              `json:"schoolAddress"`
		PhoneNumber    *string              `json:"phoneNumber"`
		Email          *string              `json:"email"`
		OfficeHours    []models.OfficeHours `json:"officeHours"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	patch := map[string]interface{}{}
	if input.CardIssueDate != nil {
		patch["card_issue_date"] = *input.CardIssueDate
	}
	if input.CardExpiryDate != nil {
		patch["card_expiry_date"] = *input.CardExpiryDate
	}
	if input.ClassFees != nil {
		patch["class_fees"] = datatypes.JSONSlice[models.ClassFee](input.ClassFees)
	}
	if input.SchoolAddress != nil {
		patch["school_address"] = *input.SchoolAddress
	}
	if input.PhoneNumber != nil {
		patch["phone_number"] = *input.PhoneNumber
	}
	if input.Email != nil {
		patch["email"] = *input.Email
	}
	if input.OfficeHours != nil {
		patch["office_hours"] = datatypes.JSONSlice[models.OfficeHours](input.OfficeHours)
	}
	if len(patch) == 0 {
		return utils.BadRequest(c, "No recognized settings fields in request")
	}

	var settings models.SchoolSettings
	err := sc.DB.First(&settings).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		settings = models.SchoolSettings{
			ClassFees:   datatypes.JSONSlice[models.ClassFee](input.ClassFees),
			OfficeHours: datatypes.JSONSlice[models.OfficeHours](input.OfficeHours),
		}
		if input.CardIssueDate != nil {
			settings.CardIssueDate = *input.CardIssueDate
		}
		if input.CardExpiryDate != nil {
			settings.CardExpiryDate = *input.CardExpiryDate
		}
		if input.SchoolAddress != nil {
			settings.SchoolAddress = *input.SchoolAddress
		}
		if input.PhoneNumber != nil {
			settings.PhoneNumber = *input.PhoneNumber
		}
		if input.Email != nil {
			settings.Email = *input.Email
		}
		if err := sc.DB.Create(&settings).Error; err != nil {
			return utils.InternalServerError(c, "Could not save settings")
		}
		return utils.Created(c, fiber.Map{"action": "created", "id": settings.ID})
	case err != nil:
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := sc.DB.Model(&settings).Updates(patch).Error; err != nil {
		return utils.InternalServerError(c, "Could not save settings")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"action": "updated", "id": settings.ID})
}
