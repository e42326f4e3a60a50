package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/models"
	"schoolhub/session"
	"schoolhub/utils"
)

type FeesController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Sessions *session.Service
	validate *validator.Validate
}

func NewFeesController(db *gorm.DB, cfg *config.Config, sessions *session.Service) *FeesController {
	return &FeesController{DB: db, Cfg: cfg, Sessions: sessions, validate: validator.New()}
}

type feeInput struct {
	StudentID     uint    `json:"studentId" validate:"required"`
	ClassName     string  `json:"className"`
	Month         string  `json:"month" validate:"required"`
	Year          int     `json:"year" validate:"required"`
	AmountPaid    float64 `json:"amountPaid"`
	PaidDate      string  `json:"paidDate"`
	ReceiptNumber string  `json:"receiptNumber"`
	BookNumber    string  `json:"bookNumber"`
	FeeType       string  `json:"feeType" validate:"omitempty,oneof=monthly admission"`
	Notes         string  `json:"notes"`
	Session       string  `json:"session"`
}

func (fc *FeesController) List(c *fiber.Ctx) error {
	query := fc.DB.Model(&models.Fee{}).Preload("Student").
		Scopes(fc.Sessions.Scope(sessionParam(c)))

	if studentID := c.QueryInt("studentId"); studentID > 0 {
		query = query.Where("student_id = ?", studentID)
	}
	if className := c.Query("className"); className != "" {
		query = query.Where("class_name = ?", className)
	}
	if month := c.Query("month"); month != "" {
		query = query.Where("month = ?", month)
	}
	if year := c.QueryInt("year"); year > 0 {
		query = query.Where("year = ?", year)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if q := c.Query("q"); q != "" {
		like := q + "%"
		query = query.Where(
			"receipt_number LIKE ? OR book_number LIKE ? OR notes LIKE ?",
			like, like, like,
		)
	}

	var fees []models.Fee
	if err := query.Order("year DESC, month DESC").
		Limit(limitParam(c, 100, 50)).Find(&fees).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, fees)
}

// Upsert records a payment. Admission fees are unique per student;
// monthly fees are unique per (student, month, year). An existing record
// is overwritten rather than duplicated.
func (fc *FeesController) Upsert(c *fiber.Ctx) error {
	var input feeInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := fc.validate.Struct(input); err != nil {
		return utils.ValidationError(c, fieldErrors(err))
	}
	if !models.ValidFeeMonth(input.Month) {
		return utils.BadRequest(c, "Invalid month value")
	}

	feeType := input.FeeType
	if input.Month == "admission" {
		feeType = models.FeeTypeAdmission
	} else if feeType == "" {
		feeType = models.FeeTypeMonthly
	}

	paidDate := input.PaidDate
	if paidDate == "" {
		paidDate = time.Now().Format("2006-01-02")
	}

	fee := models.Fee{
		StudentID:     input.StudentID,
		ClassName:     input.ClassName,
		Month:         input.Month,
		Year:          input.Year,
		Status:        models.FeeStatusPaid,
		FeeType:       feeType,
		AmountPaid:    input.AmountPaid,
		PaidDate:      paidDate,
		ReceiptNumber: input.ReceiptNumber,
		BookNumber:    input.BookNumber,
		Notes:         input.Notes,
	}
	if input.Session != "" {
		s := input.Session
		fee.Session = &s
	}

	var existing models.Fee
	var err error
	if feeType == models.FeeTypeAdmission {
		err = fc.DB.Where("student_id = ? AND fee_type = ?", input.StudentID, models.FeeTypeAdmission).
			First(&existing).Error
	} else {
		err = fc.DB.Where("student_id = ? AND month = ? AND year = ?", input.StudentID, input.Month, input.Year).
			First(&existing).Error
	}

	switch {
	case err == nil:
		fee.Model = existing.Model
		if err := fc.DB.Save(&fee).Error; err != nil {
			return utils.InternalServerError(c, "Could not update fee")
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"action": "updated", "id": fee.ID})
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := fc.DB.Create(&fee).Error; err != nil {
			return utils.InternalServerError(c, "Could not create fee")
		}
		return utils.Created(c, fiber.Map{"action": "created", "id": fee.ID})
	default:
		return utils.InternalServerError(c, "Could not query database")
	}
}

func (fc *FeesController) Patch(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid fee ID")
	}

	var patch map[string]interface{}
	if err := c.BodyParser(&patch); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var fee models.Fee
	if err := fc.DB.First(&fee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Fee not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	updates := map[string]interface{}{}
	for key, column := range feePatchColumns {
		if v, ok := patch[key]; ok {
			updates[column] = v
		}
	}
	// Marking paid without a date stamps today, even over a prior date.
	if status, ok := updates["status"].(string); ok && status == models.FeeStatusPaid {
		if _, hasDate := updates["paid_date"]; !hasDate {
			updates["paid_date"] = time.Now().Format("2006-01-02")
		}
	}
	if len(updates) == 0 {
		return utils.BadRequest(c, "No recognized fields in patch")
	}

	if err := fc.DB.Model(&fee).Updates(updates).Error; err != nil {
		return utils.InternalServerError(c, "Could not update fee")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"id": fee.ID})
}

func (fc *FeesController) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid fee ID")
	}

	res := fc.DB.Delete(&models.Fee{}, id)
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not delete fee")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Fee not found")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": id})
}

var feePatchColumns = map[string]string{
	"className":     "class_name",
	"month":         "month",
	"year":          "year",
	"status":        "status",
	"feeType":       "fee_type",
	"amountPaid":    "amount_paid",
	"paidDate":      "paid_date",
	"receiptNumber": "receipt_number",
	"bookNumber":    "book_number",
	"notes":         "notes",
	"session":       "session",
}
