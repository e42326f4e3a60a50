package controllers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/mailer"
	"schoolhub/models"
	"schoolhub/session"
	"schoolhub/utils"
)

type NoticesController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Sessions *session.Service
	Mailer   mailer.Mailer
	validate *validator.Validate
}

func NewNoticesController(db *gorm.DB, cfg *config.Config, sessions *session.Service, m mailer.Mailer) *NoticesController {
	return &NoticesController{DB: db, Cfg: cfg, Sessions: sessions, Mailer: m, validate: validator.New()}
}

type noticeInput struct {
	Title      string `json:"title" validate:"required"`
	Content    string `json:"content" validate:"required"`
	TargetType string `json:"targetType" validate:"required,oneof=all class student"`
	ClassName  string `json:"className"`
	StudentID  uint   `json:"studentId"`
	Session    string `json:"session"`
	SendEmail  bool   `json:"sendEmail"`
}

// List returns notices visible to the requested audience: everything
// targeted at "all", plus the caller's class and student targets when
// className/studentId are supplied.
func (nc *NoticesController) List(c *fiber.Ctx) error {
	query := nc.DB.Model(&models.Notice{}).Preload("Student").
		Scopes(nc.Sessions.Scope(sessionParam(c)))

	className := c.Query("className")
	studentID := c.QueryInt("studentId")

	conditions := nc.DB.Where("target_type = ?", models.TargetAll)
	if className != "" {
		conditions = conditions.Or(
			nc.DB.Where("target_type = ? AND class_name = ?", models.TargetClass, className))
	}
	if studentID > 0 {
		conditions = conditions.Or(
			nc.DB.Where("target_type = ? AND student_id = ?", models.TargetStudent, studentID))
	}
	query = query.Where(conditions)

	var notices []models.Notice
	if err := query.Order("created_at DESC").
		Limit(limitParam(c, 100, 50)).Find(&notices).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, notices)
}

func (nc *NoticesController) Create(c *fiber.Ctx) error {
	var input noticeInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := nc.validate.Struct(input); err != nil {
		return utils.ValidationError(c, fieldErrors(err))
	}
	if input.TargetType == models.TargetClass && input.ClassName == "" {
		return utils.BadRequest(c, "className is required for class target")
	}
	if input.TargetType == models.TargetStudent && input.StudentID == 0 {
		return utils.BadRequest(c, "studentId is required for student target")
	}

	notice := models.Notice{
		Title:      input.Title,
		Content:    input.Content,
		TargetType: input.TargetType,
		ClassName:  input.ClassName,
	}
	if input.StudentID != 0 {
		id := input.StudentID
		notice.StudentID = &id
	}
	if input.Session != "" {
		s := input.Session
		notice.Session = &s
	}

	if err := nc.DB.Create(&notice).Error; err != nil {
		return utils.InternalServerError(c, "Could not create notice")
	}

	var emailInfo fiber.Map
	if input.SendEmail {
		recipients, err := nc.recipients(input)
		if err != nil {
			return utils.InternalServerError(c, "Could not collect recipients")
		}
		attempted, err := nc.Mailer.Send(mailer.Message{
			To:      recipients,
			Subject: input.Title,
			Body:    input.Content,
		})
		if err != nil {
			// The notice itself is saved; mail failure is reported, not
			// rolled back.
			emailInfo = fiber.Map{"attempted": attempted, "error": err.Error()}
		} else {
			emailInfo = fiber.Map{"attempted": attempted}
		}
	}

	return utils.Created(c, fiber.Map{"id": notice.ID, "emailInfo": emailInfo})
}

func (nc *NoticesController) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid notice ID")
	}

	res := nc.DB.Delete(&models.Notice{}, id)
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not delete notice")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Notice not found")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": id})
}

func (nc *NoticesController) recipients(input noticeInput) ([]string, error) {
	var emails []string
	query := nc.DB.Model(&models.Student{}).Where("email <> ''")

	switch input.TargetType {
	case models.TargetClass:
		query = query.Where("admission_for = ?", input.ClassName)
	case models.TargetStudent:
		query = query.Where("id = ?", input.StudentID)
	}

	if err := query.Pluck("email", &emails).Error; err != nil {
		return nil, err
	}
	return emails, nil
}
