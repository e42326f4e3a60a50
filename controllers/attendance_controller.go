package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/models"
	"schoolhub/session"
	"schoolhub/utils"
)

type AttendanceController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Sessions *session.Service
	validate *validator.Validate
}

func NewAttendanceController(db *gorm.DB, cfg *config.Config, sessions *session.Service) *AttendanceController {
	return &AttendanceController{DB: db, Cfg: cfg, Sessions: sessions, validate: validator.New()}
}

type attendanceInput struct {
	Date      string `json:"date" validate:"required"`
	StudentID uint   `json:"studentId" validate:"required"`
	Status    string `json:"status" validate:"omitempty,oneof=present leave"`
	Session   string `json:"session"`
}

// ListByDate returns the day's marks plus, when a class filter is given,
// the students of that class with no mark, reported as absent.
func (ac *AttendanceController) ListByDate(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		return utils.BadRequest(c, "date is required")
	}

	query := ac.DB.Model(&models.Attendance{}).
		Scopes(ac.Sessions.Scope(sessionParam(c))).
		Where("date = ?", date)
	if className := c.Query("className"); className != "" {
		query = query.Where("class_name = ?", className)
	}

	var records []models.Attendance
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := fiber.Map{"records": records}

	if className := c.Query("className"); className != "" {
		marked := make(map[uint]bool, len(records))
		for _, r := range records {
			marked[r.StudentID] = true
		}

		var students []models.Student
		if err := ac.DB.Scopes(ac.Sessions.Scope(sessionParam(c))).
			Where("admission_for = ?", className).
			Find(&students).Error; err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}

		absent := make([]fiber.Map, 0)
		for _, st := range students {
			if marked[st.ID] {
				continue
			}
			absent = append(absent, fiber.Map{
				"studentId":   st.ID,
				"studentName": st.FullName,
				"className":   st.AdmissionFor,
				"rollNumber":  st.RollNumber,
				"grNumber":    st.GRNumber,
			})
		}
		result["absent"] = absent
	}

	return utils.Success(c, fiber.StatusOK, result)
}

// Mark upserts one student's mark for one day; re-marking flips the
// status instead of adding a second record.
func (ac *AttendanceController) Mark(c *fiber.Ctx) error {
	var input attendanceInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := ac.validate.Struct(input); err != nil {
		return utils.ValidationError(c, fieldErrors(err))
	}

	status := input.Status
	if status == "" {
		status = models.AttendancePresent
	}

	var student models.Student
	if err := ac.DB.First(&student, input.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Student not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var existing models.Attendance
	err := ac.DB.Where("date = ? AND student_id = ?", input.Date, input.StudentID).
		First(&existing).Error
	switch {
	case err == nil:
		if err := ac.DB.Model(&existing).Update("status", status).Error; err != nil {
			return utils.InternalServerError(c, "Could not update attendance")
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"action": "updated", "id": existing.ID})
	case errors.Is(err, gorm.ErrRecordNotFound):
		record := models.Attendance{
			Date:        input.Date,
			StudentID:   input.StudentID,
			Status:      status,
			StudentName: student.FullName,
			ClassName:   student.AdmissionFor,
			RollNumber:  student.RollNumber,
			GRNumber:    student.GRNumber,
			Session:     student.Session,
		}
		if input.Session != "" {
			s := input.Session
			record.Session = &s
		}
		if err := ac.DB.Create(&record).Error; err != nil {
			return utils.InternalServerError(c, "Could not save attendance")
		}
		return utils.Created(c, fiber.Map{"action": "created", "id": record.ID})
	default:
		return utils.InternalServerError(c, "Could not query database")
	}
}
