package controllers

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/models"
	"schoolhub/session"
	"schoolhub/utils"
)

type ExamResultsController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Sessions *session.Service
	validate *validator.Validate
}

func NewExamResultsController(db *gorm.DB, cfg *config.Config, sessions *session.Service) *ExamResultsController {
	return &ExamResultsController{DB: db, Cfg: cfg, Sessions: sessions, validate: validator.New()}
}

type examEntryInput struct {
	StudentID          uint     `json:"studentId" validate:"required"`
	ClassName          string   `json:"className" validate:"required"`
	ExamTitle          string   `json:"examTitle" validate:"required"`
	Subjects           []string `json:"subjects" validate:"required,min=1"`
	Marks              []int    `json:"marks" validate:"required,min=1"`
	MaxMarksPerSubject int      `json:"maxMarksPerSubject" validate:"required,gt=0"`
	MinPassPercentage  int      `json:"minPassPercentage"`
	MinMarksPerSubject *int     `json:"minMarksPerSubject"`
	StudentName        string   `json:"studentName"`
	FatherName         string   `json:"fatherName"`
	RollNumber         string   `json:"rollNumber"`
	GRNumber           string   `json:"grNumber"`
	Session            string   `json:"session"`
}

// List serves three shapes, mirroring how the admin UI asks:
// ?list=titles&className=X -> past exam titles for a class;
// ?className=X&examTitle=Y -> one full result set;
// otherwise a lightweight listing of all sets.
func (ec *ExamResultsController) List(c *fiber.Ctx) error {
	className := c.Query("className")
	examTitle := c.Query("examTitle")

	if c.Query("list") == "titles" {
		if className == "" {
			return utils.Success(c, fiber.StatusOK, []string{})
		}
		var titles []string
		if err := ec.DB.Model(&models.ExamResultSet{}).
			Scopes(ec.Sessions.Scope(sessionParam(c))).
			Where("class_name = ?", className).
			Order("exam_title ASC").
			Distinct().Pluck("exam_title", &titles).Error; err != nil {
			return utils.InternalServerError(c, "Could not query database")
		}
		return utils.Success(c, fiber.StatusOK, titles)
	}

	if className != "" && examTitle != "" {
		var set models.ExamResultSet
		err := ec.DB.Preload("Students").
			Scopes(ec.Sessions.Scope(sessionParam(c))).
			Where("class_name = ? AND exam_title = ?", className, examTitle).
			First(&set).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.Success(c, fiber.StatusOK, nil)
			}
			return utils.InternalServerError(c, "Could not query database")
		}
		return utils.Success(c, fiber.StatusOK, set)
	}

	var sets []models.ExamResultSet
	if err := ec.DB.Scopes(ec.Sessions.Scope(sessionParam(c))).
		Order("created_at DESC").Limit(100).Find(&sets).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, sets)
}

// Upsert enters one student's marks into the (class, examTitle) result
// set, creating the set on first use. Aggregates are recomputed server
// side; re-entering a student overwrites their row.
func (ec *ExamResultsController) Upsert(c *fiber.Ctx) error {
	var input examEntryInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := ec.validate.Struct(input); err != nil {
		return utils.ValidationError(c, fieldErrors(err))
	}
	if len(input.Marks) != len(input.Subjects) {
		return utils.BadRequest(c, "subjects[] and marks[] must have the same length")
	}
	for _, m := range input.Marks {
		if m < 0 || m > input.MaxMarksPerSubject {
			return utils.BadRequest(c, "Each mark must be between 0 and maxMarksPerSubject")
		}
	}

	passPct := input.MinPassPercentage
	if passPct == 0 {
		passPct = 40
	}

	var set models.ExamResultSet
	err := ec.DB.Where("class_name = ? AND exam_title = ?", input.ClassName, input.ExamTitle).
		First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		set = models.ExamResultSet{
			ClassName:          input.ClassName,
			ExamTitle:          input.ExamTitle,
			Subjects:           datatypes.JSONSlice[string](input.Subjects),
			MaxMarksPerSubject: input.MaxMarksPerSubject,
			MinPassPercentage:  passPct,
			MinMarksPerSubject: input.MinMarksPerSubject,
		}
		if input.Session != "" {
			s := input.Session
			set.Session = &s
		}
		if err := ec.DB.Create(&set).Error; err != nil {
			return utils.InternalServerError(c, "Could not create result set")
		}
	} else if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	percentage, grade, remarks := aggregate(input.Marks, len(input.Subjects), input.MaxMarksPerSubject, passPct)

	row := models.ExamStudentResult{
		ExamResultSetID: set.ID,
		StudentID:       input.StudentID,
		StudentName:     input.StudentName,
		FatherName:      input.FatherName,
		RollNumber:      input.RollNumber,
		GRNumber:        input.GRNumber,
		Marks:           datatypes.JSONSlice[int](input.Marks),
		Percentage:      percentage,
		Grade:           grade,
		Remarks:         remarks,
	}

	var existing models.ExamStudentResult
	err = ec.DB.Where("exam_result_set_id = ? AND student_id = ?", set.ID, input.StudentID).
		First(&existing).Error
	switch {
	case err == nil:
		row.Model = existing.Model
		if err := ec.DB.Save(&row).Error; err != nil {
			return utils.InternalServerError(c, "Could not update result")
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"action": "updated", "id": row.ID, "percentage": percentage, "grade": grade})
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := ec.DB.Create(&row).Error; err != nil {
			return utils.InternalServerError(c, "Could not save result")
		}
		return utils.Created(c, fiber.Map{"action": "created", "id": row.ID, "percentage": percentage, "grade": grade})
	default:
		return utils.InternalServerError(c, "Could not query database")
	}
}

func (ec *ExamResultsController) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid result set ID")
	}

	err = ec.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_result_set_id = ?", id).
			Delete(&models.ExamStudentResult{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ExamResultSet{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Result set not found")
		}
		return utils.InternalServerError(c, "Could not delete result set")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": id})
}

// StudentResults is the self-service view: every exam row for one
// student across result sets.
func (ec *ExamResultsController) StudentResults(c *fiber.Ctx) error {
	studentID := c.QueryInt("studentId")
	if studentID <= 0 {
		return utils.BadRequest(c, "studentId is required")
	}

	var rows []models.ExamStudentResult
	if err := ec.DB.Where("student_id = ?", studentID).
		Order("created_at DESC").Find(&rows).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		var set models.ExamResultSet
		if err := ec.DB.First(&set, row.ExamResultSetID).Error; err != nil {
			continue
		}
		result = append(result, fiber.Map{
			"examTitle":          set.ExamTitle,
			"className":          set.ClassName,
			"subjects":           set.Subjects,
			"maxMarksPerSubject": set.MaxMarksPerSubject,
			"marks":              row.Marks,
			"percentage":         row.Percentage,
			"grade":              row.Grade,
			"remarks":            row.Remarks,
		})
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func aggregate(marks []int, subjectCount, maxPer, minPassPct int) (percentage int, grade, remarks string) {
	total := 0
	for _, m := range marks {
		total += m
	}
	totalMax := subjectCount * maxPer
	if totalMax > 0 {
		percentage = int(float64(total)/float64(totalMax)*100 + 0.5)
	}
	grade = gradeFromPercent(percentage)
	remarks = "Fail"
	if percentage >= minPassPct {
		remarks = "Pass"
	}
	return percentage, grade, remarks
}

func gradeFromPercent(pct int) string {
	switch {
	case pct >= 85:
		return "A+"
	case pct >= 75:
		return "A"
	case pct >= 65:
		return "B"
	case pct >= 50:
		return "C"
	case pct >= 40:
		return "D"
	default:
		return "F"
	}
}
