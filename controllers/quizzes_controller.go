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
	"schoolhub/quiz"
	"schoolhub/session"
	"schoolhub/utils"
)

type QuizzesController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Quizzes  *quiz.Service
	Sessions *session.Service
	validate *validator.Validate
}

func NewQuizzesController(db *gorm.DB, cfg *config.Config, quizzes *quiz.Service, sessions *session.Service) *QuizzesController {
	return &QuizzesController{DB: db, Cfg: cfg, Quizzes: quizzes, Sessions: sessions, validate: validator.New()}
}

type questionInput struct {
	Question     string   `json:"question" validate:"required"`
	Options      []string `json:"options" validate:"required,min=2"`
	CorrectIndex int      `json:"correctIndex" validate:"gte=0"`
	Difficulty   string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type quizInput struct {
	Title           string          `json:"title" validate:"required"`
	Subject         string          `json:"subject" validate:"required"`
	TargetType      string          `json:"targetType" validate:"required,oneof=all class student"`
	ClassName       string          `json:"className"`
	StudentID       uint            `json:"studentId"`
	DurationMinutes *int            `json:"durationMinutes"`
	QuestionLimit   int             `json:"questionLimit" validate:"required,gte=1,lte=200"`
	Questions       []questionInput `json:"questions" validate:"required,min=1,dive"`
	Session         string          `json:"session"`
}

// List returns quizzes. With ?id= a single quiz (including questions)
// comes back; otherwise the list is filtered to the audience implied by
// className/studentId, the way students see it.
func (qc *QuizzesController) List(c *fiber.Ctx) error {
	if id := c.QueryInt("id"); id > 0 {
		var qz models.Quiz
		err := qc.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.id ASC")
		}).Preload("Student").First(&qz, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFound(c, "Quiz not found")
			}
			return utils.InternalServerError(c, "Could not query database")
		}
		return utils.Success(c, fiber.StatusOK, qz)
	}

	query := qc.DB.Model(&models.Quiz{}).
		Preload("Questions").Preload("Student").
		Scopes(qc.Sessions.Scope(sessionParam(c)))

	className := c.Query("className")
	studentID := c.QueryInt("studentId")
	if className != "" || studentID > 0 {
		conditions := qc.DB.Where("target_type = ?", models.TargetAll)
		if className != "" {
			conditions = conditions.Or(
				qc.DB.Where("target_type = ? AND class_name = ?", models.TargetClass, className))
		}
		if studentID > 0 {
			conditions = conditions.Or(
				qc.DB.Where("target_type = ? AND student_id = ?", models.TargetStudent, studentID))
		}
		query = query.Where(conditions)
	}

	var quizzes []models.Quiz
	if err := query.Order("created_at DESC").
		Limit(limitParam(c, 100, 50)).Find(&quizzes).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, quizzes)
}

func (qc *QuizzesController) Create(c *fiber.Ctx) error {
	var input quizInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := qc.validate.Struct(input); err != nil {
		return utils.ValidationError(c, fieldErrors(err))
	}
	if input.TargetType == models.TargetClass && input.ClassName == "" {
		return utils.BadRequest(c, "className is required for class target")
	}
	if input.TargetType == models.TargetStudent && input.StudentID == 0 {
		return utils.BadRequest(c, "studentId is required for student target")
	}

	qz := models.Quiz{
		Title:           input.Title,
		Subject:         input.Subject,
		TargetType:      input.TargetType,
		ClassName:       input.ClassName,
		DurationMinutes: input.DurationMinutes,
		QuestionLimit:   input.QuestionLimit,
		Questions:       questionsFromInput(input.Questions),
	}
	if input.StudentID != 0 {
		id := input.StudentID
		qz.StudentID = &id
	}
	if input.Session != "" {
		s := input.Session
		qz.Session = &s
	}

	if err := qc.DB.Create(&qz).Error; err != nil {
		return utils.InternalServerError(c, "Could not create quiz")
	}
	return utils.Created(c, fiber.Map{"id": qz.ID})
}

// Update patches quiz metadata and, when questions are supplied,
// replaces the whole question list. Attempts are untouched; an edited
// quiz is the staff's responsibility while attempts are open.
func (qc *QuizzesController) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid quiz ID")
	}

	var input struct {
		Title            *string         `json:"title"`
		Subject          *string         `json:"subject"`
		TargetType       *string         `json:"targetType"`
		ClassName        *string         `json:"className"`
		StudentID        *uint           `json:"studentId"`
		ResultsAnnounced *bool           `json:"resultsAnnounced"`
		DurationMinutes  *int            `json:"durationMinutes"`
		QuestionLimit    *int            `json:"questionLimit"`
		Questions        []questionInput `json:"questions"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var qz models.Quiz
	if err := qc.DB.First(&qz, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Title != nil {
		qz.Title = *input.Title
	}
	if input.Subject != nil {
		qz.Subject = *input.Subject
	}
	if input.TargetType != nil {
		qz.TargetType = *input.TargetType
	}
	if input.ClassName != nil {
		qz.ClassName = *input.ClassName
	}
	if input.StudentID != nil {
		qz.StudentID = input.StudentID
	}
	if input.ResultsAnnounced != nil {
		qz.ResultsAnnounced = *input.ResultsAnnounced
	}
	if input.DurationMinutes != nil {
		qz.DurationMinutes = input.DurationMinutes
	}
	if input.QuestionLimit != nil {
		if *input.QuestionLimit < 1 || *input.QuestionLimit > 200 {
			return utils.BadRequest(c, "questionLimit must be between 1 and 200")
		}
		qz.QuestionLimit = *input.QuestionLimit
	}

	err = qc.DB.Transaction(func(tx *gorm.DB) error {
		if input.Questions != nil {
			if err := tx.Where("quiz_id = ?", qz.ID).
				Delete(&models.QuizQuestion{}).Error; err != nil {
				return err
			}
			qz.Questions = questionsFromInput(input.Questions)
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&qz).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not update quiz")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"id": qz.ID})
}

// Delete cascades: every attempt referencing the quiz goes with it, as
// one logical unit.
func (qc *QuizzesController) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid quiz ID")
	}

	if err := qc.Quizzes.DeleteQuiz(uint(id)); err != nil {
		if errors.Is(err, quiz.ErrNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return utils.InternalServerError(c, "Could not delete quiz")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": id})
}

func questionsFromInput(inputs []questionInput) []models.QuizQuestion {
	questions := make([]models.QuizQuestion, 0, len(inputs))
	for _, q := range inputs {
		difficulty := q.Difficulty
		if difficulty == "" {
			difficulty = "easy"
		}
		questions = append(questions, models.QuizQuestion{
			Question:     q.Question,
			Options:      datatypes.JSONSlice[string](q.Options),
			CorrectIndex: q.CorrectIndex,
			Difficulty:   difficulty,
		})
	}
	return questions
}
