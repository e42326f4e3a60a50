package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/models"
	"schoolhub/quiz"
	"schoolhub/utils"
)

// AttemptsController is the HTTP face of the quiz attempt lifecycle:
// init/resume, autosave, submit, and staff-side result management.
type AttemptsController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Quizzes *quiz.Service
}

func NewAttemptsController(db *gorm.DB, cfg *config.Config, quizzes *quiz.Service) *AttemptsController {
	return &AttemptsController{DB: db, Cfg: cfg, Quizzes: quizzes}
}

func (ac *AttemptsController) Init(c *fiber.Ctx) error {
	var input struct {
		QuizID        uint  `json:"quizId"`
		StudentID     uint  `json:"studentId"`
		QuestionOrder []int `json:"questionOrder"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	result, err := ac.Quizzes.Initialize(input.QuizID, input.StudentID, input.QuestionOrder)
	if err != nil {
		switch {
		case errors.Is(err, quiz.ErrInvalidInput):
			return utils.BadRequest(c, "quizId and studentId are required")
		case errors.Is(err, quiz.ErrNotFound):
			return utils.NotFound(c, "Quiz not found")
		case errors.Is(err, quiz.ErrAlreadyCompleted):
			return utils.Conflict(c, "You have already submitted this quiz")
		}
		return utils.InternalServerError(c, "Failed to initialize quiz")
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func (ac *AttemptsController) Save(c *fiber.Ctx) error {
	var input struct {
		AttemptID uint  `json:"attemptId"`
		Answers   []int `json:"answers"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if err := ac.Quizzes.SaveProgress(input.AttemptID, input.Answers); err != nil {
		switch {
		case errors.Is(err, quiz.ErrInvalidInput):
			return utils.BadRequest(c, "attemptId and answers array are required")
		case errors.Is(err, quiz.ErrNotFound):
			return utils.NotFound(c, "Attempt not found")
		case errors.Is(err, quiz.ErrAlreadyCompleted):
			return utils.Conflict(c, "Attempt is already completed")
		}
		return utils.InternalServerError(c, "Failed to save progress")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"saved": true})
}

func (ac *AttemptsController) Submit(c *fiber.Ctx) error {
	var input struct {
		QuizID        uint  `json:"quizId"`
		StudentID     uint  `json:"studentId"`
		Answers       []int `json:"answers"`
		QuestionOrder []int `json:"questionOrder"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	result, err := ac.Quizzes.Finalize(input.QuizID, input.StudentID, input.Answers, input.QuestionOrder)
	if err != nil {
		switch {
		case errors.Is(err, quiz.ErrInvalidInput):
			return utils.BadRequest(c, "quizId, studentId and answers[] are required")
		case errors.Is(err, quiz.ErrNotFound):
			return utils.NotFound(c, "Quiz not found")
		case errors.Is(err, quiz.ErrAlreadySubmitted):
			return utils.Conflict(c, "You have already submitted this quiz")
		}
		return utils.InternalServerError(c, "Failed to submit result")
	}
	return utils.Success(c, fiber.StatusOK, result)
}

// ListResults returns attempts newest-first, optionally filtered by quiz
// and/or student. Quiz and snapshot fields ride along so the admin view
// needs no joins of its own.
func (ac *AttemptsController) ListResults(c *fiber.Ctx) error {
	query := ac.DB.Model(&models.QuizAttempt{}).Preload("Quiz")

	if quizID := c.QueryInt("quizId"); quizID > 0 {
		query = query.Where("quiz_id = ?", quizID)
	}
	if studentID := c.QueryInt("studentId"); studentID > 0 {
		query = query.Where("student_id = ?", studentID)
	}

	var attempts []models.QuizAttempt
	if err := query.Order("COALESCE(submitted_at, created_at) DESC").
		Limit(limitParam(c, 200, 100)).Find(&attempts).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, attempts)
}

// DeleteResults deletes one attempt by ?id=, or every attempt of a quiz
// with ?quizId=&all=true.
func (ac *AttemptsController) DeleteResults(c *fiber.Ctx) error {
	if idStr := c.Query("id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return utils.BadRequest(c, "Invalid attempt ID")
		}
		if err := ac.Quizzes.DeleteAttempt(uint(id)); err != nil {
			if errors.Is(err, quiz.ErrNotFound) {
				return utils.NotFound(c, "Attempt not found")
			}
			return utils.InternalServerError(c, "Could not delete attempt")
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": id})
	}

	if quizID := c.QueryInt("quizId"); quizID > 0 && c.Query("all") == "true" {
		count, err := ac.Quizzes.DeleteAttemptsForQuiz(uint(quizID))
		if err != nil {
			return utils.InternalServerError(c, "Could not delete attempts")
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": count})
	}

	return utils.BadRequest(c, "Provide id to delete one or quizId & all=true to delete all")
}
