package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/models"
	"schoolhub/utils"
)

type StatsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewStatsController(db *gorm.DB, cfg *config.Config) *StatsController {
	return &StatsController{DB: db, Cfg: cfg}
}

// Dashboard returns the admin landing-page counters.
func (st *StatsController) Dashboard(c *fiber.Ctx) error {
	now := time.Now()
	yearAgo := now.AddDate(-1, 0, 0)
	monthAgo := now.AddDate(0, 0, -30)

	var totalStudents, admissionsLast365, totalQuizzes, resultsLast30, totalNotices int64

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&totalStudents, st.DB.Model(&models.Student{})},
		{&admissionsLast365, st.DB.Model(&models.Student{}).Where("created_at >= ?", yearAgo)},
		{&totalQuizzes, st.DB.Model(&models.Quiz{})},
		{&resultsLast30, st.DB.Model(&models.QuizAttempt{}).
			Where("COALESCE(submitted_at, created_at) >= ?", monthAgo)},
		{&totalNotices, st.DB.Model(&models.Notice{})},
	}
	for _, cnt := range counts {
		if err := cnt.query.Count(cnt.dest).Error; err != nil {
			return utils.InternalServerError(c, "Failed to fetch stats")
		}
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"totalStudents":     totalStudents,
		"admissionsLast365": admissionsLast365,
		"totalQuizzes":      totalQuizzes,
		"resultsLast30":     resultsLast30,
		"totalNotices":      totalNotices,
	})
}
