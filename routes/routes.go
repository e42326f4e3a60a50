package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/controllers"
	"schoolhub/mailer"
	"schoolhub/middleware"
	"schoolhub/quiz"
	"schoolhub/session"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, m mailer.Mailer) {
	quizService := quiz.NewService(db)
	sessionService := session.NewService(db, cfg.LegacySession, cfg.SessionBatchSize)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)
	superAdminMiddleware := middleware.SuperAdminMiddleware(db, cfg)

	// Auth
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/login", authController.Login)
	app.Get("/api/auth/me", authMiddleware, authController.Me)

	// Admin user management (super admin only)
	usersController := controllers.NewUsersController(db, cfg)
	adminUsers := app.Group("/api/admin/users", superAdminMiddleware)
	adminUsers.Get("/", usersController.List)
	adminUsers.Post("/", usersController.Create)
	adminUsers.Put("/:id", usersController.Update)
	adminUsers.Delete("/:id", usersController.Delete)

	// Students
	studentsController := controllers.NewStudentsController(db, cfg, sessionService)
	students := app.Group("/api/students", adminMiddleware)
	students.Get("/", studentsController.List)
	students.Get("/:id", studentsController.Get)
	students.Post("/", studentsController.Create)
	students.Patch("/:id", studentsController.Patch)
	students.Delete("/:id", studentsController.Delete)

	// Fees
	feesController := controllers.NewFeesController(db, cfg, sessionService)
	fees := app.Group("/api/fees", adminMiddleware)
	fees.Get("/", feesController.List)
	fees.Post("/", feesController.Upsert)
	fees.Patch("/:id", feesController.Patch)
	fees.Delete("/:id", feesController.Delete)

	// Notices: reading is public to the portal, writing is staff only.
	noticesController := controllers.NewNoticesController(db, cfg, sessionService, m)
	app.Get("/api/notices", noticesController.List)
	app.Post("/api/notices", adminMiddleware, noticesController.Create)
	app.Delete("/api/notices/:id", adminMiddleware, noticesController.Delete)

	// Quizzes
	quizzesController := controllers.NewQuizzesController(db, cfg, quizService, sessionService)
	app.Get("/api/quizzes", quizzesController.List)
	app.Post("/api/quizzes", adminMiddleware, quizzesController.Create)
	app.Put("/api/quizzes/:id", adminMiddleware, quizzesController.Update)
	app.Delete("/api/quizzes/:id", adminMiddleware, quizzesController.Delete)

	// Quiz attempts: init/save/submit are the student portal flow.
	attemptsController := controllers.NewAttemptsController(db, cfg, quizService)
	app.Post("/api/quiz/init", attemptsController.Init)
	app.Post("/api/quiz/save", attemptsController.Save)
	app.Post("/api/quiz-results", attemptsController.Submit)
	app.Get("/api/quiz-results", adminMiddleware, attemptsController.ListResults)
	app.Delete("/api/quiz-results", adminMiddleware, attemptsController.DeleteResults)

	// Exam results
	examController := controllers.NewExamResultsController(db, cfg, sessionService)
	app.Get("/api/exam-results", adminMiddleware, examController.List)
	app.Post("/api/exam-results", adminMiddleware, examController.Upsert)
	app.Delete("/api/exam-results/:id", adminMiddleware, examController.Delete)
	app.Get("/api/student-exam-results", examController.StudentResults)

	// Schedules
	scheduleController := controllers.NewScheduleController(db, cfg, sessionService)
	app.Get("/api/schedule", scheduleController.List)
	app.Post("/api/schedule", adminMiddleware, scheduleController.UpsertDay)
	app.Delete("/api/schedule", adminMiddleware, scheduleController.DeleteDay)

	// Attendance
	attendanceController := controllers.NewAttendanceController(db, cfg, sessionService)
	attendance := app.Group("/api/attendance", adminMiddleware)
	attendance.Get("/", attendanceController.ListByDate)
	attendance.Post("/", attendanceController.Mark)

	// Academic sessions (super admin only, except listing)
	sessionsController := controllers.NewSessionsController(db, cfg, sessionService)
	app.Get("/api/sessions/list", adminMiddleware, sessionsController.List)
	sessions := app.Group("/api/sessions", superAdminMiddleware)
	sessions.Post("/create", sessionsController.Create)
	sessions.Post("/rename", sessionsController.Rename)
	sessions.Post("/delete", sessionsController.Delete)
	app.Post("/api/students/transfer", superAdminMiddleware, sessionsController.Transfer)

	// School settings: read feeds the public site and ID cards.
	settingsController := controllers.NewSettingsController(db, cfg)
	app.Get("/api/important", settingsController.Get)
	app.Put("/api/important", adminMiddleware, settingsController.Update)

	// Stats
	statsController := controllers.NewStatsController(db, cfg)
	app.Get("/api/stats", adminMiddleware, statsController.Dashboard)

	// Health
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
}
