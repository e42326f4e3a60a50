package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/models"
	"schoolhub/session"
	"schoolhub/utils"
)

type ScheduleController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Sessions *session.Service
	validate *validator.Validate
}

func NewScheduleController(db *gorm.DB, cfg *config.Config, sessions *session.Service) *ScheduleController {
	return &ScheduleController{DB: db, Cfg: cfg, Sessions: sessions, validate: validator.New()}
}

type scheduleDayInput struct {
	ClassName string `json:"className" validate:"required"`
	Day       string `json:"day" validate:"required"`
	Periods   []struct {
		Subject string `json:"subject" validate:"required"`
		Time    string `json:"time" validate:"required"`
	} `json:"periods" validate:"required,min=1,dive"`
	Session string `json:"session"`
}

func (sc *ScheduleController) List(c *fiber.Ctx) error {
	var schedules []models.Schedule
	if err := sc.DB.Scopes(sc.Sessions.Scope(sessionParam(c))).
		Order("class_name ASC").Find(&schedules).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, schedules)
}

// UpsertDay writes one day's periods into a class timetable, creating
// the timetable on first use and replacing the day if it already exists.
func (sc *ScheduleController) UpsertDay(c *fiber.Ctx) error {
	var input scheduleDayInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := sc.validate.Struct(input); err != nil {
		return utils.ValidationError(c, fieldErrors(err))
	}

	periods := make([]models.SchedulePeriod, 0, len(input.Periods))
	for _, p := range input.Periods {
		periods = append(periods, models.SchedulePeriod{Subject: p.Subject, Time: p.Time})
	}
	newDay := models.ScheduleDay{Day: input.Day, Periods: periods}

	var schedule models.Schedule
	err := sc.DB.Where("class_name = ?", input.ClassName).First(&schedule).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		schedule = models.Schedule{
			ClassName: input.ClassName,
			Days:      datatypes.JSONSlice[models.ScheduleDay]{newDay},
		}
		if input.Session != "" {
			s := input.Session
			schedule.Session = &s
		}
		if err := sc.DB.Create(&schedule).Error; err != nil {
			return utils.InternalServerError(c, "Could not create schedule")
		}
		return utils.Created(c, fiber.Map{"action": "created", "id": schedule.ID})
	case err != nil:
		return utils.InternalServerError(c, "Could not query database")
	}

	days := []models.ScheduleDay(schedule.Days)
	replaced := false
	for i, d := range days {
		if d.Day == input.Day {
			days[i] = newDay
			replaced = true
			break
		}
	}
	if !replaced {
		days = append(days, newDay)
	}

	if err := sc.DB.Model(&schedule).
		Update("days", datatypes.JSONSlice[models.ScheduleDay](days)).Error; err != nil {
		return utils.InternalServerError(c, "Could not update schedule")
	}

	action := "day_added"
	if replaced {
		action = "day_updated"
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"action": action, "id": schedule.ID})
}

// DeleteDay removes one day; removing the last day drops the whole
// timetable document.
func (sc *ScheduleController) DeleteDay(c *fiber.Ctx) error {
	var input struct {
		ClassName string `json:"className"`
		Day       string `json:"day"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.ClassName == "" || input.Day == "" {
		return utils.BadRequest(c, "className and day are required")
	}

	var schedule models.Schedule
	if err := sc.DB.Where("class_name = ?", input.ClassName).First(&schedule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Schedule not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	days := []models.ScheduleDay(schedule.Days)
	remaining := days[:0]
	found := false
	for _, d := range days {
		if d.Day == input.Day {
			found = true
			continue
		}
		remaining = append(remaining, d)
	}
	if !found {
		return utils.NotFound(c, "Day not found in schedule")
	}

	if len(remaining) == 0 {
		if err := sc.DB.Delete(&schedule).Error; err != nil {
			return utils.InternalServerError(c, "Could not delete schedule")
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"action": "schedule_deleted", "id": schedule.ID})
	}

	if err := sc.DB.Model(&schedule).
		Update("days", datatypes.JSONSlice[models.ScheduleDay](remaining)).Error; err != nil {
		return utils.InternalServerError(c, "Could not update schedule")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"action": "day_deleted", "id": schedule.ID})
}
