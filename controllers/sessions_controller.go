package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolhub/config"
	"schoolhub/session"
	"schoolhub/utils"
)

// SessionsController exposes the academic-session bulk operations. The
// routes behind it are super-admin only; rename/delete/transfer move or
// destroy whole year partitions.
type SessionsController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Sessions *session.Service
}

func NewSessionsController(db *gorm.DB, cfg *config.Config, sessions *session.Service) *SessionsController {
	return &SessionsController{DB: db, Cfg: cfg, Sessions: sessions}
}

func (sc *SessionsController) List(c *fiber.Ctx) error {
	names, err := sc.Sessions.List()
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch sessions")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"sessions": names})
}

func (sc *SessionsController) Create(c *fiber.Ctx) error {
	var input struct {
		SessionName string `json:"sessionName"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	createdBy := ""
	if userID, ok := c.Locals("userID").(uint); ok {
		createdBy = strconv.Itoa(int(userID))
	}

	if err := sc.Sessions.Create(input.SessionName, createdBy); err != nil {
		if errors.Is(err, session.ErrInvalidInput) {
			return utils.BadRequest(c, "sessionName is required")
		}
		return utils.InternalServerError(c, "Failed to create session")
	}
	return utils.Created(c, fiber.Map{"session": input.SessionName})
}

func (sc *SessionsController) Rename(c *fiber.Ctx) error {
	var input struct {
		OldSession string `json:"oldSession"`
		NewSession string `json:"newSession"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	count, err := sc.Sessions.Rename(input.OldSession, input.NewSession)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidInput):
			return utils.BadRequest(c, "Both oldSession and newSession are required")
		case errors.Is(err, session.ErrProtected):
			return utils.Forbidden(c, "The default session cannot be renamed")
		case errors.Is(err, session.ErrNotFound):
			return utils.NotFound(c, "Session not found or already renamed")
		}
		// Batches already committed stay committed; report how far we got.
		return Error500WithCount(c, "Failed to rename session", count)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"updatedCount": count})
}

func (sc *SessionsController) Delete(c *fiber.Ctx) error {
	var input struct {
		Session string `json:"session"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	count, err := sc.Sessions.Delete(input.Session)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidInput):
			return utils.BadRequest(c, "Session is required")
		case errors.Is(err, session.ErrProtected):
			return utils.Forbidden(c, "The default session cannot be deleted")
		}
		return Error500WithCount(c, "Failed to delete session", count)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deletedCount": count})
}

func (sc *SessionsController) Transfer(c *fiber.Ctx) error {
	var input struct {
		SourceSession string            `json:"sourceSession"`
		TargetSession string            `json:"targetSession"`
		Mapping       map[string]string `json:"mapping"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	count, err := sc.Sessions.Transfer(input.SourceSession, input.TargetSession, input.Mapping)
	if err != nil {
		if errors.Is(err, session.ErrInvalidInput) {
			return utils.BadRequest(c, "sourceSession, targetSession, and mapping are required")
		}
		return utils.InternalServerError(c, "Failed to transfer students")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"createdCount": count})
}

// Error500WithCount reports a failed bulk operation together with how
// many records committed before the failure, so partial success is never
// hidden behind a bare 500.
func Error500WithCount(c *fiber.Ctx, message string, count int) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"ok":      false,
		"error":   message,
		"count":   count,
		"partial": count > 0,
	})
}
