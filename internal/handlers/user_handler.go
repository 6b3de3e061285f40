package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/scdri/backend/internal/dto"
	"github.com/scdri/backend/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}

	user, err := h.users.Get(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.users.UpdateName(c.UserContext(), actor.ID, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.users.ChangePassword(c.UserContext(), actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// List is admin only. Banned and false-report counters are included.
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) Ban(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var req dto.BanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	user, err := h.users.Ban(c.UserContext(), actor, id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) Unban(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.users.Unban(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
