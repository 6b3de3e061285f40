package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/scdri/backend/internal/services"
)

type NotificationHandler struct {
	dispatcher *services.NotificationDispatcher
}

func NewNotificationHandler(dispatcher *services.NotificationDispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}

	items, err := h.dispatcher.ListRecent(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

func (h *NotificationHandler) Unread(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}

	items, err := h.dispatcher.ListUnread(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}

	n, err := h.dispatcher.CountUnread(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": n})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}

	n, err := h.dispatcher.MarkAllRead(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "updated": n})
}
