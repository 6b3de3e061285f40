package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/scdri/backend/internal/dto"
	"github.com/scdri/backend/internal/models"
	"github.com/scdri/backend/internal/services"
)

// AdminReportHandler serves the review panel. Every route sits behind
// middleware.AdminRequired; the services check the role again.
type AdminReportHandler struct {
	reports   *services.ReportService
	lifecycle *services.ReportLifecycle
	now       func() time.Time
}

func NewAdminReportHandler(reports *services.ReportService, lifecycle *services.ReportLifecycle) *AdminReportHandler {
	return &AdminReportHandler{reports: reports, lifecycle: lifecycle, now: time.Now}
}

func (h *AdminReportHandler) List(c *fiber.Ctx) error {
	filter := dto.ReportFilter{
		Q:        c.Query("q"),
		Author:   c.Query("author"),
		Location: c.Query("location"),
		Status:   c.Query("status"),
		Urgency:  c.Query("urgency"),
		Category: c.Query("category"),
		District: c.Query("district"),
		Address:  c.Query("address"),
	}

	reports, err := h.reports.ListAll(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reports)
}

func (h *AdminReportHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.reports.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *AdminReportHandler) Export(c *fiber.Ctx) error {
	doc, err := h.reports.PeriodReport(c.UserContext(), c.Query("period"), h.now())
	if err != nil {
		return respondError(c, err)
	}

	c.Attachment(doc.Name)
	c.Set(fiber.HeaderContentType, doc.ContentType)
	return c.Send(doc.Body)
}

type transitionFunc func(ctx context.Context, id uuid.UUID, admin services.Actor) (*models.Report, error)

// transition runs a body-less lifecycle step on :id.
func (h *AdminReportHandler) transition(fn transitionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorOrAbort(c)
		if !ok {
			return nil
		}
		id, err := idParam(c)
		if err != nil {
			return respondError(c, err)
		}

		report, err := fn(c.UserContext(), id, actor)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(dto.TransitionResponse{OK: true, Status: report.Status})
	}
}

func (h *AdminReportHandler) Verify(c *fiber.Ctx) error {
	return h.transition(h.lifecycle.Verify)(c)
}

func (h *AdminReportHandler) CompleteCleanup(c *fiber.Ctx) error {
	return h.transition(h.lifecycle.CompleteCleanup)(c)
}

func (h *AdminReportHandler) ResolveDirect(c *fiber.Ctx) error {
	return h.transition(h.lifecycle.ResolveDirect)(c)
}

func (h *AdminReportHandler) FinishVerification(c *fiber.Ctx) error {
	var req dto.UrgencyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	return h.transition(func(ctx context.Context, id uuid.UUID, admin services.Actor) (*models.Report, error) {
		return h.lifecycle.FinishVerification(ctx, id, admin, models.Urgency(req.Urgency))
	})(c)
}

func (h *AdminReportHandler) Reject(c *fiber.Ctx) error {
	var req dto.RejectReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	return h.transition(func(ctx context.Context, id uuid.UUID, admin services.Actor) (*models.Report, error) {
		return h.lifecycle.Reject(ctx, id, admin, req.Reason)
	})(c)
}

func (h *AdminReportHandler) SetUrgency(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var req dto.UrgencyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.lifecycle.SetUrgency(c.UserContext(), id, actor, models.Urgency(req.Urgency))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *AdminReportHandler) MarkFalse(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}

	res, err := h.lifecycle.MarkFalse(c.UserContext(), id, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MarkFalseResponse{
		OK:               true,
		FalseReportCount: res.Penalty.FalseReportCount,
		NotificationType: res.Penalty.Tier,
	})
}

func (h *AdminReportHandler) Delete(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.lifecycle.Purge(c.UserContext(), id, actor); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
