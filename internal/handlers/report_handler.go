package handlers

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/scdri/backend/internal/dto"
	"github.com/scdri/backend/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Create accepts either a JSON body or a multipart form with an optional
// "image" file.
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}

	var (
		req   dto.CreateReportRequest
		image *services.ImageUpload
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var err error
		if req, err = formReport(c); err != nil {
			return badRequest(c, err.Error())
		}
		if image, err = formImage(c); err != nil {
			return respondError(c, err)
		}
	} else if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.reports.Submit(c.UserContext(), actor, &req, image)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func formReport(c *fiber.Ctx) (dto.CreateReportRequest, error) {
	req := dto.CreateReportRequest{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Location:    c.FormValue("location"),
		Category:    c.FormValue("category"),
	}
	var err error
	if req.Lat, err = formCoord(c, "lat"); err != nil {
		return req, err
	}
	if req.Lng, err = formCoord(c, "lng"); err != nil {
		return req, err
	}
	return req, nil
}

func formCoord(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return &v, nil
}

// formImage returns nil when no image was attached.
func formImage(c *fiber.Ctx) (*services.ImageUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid multipart form")
	}
	files := form.File["image"]
	if len(files) == 0 {
		return nil, nil
	}

	fh := files[0]
	if fh.Size > services.MaxImageSize {
		return nil, fiber.NewError(fiber.StatusBadRequest, "image must be at most 5 MB")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	return &services.ImageUpload{ContentType: fh.Header.Get(fiber.HeaderContentType), Data: data}, nil
}

func (h *ReportHandler) ListMine(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}

	reports, err := h.reports.ListMine(c.UserContext(), actor.ID, c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reports)
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}

	report, err := h.reports.Get(c.UserContext(), id, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) History(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}

	entries, err := h.reports.History(c.UserContext(), id, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

func (h *ReportHandler) MyHistory(c *fiber.Ctx) error {
	actor, ok := actorOrAbort(c)
	if !ok {
		return nil
	}

	entries, err := h.reports.MyHistory(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

func (h *ReportHandler) Map(c *fiber.Ctx) error {
	points, err := h.reports.ListMap(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(points)
}
