package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scdri/backend/internal/documents"
	"github.com/scdri/backend/internal/dto"
	"github.com/scdri/backend/internal/geocode"
	"github.com/scdri/backend/internal/metrics"
	"github.com/scdri/backend/internal/models"
	"github.com/scdri/backend/internal/storage"
	"gorm.io/gorm"
)

const (
	MaxImageSize     = 5 << 20
	maxLocationLen   = 255
	regionStatsLimit = 12
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Geocoder turns a free-text location into coordinates, or nil when it can't.
type Geocoder interface {
	Resolve(ctx context.Context, address string) *geocode.Point
}

// ImageUpload is an image attached to a new report.
type ImageUpload struct {
	ContentType string
	Data        []byte
}

type ReportService struct {
	db           *gorm.DB
	ledger       *HistoryLedger
	storage      storage.Storage
	geocoder     Geocoder
	documents    documents.Generator
	metrics      *metrics.Recorder
	backfillSize int
}

func NewReportService(db *gorm.DB, ledger *HistoryLedger, store storage.Storage, geo Geocoder, docs documents.Generator, rec *metrics.Recorder, backfillSize int) *ReportService {
	return &ReportService{
		db:           db,
		ledger:       ledger,
		storage:      store,
		geocoder:     geo,
		documents:    docs,
		metrics:      rec,
		backfillSize: backfillSize,
	}
}

// Submit validates and stores a new report in status open. Coordinates come
// from the request or, failing that, from geocoding the location.
func (s *ReportService) Submit(ctx context.Context, author Actor, req *dto.CreateReportRequest, image *ImageUpload) (*models.Report, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(req.Description); err != nil {
		return nil, err
	}

	location := strings.TrimSpace(req.Location)
	if runeLen(location) > maxLocationLen {
		return nil, validationFailed("location must be at most %d characters", maxLocationLen)
	}
	if HasScriptLikeInput(location) {
		return nil, validationFailed("location contains forbidden content")
	}

	category := models.Category(strings.TrimSpace(req.Category))
	if category == "" {
		category = models.CategoryIndustrial
	}
	if !category.Valid() {
		return nil, validationFailed("invalid category %q", category)
	}

	lat, lng, err := coordinates(req.Lat, req.Lng)
	if err != nil {
		return nil, err
	}

	var ext string
	if image != nil {
		if ext, err = checkImage(image); err != nil {
			return nil, err
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", author.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, "user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsBanned {
		return nil, forbidden("banned users cannot submit reports")
	}

	report := models.Report{
		ID:          uuid.New(),
		UserID:      author.ID,
		Title:       title,
		Description: req.Description,
		Category:    category,
		Status:      models.StatusOpen,
		Lat:         lat,
		Lng:         lng,
	}
	if location != "" {
		report.Location = &location
		if !report.HasCoordinates() && s.geocoder != nil {
			if p := s.geocoder.Resolve(ctx, location); p != nil {
				report.Lat, report.Lng = &p.Lat, &p.Lng
			}
		}
	}

	if image != nil {
		url, err := s.storage.Save(ctx, "reports/report-"+report.ID.String()+ext, image.Data, image.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		report.Image = &url
	}

	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		if report.Image != nil {
			if delErr := s.storage.Delete(context.Background(), *report.Image); delErr != nil {
				slog.Warn("failed to remove image of unsaved report", "error", delErr)
			}
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.metrics.Submission(string(category))
	slog.Info("report submitted", "report_id", report.ID.String(), "user_id", author.ID.String())
	return &report, nil
}

func coordinates(lat, lng *float64) (*float64, *float64, error) {
	if lat == nil && lng == nil {
		return nil, nil, nil
	}
	if lat == nil || lng == nil {
		return nil, nil, validationFailed("lat and lng must be sent together")
	}
	if math.IsNaN(*lat) || math.IsNaN(*lng) || math.Abs(*lat) > 90 || math.Abs(*lng) > 180 {
		return nil, nil, validationFailed("coordinates out of range")
	}
	return lat, lng, nil
}

func checkImage(img *ImageUpload) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(img.ContentType)]
	if !ok {
		return "", validationFailed("image must be jpeg, png, webp or gif")
	}
	if len(img.Data) == 0 {
		return "", validationFailed("image is empty")
	}
	if len(img.Data) > MaxImageSize {
		return "", validationFailed("image must be at most %d MB", MaxImageSize>>20)
	}
	return ext, nil
}

// Get returns one report. Citizens only see their own.
func (s *ReportService) Get(ctx context.Context, id uuid.UUID, requester Actor) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("report not found")
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if !requester.IsAdmin() && report.UserID != requester.ID {
		return nil, forbidden("not allowed to view this report")
	}
	return &report, nil
}

// ListMine returns the caller's reports, newest first, optionally by status.
func (s *ReportService) ListMine(ctx context.Context, userID uuid.UUID, status string) ([]models.Report, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		st := models.Status(status)
		if !st.Valid() {
			return nil, validationFailed("invalid status %q", status)
		}
		q = q.Where("status = ?", st)
	}

	reports := []models.Report{}
	if err := q.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// ListAll is the administrative listing.
func (s *ReportService) ListAll(ctx context.Context, f dto.ReportFilter) ([]dto.ReportWithAuthor, error) {
	q := s.db.WithContext(ctx).
		Table("reports AS r").
		Select("r.*, u.name AS user_name").
		Joins("JOIN users u ON u.id = r.user_id")

	if v := strings.TrimSpace(f.Q); v != "" {
		like := contains(v)
		q = q.Where("(LOWER(r.title) LIKE ? OR LOWER(r.description) LIKE ? OR LOWER(r.location) LIKE ? OR LOWER(u.name) LIKE ?)", like, like, like, like)
	}
	if v := strings.TrimSpace(f.Author); v != "" {
		q = q.Where("LOWER(u.name) LIKE ?", contains(v))
	}
	for _, v := range []string{f.Location, f.District, f.Address} {
		if v = strings.TrimSpace(v); v != "" {
			q = q.Where("LOWER(r.location) LIKE ?", contains(v))
		}
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		if !models.Status(v).Valid() {
			return nil, validationFailed("invalid status %q", v)
		}
		q = q.Where("r.status = ?", v)
	}
	if v := strings.TrimSpace(f.Urgency); v != "" {
		// "null" selects the untriaged queue.
		if v == "null" {
			q = q.Where("r.status = ?", models.StatusOpen)
		} else {
			if !models.Urgency(v).Valid() {
				return nil, validationFailed("invalid urgency %q", v)
			}
			q = q.Where("r.urgency = ?", v)
		}
	}
	if v := strings.TrimSpace(f.Category); v != "" {
		if !models.Category(v).Valid() {
			return nil, validationFailed("invalid category %q", v)
		}
		q = q.Where("r.category = ?", v)
	}

	rows := []dto.ReportWithAuthor{}
	if err := q.Order("r.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return rows, nil
}

// contains builds a case-insensitive LIKE pattern.
func contains(v string) string {
	return "%" + strings.ToLower(v) + "%"
}

// ListMap returns every geolocated report after trying to geocode a few of
// the ones still missing coordinates.
func (s *ReportService) ListMap(ctx context.Context) ([]dto.MapReport, error) {
	s.backfill(ctx)

	rows := []dto.MapReport{}
	err := s.db.WithContext(ctx).
		Table("reports AS r").
		Select("r.id, r.title, r.description, r.location, r.status, r.urgency, r.image, r.lat, r.lng, r.created_at, u.name AS user_name").
		Joins("JOIN users u ON u.id = r.user_id").
		Where("r.lat IS NOT NULL AND r.lng IS NOT NULL").
		Order("r.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list map reports: %w", err)
	}
	return rows, nil
}

func (s *ReportService) backfill(ctx context.Context) {
	if s.geocoder == nil || s.backfillSize <= 0 {
		return
	}

	var pending []models.Report
	err := s.db.WithContext(ctx).
		Where("(lat IS NULL OR lng IS NULL) AND location IS NOT NULL AND location <> ''").
		Order("created_at DESC").
		Limit(s.backfillSize).
		Find(&pending).Error
	if err != nil {
		slog.Warn("geo backfill query failed", "error", err)
		return
	}

	for _, r := range pending {
		p := s.geocoder.Resolve(ctx, deref(r.Location))
		if p == nil {
			continue
		}
		err := s.db.WithContext(ctx).Model(&models.Report{}).
			Where("id = ?", r.ID).
			UpdateColumns(map[string]any{"lat": p.Lat, "lng": p.Lng}).Error
		if err != nil {
			slog.Warn("geo backfill update failed", "error", err, "report_id", r.ID.String())
		}
	}
}

type countRow struct {
	Bucket string
	Total  int64
}

type locationCount struct {
	Location *string
	Total    int64
}

type periodRow struct {
	models.Report
	UserName string
	UserCPF  string
}

// Stats aggregates reports by category, status and locality.
func (s *ReportService) Stats(ctx context.Context) (*dto.ReportStats, error) {
	db := s.db.WithContext(ctx).Model(&models.Report{})

	var byCategory, byStatus []countRow
	if err := db.Session(&gorm.Session{}).Select("category AS bucket, COUNT(*) AS total").Group("category").Order("total DESC").Scan(&byCategory).Error; err != nil {
		return nil, fmt.Errorf("failed to count by category: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Select("status AS bucket, COUNT(*) AS total").Group("status").Order("total DESC").Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	var byLocation []locationCount
	if err := db.Session(&gorm.Session{}).Select("location, COUNT(*) AS total").Group("location").Scan(&byLocation).Error; err != nil {
		return nil, fmt.Errorf("failed to count by location: %w", err)
	}

	regions := map[string]int64{}
	for _, row := range byLocation {
		regions[LocalityOrUnknown(deref(row.Location))] += row.Total
	}

	stats := &dto.ReportStats{
		ByCategory: buckets(byCategory),
		ByStatus:   buckets(byStatus),
		ByRegion:   make([]dto.RegionBucket, 0, len(regions)),
	}
	for region, total := range regions {
		stats.ByRegion = append(stats.ByRegion, dto.RegionBucket{Region: region, Total: total})
	}
	sort.Slice(stats.ByRegion, func(i, j int) bool {
		a, b := stats.ByRegion[i], stats.ByRegion[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Region < b.Region
	})
	if len(stats.ByRegion) > regionStatsLimit {
		stats.ByRegion = stats.ByRegion[:regionStatsLimit]
	}
	return stats, nil
}

func buckets(rows []countRow) []dto.CountBucket {
	out := make([]dto.CountBucket, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.CountBucket{Key: r.Bucket, Total: r.Total})
	}
	return out
}

// History returns a report's audit trail to an admin or to its author.
func (s *ReportService) History(ctx context.Context, reportID uuid.UUID, requester Actor) ([]dto.HistoryEntry, error) {
	if !requester.IsAdmin() {
		var report models.Report
		err := s.db.WithContext(ctx).Select("id", "user_id").First(&report, "id = ?", reportID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("report not found")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load report: %w", err)
		}
		if report.UserID != requester.ID {
			return nil, forbidden("not allowed to view this history")
		}
	}
	return s.ledger.ListForReport(ctx, reportID)
}

func (s *ReportService) MyHistory(ctx context.Context, userID uuid.UUID) ([]dto.HistoryEntry, error) {
	return s.ledger.ListForUser(ctx, userID)
}

// PeriodRange returns the inclusive bounds of period around now: the day,
// the Monday-based week, the month, or the year for anything else.
func PeriodRange(period string, now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	var start, end time.Time

	switch period {
	case "daily":
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1)
	case "weekly":
		offset := (int(now.Weekday()) + 6) % 7
		start = time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 7)
	case "monthly":
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	default:
		start = time.Date(y, 1, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0)
	}
	return start, end.Add(-time.Nanosecond)
}

func urgencyLabel(u *models.Urgency) string {
	if u == nil {
		return "BAIXA"
	}
	switch *u {
	case models.UrgencyHigh:
		return "ALTA"
	case models.UrgencyMedium:
		return "MEDIA"
	}
	return "BAIXA"
}

func urgencyRank(u *models.Urgency) int {
	if u == nil {
		return 3
	}
	switch *u {
	case models.UrgencyHigh:
		return 0
	case models.UrgencyMedium:
		return 1
	case models.UrgencyLow:
		return 2
	}
	return 3
}

// PeriodReport renders the admin export for period.
func (s *ReportService) PeriodReport(ctx context.Context, period string, now time.Time) (*documents.Document, error) {
	switch period {
	case "daily", "weekly", "monthly", "yearly":
	case "":
		period = "monthly"
	default:
		period = "yearly"
	}
	start, end := PeriodRange(period, now)

	var rows []periodRow
	err := s.db.WithContext(ctx).
		Table("reports AS r").
		Select("r.*, u.name AS user_name, u.cpf AS user_cpf").
		Joins("JOIN users u ON u.id = r.user_id").
		Where("r.created_at BETWEEN ? AND ?", start, end).
		Order("r.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load period reports: %w", err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return urgencyRank(rows[i].Urgency) < urgencyRank(rows[j].Urgency)
	})

	data := documents.PeriodReportData{Period: period, Start: start, End: end}
	for i, r := range rows {
		data.Entries = append(data.Entries, documents.PeriodEntry{
			Index:       i + 1,
			Title:       r.Title,
			Urgency:     urgencyLabel(r.Urgency),
			Status:      string(r.Status),
			Author:      r.UserName,
			CPF:         r.UserCPF,
			Location:    deref(r.Location),
			Image:       deref(r.Image),
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		})
	}
	return s.documents.PeriodReport(ctx, data)
}
