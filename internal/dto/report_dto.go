package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/scdri/backend/internal/models"
)

type CreateReportRequest struct {
	Title       string   `json:"title" form:"title"`
	Description string   `json:"description" form:"description"`
	Location    string   `json:"location" form:"location"`
	Category    string   `json:"category" form:"category"`
	Lat         *float64 `json:"lat" form:"lat"`
	Lng         *float64 `json:"lng" form:"lng"`
}

type RejectReportRequest struct {
	Reason string `json:"reason"`
}

type UrgencyRequest struct {
	Urgency string `json:"urgency"`
}

// ReportFilter narrows the administrative report listing. Empty fields are ignored.
type ReportFilter struct {
	Q        string
	Author   string
	Location string
	Status   string
	Urgency  string
	Category string
	District string
	Address  string
}

type ReportWithAuthor struct {
	models.Report
	UserName string `json:"user_name"`
}

type MapReport struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    *string         `json:"location"`
	Status      models.Status   `json:"status"`
	Urgency     *models.Urgency `json:"urgency"`
	Image       *string         `json:"image"`
	Lat         float64         `json:"lat"`
	Lng         float64         `json:"lng"`
	CreatedAt   time.Time       `json:"created_at"`
	UserName    string          `json:"user_name"`
}

type HistoryEntry struct {
	models.ReportHistory
	ChangedByName *string `json:"changed_by_name"`
	ReportTitle   string  `json:"report_title,omitempty"`
}

type TransitionResponse struct {
	OK     bool          `json:"ok"`
	Status models.Status `json:"status"`
}

type MarkFalseResponse struct {
	OK               bool                    `json:"ok"`
	FalseReportCount int                     `json:"false_report_count"`
	NotificationType models.NotificationType `json:"notification_type"`
}

type CountBucket struct {
	Key   string `json:"key"`
	Total int64  `json:"total"`
}

type RegionBucket struct {
	Region string `json:"region"`
	Total  int64  `json:"total"`
}

type ReportStats struct {
	ByCategory []CountBucket  `json:"by_category"`
	ByStatus   []CountBucket  `json:"by_status"`
	ByRegion   []RegionBucket `json:"by_region"`
}
