package models

// Status is the lifecycle state of a report.
type Status string

const (
	StatusOpen       Status = "open"
	StatusVerifying  Status = "verifying"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

var AllStatuses = []Status{StatusOpen, StatusVerifying, StatusInProgress, StatusResolved, StatusRejected}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusVerifying, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

type Category string

const (
	CategoryHousehold    Category = "household_waste"
	CategoryConstruction Category = "construction_debris"
	CategoryIndustrial   Category = "industrial"
)

var AllCategories = []Category{CategoryHousehold, CategoryConstruction, CategoryIndustrial}

func (c Category) Valid() bool {
	switch c {
	case CategoryHousehold, CategoryConstruction, CategoryIndustrial:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCitizen || r == RoleAdmin
}

// NotificationType doubles as the penalty tier for false-report notices.
type NotificationType string

const (
	NotificationWarning NotificationType = "warning"
	NotificationFine    NotificationType = "fine"
	NotificationSummons NotificationType = "summons"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationWarning, NotificationFine, NotificationSummons:
		return true
	}
	return false
}

// Action tags written to the report history.
type Action string

const (
	ActionVerify             Action = "verify"
	ActionFinishVerification Action = "finish_verification"
	ActionCompleteCleanup    Action = "complete_cleanup"
	ActionResolveDirect      Action = "resolve_direct"
	ActionReject             Action = "reject"
	ActionMarkFalse          Action = "mark_false"
	ActionSetUrgency         Action = "set_urgency"
)
