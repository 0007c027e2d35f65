package models

import "time"

// DateLayout is the calendar-date format used for meal-skip and announcement dates.
const DateLayout = "2006-01-02"

// MealSkipRequest asks the kitchen to skip lunch and/or dinner on one date.
type MealSkipRequest struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	UserName   string         `json:"userName"`
	Date       string         `json:"date"`
	SkipLunch  bool           `json:"skipLunch"`
	SkipDinner bool           `json:"skipDinner"`
	Status     ApprovalStatus `json:"status"`
	ReviewedBy *string        `json:"reviewedBy,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  *time.Time     `json:"updatedAt,omitempty"`
}

// MealSkipFilter constrains listing queries. Ascending flips the default
// newest-date-first order.
type MealSkipFilter struct {
	UserID    string
	Status    ApprovalStatus
	Ascending bool
}
