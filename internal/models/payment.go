package models

import (
	"strings"
	"time"
)

// Months lists the accepted payment month names.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// NormalizeMonth returns the canonical month name, matching case-insensitively.
func NormalizeMonth(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, m := range Months {
		if strings.EqualFold(m, trimmed) {
			return m, true
		}
	}
	return "", false
}

// Payment is a monthly subscription payment proof awaiting admin review.
type Payment struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"userId"`
	UserName           string         `json:"userName"`
	Month              string         `json:"month"`
	Amount             float64        `json:"amount"`
	Receipt            []byte         `json:"-"`
	ReceiptContentType string         `json:"receiptContentType"`
	ReceiptSize        int            `json:"receiptSize"`
	Status             ApprovalStatus `json:"status"`
	Remarks            string         `json:"remarks"`
	ReviewedBy         *string        `json:"reviewedBy,omitempty"`
	SubmittedAt        time.Time      `json:"submittedAt"`
	UpdatedAt          *time.Time     `json:"updatedAt,omitempty"`
}

// PaymentFilter constrains listing queries.
type PaymentFilter struct {
	UserID string
	Status ApprovalStatus
}
