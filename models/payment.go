package models

import "time"

// Normalized payment status, common to provider results and payment rows.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusSucceeded  = "succeeded"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
)

// Payment represents one payment attempt attributable to a participant,
// created when a contribution goes to the provider and settled by the
// provider callback.
type Payment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	SessionID      uint       `gorm:"not null;index" json:"session_id"`
	ParticipantID  uint       `gorm:"not null;index" json:"participant_id"`
	ContributionID *uint      `gorm:"index" json:"contribution_id,omitempty"`
	Amount         float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Method         string     `gorm:"type:varchar(50)" json:"method"`
	ReferenceID    string     `gorm:"type:varchar(100);index" json:"reference_id"`
	PaymentTime    *time.Time `json:"payment_time,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}
