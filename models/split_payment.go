package models

import "time"

// Split session status, derived from the contributions.
const (
	SplitStatusPending   = "pending"
	SplitStatusPartial   = "partial"
	SplitStatusCompleted = "completed"
	SplitStatusCancelled = "cancelled"
)

// Split types.
const (
	SplitTypeEqual   = "equal"
	SplitTypeCustom  = "custom"
	SplitTypeByOrder = "by_order"
)

// Contribution status.
const (
	ContributionPending    = "pending"
	ContributionProcessing = "processing"
	ContributionPaid       = "paid"
	ContributionFailed     = "failed"
)

// Tip distribution modes.
const (
	TipEqual        = "equal"
	TipProportional = "proportional"
	TipCustom       = "custom"
)

// SplitPaymentSession is one bill-splitting event over a table session.
type SplitPaymentSession struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	SessionID     uint                `gorm:"not null;index" json:"session_id"`
	TotalAmount   float64             `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Currency      string              `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	SplitType     string              `gorm:"type:varchar(20);not null" json:"split_type"`
	Status        string              `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Contributions []SplitContribution `gorm:"foreignKey:SplitSessionID" json:"contributions,omitempty"`
	CreatedAt     time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"not null" json:"updated_at"`
}

// SplitContribution is one participant's share of a split, with its own
// payment lifecycle. Amount may grow later through tip allocation.
type SplitContribution struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	SplitSessionID uint       `gorm:"not null;index" json:"split_session_id"`
	ParticipantID  uint       `gorm:"not null;index" json:"participant_id"`
	Amount         float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentMethod  *string    `gorm:"type:varchar(50)" json:"payment_method,omitempty"`
	ProviderRef    *string    `gorm:"type:varchar(100);index" json:"provider_ref,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}
