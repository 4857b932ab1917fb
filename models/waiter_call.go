package models

import "time"

// CallStatus represents the lifecycle status of a waiter call
type CallStatus string

const (
	CallStatusPending      CallStatus = "pending"
	CallStatusAcknowledged CallStatus = "acknowledged"
	CallStatusInProgress   CallStatus = "in_progress"
	CallStatusResolved     CallStatus = "resolved"
)

// CallPriority represents the urgency of a waiter call
type CallPriority string

const (
	CallPriorityUrgent CallPriority = "urgent"
	CallPriorityHigh   CallPriority = "high"
	CallPriorityMedium CallPriority = "medium"
	CallPriorityLow    CallPriority = "low"
)

// PriorityRank maps a priority to its dispatch rank (urgent first).
// Unknown priorities sink to the bottom.
func PriorityRank(p CallPriority) int {
	switch p {
	case CallPriorityUrgent:
		return 1
	case CallPriorityHigh:
		return 2
	case CallPriorityMedium:
		return 3
	default:
		return 4
	}
}

// ValidPriority reports whether p is one of the four known priorities.
func ValidPriority(p CallPriority) bool {
	switch p {
	case CallPriorityUrgent, CallPriorityHigh, CallPriorityMedium, CallPriorityLow:
		return true
	}
	return false
}

// WaiterCall is a request for staff attention raised by a participant.
// Transitions only move pending -> acknowledged -> (in_progress ->) resolved.
type WaiterCall struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	SessionID        uint         `gorm:"not null;index" json:"session_id"`
	TableID          uint         `gorm:"not null" json:"table_id"`
	ParticipantID    uint         `gorm:"not null" json:"participant_id"`
	LocationID       uint         `gorm:"not null;index" json:"location_id"`
	CallType         string       `gorm:"type:varchar(50);not null" json:"call_type"`
	Priority         CallPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Status           CallStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Message          *string      `gorm:"type:varchar(255)" json:"message,omitempty"`
	AssignedWaiterID *uint        `gorm:"index" json:"assigned_waiter_id,omitempty"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
	AcknowledgedAt   *time.Time   `json:"acknowledged_at,omitempty"`
	ResolvedAt       *time.Time   `json:"resolved_at,omitempty"`
	UpdatedAt        time.Time    `gorm:"not null" json:"updated_at"`
}

// CallResponse captures the outcome of a resolved call, one row per call,
// written in the same transaction as the resolving status flip.
type CallResponse struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	CallID              uint      `gorm:"not null;uniqueIndex" json:"call_id"`
	WaiterID            uint      `gorm:"not null" json:"waiter_id"`
	ResponseTimeSeconds int       `gorm:"not null" json:"response_time_seconds"`
	Resolution          string    `gorm:"type:varchar(255)" json:"resolution"`
	Satisfaction        *int      `json:"satisfaction,omitempty"`
	CreatedAt           time.Time `gorm:"not null" json:"created_at"`
}

// WaiterStatus tracks a waiter's current workload. ActiveCalls is updated
// inside the same transaction as the call transition that changes it.
type WaiterStatus struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WaiterID    uint      `gorm:"not null;uniqueIndex" json:"waiter_id"`
	Status      string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	ActiveCalls int       `gorm:"not null;default:0" json:"active_calls"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// Waiter availability states.
const (
	WaiterAvailable = "available"
	WaiterBusy      = "busy"
)
