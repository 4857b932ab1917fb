package models

import "time"

// Order status values mirrored from the order service. An order is terminal
// once completed or cancelled; anything else blocks its participant from
// leaving the session.
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusProcessing     = "processing"
	OrderStatusReady          = "ready"
	OrderStatusServed         = "served"
	OrderStatusCompleted      = "completed"
	OrderStatusCancelled      = "cancelled"
)

// OrderTerminal reports whether status needs no further kitchen or payment
// action.
func OrderTerminal(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

// Order is the read model of the external order service, joined into the
// group bill and consulted on leave for the pending-order check.
type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	SessionID     uint        `gorm:"not null;index" json:"session_id"`
	ParticipantID uint        `gorm:"not null;index" json:"participant_id"`
	Status        string      `gorm:"type:varchar(20);not null;default:'pending_payment'" json:"status"`
	TotalAmount   float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	OrderItems    []OrderItem `gorm:"foreignKey:OrderID" json:"order_items,omitempty"`
	CreatedAt     time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
}

type OrderItem struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	OrderID  uint    `gorm:"not null;index" json:"order_id"`
	Name     string  `gorm:"type:varchar(100);not null" json:"name"`
	Quantity int     `gorm:"not null;default:1" json:"quantity"`
	Price    float64 `gorm:"type:decimal(10,2);not null" json:"price"`
}
