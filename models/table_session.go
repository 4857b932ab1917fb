package models

import "time"

// TableSession is the lifetime window during which one or more participants
// are checked in at a table. At most one session per table is active.
type TableSession struct {
	ID           uint                 `gorm:"primaryKey" json:"id"`
	TableID      uint                 `gorm:"not null;index" json:"table_id"`
	Table        Table                `gorm:"foreignKey:TableID" json:"table,omitempty"`
	StartTime    time.Time            `gorm:"not null" json:"start_time"`
	EndTime      *time.Time           `json:"end_time,omitempty"`
	Active       bool                 `gorm:"not null;default:true;index" json:"active"`
	Participants []SessionParticipant `gorm:"foreignKey:SessionID" json:"participants,omitempty"`
	CreatedAt    time.Time            `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time            `gorm:"not null" json:"updated_at"`
}

// SessionParticipant is a diner inside a session, shown to the rest of the
// party under a display alias that is unique within the session.
type SessionParticipant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Alias     string    `gorm:"type:varchar(100);not null" json:"alias"`
	JoinedAt  time.Time `gorm:"not null" json:"joined_at"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
