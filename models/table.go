package models

import "time"

// Table is a physical table owned by a location. Tables are soft-deactivated,
// never deleted, because sessions keep referencing them.
type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LocationID  uint      `gorm:"not null;uniqueIndex:idx_tables_location_number" json:"location_id"`
	TableNumber string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_tables_location_number" json:"table_number"`
	Capacity    int       `gorm:"not null;default:4" json:"capacity"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
