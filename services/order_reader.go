package services

import (
	"github.com/dinewell/tableside/models"
	"gorm.io/gorm"
)

// OrderReader is the consumed face of the external order service.
type OrderReader interface {
	OrdersBySession(sessionID uint) ([]models.Order, error)
}

// OrderStore reads orders from the shared database. It stands in for the
// order service when both run against the same store.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (os *OrderStore) OrdersBySession(sessionID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := os.db.Where("session_id = ?", sessionID).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
