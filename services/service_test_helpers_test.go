package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dinewell/tableside/database"
	"github.com/dinewell/tableside/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupServiceDB opens a fresh in-memory database per test.
func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Table{},
		&models.TableSession{},
		&models.SessionParticipant{},
		&models.WaiterCall{},
		&models.CallResponse{},
		&models.WaiterStatus{},
		&models.SplitPaymentSession{},
		&models.SplitContribution{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := database.ApplySchema(db); err != nil {
		t.Fatalf("failed to apply schema extras: %v", err)
	}
	return db
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(topic, event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, topic+"/"+event)
}

func (p *recordingPublisher) has(entry string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e == entry {
			return true
		}
	}
	return false
}

// seedTable inserts a table and returns it.
func seedTable(t *testing.T, db *gorm.DB, locationID uint, number string, capacity int) models.Table {
	t.Helper()
	table := models.Table{
		LocationID:  locationID,
		TableNumber: number,
		Capacity:    capacity,
		Active:      true,
	}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("seeding table: %v", err)
	}
	return table
}

// seedSession inserts an active session with n participants.
func seedSession(t *testing.T, db *gorm.DB, tableID uint, aliases ...string) (models.TableSession, []models.SessionParticipant) {
	t.Helper()
	session := models.TableSession{
		TableID:   tableID,
		StartTime: time.Now(),
		Active:    true,
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	participants := make([]models.SessionParticipant, 0, len(aliases))
	for _, alias := range aliases {
		p := models.SessionParticipant{
			SessionID: session.ID,
			Alias:     alias,
			JoinedAt:  time.Now(),
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seeding participant: %v", err)
		}
		participants = append(participants, p)
	}
	return session, participants
}
