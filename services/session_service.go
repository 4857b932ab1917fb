package services

import (
	"errors"
	"time"

	"github.com/dinewell/tableside/apperrors"
	"github.com/dinewell/tableside/fanout"
	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Retries for generated aliases before giving up with AliasExhausted.
const aliasMaxAttempts = 10

// SessionService owns table occupancy: check-in, join, leave and session
// termination. Every mutating operation runs as one transaction; the
// capacity check and the participant insert serialize on a row lock of the
// table, so concurrent check-ins can never overshoot capacity.
type SessionService struct {
	db     *gorm.DB
	hub    Publisher
	orders OrderReader
}

func NewSessionService(db *gorm.DB, hub Publisher, orders OrderReader) *SessionService {
	return &SessionService{db: db, hub: hub, orders: orders}
}

// CheckInResult is what a successful check-in hands back to the UI layer.
type CheckInResult struct {
	Session     models.TableSession       `json:"session"`
	Participant models.SessionParticipant `json:"participant"`
	Table       models.Table              `json:"table"`
	NewSession  bool                      `json:"new_session"`
}

// CheckIn seats a diner at a table, reusing the table's active session or
// starting a new one.
func (s *SessionService) CheckIn(locationID uint, tableNumber string, userID *uint) (*CheckInResult, error) {
	var res CheckInResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("location_id = ? AND table_number = ? AND active = ?", locationID, tableNumber, true).
			First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("table")
			}
			return err
		}

		session, created, err := activeSessionLocked(tx, table.ID)
		if err != nil {
			return err
		}

		participant, err := s.addParticipantLocked(tx, session, &table, "", userID)
		if err != nil {
			return err
		}

		res = CheckInResult{Session: *session, Participant: *participant, Table: table, NewSession: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.NewSession {
		publish(s.hub, fanout.LocationTopic(res.Table.LocationID), fanout.EventSessionStarted, res.Session)
	}
	publish(s.hub, fanout.LocationTopic(res.Table.LocationID), fanout.EventParticipantJoined, res.Participant)

	utils.InfoLogger.Printf("participant %d checked in at table %s (session %d)",
		res.Participant.ID, res.Table.TableNumber, res.Session.ID)
	return &res, nil
}

// JoinBySession adds a diner to an explicitly named session, used for direct
// session links shared within a party. Same capacity and alias rules as
// CheckIn.
func (s *SessionService) JoinBySession(sessionID uint, customAlias string, userID *uint) (*CheckInResult, error) {
	var res CheckInResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session models.TableSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("session")
			}
			return err
		}

		// Serialize with concurrent check-ins and closes on the same table.
		var table models.Table
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&table, session.TableID).Error; err != nil {
			return err
		}

		// The pre-lock read is only good for the table id; a concurrent
		// leave or staff close may have ended the session while we waited
		// for the lock, so the active flag must be read again under it.
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if !session.Active {
			return apperrors.New(apperrors.KindInvalidTransition, "session has ended")
		}

		participant, err := s.addParticipantLocked(tx, &session, &table, customAlias, userID)
		if err != nil {
			return err
		}

		res = CheckInResult{Session: session, Participant: *participant, Table: table}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.hub, fanout.LocationTopic(res.Table.LocationID), fanout.EventParticipantJoined, res.Participant)
	return &res, nil
}

// Leave removes a participant. Leaving with non-terminal orders is refused;
// the departure of the last participant ends the session in the same
// transaction.
func (s *SessionService) Leave(participantID uint) error {
	var (
		table   models.Table
		session models.TableSession
		ended   bool
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var participant models.SessionParticipant
		if err := tx.First(&participant, participantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("participant")
			}
			return err
		}

		if err := tx.First(&session, participant.SessionID).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&table, session.TableID).Error; err != nil {
			return err
		}

		orders, err := s.orders.OrdersBySession(session.ID)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if o.ParticipantID == participant.ID && !models.OrderTerminal(o.Status) {
				return apperrors.New(apperrors.KindPendingOrders,
					"participant has orders that are not completed or cancelled")
			}
		}

		if err := tx.Delete(&models.SessionParticipant{}, participant.ID).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.SessionParticipant{}).
			Where("session_id = ?", session.ID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			now := time.Now()
			if err := tx.Model(&session).
				Updates(map[string]interface{}{"active": false, "end_time": now}).Error; err != nil {
				return err
			}
			ended = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	publish(s.hub, fanout.LocationTopic(table.LocationID), fanout.EventParticipantLeft, map[string]interface{}{
		"participant_id": participantID,
		"session_id":     session.ID,
	})
	if ended {
		publish(s.hub, fanout.LocationTopic(table.LocationID), fanout.EventSessionEnded, session)
		utils.InfoLogger.Printf("session %d ended, last participant left", session.ID)
	}
	return nil
}

// EndSession terminates a session regardless of occupancy. Staff use this to
// close out a table.
func (s *SessionService) EndSession(sessionID uint) error {
	var (
		table   models.Table
		session models.TableSession
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("session")
			}
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&table, session.TableID).Error; err != nil {
			return err
		}

		// Guard on active in the update itself: a concurrent leave or
		// second close that won the lock first already ended the session.
		now := time.Now()
		res := tx.Model(&models.TableSession{}).
			Where("id = ? AND active = ?", session.ID, true).
			Updates(map[string]interface{}{"active": false, "end_time": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.KindInvalidTransition, "session already ended")
		}
		session.Active = false
		session.EndTime = &now
		return nil
	})
	if err != nil {
		return err
	}

	publish(s.hub, fanout.LocationTopic(table.LocationID), fanout.EventSessionEnded, session)
	utils.InfoLogger.Printf("session %d closed by staff", session.ID)
	return nil
}

// GetSession returns a session with its participants.
func (s *SessionService) GetSession(sessionID uint) (*models.TableSession, error) {
	var session models.TableSession
	err := s.db.Preload("Participants").Preload("Table").First(&session, sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("session")
		}
		return nil, err
	}
	return &session, nil
}

// activeSessionLocked finds the table's active session or starts one. The
// caller must already hold the table row lock.
func activeSessionLocked(tx *gorm.DB, tableID uint) (*models.TableSession, bool, error) {
	var session models.TableSession
	err := tx.Where("table_id = ? AND active = ?", tableID, true).First(&session).Error
	if err == nil {
		return &session, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	session = models.TableSession{
		TableID:   tableID,
		StartTime: time.Now(),
		Active:    true,
	}
	if err := tx.Create(&session).Error; err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

// addParticipantLocked applies the capacity check and alias uniqueness rule,
// then inserts the participant. Caller holds the table row lock.
func (s *SessionService) addParticipantLocked(tx *gorm.DB, session *models.TableSession, table *models.Table, customAlias string, userID *uint) (*models.SessionParticipant, error) {
	var occupancy int64
	if err := tx.Model(&models.SessionParticipant{}).
		Where("session_id = ?", session.ID).Count(&occupancy).Error; err != nil {
		return nil, err
	}
	if int(occupancy) >= table.Capacity {
		return nil, apperrors.New(apperrors.KindCapacityExceeded,
			"table %s is full (%d seats)", table.TableNumber, table.Capacity)
	}

	alias, err := uniqueAlias(tx, session.ID, customAlias)
	if err != nil {
		return nil, err
	}

	participant := models.SessionParticipant{
		SessionID: session.ID,
		UserID:    userID,
		Alias:     alias,
		JoinedAt:  time.Now(),
	}
	if err := tx.Create(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

// uniqueAlias returns customAlias after checking it is free, or generates a
// two-word alias with a bounded retry loop.
func uniqueAlias(tx *gorm.DB, sessionID uint, customAlias string) (string, error) {
	taken := func(alias string) (bool, error) {
		var n int64
		err := tx.Model(&models.SessionParticipant{}).
			Where("session_id = ? AND alias = ?", sessionID, alias).Count(&n).Error
		return n > 0, err
	}

	if customAlias != "" {
		used, err := taken(customAlias)
		if err != nil {
			return "", err
		}
		if used {
			return "", apperrors.New(apperrors.KindValidation, "alias %q is already in use", customAlias)
		}
		return customAlias, nil
	}

	for i := 0; i < aliasMaxAttempts; i++ {
		alias := utils.RandomAlias()
		used, err := taken(alias)
		if err != nil {
			return "", err
		}
		if !used {
			return alias, nil
		}
	}
	return "", apperrors.New(apperrors.KindAliasExhausted,
		"no unique alias found after %d attempts", aliasMaxAttempts)
}
