package services

import (
	"errors"
	"time"

	"github.com/dinewell/tableside/apperrors"
	"github.com/dinewell/tableside/fanout"
	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/utils"
	"gorm.io/gorm"
)

// Advisory base response minutes per priority, displayed to customers.
var baseResponseMinutes = map[models.CallPriority]int{
	models.CallPriorityUrgent: 2,
	models.CallPriorityHigh:   5,
	models.CallPriorityMedium: 10,
	models.CallPriorityLow:    15,
}

// Dispatch fairness rule: priority rank first, oldest first within a tier.
const dispatchOrder = `CASE priority
	WHEN 'urgent' THEN 1
	WHEN 'high' THEN 2
	WHEN 'medium' THEN 3
	ELSE 4 END, created_at ASC`

// CallService runs the waiter-call state machine. Transitions are
// compare-and-swap updates guarded by the current status, so a call whose
// status has already moved on fails with InvalidStateTransition instead of
// double-applying.
type CallService struct {
	db  *gorm.DB
	hub Publisher
}

func NewCallService(db *gorm.DB, hub Publisher) *CallService {
	return &CallService{db: db, hub: hub}
}

// CreateCall raises a waiter call for a participant in an active session.
// Priority defaults to medium.
func (s *CallService) CreateCall(sessionID, participantID uint, callType string, priority models.CallPriority, message string) (*models.WaiterCall, error) {
	if callType == "" {
		return nil, apperrors.New(apperrors.KindValidation, "call_type is required")
	}
	if priority == "" {
		priority = models.CallPriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, apperrors.New(apperrors.KindValidation, "unknown priority %q", priority)
	}

	var call models.WaiterCall
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session models.TableSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("session")
			}
			return err
		}
		if !session.Active {
			return apperrors.New(apperrors.KindInvalidTransition, "session has ended")
		}

		var participant models.SessionParticipant
		if err := tx.Where("id = ? AND session_id = ?", participantID, sessionID).
			First(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("participant")
			}
			return err
		}

		var table models.Table
		if err := tx.First(&table, session.TableID).Error; err != nil {
			return err
		}

		call = models.WaiterCall{
			SessionID:     sessionID,
			TableID:       table.ID,
			ParticipantID: participantID,
			LocationID:    table.LocationID,
			CallType:      callType,
			Priority:      priority,
			Status:        models.CallStatusPending,
		}
		if message != "" {
			call.Message = &message
		}
		return tx.Create(&call).Error
	})
	if err != nil {
		return nil, err
	}

	publish(s.hub, fanout.WaiterTopic(call.LocationID), fanout.EventCallCreated, call)
	utils.InfoLogger.Printf("call %d created (%s, %s) for session %d", call.ID, call.CallType, call.Priority, call.SessionID)
	return &call, nil
}

// Acknowledge assigns the call to a waiter. Legal only from pending; a
// second acknowledge loses the CAS and is rejected.
func (s *CallService) Acknowledge(callID, waiterID uint, etaMinutes *int) error {
	var call models.WaiterCall

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&call, callID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("call")
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.WaiterCall{}).
			Where("id = ? AND status = ?", callID, models.CallStatusPending).
			Updates(map[string]interface{}{
				"status":             models.CallStatusAcknowledged,
				"assigned_waiter_id": waiterID,
				"acknowledged_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// call.Status is a pre-CAS snapshot and may be stale after a
			// lost race, so the message does not quote it.
			return apperrors.New(apperrors.KindInvalidTransition,
				"call %d is not pending, cannot acknowledge", callID)
		}

		if err := adjustWaiterLoad(tx, waiterID, +1); err != nil {
			return err
		}

		call.Status = models.CallStatusAcknowledged
		call.AssignedWaiterID = &waiterID
		call.AcknowledgedAt = &now
		return nil
	})
	if err != nil {
		return err
	}

	data := map[string]interface{}{"call": call}
	if etaMinutes != nil {
		data["estimated_arrival_minutes"] = *etaMinutes
	}
	publish(s.hub, fanout.CustomerTopic(call.LocationID), fanout.EventCallAcknowledged, data)
	publish(s.hub, fanout.WaiterTopic(call.LocationID), fanout.EventCallAcknowledged, data)
	return nil
}

// StartProgress moves an acknowledged call to in_progress. Only the assigned
// waiter may do this.
func (s *CallService) StartProgress(callID, waiterID uint) error {
	var call models.WaiterCall

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&call, callID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("call")
			}
			return err
		}

		res := tx.Model(&models.WaiterCall{}).
			Where("id = ? AND status = ? AND assigned_waiter_id = ?",
				callID, models.CallStatusAcknowledged, waiterID).
			Update("status", models.CallStatusInProgress)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.KindInvalidTransition,
				"call %d cannot move to in_progress", callID)
		}
		call.Status = models.CallStatusInProgress
		return nil
	})
	if err != nil {
		return err
	}

	publish(s.hub, fanout.CustomerTopic(call.LocationID), fanout.EventCallInProgress, call)
	return nil
}

// Resolve closes the call and records the response. Legal from acknowledged
// or in_progress, only by the assigned waiter. The elapsed response time is
// measured from acknowledgment (or creation if the call skipped straight to
// resolution) and floored at zero.
func (s *CallService) Resolve(callID, waiterID uint, resolution string, satisfaction *int) error {
	var (
		call     models.WaiterCall
		response models.CallResponse
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&call, callID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("call")
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.WaiterCall{}).
			Where("id = ? AND status IN ? AND assigned_waiter_id = ?",
				callID,
				[]models.CallStatus{models.CallStatusAcknowledged, models.CallStatusInProgress},
				waiterID).
			Updates(map[string]interface{}{
				"status":      models.CallStatusResolved,
				"resolved_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.KindInvalidTransition,
				"call %d cannot be resolved by waiter %d", callID, waiterID)
		}

		since := call.CreatedAt
		if call.AcknowledgedAt != nil {
			since = *call.AcknowledgedAt
		}
		elapsed := int(now.Sub(since).Seconds())
		if elapsed < 0 {
			elapsed = 0
		}

		response = models.CallResponse{
			CallID:              callID,
			WaiterID:            waiterID,
			ResponseTimeSeconds: elapsed,
			Resolution:          resolution,
			Satisfaction:        satisfaction,
		}
		if err := tx.Create(&response).Error; err != nil {
			return err
		}

		if err := adjustWaiterLoad(tx, waiterID, -1); err != nil {
			return err
		}

		call.Status = models.CallStatusResolved
		call.ResolvedAt = &now
		return nil
	})
	if err != nil {
		return err
	}

	publish(s.hub, fanout.CustomerTopic(call.LocationID), fanout.EventCallResolved, call)
	publish(s.hub, fanout.WaiterTopic(call.LocationID), fanout.EventCallResolved, response)
	utils.InfoLogger.Printf("call %d resolved by waiter %d in %ds", callID, waiterID, response.ResponseTimeSeconds)
	return nil
}

// ActiveCall couples a call with its advisory estimated response time.
type ActiveCall struct {
	models.WaiterCall
	EstimatedResponseMinutes int `json:"estimated_response_minutes"`
}

// ListActiveCalls returns unresolved calls for a location in dispatch order:
// priority rank ascending, then creation time ascending within a tier.
func (s *CallService) ListActiveCalls(locationID uint) ([]ActiveCall, error) {
	var calls []models.WaiterCall
	err := s.db.
		Where("location_id = ? AND status <> ?", locationID, models.CallStatusResolved).
		Order(dispatchOrder).
		Find(&calls).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]ActiveCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, ActiveCall{
			WaiterCall:               c,
			EstimatedResponseMinutes: EstimatedResponseMinutes(c, now),
		})
	}
	return out, nil
}

// EstimatedResponseMinutes is display data, never negative:
// max(0, base[priority] - minutes since creation).
func EstimatedResponseMinutes(call models.WaiterCall, now time.Time) int {
	base, ok := baseResponseMinutes[call.Priority]
	if !ok {
		base = baseResponseMinutes[models.CallPriorityMedium]
	}
	est := base - int(now.Sub(call.CreatedAt).Minutes())
	if est < 0 {
		return 0
	}
	return est
}

// WaiterLoad returns the waiter's tracked workload row, zero-valued when the
// waiter has never taken a call.
func (s *CallService) WaiterLoad(waiterID uint) (*models.WaiterStatus, error) {
	var ws models.WaiterStatus
	err := s.db.Where("waiter_id = ?", waiterID).First(&ws).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.WaiterStatus{WaiterID: waiterID, Status: models.WaiterAvailable}, nil
		}
		return nil, err
	}
	return &ws, nil
}

// adjustWaiterLoad maintains the waiter's active-call counter inside the
// same transaction as the transition that changes it.
func adjustWaiterLoad(tx *gorm.DB, waiterID uint, delta int) error {
	var ws models.WaiterStatus
	err := tx.Where("waiter_id = ?", waiterID).First(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ws = models.WaiterStatus{WaiterID: waiterID}
	} else if err != nil {
		return err
	}

	ws.ActiveCalls += delta
	if ws.ActiveCalls < 0 {
		ws.ActiveCalls = 0
	}
	if ws.ActiveCalls == 0 {
		ws.Status = models.WaiterAvailable
	} else {
		ws.Status = models.WaiterBusy
	}
	return tx.Save(&ws).Error
}
