package services

import (
	"errors"

	"github.com/dinewell/tableside/apperrors"
	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/utils"
	"gorm.io/gorm"
)

// BillService builds the derived group-bill view. It is read-only and
// recomputed on every request; nothing here is persisted.
type BillService struct {
	db     *gorm.DB
	orders OrderReader
}

func NewBillService(db *gorm.DB, orders OrderReader) *BillService {
	return &BillService{db: db, orders: orders}
}

// ParticipantBill is one participant's slice of the group bill.
type ParticipantBill struct {
	ParticipantID uint    `json:"participant_id"`
	Alias         string  `json:"alias"`
	TotalAmount   float64 `json:"total_amount"`
	PaidAmount    float64 `json:"paid_amount"`
	Remaining     float64 `json:"remaining"`
}

// GroupBillView joins orders, payments and splits for one session.
// Invariants: sum of participant totals equals the sum of non-cancelled
// order totals, and sum of paid amounts equals the sum of succeeded
// payments.
type GroupBillView struct {
	SessionID    uint                         `json:"session_id"`
	TotalAmount  float64                      `json:"total_amount"`
	PaidAmount   float64                      `json:"paid_amount"`
	Remaining    float64                      `json:"remaining"`
	Participants []ParticipantBill            `json:"participants"`
	Splits       []models.SplitPaymentSession `json:"splits"`
}

// GroupBill recomputes the bill view for a session.
func (s *BillService) GroupBill(sessionID uint) (*GroupBillView, error) {
	var session models.TableSession
	if err := s.db.Preload("Participants").First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("session")
		}
		return nil, err
	}

	orders, err := s.orders.OrdersBySession(sessionID)
	if err != nil {
		return nil, err
	}

	var payments []models.Payment
	if err := s.db.
		Where("session_id = ? AND status = ?", sessionID, models.PaymentStatusSucceeded).
		Find(&payments).Error; err != nil {
		return nil, err
	}

	bills := make(map[uint]*ParticipantBill, len(session.Participants))
	ordered := make([]uint, 0, len(session.Participants))
	for _, p := range session.Participants {
		bills[p.ID] = &ParticipantBill{ParticipantID: p.ID, Alias: p.Alias}
		ordered = append(ordered, p.ID)
	}
	// Participants who already left keep their slice of the bill so the
	// per-participant sums still add up to the session totals.
	billFor := func(participantID uint) *ParticipantBill {
		if b, ok := bills[participantID]; ok {
			return b
		}
		b := &ParticipantBill{ParticipantID: participantID, Alias: "departed"}
		bills[participantID] = b
		ordered = append(ordered, participantID)
		return b
	}

	view := &GroupBillView{SessionID: sessionID}

	for _, o := range orders {
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		view.TotalAmount = utils.RoundMinor(view.TotalAmount + o.TotalAmount)
		b := billFor(o.ParticipantID)
		b.TotalAmount = utils.RoundMinor(b.TotalAmount + o.TotalAmount)
	}

	for _, p := range payments {
		view.PaidAmount = utils.RoundMinor(view.PaidAmount + p.Amount)
		b := billFor(p.ParticipantID)
		b.PaidAmount = utils.RoundMinor(b.PaidAmount + p.Amount)
	}

	for _, id := range ordered {
		b := bills[id]
		b.Remaining = utils.RoundMinor(b.TotalAmount - b.PaidAmount)
		view.Participants = append(view.Participants, *b)
	}
	view.Remaining = utils.RoundMinor(view.TotalAmount - view.PaidAmount)

	if err := s.db.Preload("Contributions").
		Where("session_id = ?", sessionID).
		Find(&view.Splits).Error; err != nil {
		return nil, err
	}
	return view, nil
}
