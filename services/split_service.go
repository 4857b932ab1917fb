package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dinewell/tableside/apperrors"
	"github.com/dinewell/tableside/fanout"
	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/utils"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// SplitService computes per-participant contributions for a group bill and
// drives their payment lifecycle against the provider.
type SplitService struct {
	db       *gorm.DB
	hub      Publisher
	provider PaymentProvider
	orders   OrderReader
	validate *validator.Validate
}

func NewSplitService(db *gorm.DB, hub Publisher, provider PaymentProvider, orders OrderReader) *SplitService {
	return &SplitService{
		db:       db,
		hub:      hub,
		provider: provider,
		orders:   orders,
		validate: validator.New(),
	}
}

// CreateSplitInput is the request shape for CreateSplit.
type CreateSplitInput struct {
	SessionID      uint             `validate:"required"`
	TotalAmount    float64          `validate:"required,gt=0"`
	Currency       string           `validate:"omitempty,len=3"`
	SplitType      string           `validate:"required,oneof=equal custom by_order"`
	ParticipantIDs []uint           `validate:"required,min=1"`
	CustomAmounts  map[uint]float64 `validate:"-"`
}

// CreateSplit creates a split session with one pending contribution per
// participant.
//
// equal: every share is round(total/n) to the minor unit; the rounding
// residual is not redistributed. custom: caller-supplied amounts, shape
// checked but never reconciled against the declared total (callers
// pre-validate; a mismatch can be an intentional partial bill). by_order:
// shares derive from each participant's own non-cancelled order totals,
// falling back to equal when no order data exists.
func (s *SplitService) CreateSplit(input CreateSplitInput) (*models.SplitPaymentSession, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid split request")
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	amounts, err := s.contributionAmounts(input)
	if err != nil {
		return nil, err
	}

	var (
		split      models.SplitPaymentSession
		locationID uint
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session, table, err := sessionWithTable(tx, input.SessionID)
		if err != nil {
			return err
		}
		locationID = table.LocationID

		var members int64
		if err := tx.Model(&models.SessionParticipant{}).
			Where("session_id = ? AND id IN ?", session.ID, input.ParticipantIDs).
			Count(&members).Error; err != nil {
			return err
		}
		if int(members) != len(input.ParticipantIDs) {
			return apperrors.New(apperrors.KindValidation,
				"all split participants must belong to session %d", session.ID)
		}

		split = models.SplitPaymentSession{
			SessionID:   session.ID,
			TotalAmount: utils.RoundMinor(input.TotalAmount),
			Currency:    input.Currency,
			SplitType:   input.SplitType,
			Status:      models.SplitStatusPending,
		}
		if err := tx.Create(&split).Error; err != nil {
			return err
		}

		for _, pid := range input.ParticipantIDs {
			contribution := models.SplitContribution{
				SplitSessionID: split.ID,
				ParticipantID:  pid,
				Amount:         amounts[pid],
				Status:         models.ContributionPending,
			}
			if err := tx.Create(&contribution).Error; err != nil {
				return err
			}
			split.Contributions = append(split.Contributions, contribution)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.hub, fanout.CustomerTopic(locationID), fanout.EventSplitCreated, split)
	utils.InfoLogger.Printf("split %d created over session %d (%s, %.2f %s)",
		split.ID, split.SessionID, split.SplitType, split.TotalAmount, split.Currency)
	return &split, nil
}

// contributionAmounts resolves the per-participant base amounts for the
// chosen split type.
func (s *SplitService) contributionAmounts(input CreateSplitInput) (map[uint]float64, error) {
	amounts := make(map[uint]float64, len(input.ParticipantIDs))

	switch input.SplitType {
	case models.SplitTypeEqual:
		share := utils.EqualShare(input.TotalAmount, len(input.ParticipantIDs))
		for _, pid := range input.ParticipantIDs {
			amounts[pid] = share
		}

	case models.SplitTypeCustom:
		for _, pid := range input.ParticipantIDs {
			amount, ok := input.CustomAmounts[pid]
			if !ok {
				return nil, apperrors.New(apperrors.KindValidation,
					"missing custom amount for participant %d", pid)
			}
			if amount < 0 {
				return nil, apperrors.New(apperrors.KindValidation,
					"negative amount for participant %d", pid)
			}
			amounts[pid] = utils.RoundMinor(amount)
		}

	case models.SplitTypeByOrder:
		orders, err := s.orders.OrdersBySession(input.SessionID)
		if err != nil {
			return nil, err
		}
		if len(orders) == 0 {
			// No per-order data: fall back to an equal split.
			share := utils.EqualShare(input.TotalAmount, len(input.ParticipantIDs))
			for _, pid := range input.ParticipantIDs {
				amounts[pid] = share
			}
			break
		}
		for _, pid := range input.ParticipantIDs {
			amounts[pid] = 0
		}
		for _, o := range orders {
			if o.Status == models.OrderStatusCancelled {
				continue
			}
			if _, ok := amounts[o.ParticipantID]; ok {
				amounts[o.ParticipantID] = utils.RoundMinor(amounts[o.ParticipantID] + o.TotalAmount)
			}
		}
	}

	return amounts, nil
}

// AddTip distributes a tip over the split's contributions and raises the
// session total. equal divides evenly, proportional divides by each
// contribution's current amount, custom applies caller-supplied amounts.
func (s *SplitService) AddTip(splitID uint, tipAmount float64, distribution string, customTips map[uint]float64) (*models.SplitPaymentSession, error) {
	if tipAmount <= 0 {
		return nil, apperrors.New(apperrors.KindValidation, "tip amount must be positive")
	}

	var (
		split      models.SplitPaymentSession
		locationID uint
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Contributions").First(&split, splitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("split session")
			}
			return err
		}
		if split.Status == models.SplitStatusCompleted || split.Status == models.SplitStatusCancelled {
			return apperrors.New(apperrors.KindInvalidTransition,
				"cannot tip a %s split session", split.Status)
		}

		_, table, err := sessionWithTable(tx, split.SessionID)
		if err != nil {
			return err
		}
		locationID = table.LocationID

		shares, err := tipShares(split, tipAmount, distribution, customTips)
		if err != nil {
			return err
		}

		for i := range split.Contributions {
			c := &split.Contributions[i]
			add, ok := shares[c.ParticipantID]
			if !ok {
				continue
			}
			c.Amount = utils.RoundMinor(c.Amount + add)
			if err := tx.Model(&models.SplitContribution{}).
				Where("id = ?", c.ID).Update("amount", c.Amount).Error; err != nil {
				return err
			}
		}

		split.TotalAmount = utils.RoundMinor(split.TotalAmount + tipAmount)
		return tx.Model(&models.SplitPaymentSession{}).
			Where("id = ?", split.ID).Update("total_amount", split.TotalAmount).Error
	})
	if err != nil {
		return nil, err
	}

	publish(s.hub, fanout.CustomerTopic(locationID), fanout.EventTipAdded, split)
	return &split, nil
}

// tipShares resolves the per-participant tip portions.
func tipShares(split models.SplitPaymentSession, tipAmount float64, distribution string, customTips map[uint]float64) (map[uint]float64, error) {
	shares := make(map[uint]float64, len(split.Contributions))

	switch distribution {
	case models.TipEqual:
		per := utils.EqualShare(tipAmount, len(split.Contributions))
		for _, c := range split.Contributions {
			shares[c.ParticipantID] = per
		}

	case models.TipProportional:
		var base float64
		for _, c := range split.Contributions {
			base += c.Amount
		}
		if base <= 0 {
			return nil, apperrors.New(apperrors.KindValidation,
				"proportional tip needs non-zero contribution amounts")
		}
		for _, c := range split.Contributions {
			shares[c.ParticipantID] = utils.RoundMinor(tipAmount * c.Amount / base)
		}

	case models.TipCustom:
		for _, c := range split.Contributions {
			tip, ok := customTips[c.ParticipantID]
			if !ok {
				return nil, apperrors.New(apperrors.KindValidation,
					"missing custom tip for participant %d", c.ParticipantID)
			}
			if tip < 0 {
				return nil, apperrors.New(apperrors.KindValidation,
					"negative tip for participant %d", c.ParticipantID)
			}
			shares[c.ParticipantID] = utils.RoundMinor(tip)
		}

	default:
		return nil, apperrors.New(apperrors.KindValidation,
			"unknown tip distribution %q", distribution)
	}

	return shares, nil
}

// PayContribution opens a payment intent for a contribution, possibly for a
// partial amount, and moves it to processing. The provider confirmation
// callback finishes the transition.
func (s *SplitService) PayContribution(ctx context.Context, splitID, participantID uint, methodToken string, amount *float64) (*models.SplitContribution, error) {
	if methodToken == "" {
		return nil, apperrors.New(apperrors.KindValidation, "payment method token is required")
	}

	var (
		split        models.SplitPaymentSession
		contribution models.SplitContribution
	)
	if err := s.db.First(&split, splitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("split session")
		}
		return nil, err
	}
	if err := s.db.Where("split_session_id = ? AND participant_id = ?", splitID, participantID).
		First(&contribution).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("contribution")
		}
		return nil, err
	}
	if contribution.Status != models.ContributionPending && contribution.Status != models.ContributionFailed {
		return nil, apperrors.New(apperrors.KindInvalidTransition,
			"contribution is %s, expected pending or failed", contribution.Status)
	}

	chargeAmount := contribution.Amount
	if amount != nil {
		if *amount <= 0 || *amount > contribution.Amount {
			return nil, apperrors.New(apperrors.KindValidation,
				"amount must be within (0, %.2f]", contribution.Amount)
		}
		chargeAmount = utils.RoundMinor(*amount)
	}

	// The provider call happens outside the transaction: it may suspend and
	// must not hold locks. A timeout here leaves the contribution untouched.
	intent, err := s.provider.CreateIntent(ctx, chargeAmount, split.Currency, map[string]string{
		"split_session_id": itoa(splitID),
		"participant_id":   itoa(participantID),
	})
	if err != nil {
		return nil, err
	}

	var locationID uint
	err = s.db.Transaction(func(tx *gorm.DB) error {
		_, table, err := sessionWithTable(tx, split.SessionID)
		if err != nil {
			return err
		}
		locationID = table.LocationID

		res := tx.Model(&models.SplitContribution{}).
			Where("id = ? AND status IN ?", contribution.ID,
				[]string{models.ContributionPending, models.ContributionFailed}).
			Updates(map[string]interface{}{
				"status":         models.ContributionProcessing,
				"payment_method": methodToken,
				"provider_ref":   intent.ProviderID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.KindInvalidTransition,
				"contribution %d already progressed", contribution.ID)
		}

		payment := models.Payment{
			SessionID:      split.SessionID,
			ParticipantID:  participantID,
			ContributionID: &contribution.ID,
			Amount:         chargeAmount,
			Status:         models.PaymentStatusProcessing,
			Method:         methodToken,
			ReferenceID:    intent.ProviderID,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	contribution.Status = models.ContributionProcessing
	contribution.PaymentMethod = &methodToken
	contribution.ProviderRef = &intent.ProviderID

	publish(s.hub, fanout.CustomerTopic(locationID), fanout.EventContributionProcessing, contribution)
	return &contribution, nil
}

// ConfirmContribution applies a provider confirmation (webhook or
// reconciliation sweep) to the contribution identified by providerRef.
// The normalized status decides the transition; the owning split's status is
// recomputed in the same transaction.
func (s *SplitService) ConfirmContribution(providerRef, normalizedStatus string) error {
	var (
		contribution models.SplitContribution
		split        models.SplitPaymentSession
		locationID   uint
		applied      bool
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("provider_ref = ?", providerRef).
			First(&contribution).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("contribution")
			}
			return err
		}

		updates := map[string]interface{}{}
		switch normalizedStatus {
		case models.PaymentStatusSucceeded:
			now := time.Now()
			updates["status"] = models.ContributionPaid
			updates["paid_at"] = now
			contribution.Status = models.ContributionPaid
			contribution.PaidAt = &now
		case models.PaymentStatusFailed, models.PaymentStatusCancelled:
			updates["status"] = models.ContributionFailed
			contribution.Status = models.ContributionFailed
		default:
			// Still pending or processing on the provider side; nothing to do.
			return nil
		}

		res := tx.Model(&models.SplitContribution{}).
			Where("id = ? AND status = ?", contribution.ID, models.ContributionProcessing).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.KindInvalidTransition,
				"contribution %d is not processing", contribution.ID)
		}
		applied = true

		paymentStatus := models.PaymentStatusFailed
		if contribution.Status == models.ContributionPaid {
			paymentStatus = models.PaymentStatusSucceeded
		}
		paymentUpdates := map[string]interface{}{"status": paymentStatus}
		if contribution.PaidAt != nil {
			paymentUpdates["payment_time"] = *contribution.PaidAt
		}
		if err := tx.Model(&models.Payment{}).
			Where("reference_id = ?", providerRef).
			Updates(paymentUpdates).Error; err != nil {
			return err
		}

		if err := tx.Preload("Contributions").
			First(&split, contribution.SplitSessionID).Error; err != nil {
			return err
		}
		split.Status = deriveSplitStatus(split.Contributions)
		if err := tx.Model(&models.SplitPaymentSession{}).
			Where("id = ?", split.ID).Update("status", split.Status).Error; err != nil {
			return err
		}

		_, table, err := sessionWithTable(tx, split.SessionID)
		if err != nil {
			return err
		}
		locationID = table.LocationID
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		// Still pending or processing on the provider side; nothing changed.
		return nil
	}

	event := fanout.EventContributionFailed
	if contribution.Status == models.ContributionPaid {
		event = fanout.EventContributionPaid
	}
	publish(s.hub, fanout.CustomerTopic(locationID), event, contribution)
	if split.Status == models.SplitStatusCompleted {
		publish(s.hub, fanout.CustomerTopic(locationID), fanout.EventSplitCompleted, split)
		publish(s.hub, fanout.WaiterTopic(locationID), fanout.EventSplitCompleted, split)
	}
	return nil
}

// GetSplit returns a split session with its contributions.
func (s *SplitService) GetSplit(splitID uint) (*models.SplitPaymentSession, error) {
	var split models.SplitPaymentSession
	if err := s.db.Preload("Contributions").First(&split, splitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("split session")
		}
		return nil, err
	}
	return &split, nil
}

// deriveSplitStatus: completed iff every contribution is paid, partial when
// at least one is, pending otherwise.
func deriveSplitStatus(contributions []models.SplitContribution) string {
	if len(contributions) == 0 {
		return models.SplitStatusPending
	}
	paid := 0
	for _, c := range contributions {
		if c.Status == models.ContributionPaid {
			paid++
		}
	}
	switch {
	case paid == len(contributions):
		return models.SplitStatusCompleted
	case paid > 0:
		return models.SplitStatusPartial
	default:
		return models.SplitStatusPending
	}
}

// sessionWithTable loads a session and its table, translating missing rows
// into NotFound.
func sessionWithTable(tx *gorm.DB, sessionID uint) (*models.TableSession, *models.Table, error) {
	var session models.TableSession
	if err := tx.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("session")
		}
		return nil, nil, err
	}
	var table models.Table
	if err := tx.First(&table, session.TableID).Error; err != nil {
		return nil, nil, err
	}
	return &session, &table, nil
}

func itoa(v uint) string {
	return fmt.Sprint(v)
}
