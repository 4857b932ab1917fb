package controllers

import (
	"net/http"

	"github.com/dinewell/tableside/services"
	"github.com/dinewell/tableside/utils"
	"github.com/gin-gonic/gin"
)

type SplitController struct {
	Splits *services.SplitService
}

func NewSplitController(splits *services.SplitService) *SplitController {
	return &SplitController{Splits: splits}
}

// Create -> open a split session over the table session's bill
func (sc *SplitController) Create(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		TotalAmount    float64          `json:"total_amount" binding:"required"`
		Currency       string           `json:"currency"`
		SplitType      string           `json:"split_type" binding:"required"`
		ParticipantIDs []uint           `json:"participant_ids" binding:"required"`
		CustomAmounts  map[uint]float64 `json:"custom_amounts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	split, err := sc.Splits.CreateSplit(services.CreateSplitInput{
		SessionID:      sessionID,
		TotalAmount:    req.TotalAmount,
		Currency:       req.Currency,
		SplitType:      req.SplitType,
		ParticipantIDs: req.ParticipantIDs,
		CustomAmounts:  req.CustomAmounts,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Split session created", split)
}

// AddTip -> distribute a tip over the contributions
func (sc *SplitController) AddTip(c *gin.Context) {
	splitID, err := paramUint(c, "split_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		TipAmount    float64          `json:"tip_amount" binding:"required"`
		Distribution string           `json:"distribution" binding:"required"`
		CustomTips   map[uint]float64 `json:"custom_tips"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	split, err := sc.Splits.AddTip(splitID, req.TipAmount, req.Distribution, req.CustomTips)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tip added", split)
}

// Pay -> open a payment intent for one contribution
func (sc *SplitController) Pay(c *gin.Context) {
	splitID, err := paramUint(c, "split_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		ParticipantID      uint     `json:"participant_id" binding:"required"`
		PaymentMethodToken string   `json:"payment_method_token" binding:"required"`
		Amount             *float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	contribution, err := sc.Splits.PayContribution(c.Request.Context(),
		splitID, req.ParticipantID, req.PaymentMethodToken, req.Amount)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment processing", contribution)
}

// Get -> split session detail with contributions
func (sc *SplitController) Get(c *gin.Context) {
	splitID, err := paramUint(c, "split_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	split, err := sc.Splits.GetSplit(splitID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Split session detail", split)
}
