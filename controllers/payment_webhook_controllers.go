package controllers

import (
	"errors"
	"net/http"

	"github.com/dinewell/tableside/services"
	"github.com/dinewell/tableside/utils"
	"github.com/gin-gonic/gin"
)

// PaymentWebhookController receives provider confirmation callbacks.
type PaymentWebhookController struct {
	Splits    *services.SplitService
	ServerKey string
}

func NewPaymentWebhookController(splits *services.SplitService, serverKey string) *PaymentWebhookController {
	return &PaymentWebhookController{Splits: splits, ServerKey: serverKey}
}

// Handle -> verify the callback signature and apply the normalized status
func (pc *PaymentWebhookController) Handle(c *gin.Context) {
	var req struct {
		TransactionID     string `json:"transaction_id" binding:"required"`
		TransactionStatus string `json:"transaction_status" binding:"required"`
		StatusCode        string `json:"status_code"`
		GrossAmount       string `json:"gross_amount"`
		SignatureKey      string `json:"signature_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !services.VerifySignature(req.TransactionID, req.StatusCode, req.GrossAmount, pc.ServerKey, req.SignatureKey) {
		utils.ErrorLogger.Printf("webhook signature mismatch for %s", req.TransactionID)
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid signature"))
		return
	}

	status := services.NormalizeProviderStatus(req.TransactionStatus)
	if err := pc.Splits.ConfirmContribution(req.TransactionID, status); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Callback processed", gin.H{
		"transaction_id": req.TransactionID,
		"status":         status,
	})
}
