package controllers

import (
	"errors"
	"net/http"

	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/services"
	"github.com/dinewell/tableside/utils"
	"github.com/gin-gonic/gin"
)

type CallController struct {
	Calls *services.CallService
}

func NewCallController(calls *services.CallService) *CallController {
	return &CallController{Calls: calls}
}

// Create -> a participant raises a waiter call
func (cc *CallController) Create(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		ParticipantID uint   `json:"participant_id" binding:"required"`
		CallType      string `json:"call_type" binding:"required"`
		Priority      string `json:"priority"`
		Message       string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	call, err := cc.Calls.CreateCall(sessionID, req.ParticipantID, req.CallType,
		models.CallPriority(req.Priority), req.Message)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Call created", call)
}

// Acknowledge -> the authenticated waiter takes the call
func (cc *CallController) Acknowledge(c *gin.Context) {
	callID, err := paramUint(c, "call_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	waiterID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("waiter identity missing"))
		return
	}

	var req struct {
		EstimatedArrivalMinutes *int `json:"estimated_arrival_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := cc.Calls.Acknowledge(callID, waiterID, req.EstimatedArrivalMinutes); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Call acknowledged", gin.H{"call_id": callID})
}

// StartProgress -> the assigned waiter is now handling the call
func (cc *CallController) StartProgress(c *gin.Context) {
	callID, err := paramUint(c, "call_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	waiterID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("waiter identity missing"))
		return
	}

	if err := cc.Calls.StartProgress(callID, waiterID); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Call in progress", gin.H{"call_id": callID})
}

// Resolve -> the assigned waiter closes the call
func (cc *CallController) Resolve(c *gin.Context) {
	callID, err := paramUint(c, "call_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	waiterID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("waiter identity missing"))
		return
	}

	var req struct {
		Resolution   string `json:"resolution"`
		Satisfaction *int   `json:"satisfaction"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := cc.Calls.Resolve(callID, waiterID, req.Resolution, req.Satisfaction); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Call resolved", gin.H{"call_id": callID})
}

// ListActive -> unresolved calls for a location in dispatch order
func (cc *CallController) ListActive(c *gin.Context) {
	locationID, err := paramUint(c, "location_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	calls, err := cc.Calls.ListActiveCalls(locationID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active calls", calls)
}

// currentUserID pulls the authenticated staff id set by the auth middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
