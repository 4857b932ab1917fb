package controllers

import (
	"net/http"
	"strconv"

	"github.com/dinewell/tableside/services"
	"github.com/dinewell/tableside/utils"
	"github.com/gin-gonic/gin"
)

type SessionController struct {
	Sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// CheckIn -> seat a diner at a table, creating or reusing the session
func (sc *SessionController) CheckIn(c *gin.Context) {
	var req struct {
		LocationID  uint   `json:"location_id" binding:"required"`
		TableNumber string `json:"table_number" binding:"required"`
		UserID      *uint  `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := sc.Sessions.CheckIn(req.LocationID, req.TableNumber, req.UserID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Checked in", res)
}

// Join -> add a diner to a named session via a shared link
func (sc *SessionController) Join(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Alias  string `json:"alias"`
		UserID *uint  `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := sc.Sessions.JoinBySession(sessionID, req.Alias, req.UserID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Joined session", res)
}

// Leave -> remove a participant; the last departure ends the session
func (sc *SessionController) Leave(c *gin.Context) {
	participantID, err := paramUint(c, "participant_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := sc.Sessions.Leave(participantID); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Left session", gin.H{"participant_id": participantID})
}

// End -> staff closes a session regardless of occupancy
func (sc *SessionController) End(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := sc.Sessions.EndSession(sessionID); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session ended", gin.H{"session_id": sessionID})
}

// Get -> session detail with participants
func (sc *SessionController) Get(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.GetSession(sessionID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", session)
}

func paramUint(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
