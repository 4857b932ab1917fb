package controllers

import (
	"net/http"

	"github.com/dinewell/tableside/services"
	"github.com/dinewell/tableside/utils"
	"github.com/gin-gonic/gin"
)

type BillController struct {
	Bills *services.BillService
}

func NewBillController(bills *services.BillService) *BillController {
	return &BillController{Bills: bills}
}

// GroupBill -> derived bill view for a session, recomputed on every read
func (bc *BillController) GroupBill(c *gin.Context) {
	sessionID, err := paramUint(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	view, err := bc.Bills.GroupBill(sessionID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Group bill", view)
}
