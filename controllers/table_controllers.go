package controllers

import (
	"net/http"

	"github.com/dinewell/tableside/fanout"
	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TableController covers the location owner's table management. Tables are
// soft-deactivated, never deleted, because sessions keep referencing them.
type TableController struct {
	DB  *gorm.DB
	Hub *fanout.Hub
}

func NewTableController(db *gorm.DB, hub *fanout.Hub) *TableController {
	return &TableController{DB: db, Hub: hub}
}

// Create -> add a table to a location
func (tc *TableController) Create(c *gin.Context) {
	var req struct {
		LocationID  uint   `json:"location_id" binding:"required"`
		TableNumber string `json:"table_number" binding:"required"`
		Capacity    int    `json:"capacity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		LocationID:  req.LocationID,
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Active:      true,
	}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if tc.Hub != nil {
		tc.Hub.Publish(fanout.LocationTopic(table.LocationID), fanout.EventTableCreated, table)
	}
	utils.InfoLogger.Printf("table %s created at location %d (capacity %d)",
		table.TableNumber, table.LocationID, table.Capacity)
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// List -> all tables for a location
func (tc *TableController) List(c *gin.Context) {
	locationID, err := paramUint(c, "location_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var tables []models.Table
	if err := tc.DB.Where("location_id = ?", locationID).Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// Get -> one table
func (tc *TableController) Get(c *gin.Context) {
	tableID, err := paramUint(c, "table_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// Update -> edit capacity or soft-toggle active
func (tc *TableController) Update(c *gin.Context) {
	tableID, err := paramUint(c, "table_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Capacity *int  `json:"capacity"`
		Active   *bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if req.Capacity != nil && *req.Capacity > 0 {
		table.Capacity = *req.Capacity
	}
	if req.Active != nil {
		table.Active = *req.Active
	}
	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if tc.Hub != nil {
		tc.Hub.Publish(fanout.LocationTopic(table.LocationID), fanout.EventTableUpdated, table)
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}
