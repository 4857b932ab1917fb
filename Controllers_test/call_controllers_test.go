package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dinewell/tableside/controllers"
	"github.com/dinewell/tableside/database"
	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/services"
	"github.com/dinewell/tableside/utils"
)

func setupTestDBForCalls(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	err = db.AutoMigrate(
		&models.Table{},
		&models.TableSession{},
		&models.SessionParticipant{},
		&models.WaiterCall{},
		&models.CallResponse{},
		&models.WaiterStatus{},
	)
	if err != nil {
		panic(err)
	}
	if err := database.ApplySchema(db); err != nil {
		panic(err)
	}
	return db
}

// asWaiter mimics the auth middleware for staff-only routes.
func asWaiter(waiterID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", waiterID)
		c.Set("role", models.RoleWaiter)
		c.Next()
	}
}

func setupCallRouter(db *gorm.DB, waiterID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	calls := services.NewCallService(db, nil)
	ctrl := controllers.NewCallController(calls)

	router.POST("/sessions/:session_id/calls", ctrl.Create)

	staff := router.Group("/staff", asWaiter(waiterID))
	staff.POST("/calls/:call_id/acknowledge", ctrl.Acknowledge)
	staff.POST("/calls/:call_id/progress", ctrl.StartProgress)
	staff.POST("/calls/:call_id/resolve", ctrl.Resolve)
	staff.GET("/locations/:location_id/calls", ctrl.ListActive)
	return router
}

func seedCallFixture(db *gorm.DB) (models.TableSession, models.SessionParticipant) {
	table := models.Table{LocationID: 1, TableNumber: "A1", Capacity: 4, Active: true}
	db.Create(&table)
	session := models.TableSession{TableID: table.ID, StartTime: time.Now(), Active: true}
	db.Create(&session)
	participant := models.SessionParticipant{SessionID: session.ID, Alias: "Hungry Otter", JoinedAt: time.Now()}
	db.Create(&participant)
	return session, participant
}

func TestCreateCallEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForCalls(t)
	session, participant := seedCallFixture(db)

	router := setupCallRouter(db, 7)

	w := postJSON(t, router, fmt.Sprintf("/sessions/%d/calls", session.ID), map[string]interface{}{
		"participant_id": participant.ID,
		"call_type":      "water_refill",
		"priority":       "high",
		"message":        "still waiting",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "high", data["priority"])
}

func TestCallLifecycleEndpoints(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForCalls(t)
	session, participant := seedCallFixture(db)

	router := setupCallRouter(db, 7)

	w := postJSON(t, router, fmt.Sprintf("/sessions/%d/calls", session.ID), map[string]interface{}{
		"participant_id": participant.ID,
		"call_type":      "bill_request",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	callID := created["data"].(map[string]interface{})["id"].(float64)

	w = postJSON(t, router, fmt.Sprintf("/staff/calls/%.0f/acknowledge", callID), map[string]interface{}{
		"estimated_arrival_minutes": 3,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Second acknowledge conflicts.
	w = postJSON(t, router, fmt.Sprintf("/staff/calls/%.0f/acknowledge", callID), map[string]interface{}{})
	assert.Equal(t, http.StatusConflict, w.Code)

	var conflict map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &conflict))
	assert.Equal(t, "invalid_state_transition", conflict["kind"])

	w = postJSON(t, router, fmt.Sprintf("/staff/calls/%.0f/progress", callID), map[string]interface{}{})
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, router, fmt.Sprintf("/staff/calls/%.0f/resolve", callID), map[string]interface{}{
		"resolution":   "brought the bill",
		"satisfaction": 5,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var call models.WaiterCall
	assert.NoError(t, db.First(&call, uint(callID)).Error)
	assert.Equal(t, models.CallStatusResolved, call.Status)
}

func TestListActiveCallsEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForCalls(t)
	session, participant := seedCallFixture(db)

	router := setupCallRouter(db, 7)

	for _, priority := range []string{"low", "urgent"} {
		w := postJSON(t, router, fmt.Sprintf("/sessions/%d/calls", session.ID), map[string]interface{}{
			"participant_id": participant.ID,
			"call_type":      "assistance",
			"priority":       priority,
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	req, err := http.NewRequest("GET", "/staff/locations/1/calls", nil)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 2)

	first := data[0].(map[string]interface{})
	assert.Equal(t, "urgent", first["priority"])
}
