package Controllers_test

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
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

const testServerKey = "sk-test"

// fakeGateway satisfies services.PaymentProvider for endpoint tests.
type fakeGateway struct {
	intents int
}

func (g *fakeGateway) CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (*services.PaymentIntent, error) {
	g.intents++
	return &services.PaymentIntent{ProviderID: fmt.Sprintf("txn-%d", g.intents)}, nil
}

func (g *fakeGateway) Confirm(ctx context.Context, providerID, method string) (*services.ProviderResult, error) {
	return &services.ProviderResult{Status: models.PaymentStatusProcessing}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, providerID string, amount float64, reason string) (*services.ProviderResult, error) {
	return &services.ProviderResult{Status: models.PaymentStatusCancelled}, nil
}

func (g *fakeGateway) Status(ctx context.Context, providerID string) (*services.ProviderResult, error) {
	return &services.ProviderResult{Status: models.PaymentStatusProcessing}, nil
}

func setupTestDBForSplits(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	err = db.AutoMigrate(
		&models.Table{},
		&models.TableSession{},
		&models.SessionParticipant{},
		&models.SplitPaymentSession{},
		&models.SplitContribution{},
		&models.Order{},
		&models.Payment{},
	)
	if err != nil {
		panic(err)
	}
	if err := database.ApplySchema(db); err != nil {
		panic(err)
	}
	return db
}

func setupSplitRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	splits := services.NewSplitService(db, nil, &fakeGateway{}, services.NewOrderStore(db))
	splitCtrl := controllers.NewSplitController(splits)
	billCtrl := controllers.NewBillController(services.NewBillService(db, services.NewOrderStore(db)))
	webhookCtrl := controllers.NewPaymentWebhookController(splits, testServerKey)

	router.POST("/sessions/:session_id/splits", splitCtrl.Create)
	router.GET("/splits/:split_id", splitCtrl.Get)
	router.POST("/splits/:split_id/tip", splitCtrl.AddTip)
	router.POST("/splits/:split_id/pay", splitCtrl.Pay)
	router.GET("/sessions/:session_id/bill", billCtrl.GroupBill)
	router.POST("/payments/webhook", webhookCtrl.Handle)
	return router
}

func seedSplitFixture(db *gorm.DB, aliases ...string) (models.TableSession, []models.SessionParticipant) {
	table := models.Table{LocationID: 1, TableNumber: "A1", Capacity: 6, Active: true}
	db.Create(&table)
	session := models.TableSession{TableID: table.ID, StartTime: time.Now(), Active: true}
	db.Create(&session)

	participants := make([]models.SessionParticipant, 0, len(aliases))
	for _, alias := range aliases {
		p := models.SessionParticipant{SessionID: session.ID, Alias: alias, JoinedAt: time.Now()}
		db.Create(&p)
		participants = append(participants, p)
	}
	return session, participants
}

func webhookSignature(transactionID, statusCode, grossAmount string) string {
	h := sha512.Sum512([]byte(transactionID + statusCode + grossAmount + testServerKey))
	return hex.EncodeToString(h[:])
}

func TestCreateSplitEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForSplits(t)
	session, participants := seedSplitFixture(db, "A", "B", "C")

	router := setupSplitRouter(db)

	w := postJSON(t, router, fmt.Sprintf("/sessions/%d/splits", session.ID), map[string]interface{}{
		"total_amount":    60.00,
		"split_type":      "equal",
		"participant_ids": []uint{participants[0].ID, participants[1].ID, participants[2].ID},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	contributions := data["contributions"].([]interface{})
	assert.Len(t, contributions, 3)
	for _, raw := range contributions {
		c := raw.(map[string]interface{})
		assert.InDelta(t, 20.00, c["amount"].(float64), 0.001)
	}
}

func TestCreateSplitValidationEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForSplits(t)
	session, participants := seedSplitFixture(db, "A", "B")

	router := setupSplitRouter(db)

	w := postJSON(t, router, fmt.Sprintf("/sessions/%d/splits", session.ID), map[string]interface{}{
		"total_amount":    50.00,
		"split_type":      "custom",
		"participant_ids": []uint{participants[0].ID, participants[1].ID},
		"custom_amounts":  map[string]float64{fmt.Sprint(participants[0].ID): 30.00},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "validation_error", response["kind"])
}

func TestPayAndWebhookEndpoints(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForSplits(t)
	session, participants := seedSplitFixture(db, "A")

	router := setupSplitRouter(db)

	w := postJSON(t, router, fmt.Sprintf("/sessions/%d/splits", session.ID), map[string]interface{}{
		"total_amount":    18.00,
		"split_type":      "equal",
		"participant_ids": []uint{participants[0].ID},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	splitID := created["data"].(map[string]interface{})["id"].(float64)

	w = postJSON(t, router, fmt.Sprintf("/splits/%.0f/pay", splitID), map[string]interface{}{
		"participant_id":       participants[0].ID,
		"payment_method_token": "tok_visa",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var paying map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &paying))
	providerRef := paying["data"].(map[string]interface{})["provider_ref"].(string)
	assert.NotEmpty(t, providerRef)

	// Forged signature is rejected.
	w = postJSON(t, router, "/payments/webhook", map[string]interface{}{
		"transaction_id":     providerRef,
		"transaction_status": "settlement",
		"status_code":        "200",
		"gross_amount":       "18.00",
		"signature_key":      "forged",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, router, "/payments/webhook", map[string]interface{}{
		"transaction_id":     providerRef,
		"transaction_status": "settlement",
		"status_code":        "200",
		"gross_amount":       "18.00",
		"signature_key":      webhookSignature(providerRef, "200", "18.00"),
	})
	assert.Equal(t, http.StatusOK, w.Code)

	req, err := http.NewRequest("GET", fmt.Sprintf("/splits/%.0f", splitID), nil)
	assert.NoError(t, err)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var detail map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	data := detail["data"].(map[string]interface{})
	assert.Equal(t, "completed", data["status"])
	contribution := data["contributions"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "paid", contribution["status"])
}

func TestAddTipEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForSplits(t)
	session, participants := seedSplitFixture(db, "A", "B")

	router := setupSplitRouter(db)

	w := postJSON(t, router, fmt.Sprintf("/sessions/%d/splits", session.ID), map[string]interface{}{
		"total_amount":    40.00,
		"split_type":      "equal",
		"participant_ids": []uint{participants[0].ID, participants[1].ID},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	splitID := created["data"].(map[string]interface{})["id"].(float64)

	w = postJSON(t, router, fmt.Sprintf("/splits/%.0f/tip", splitID), map[string]interface{}{
		"tip_amount":   6.00,
		"distribution": "equal",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var tipped map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &tipped))
	data := tipped["data"].(map[string]interface{})
	assert.InDelta(t, 46.00, data["total_amount"].(float64), 0.001)
}

func TestGroupBillEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForSplits(t)
	session, participants := seedSplitFixture(db, "A", "B")

	db.Create(&models.Order{SessionID: session.ID, ParticipantID: participants[0].ID,
		Status: models.OrderStatusCompleted, TotalAmount: 25.00})
	db.Create(&models.Order{SessionID: session.ID, ParticipantID: participants[1].ID,
		Status: models.OrderStatusCancelled, TotalAmount: 99.00})

	router := setupSplitRouter(db)

	req, err := http.NewRequest("GET", fmt.Sprintf("/sessions/%d/bill", session.ID), nil)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.InDelta(t, 25.00, data["total_amount"].(float64), 0.001)
	assert.InDelta(t, 25.00, data["remaining"].(float64), 0.001)
}
