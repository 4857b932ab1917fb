package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dinewell/tableside/controllers"
	"github.com/dinewell/tableside/middlewares"
	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/utils"
)

func setupTestDBForUsers(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		panic(err)
	}
	return db
}

func setupUserRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	ctrl := controllers.NewUserController(db)
	router.POST("/register", ctrl.Register)
	router.POST("/login", ctrl.Login)

	staff := router.Group("/staff", middlewares.AuthMiddleware())
	staff.GET("/whoami", func(c *gin.Context) {
		id, _ := c.Get("userID")
		role, _ := c.Get("role")
		utils.RespondJSON(c, http.StatusOK, "Identity", gin.H{"user_id": id, "role": role})
	})
	return router
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForUsers(t)
	router := setupUserRouter(db)

	w := postJSON(t, router, "/register", map[string]interface{}{
		"name":     "Dana",
		"email":    "dana@example.com",
		"password": "super-secret",
		"role":     "waiter",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Weak password rejected by binding.
	w = postJSON(t, router, "/register", map[string]interface{}{
		"name":     "Eve",
		"email":    "eve@example.com",
		"password": "short",
		"role":     "waiter",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, router, "/login", map[string]interface{}{
		"email":    "dana@example.com",
		"password": "super-secret",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	token := data["token"].(string)
	assert.NotEmpty(t, token)
	assert.Equal(t, "waiter", data["role"])

	// The token authenticates staff routes.
	req, err := http.NewRequest("GET", "/staff/whoami", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var whoami map[string]interface{}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &whoami))
	assert.Equal(t, "waiter", whoami["data"].(map[string]interface{})["role"])
}

func TestLoginWrongPasswordEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForUsers(t)
	router := setupUserRouter(db)

	w := postJSON(t, router, "/register", map[string]interface{}{
		"name":     "Dana",
		"email":    "dana@example.com",
		"password": "super-secret",
		"role":     "waiter",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "/login", map[string]interface{}{
		"email":    "dana@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStaffRouteWithoutTokenEndpoint(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForUsers(t)
	router := setupUserRouter(db)

	req, err := http.NewRequest("GET", "/staff/whoami", nil)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
