package router

import (
	"github.com/dinewell/tableside/controllers"
	"github.com/dinewell/tableside/fanout"
	"github.com/dinewell/tableside/middlewares"
	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the explicitly constructed service objects the routes need. No
// ambient globals: everything is injected here and passed to controllers.
type Deps struct {
	DB                *gorm.DB
	Hub               *fanout.Hub
	Sessions          *services.SessionService
	Calls             *services.CallService
	Splits            *services.SplitService
	Bills             *services.BillService
	ProviderServerKey string
	AllowOrigin       string
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	// Gin snapshots each route's handler chain at registration, so every
	// global middleware has to be attached before the routes below.
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddlewares(d.AllowOrigin))
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	userCtrl := controllers.NewUserController(d.DB)
	tableCtrl := controllers.NewTableController(d.DB, d.Hub)
	sessionCtrl := controllers.NewSessionController(d.Sessions)
	callCtrl := controllers.NewCallController(d.Calls)
	splitCtrl := controllers.NewSplitController(d.Splits)
	billCtrl := controllers.NewBillController(d.Bills)
	webhookCtrl := controllers.NewPaymentWebhookController(d.Splits, d.ProviderServerKey)
	fanoutCtrl := controllers.NewFanoutController(d.Hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Subscribers connect here and get topic-scoped pushes.
	r.GET("/ws", fanoutCtrl.Subscribe)

	// Staff auth, rate limited harder than the rest.
	auth := r.Group("/")
	auth.Use(middlewares.NewStrictRateLimiter())
	{
		auth.POST("/register", userCtrl.Register)
		auth.POST("/login", userCtrl.Login)
	}

	// Diner-facing operations; identity is optional here, diners act
	// through their participant id.
	r.POST("/checkin", sessionCtrl.CheckIn)
	r.POST("/sessions/:session_id/join", sessionCtrl.Join)
	r.POST("/participants/:participant_id/leave", sessionCtrl.Leave)
	r.GET("/sessions/:session_id", sessionCtrl.Get)
	r.POST("/sessions/:session_id/calls", callCtrl.Create)
	r.POST("/sessions/:session_id/splits", splitCtrl.Create)
	r.POST("/splits/:split_id/tip", splitCtrl.AddTip)
	r.POST("/splits/:split_id/pay", splitCtrl.Pay)
	r.GET("/splits/:split_id", splitCtrl.Get)
	r.GET("/sessions/:session_id/bill", billCtrl.GroupBill)

	// Provider callback, authenticated by signature.
	r.POST("/payments/webhook", webhookCtrl.Handle)

	// Staff endpoints.
	staff := r.Group("/staff")
	staff.Use(middlewares.AuthMiddleware())
	{
		waiter := staff.Group("/")
		waiter.Use(middlewares.RequireRoles(models.RoleWaiter))
		{
			waiter.PATCH("/calls/:call_id/acknowledge", callCtrl.Acknowledge)
			waiter.PATCH("/calls/:call_id/progress", callCtrl.StartProgress)
			waiter.PATCH("/calls/:call_id/resolve", callCtrl.Resolve)
			waiter.GET("/locations/:location_id/calls", callCtrl.ListActive)
			waiter.POST("/sessions/:session_id/end", sessionCtrl.End)
		}

		admin := staff.Group("/")
		admin.Use(middlewares.RequireRoles(models.RoleAdmin))
		{
			admin.POST("/tables", tableCtrl.Create)
			admin.GET("/locations/:location_id/tables", tableCtrl.List)
			admin.GET("/tables/:table_id", tableCtrl.Get)
			admin.PATCH("/tables/:table_id", tableCtrl.Update)
		}
	}

	return r
}
