package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dordoifood/restaurant-app/controllers"
	"github.com/dordoifood/restaurant-app/middlewares"
	"github.com/dordoifood/restaurant-app/services"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// Attached before any route registration so gin bakes the limiter into
	// every handler chain.
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	pushSvc := services.NewPushService(db)
	orderSvc := services.NewOrderService(db, pushSvc)

	userCtrl := controllers.NewUserController(db)
	menuCtrl := controllers.NewMenuController(db)
	orderCtrl := controllers.NewOrderController(db, orderSvc)
	adminOrderCtrl := controllers.NewAdminOrderController(db, orderSvc)
	pushCtrl := controllers.NewPushController(db, pushSvc)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", middlewares.OptionalAuth(), userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Customer surface, no auth.
	r.GET("/restaurants/:slug/menu", menuCtrl.GetRestaurantMenu)

	r.POST("/orders", orderCtrl.CreateOrder)
	r.GET("/orders/history", orderCtrl.GetHistory)
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	r.POST("/orders/:order_id/mark-paid", orderCtrl.MarkPaid)
	r.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)

	r.POST("/push/subscribe", pushCtrl.Subscribe)
	r.POST("/push/unsubscribe", pushCtrl.Unsubscribe)

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)

	auth.GET("/orders", adminOrderCtrl.ListOrders)
	auth.GET("/orders/ws", controllers.OrdersFeedHandler)
	auth.GET("/orders/:order_id", adminOrderCtrl.GetOrderByID)
	auth.POST("/orders/:order_id/confirm", adminOrderCtrl.Confirm)
	auth.POST("/orders/:order_id/deliver", adminOrderCtrl.Deliver)
	auth.POST("/orders/:order_id/cancel", adminOrderCtrl.Cancel)

	auth.POST("/categories", menuCtrl.UpsertCategory)
	auth.DELETE("/categories/:category_id", menuCtrl.DeleteCategory)
	auth.POST("/items", menuCtrl.UpsertMenuItem)
	auth.DELETE("/items/:item_id", menuCtrl.DeleteMenuItem)

	return r
}
