package routes

import (
	"log/slog"
	"net/http"

	"studenteats/config"
	"studenteats/controllers"
	"studenteats/middlewares"
	"studenteats/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Services is everything the router hands to controllers. Push is nil when
// SNS is not configured.
type Services struct {
	Profiles  *services.ProfileService
	Foods     *services.FoodService
	Meals     *services.MealService
	Menus     *services.MenuService
	Orders    *services.OrderService
	Chat      *services.ChatService
	Analytics *services.AnalyticsService
	Recs      *services.RecService
	Push      *services.PushService
	Hub       *services.RealtimeHub
}

func SetupRouter(cfg config.Config, svc Services) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(services.JSONFieldName)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("panic recovered", "path", c.FullPath(), "panic", recovered)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"error":    "internal error",
			"category": services.KindUpstream,
		})
	}))
	r.Use(middlewares.Authenticate(cfg.JWTSecret))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	profiles := controllers.NewProfileController(svc.Profiles)
	foods := controllers.NewFoodController(svc.Foods)
	meals := controllers.NewMealController(svc.Meals)
	menus := controllers.NewMenuController(svc.Menus)
	orders := controllers.NewOrderController(svc.Orders)
	chat := controllers.NewChatController(svc.Chat)
	analytics := controllers.NewAnalyticsController(svc.Analytics)
	recs := controllers.NewRecommendationController(svc.Recs)
	devices := controllers.NewDeviceController(svc.Push)
	realtime := controllers.NewRealtimeController(svc.Hub)

	api := r.Group("/api")
	timed := middlewares.Timeout(cfg.RequestTimeout)

	nutrition := api.Group("/nutrition", timed)
	{
		nutrition.POST("/profiles/:user_id", profiles.Upsert)
		nutrition.GET("/profiles/:user_id", profiles.Get)
		nutrition.PATCH("/profiles/:user_id", profiles.Update)

		nutrition.POST("/food-items", foods.Create)
		nutrition.GET("/food-items", foods.List)
		nutrition.GET("/food-items/search", foods.Search)
		nutrition.GET("/food-items/available-dates", foods.AvailableDates)
		nutrition.GET("/food-items/location/:location/date/:date", foods.Menu)
		nutrition.GET("/food-items/:food_id", foods.Get)
		nutrition.POST("/food-items/recognize", foods.Recognize)

		nutrition.POST("/meals", meals.Create)
		nutrition.GET("/meals/:entry_id", meals.Get)
		nutrition.PATCH("/meals/:entry_id", meals.Update)
		nutrition.DELETE("/meals/:entry_id", meals.Delete)
		nutrition.GET("/meals/user/:user_id/today", meals.Today)
		nutrition.GET("/meals/user/:user_id/date/:date", meals.ForDate)
		nutrition.GET("/meals/user/:user_id/history", meals.History)
		nutrition.GET("/meals/user/:user_id/range", meals.Range)

		nutrition.GET("/totals/user/:user_id/today", meals.TodayTotals)
		nutrition.GET("/totals/user/:user_id/date/:date", meals.DailyTotals)

		nutrition.POST("/upload-menu", menus.Upload)
		nutrition.POST("/upload-menu/location", menus.UploadLocation)

		nutrition.GET("/analytics/user/:user_id/summary", analytics.Summary)
		nutrition.GET("/analytics/user/:user_id/weekly", analytics.Weekly)
		nutrition.GET("/recommendations/user/:user_id", recs.Get)
	}

	ord := api.Group("/orders", timed)
	{
		ord.POST("", orders.Create)
		ord.GET("", orders.List)
		ord.GET("/:order_id", orders.Get)
		ord.PATCH("/:order_id", orders.Update)
		ord.DELETE("/:order_id", orders.Cancel)
		ord.PATCH("/:order_id/status", orders.UpdateStatus)
		ord.GET("/:order_id/history", orders.History)
		ord.POST("/:order_id/items", orders.AddItem)
		ord.DELETE("/:order_id/items/:item_id", orders.RemoveItem)
	}

	users := api.Group("/users", timed)
	{
		users.GET("/:user_id/orders", orders.UserOrders)
		users.GET("/:user_id/orders/stats", orders.Stats)
	}

	// the model loop needs a longer budget than plain reads
	assistant := api.Group("", middlewares.Timeout(cfg.ChatTimeout))
	{
		assistant.POST("/chat", chat.Send)
		assistant.GET("/chat/history/:user_id", chat.History)
		assistant.DELETE("/chat/history/:user_id", chat.ClearHistory)
		assistant.GET("/mcp/tools", chat.ListTools)
		assistant.POST("/mcp/tools/call", chat.CallTool)
	}

	dev := api.Group("/devices", timed, middlewares.RequireUser())
	{
		dev.POST("", devices.Register)
		dev.POST("/notifications/toggle", devices.Toggle)
		dev.POST("/notifications/test", devices.TestPush)
	}

	r.GET("/ws/orders", middlewares.RequireUser(), realtime.OrdersWS)

	return r
}
