package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/meal-subscription-api/internal/middleware"
	"github.com/noah-isme/meal-subscription-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	MealSkips     *MealSkipHandler
	Payments      *PaymentHandler
	Reviews       *ReviewHandler
	Catalog       *CatalogHandler
	Announcements *AnnouncementHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts the API. Services repeat the role checks done here.
func RegisterRoutes(api gin.IRouter, h Handlers, tokens middleware.TokenValidator) {
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	selfOrAdmin := middleware.RBAC(string(models.RoleAdmin), middleware.Self)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	secured := api.Group("", middleware.JWT(tokens))
	secured.GET("/auth/me", h.Auth.Me)

	skips := secured.Group("/meal-skips")
	skips.POST("", h.MealSkips.Submit)
	skips.GET("/mine", h.MealSkips.Mine)
	skips.GET("/:id", h.MealSkips.Get)
	skips.GET("", adminOnly, h.MealSkips.List)
	skips.POST("/:id/approve", adminOnly, h.MealSkips.Approve)
	skips.POST("/:id/reject", adminOnly, h.MealSkips.Reject)
	skips.GET("/:id/history", adminOnly, h.MealSkips.History)

	payments := secured.Group("/payments")
	payments.POST("", h.Payments.Submit)
	payments.GET("/mine", h.Payments.Mine)
	payments.GET("/export", adminOnly, h.Payments.Export)
	payments.GET("/:id", h.Payments.Get)
	payments.GET("/:id/receipt", h.Payments.Receipt)
	payments.GET("", adminOnly, h.Payments.List)
	payments.POST("/:id/approve", adminOnly, h.Payments.Approve)
	payments.POST("/:id/reject", adminOnly, h.Payments.Reject)
	payments.GET("/:id/history", adminOnly, h.Payments.History)

	users := secured.Group("/users/:userId", selfOrAdmin)
	users.GET("/meal-skips", h.MealSkips.ListForUser)
	users.GET("/payments", h.Payments.ListForUser)

	reviews := secured.Group("/reviews")
	reviews.GET("", h.Reviews.List)
	reviews.POST("", h.Reviews.Create)
	reviews.PUT("/:id", h.Reviews.Update)
	reviews.DELETE("/:id", h.Reviews.Delete)

	secured.GET("/dishes", h.Catalog.ListDishes)
	secured.GET("/packages", h.Catalog.ListPackages)
	secured.GET("/announcements", h.Announcements.List)

	admin := secured.Group("", adminOnly)
	admin.POST("/dishes", h.Catalog.CreateDish)
	admin.PUT("/dishes/:id", h.Catalog.UpdateDish)
	admin.DELETE("/dishes/:id", h.Catalog.DeleteDish)
	admin.POST("/packages", h.Catalog.CreatePackage)
	admin.DELETE("/packages/:id", h.Catalog.DeletePackage)
	admin.GET("/employees", h.Catalog.ListEmployees)
	admin.POST("/employees", h.Catalog.CreateEmployee)
	admin.DELETE("/employees/:id", h.Catalog.DeleteEmployee)
	admin.POST("/announcements", h.Announcements.Create)
	admin.DELETE("/announcements/:id", h.Announcements.Delete)
	if h.Metrics != nil {
		admin.GET("/metrics/summary", h.Metrics.Summary)
	}
}
