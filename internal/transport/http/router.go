package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/handlers"
	"github.com/oakmart/storefront/internal/handlers/cart"
	"github.com/oakmart/storefront/internal/handlers/order"
	"github.com/oakmart/storefront/internal/service/token"
)

type Deps struct {
	DB                  *gorm.DB
	AuthHandler         *handlers.AuthHandler
	ProductHandler      *handlers.ProductHandler
	UserHandler         *handlers.UserHandler
	CouponHandler       *handlers.CouponHandler
	WishlistHandler     *handlers.WishlistHandler
	NotificationHandler *handlers.NotificationHandler
	AnalyticsHandler    *handlers.AnalyticsHandler
	SearchHandler       *handlers.SearchHandler
	CartHandler         *cart.CartHandler
	OrderHandler        *order.OrderHandler
	TokenService        *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.POST("/refresh", d.AuthHandler.Refresh)
	v1.GET("/search", d.SearchHandler.Search)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.PUT("/:id/reviews", d.ProductHandler.PutReview, d.TokenService.RequireAuth)
	products.DELETE("/:id/reviews", d.ProductHandler.DeleteReview, d.TokenService.RequireAuth)

	me := v1.Group("/me", d.TokenService.RequireAuth)
	me.GET("", d.UserHandler.Me)
	me.PUT("/address", d.UserHandler.UpdateAddresses)

	cartGroup := v1.Group("/cart", d.TokenService.RequireAuth)
	cartGroup.GET("", d.CartHandler.GetCart)
	cartGroup.POST("/add", d.CartHandler.AddToCart)
	cartGroup.PUT("/update", d.CartHandler.UpdateQuantity)
	cartGroup.DELETE("/remove/:productId", d.CartHandler.RemoveFromCart)
	cartGroup.DELETE("/clear", d.CartHandler.ClearCart)

	orders := v1.Group("", d.TokenService.RequireAuth)
	orders.POST("/order/new", d.OrderHandler.CreateOrder)
	orders.GET("/orders/me", d.OrderHandler.MyOrders)
	orders.GET("/orders/:id", d.OrderHandler.GetOrder)

	v1.POST("/coupon/validate", d.CouponHandler.Validate, d.TokenService.RequireAuth)

	wishlist := v1.Group("/wishlist", d.TokenService.RequireAuth)
	wishlist.GET("", d.WishlistHandler.GetWishlist)
	wishlist.POST("/:productId", d.WishlistHandler.AddToWishlist)
	wishlist.DELETE("/:productId", d.WishlistHandler.RemoveFromWishlist)

	notifications := v1.Group("/notifications", d.TokenService.RequireAuth)
	notifications.GET("", d.NotificationHandler.List)
	notifications.PUT("/:id/read", d.NotificationHandler.MarkRead)
	notifications.PUT("/read-all", d.NotificationHandler.MarkAllRead)

	admin := v1.Group("/admin", d.TokenService.RequireAdmin)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.GET("/orders", d.OrderHandler.GetAllOrders)
	admin.PUT("/orders/:id", d.OrderHandler.UpdateStatus)
	admin.POST("/coupons", d.CouponHandler.CreateCoupon)
	admin.GET("/coupons", d.CouponHandler.ListCoupons)
	admin.PATCH("/coupons/:id", d.CouponHandler.PatchCoupon)
	admin.DELETE("/coupons/:id", d.CouponHandler.DeleteCoupon)
	admin.GET("/users", d.UserHandler.ListUsers)
	admin.PATCH("/users/:id", d.UserHandler.UpdateUserRole)
	admin.DELETE("/users/:id", d.UserHandler.DeleteUser)
	admin.GET("/analytics/summary", d.AnalyticsHandler.Summary)
}
