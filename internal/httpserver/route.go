package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
)

type Deps struct {
	Auth     *AuthHTTP
	Catalog  *CatalogHTTP
	Cart     *CartHTTP
	Orders   *OrderHTTP
	Payments *PaymentHTTP
	Reviews  *ReviewHTTP
	Profile  *ProfileHTTP
	Admin    *AdminHTTP

	JWTSecret []byte
	CSRF      csrf.Config
	// Ready backs /health/ready; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api/v1", csrf.Middleware(d.CSRF))

	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)

	api.GET("/products", d.Catalog.GetProducts)
	api.GET("/products/search", d.Catalog.SearchProducts)
	api.GET("/products/:id", d.Catalog.GetProduct)
	api.GET("/products/:id/reviews", d.Reviews.ProductReviews)

	private := api.Group("", authmw.RequireAuth(d.JWTSecret))
	private.POST("/auth/logout", d.Auth.Logout)

	private.GET("/cart", d.Cart.GetCart)
	private.POST("/cart", d.Cart.AddToCart)
	private.DELETE("/cart", d.Cart.ClearCart)
	private.PATCH("/cart/items/:id", d.Cart.UpdateItem)
	private.DELETE("/cart/items/:id", d.Cart.RemoveItem)

	private.POST("/orders", d.Orders.CreateOrder)
	private.GET("/orders", d.Orders.GetOrders)
	private.GET("/orders/:id", d.Orders.GetOrder)
	private.GET("/orders/:id/summary", d.Orders.GetSummary)
	private.POST("/orders/:id/confirm", d.Orders.ConfirmOrder)
	private.POST("/orders/:id/cancel", d.Orders.CancelOrder)

	private.POST("/payments/orders/:orderId", d.Payments.ProcessPayment)
	private.POST("/payments/orders/:orderId/retry", d.Payments.RetryPayment)
	private.GET("/payments/orders/:orderId", d.Payments.GetOrderPayment)
	private.GET("/payments/orders/:orderId/history", d.Payments.GetOrderPaymentHistory)
	private.GET("/payments/:id", d.Payments.GetPayment)

	private.POST("/products/:id/reviews", d.Reviews.AddReview)
	private.GET("/reviews/mine", d.Reviews.MyReviews)
	private.PUT("/reviews/:id", d.Reviews.UpdateReview)
	private.DELETE("/reviews/:id", d.Reviews.DeleteReview)

	private.GET("/profile/addresses", d.Profile.ListAddresses)
	private.POST("/profile/addresses", d.Profile.AddAddress)
	private.PUT("/profile/addresses/:id", d.Profile.UpdateAddress)
	private.DELETE("/profile/addresses/:id", d.Profile.DeleteAddress)
	private.GET("/profile/cards", d.Profile.ListCards)
	private.POST("/profile/cards", d.Profile.AddCard)
	private.PUT("/profile/cards/:id", d.Profile.UpdateCard)
	private.DELETE("/profile/cards/:id", d.Profile.DeleteCard)

	admin := private.Group("/admin", authmw.RequireAdmin())
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PUT("/products/:id", d.Catalog.UpdateProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)
	admin.PATCH("/products/:id/stock", d.Catalog.AdjustStock)

	admin.GET("/orders", d.Orders.ListAllOrders)
	admin.PATCH("/orders/:id/status", d.Orders.UpdateStatus)

	admin.GET("/users", d.Admin.ListUsers)
	admin.PUT("/users/:id", d.Admin.UpdateUser)
	admin.DELETE("/users/:id", d.Admin.DeleteUser)

	admin.POST("/payments/sweep", d.Admin.SweepPayments)
}
