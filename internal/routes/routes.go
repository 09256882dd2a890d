package routes

import (
	"os"

	"voyago_back_end/internal/handlers/payement"
	"voyago_back_end/internal/handlers/user"
	"voyago_back_end/internal/middleware"
	"voyago_back_end/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.Engine, userH *user.Handler, payH *payement.Handler, sessions *session.Store, rdb *redis.Client) {
	corsConfig := cors.DefaultConfig()
	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		corsConfig.AllowOrigins = []string{frontend}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	corsConfig.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConfig))

	authRequired := middleware.AuthRequired(sessions)

	api := r.Group("/api")

	// Compte
	auth := api.Group("/auth")
	auth.POST("/signup", userH.Signup)
	auth.POST("/login", middleware.LoginRateLimit(rdb), userH.Login)
	auth.POST("/logout", authRequired, userH.Logout)
	auth.GET("/me", authRequired, userH.Me)
	auth.POST("/update-name", authRequired, userH.UpdateNameWithPassword)
	auth.POST("/change-password", authRequired, userH.ChangePassword)
	auth.GET("/:provider", userH.BeginAuth)
	auth.GET("/:provider/callback", userH.CallbackAuth)

	// Panier
	cart := api.Group("/cart", authRequired)
	cart.GET("/items", userH.GetCart)
	cart.POST("/items", middleware.CartRateLimit(rdb), userH.AddToCart)
	cart.DELETE("/items/:itemId", userH.RemoveFromCart)
	cart.POST("/clear", userH.ClearCart)
	cart.GET("/ws", userH.CartWebSocket)

	// Checkout
	api.POST("/checkout", authRequired, payH.InitiateCheckout)
	api.GET("/checkout/success", authRequired, payH.Success)
	api.GET("/checkout/cancel", payH.Cancel)

	// Webhook — pas d'auth de session, vérifié par signature
	api.POST("/webhook/stripe", payH.StripeWebhook)

	// Historique
	tx := api.Group("/transactions", authRequired)
	tx.GET("", userH.GetTransactions)
	tx.GET("/search", userH.SearchTransactions)
	tx.GET("/receipt/:sessionId", userH.GetReceiptURL)
}
