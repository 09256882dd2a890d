package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"voyago_back_end/internal/config"
	"voyago_back_end/internal/database"
	"voyago_back_end/internal/handlers/payement"
	"voyago_back_end/internal/handlers/user"
	"voyago_back_end/internal/payment"
	"voyago_back_end/internal/repository"
	"voyago_back_end/internal/routes"
	"voyago_back_end/internal/service"
	"voyago_back_end/internal/session"
	"voyago_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

func main() {
	config.Load()

	ctx := context.Background()

	clients, err := database.Connect(ctx)
	if err != nil {
		log.Fatal("❌ Connexion bases de données échouée:", err)
	}
	defer clients.Close(ctx)

	stripeClient, err := payment.NewStripeClient(
		os.Getenv("STRIPE_SECRET_KEY"),
		os.Getenv("STRIPE_WEBHOOK_SECRET"),
	)
	if err != nil {
		log.Fatal("❌ Impossible d'initialiser Stripe :", err)
	}
	log.Println("✅ Stripe initialisé")

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("❌ SESSION_SECRET manquant dans .env")
	}

	repo := repository.NewUserRepository(clients.UsersDB)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal("❌ Création des index Mongo échouée:", err)
	}

	sessionStore := session.NewStore(clients.Redis, sessionSecret)
	searchService := service.NewSearchService(clients.Elastic)
	receiptService := service.NewReceiptService(clients.MinIO, config.Getenv("MINIO_BUCKET", "voyago-receipts"))

	checkoutService := service.NewCheckoutService(repo, stripeClient, config.BaseURL())
	checkoutService.Search = searchService
	checkoutService.Receipts = receiptService
	checkoutService.SendMail = utils.SendConfirmationEmail

	userHandler := &user.Handler{
		Store:    repo,
		Sessions: sessionStore,
		Redis:    clients.Redis,
		Search:   searchService,
		Receipts: receiptService,
	}
	payHandler := &payement.Handler{
		Checkout: checkoutService,
		Payments: stripeClient,
	}

	initOAuthProviders(sessionSecret)

	r := gin.Default()
	routes.RegisterRoutes(r, userHandler, payHandler, sessionStore, clients.Redis)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Voyago lancé sur le port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("❌ Serveur arrêté:", err)
	}
}

func initOAuthProviders(sessionSecret string) {
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   false, // false en dev, true en prod
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	oauthCfg := config.GoogleOAuthConfig()
	if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
		log.Println("⚠️ Aucun provider OAuth configuré")
		return
	}

	goth.UseProviders(google.New(
		oauthCfg.ClientID,
		oauthCfg.ClientSecret,
		oauthCfg.RedirectURL,
		oauthCfg.Scopes...,
	))
	log.Println("✅ Google OAuth activé")
}
