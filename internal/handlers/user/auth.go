package user

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"voyago_back_end/internal/middleware"
	"voyago_back_end/internal/models"
	"voyago_back_end/internal/repository"
	"voyago_back_end/internal/session"
	"voyago_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

// ================== AUTH LOCALE ==================

// POST /api/auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Name     string `json:"name"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, username et mot de passe (8 caractères min) requis"})
		return
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création compte"})
		return
	}

	account := models.User{
		ID:       uuid.NewString(),
		Email:    input.Email,
		Username: input.Username,
		Name:     input.Name,
		Password: hashed,
		Provider: "local",
	}

	err = h.Store.Create(c.Request.Context(), account)
	if errors.Is(err, repository.ErrUserExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	}
	if err != nil {
		log.Println("❌ Erreur création compte:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création compte"})
		return
	}

	h.openSession(c, account, http.StatusCreated)
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email et mot de passe requis"})
		return
	}

	account, err := h.Store.GetByEmail(c.Request.Context(), input.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, account.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	h.openSession(c, *account, http.StatusOK)
}

// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	token := c.GetString("session_token")
	if err := h.Sessions.Destroy(c.Request.Context(), token); err != nil {
		log.Println("⚠️ Erreur destruction session:", err)
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	account, ok := c.Get("account")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}
	c.JSON(http.StatusOK, account)
}

// ================== AUTH SOCIALE ==================

// GET /api/auth/:provider
func (h *Handler) BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// GET /api/auth/:provider/callback
func (h *Handler) CallbackAuth(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("provider", c.Param("provider"))
	c.Request.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Println("❌ Erreur OAuth:", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentification OAuth échouée"})
		return
	}

	ctx := c.Request.Context()
	account, err := h.Store.GetByEmail(ctx, gothUser.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		created := models.User{
			ID:       uuid.NewString(),
			Email:    gothUser.Email,
			Username: gothUser.NickName,
			Name:     gothUser.Name,
			Provider: gothUser.Provider,
		}
		if err := h.Store.Create(ctx, created); err != nil {
			log.Println("❌ Erreur création compte OAuth:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création compte"})
			return
		}
		account = &created
		log.Printf("✅ Compte %s créé via %s", created.Email, created.Provider)
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture compte"})
		return
	}

	token, err := h.Sessions.Create(ctx, *account)
	if err != nil {
		log.Println("❌ Erreur création session:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création session"})
		return
	}
	c.SetCookie(middleware.SessionCookie, token, int(session.TTL/time.Second), "/", "", false, true)

	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "/"
	}
	c.Redirect(http.StatusSeeOther, frontend)
}

// openSession crée la session Redis, pose le cookie et renvoie le compte
// assaini.
func (h *Handler) openSession(c *gin.Context, account models.User, status int) {
	token, err := h.Sessions.Create(c.Request.Context(), account)
	if err != nil {
		log.Println("❌ Erreur création session:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création session"})
		return
	}

	c.SetCookie(middleware.SessionCookie, token, int(session.TTL/time.Second), "/", "", false, true)
	c.JSON(status, gin.H{
		"token":    token,
		"email":    account.Email,
		"username": account.Username,
		"name":     account.Name,
	})
}
