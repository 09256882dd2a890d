package user

import (
	"log"
	"net/http"

	"voyago_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/auth/update-name
// Changer le nom affiché exige le mot de passe courant.
func (h *Handler) UpdateNameWithPassword(c *gin.Context) {
	email := c.GetString("email")

	var input struct {
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nom et mot de passe requis"})
		return
	}

	ctx := c.Request.Context()
	account, err := h.Store.GetByEmail(ctx, email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, account.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Mot de passe incorrect"})
		return
	}

	if err := h.Store.UpdateName(ctx, email, input.Name); err != nil {
		log.Println("❌ Erreur mise à jour nom:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
		return
	}

	// Rafraîchir la copie en session
	account.Name = input.Name
	if token := c.GetString("session_token"); token != "" {
		if err := h.Sessions.Update(ctx, token, *account); err != nil {
			log.Println("⚠️ Session non rafraîchie:", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": "Nom mis à jour"})
}

// POST /api/auth/change-password
func (h *Handler) ChangePassword(c *gin.Context) {
	email := c.GetString("email")

	var input struct {
		OldPassword string `json:"oldPassword" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ancien et nouveau mot de passe requis"})
		return
	}
	if len(input.NewPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le nouveau mot de passe doit contenir au moins 8 caractères"})
		return
	}

	ctx := c.Request.Context()
	account, err := h.Store.GetByEmail(ctx, email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	}

	ok, err := utils.VerifyPassword(input.OldPassword, account.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Ancien mot de passe incorrect"})
		return
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur changement de mot de passe"})
		return
	}

	if err := h.Store.UpdatePassword(ctx, email, hashed); err != nil {
		log.Println("❌ Erreur changement mot de passe:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur changement de mot de passe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": "Mot de passe mis à jour"})
}
