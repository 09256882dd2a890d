package user

import (
	"context"
	"errors"
	"log"
	"net/http"

	"voyago_back_end/internal/models"
	"voyago_back_end/internal/repository"

	"github.com/gin-gonic/gin"
)

//
// 🟢 GET /api/cart/items
//
func (h *Handler) GetCart(c *gin.Context) {
	email := c.GetString("email")

	items, err := h.Store.Cart(c.Request.Context(), email)
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	}
	if err != nil {
		log.Println("❌ Erreur lecture panier:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

//
// 🟢 POST /api/cart/items
//
func (h *Handler) AddToCart(c *gin.Context) {
	email := c.GetString("email")

	var item models.LineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := item.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Store.AddCartItem(c.Request.Context(), email, item)
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	}
	if err != nil {
		log.Println("❌ Erreur ajout panier:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur ajout au panier"})
		return
	}

	h.notifyCart(c.Request.Context(), email, "updated")
	c.JSON(http.StatusOK, gin.H{"message": "Article ajouté au panier"})
}

//
// ❌ DELETE /api/cart/items/:itemId
//
func (h *Handler) RemoveFromCart(c *gin.Context) {
	email := c.GetString("email")
	itemID := c.Param("itemId")

	err := h.Store.RemoveCartItem(c.Request.Context(), email, itemID)
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	}
	if err != nil {
		log.Println("❌ Erreur retrait panier:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur retrait du panier"})
		return
	}

	h.notifyCart(c.Request.Context(), email, "updated")
	c.JSON(http.StatusOK, gin.H{"message": "Article retiré du panier"})
}

//
// 🧹 POST /api/cart/clear
// Idempotent : vider un panier déjà vide réussit silencieusement.
//
func (h *Handler) ClearCart(c *gin.Context) {
	email := c.GetString("email")

	err := h.Store.ClearCart(c.Request.Context(), email)
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	}
	if err != nil {
		log.Println("❌ Erreur vidage panier:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
		return
	}

	h.notifyCart(c.Request.Context(), email, "cleared")
	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé avec succès"})
}

// notifyCart prévient les websockets ouverts que le panier a bougé.
func (h *Handler) notifyCart(ctx context.Context, email, event string) {
	if h.Redis == nil {
		return
	}
	if err := h.Redis.Publish(ctx, "cart:"+email, event).Err(); err != nil {
		log.Println("⚠️ Notification panier échouée:", err)
	}
}
