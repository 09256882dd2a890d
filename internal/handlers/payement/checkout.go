package payement

import (
	"errors"
	"log"
	"net/http"

	"voyago_back_end/internal/payment"
	"voyago_back_end/internal/repository"
	"voyago_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler expose le cycle checkout : initiation, retour succès/annulation,
// webhook Stripe.
type Handler struct {
	Checkout *service.CheckoutService
	Payments payment.Client
}

// POST /api/checkout
// 303 vers la page de paiement hébergée. Le panier n'est pas touché.
func (h *Handler) InitiateCheckout(c *gin.Context) {
	email := c.GetString("email")

	url, err := h.Checkout.InitiateCheckout(c.Request.Context(), email)
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide — rien à payer"})
		return
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	case err != nil:
		log.Println("❌ Erreur initiation checkout:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création paiement"})
		return
	}

	c.Redirect(http.StatusSeeOther, url)
}

// GET /api/checkout/success?session_id=cs_...
// Chemin de complétion principal, au retour du paiement hébergé.
func (h *Handler) Success(c *gin.Context) {
	email := c.GetString("email")
	sessionID := c.Query("session_id")

	txs, err := h.Checkout.CompleteCheckout(c.Request.Context(), email, sessionID)
	switch {
	case errors.Is(err, payment.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session de paiement introuvable"})
		return
	case errors.Is(err, service.ErrSessionNotPaid):
		// Session créée mais jamais réglée : on ne confirme rien.
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Paiement non confirmé pour cette session"})
		return
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	case err != nil:
		log.Println("❌ Erreur complétion checkout:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur finalisation du paiement"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Paiement confirmé — bon voyage ! ✈️",
		"transactions": txs,
	})
}

// GET /api/checkout/cancel
// Pur et sans état : aucun compte n'est touché.
func (h *Handler) Cancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Paiement annulé — votre panier est intact"})
}
