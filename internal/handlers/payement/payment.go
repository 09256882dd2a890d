package payement

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"voyago_back_end/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
)

// POST /api/webhook/stripe
// Canal de confirmation secondaire : même chemin de complétion que le
// redirect de succès, idempotent par session — jamais de double écriture.
func (h *Handler) StripeWebhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	event, err := h.Payments.ConstructEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Println("❌ Signature Stripe invalide:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)

	if event.Type != "checkout.session.completed" {
		// Les événements inconnus sont acquittés, jamais traités en erreur.
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		log.Println("❌ Erreur décodage CheckoutSession:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Événement illisible"})
		return
	}

	email := sess.Metadata["email"]
	if email == "" {
		log.Println("⚠️ Métadonnées incomplètes — événement acquitté sans traitement")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if _, err := h.Checkout.CompleteCheckout(c.Request.Context(), email, sess.ID); err != nil {
		if errors.Is(err, service.ErrSessionNotPaid) {
			// Paiement asynchrone pas encore réglé : acquitter, l'événement
			// de règlement suivra. Rejouer celui-ci ne servirait à rien.
			log.Printf("⚠️ Session %s complétée mais non réglée — acquittée", sess.ID)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		// 500 pour que Stripe rejoue la livraison : la complétion est
		// idempotente, le rejeu est sans danger.
		log.Printf("❌ Complétion via webhook échouée (session %s): %v", sess.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur traitement événement"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
