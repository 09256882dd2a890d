package user

import (
	"errors"
	"log"
	"net/http"
	"time"

	"voyago_back_end/internal/repository"

	"github.com/gin-gonic/gin"
)

// GET /api/transactions
// Historique complet, dans l'ordre d'enregistrement (append-only).
func (h *Handler) GetTransactions(c *gin.Context) {
	email := c.GetString("email")

	txs, err := h.Store.Transactions(c.Request.Context(), email)
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Compte introuvable"})
		return
	}
	if err != nil {
		log.Println("❌ Erreur lecture transactions:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

// GET /api/transactions/search?q=
func (h *Handler) SearchTransactions(c *gin.Context) {
	if h.Search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recherche indisponible"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' requis"})
		return
	}

	email := c.GetString("email")
	results, err := h.Search.SearchTransactions(c.Request.Context(), email, query)
	if err != nil {
		log.Println("❌ Erreur recherche transactions:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GET /api/transactions/receipt/:sessionId
// URL signée de téléchargement du reçu PDF archivé dans MinIO.
func (h *Handler) GetReceiptURL(c *gin.Context) {
	if h.Receipts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Reçus indisponibles"})
		return
	}

	email := c.GetString("email")
	sessionID := c.Param("sessionId")

	// Le reçu n'est servi qu'au propriétaire des transactions.
	txs, err := h.Store.TransactionsBySession(c.Request.Context(), email, sessionID)
	if err != nil || len(txs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reçu introuvable"})
		return
	}

	url, err := h.Receipts.SignedURL(c.Request.Context(), email, sessionID, 15*time.Minute)
	if err != nil {
		log.Println("❌ Erreur URL signée:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération du lien"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
