package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"voyago_back_end/internal/models"
	"voyago_back_end/internal/payment"
	"voyago_back_end/internal/repository"
	"voyago_back_end/internal/utils"

	"github.com/stripe/stripe-go/v83"
)

var (
	// ErrEmptyCart : pas de session de paiement pour un panier vide.
	ErrEmptyCart = errors.New("impossible de payer un panier vide")
	// ErrSessionNotPaid : la session existe mais l'argent n'a pas bougé.
	// Une session créée puis jamais réglée ne doit rien écrire au livre.
	ErrSessionNotPaid = errors.New("session de paiement non réglée")
)

// UserStore est la vue du User Store dont l'orchestrateur a besoin.
type UserStore interface {
	Cart(ctx context.Context, email string) ([]models.LineItem, error)
	RecordCheckout(ctx context.Context, email, sessionID string, txs []models.Transaction) error
	TransactionsBySession(ctx context.Context, email, sessionID string) ([]models.Transaction, error)
}

// CheckoutService orchestre le cycle de paiement :
// panier → produits/prix Stripe → session hébergée → (paiement externe)
// → transactions enregistrées + panier vidé.
type CheckoutService struct {
	store    UserStore
	payments payment.Client
	baseURL  string
	currency string
	timeout  time.Duration

	// Effets post-complétion, tous optionnels.
	Search   *SearchService
	Receipts *ReceiptService
	SendMail func(to, subject, htmlBody string, pdfAttachment []byte) error
}

func NewCheckoutService(store UserStore, payments payment.Client, baseURL string) *CheckoutService {
	return &CheckoutService{
		store:    store,
		payments: payments,
		baseURL:  baseURL,
		currency: "cad",
		timeout:  15 * time.Second,
	}
}

// InitiateCheckout convertit le panier courant en session de paiement
// hébergée et retourne l'URL de redirection. Aucune mutation du compte ici :
// le panier reste intact tant que le paiement n'est pas confirmé.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, email string) (string, error) {
	cart, err := s.store.Cart(ctx, email)
	if err != nil {
		return "", err
	}
	if len(cart) == 0 {
		return "", ErrEmptyCart
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	priceIDs := make([]string, 0, len(cart))
	for _, item := range cart {
		productID, err := s.payments.CreateProduct(ctx, item.Name)
		if err != nil {
			return "", err
		}
		priceID, err := s.payments.CreatePrice(ctx, productID, item.Price.Cents(), s.currency)
		if err != nil {
			return "", err
		}
		priceIDs = append(priceIDs, priceID)
	}

	successURL := s.baseURL + "/api/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := s.baseURL + "/api/checkout/cancel"

	sess, err := s.payments.CreateCheckoutSession(ctx, priceIDs, successURL, cancelURL,
		map[string]string{"email": email})
	if err != nil {
		return "", err
	}

	log.Printf("💳 Session de paiement créée : %s (%d articles) pour %s", sess.ID, len(cart), email)
	return sess.URL, nil
}

// CompleteCheckout applique la confirmation d'un paiement : vérifie la
// session auprès du collaborateur de paiement, convertit le panier en
// transactions (dans l'ordre du panier) et confie au store l'append + le
// vidage du panier en un seul update atomique. Sûr à rejouer pour la même
// session — redirect de succès et webhook se partagent ce chemin.
func (s *CheckoutService) CompleteCheckout(ctx context.Context, email, sessionID string) ([]models.Transaction, error) {
	if sessionID == "" {
		return nil, payment.ErrSessionNotFound
	}

	payCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	sess, err := s.payments.GetCheckoutSession(payCtx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sessionPaid(sess) {
		log.Printf("⚠️ Session %s récupérée mais non réglée (%s) — aucune écriture", sessionID, sess.PaymentStatus)
		return nil, ErrSessionNotPaid
	}

	cart, err := s.store.Cart(ctx, email)
	if err != nil {
		return nil, err
	}

	txs := models.TransactionsFromCart(cart, sessionID, time.Now())
	if len(txs) == 0 {
		// Panier déjà vidé : l'autre chemin de confirmation est passé avant.
		return s.store.TransactionsBySession(ctx, email, sessionID)
	}

	err = s.store.RecordCheckout(ctx, email, sessionID, txs)
	if errors.Is(err, repository.ErrCheckoutRecorded) {
		return s.store.TransactionsBySession(ctx, email, sessionID)
	}
	if err != nil {
		// Le paiement est encaissé mais le livre n'a pas suivi : condition
		// de réconciliation, pas une simple erreur serveur.
		log.Printf("🚨 RÉCONCILIATION REQUISE — paiement %s encaissé, livre non mis à jour pour %s : %v",
			sessionID, email, err)
		return nil, fmt.Errorf("paiement confirmé mais enregistrement échoué (session %s): %w", sessionID, err)
	}

	log.Printf("✅ Checkout %s finalisé : %d transaction(s) pour %s", sessionID, len(txs), email)
	go s.afterCompletion(email, sessionID, txs)

	return txs, nil
}

// sessionPaid vérifie que l'argent a bougé. "no_payment_required" couvre les
// sessions à total nul (articles offerts).
func sessionPaid(sess *stripe.CheckoutSession) bool {
	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
}

// afterCompletion déroule les effets secondaires non critiques : indexation
// pour la recherche, reçu PDF dans MinIO, e-mail de confirmation.
func (s *CheckoutService) afterCompletion(email, sessionID string, txs []models.Transaction) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if s.Search != nil {
		s.Search.IndexTransactions(ctx, email, txs)
	}

	qr, err := utils.BookingQR(sessionID)
	if err != nil {
		log.Println("⚠️ Génération QR échouée:", err)
	}
	html := utils.BookingConfirmationHTML(txs, sessionID, qr)

	var pdf []byte
	if s.Receipts != nil {
		pdf, err = s.Receipts.GenerateAndStore(ctx, email, sessionID, html)
		if err != nil {
			log.Println("⚠️ Génération du reçu PDF échouée:", err)
			pdf = nil
		}
	}

	if s.SendMail != nil {
		if err := s.SendMail(email, "Confirmation de votre réservation Voyago", html, pdf); err != nil {
			log.Println("❌ Erreur envoi e-mail confirmation:", err)
		} else {
			log.Println("📧 E-mail de confirmation envoyé à", email)
		}
	}
}
