package user

import (
	"context"

	"voyago_back_end/internal/models"
	"voyago_back_end/internal/service"
	"voyago_back_end/internal/session"

	"github.com/redis/go-redis/v9"
)

// Store est la vue du User Store utilisée par les handlers compte/panier.
type Store interface {
	Create(ctx context.Context, user models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	AddCartItem(ctx context.Context, email string, item models.LineItem) error
	RemoveCartItem(ctx context.Context, email, itemID string) error
	ClearCart(ctx context.Context, email string) error
	Cart(ctx context.Context, email string) ([]models.LineItem, error)
	Transactions(ctx context.Context, email string) ([]models.Transaction, error)
	TransactionsBySession(ctx context.Context, email, sessionID string) ([]models.Transaction, error)
	UpdateName(ctx context.Context, email, name string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// Handler regroupe les endpoints compte, panier et historique.
// Redis, Search et Receipts sont optionnels (nil = fonctionnalité coupée).
type Handler struct {
	Store    Store
	Sessions *session.Store
	Redis    *redis.Client
	Search   *service.SearchService
	Receipts *service.ReceiptService
}
