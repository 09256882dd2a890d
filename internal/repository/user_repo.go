package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voyago_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrUserExists = errors.New("un compte avec cet email existe déjà")
	ErrUserNotFound = errors.New("compte introuvable")
	// ErrCheckoutRecorded : les transactions de cette session de paiement
	// sont déjà dans le livre (rejeu du webhook ou du redirect de succès).
	ErrCheckoutRecorded = errors.New("checkout déjà enregistré pour cette session")
)

// UserRepository persiste les comptes dans une collection Mongo unique,
// clé: email. Toutes les mutations panier/transactions passent par des
// updates atomiques sur le document — jamais de lire-puis-écrire.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

// EnsureIndexes crée l'index unique sur l'email. À appeler au démarrage.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("création index email: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.Cart == nil {
		user.Cart = []models.LineItem{}
	}
	if user.Transactions == nil {
		user.Transactions = []models.Transaction{}
	}

	_, err := r.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("création compte: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture compte: %w", err)
	}
	return &user, nil
}

// AddCartItem insère un article avec une sémantique d'ensemble : un article
// identique déjà présent n'est pas dupliqué ($addToSet compare par valeur).
func (r *UserRepository) AddCartItem(ctx context.Context, email string, item models.LineItem) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$addToSet": bson.M{"cart": item}},
	)
	if err != nil {
		return fmt.Errorf("ajout article au panier: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) RemoveCartItem(ctx context.Context, email, itemID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$pull": bson.M{"cart": bson.M{"id": itemID}}},
	)
	if err != nil {
		return fmt.Errorf("retrait article du panier: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearCart vide le panier. Idempotent : vider un panier déjà vide réussit.
func (r *UserRepository) ClearCart(ctx context.Context, email string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"cart": []models.LineItem{}}},
	)
	if err != nil {
		return fmt.Errorf("vidage panier: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Cart(ctx context.Context, email string) ([]models.LineItem, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Cart == nil {
		return []models.LineItem{}, nil
	}
	return user.Cart, nil
}

// RecordCheckout applique la complétion d'un checkout en UN SEUL update :
// append des transactions et retrait des articles payés ensemble, pour qu'un
// crash entre les deux ne soit jamais observable. Le filtre sur session_id
// rend l'opération idempotente (redirect de succès et webhook peuvent rejouer
// la même session sans doubler le livre). $pullAll ne retire que les articles
// du lot payé : un article ajouté entre la lecture du panier et cet update
// reste dans le panier au lieu de disparaître sans transaction.
func (r *UserRepository) RecordCheckout(ctx context.Context, email, sessionID string, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	paid := make([]models.LineItem, 0, len(txs))
	for _, tx := range txs {
		paid = append(paid, models.LineItem{ID: tx.ID, Name: tx.Name, Price: tx.Price, Type: tx.Type})
	}

	filter := bson.M{
		"email":                   email,
		"transactions.session_id": bson.M{"$ne": sessionID},
	}
	update := bson.M{
		"$push":    bson.M{"transactions": bson.M{"$each": txs}},
		"$pullAll": bson.M{"cart": paid},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("enregistrement checkout: %w", err)
	}
	if res.MatchedCount == 0 {
		// Soit le compte n'existe pas, soit la session est déjà passée.
		if _, err := r.GetByEmail(ctx, email); err != nil {
			return err
		}
		return ErrCheckoutRecorded
	}
	return nil
}

func (r *UserRepository) Transactions(ctx context.Context, email string) ([]models.Transaction, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Transactions == nil {
		return []models.Transaction{}, nil
	}
	return user.Transactions, nil
}

// TransactionsBySession retourne le lot déjà enregistré pour une session de
// paiement (utilisé par le chemin idempotent de complétion).
func (r *UserRepository) TransactionsBySession(ctx context.Context, email, sessionID string) ([]models.Transaction, error) {
	all, err := r.Transactions(ctx, email)
	if err != nil {
		return nil, err
	}
	txs := []models.Transaction{}
	for _, tx := range all {
		if tx.SessionID == sessionID {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (r *UserRepository) UpdateName(ctx context.Context, email, name string) error {
	return r.setField(ctx, email, "name", name)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return r.setField(ctx, email, "password", passwordHash)
}

func (r *UserRepository) setField(ctx context.Context, email, field string, value any) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return fmt.Errorf("mise à jour %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
