package models

import "time"

// Transaction est la trace immuable d'un achat finalisé. Créée uniquement
// par la complétion d'un checkout, jamais modifiée ensuite.
type Transaction struct {
	ID        string    `bson:"id" json:"id"`
	Type      ItemType  `bson:"type" json:"type"`
	Name      string    `bson:"name" json:"name"`
	Price     Money     `bson:"price" json:"price"`
	Date      time.Time `bson:"date" json:"date"`
	SessionID string    `bson:"session_id" json:"sessionId"`
}

// TransactionsFromCart convertit le panier en lot de transactions, dans
// l'ordre du panier, toutes estampillées avec la même session de paiement.
func TransactionsFromCart(cart []LineItem, sessionID string, at time.Time) []Transaction {
	txs := make([]Transaction, 0, len(cart))
	for _, item := range cart {
		txs = append(txs, Transaction{
			ID:        item.ID,
			Type:      item.Type,
			Name:      item.Name,
			Price:     item.Price,
			Date:      at,
			SessionID: sessionID,
		})
	}
	return txs
}
