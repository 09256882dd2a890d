package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Money est un montant décimal exact (pas de float64 pour les prix).
// Stocké en string dans Mongo pour garder l'égalité de valeur dans $addToSet.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("montant invalide %q: %w", s, err)
	}
	return Money{Decimal: d}, nil
}

// Cents retourne le montant en centimes pour Stripe.
func (m Money) Cents() int64 {
	return m.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// MarshalJSON émet un nombre nu ("price": 250.5), pas la string quotée par
// défaut de shopspring — l'API expose les prix en numérique.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(m.String())
}

func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	var s string
	if err := raw.Unmarshal(&s); err != nil {
		return fmt.Errorf("décodage montant: %w", err)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("montant invalide %q: %w", s, err)
	}
	m.Decimal = d
	return nil
}
