package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Types d'articles réservables autorisés dans le panier.
type ItemType string

const (
	ItemFlight   ItemType = "Flight"
	ItemHotel    ItemType = "Hotel"
	ItemCar      ItemType = "Car"
	ItemActivity ItemType = "Activity"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemFlight, ItemHotel, ItemCar, ItemActivity:
		return true
	}
	return false
}

// LineItem est une entrée du panier : un produit réservable en attente d'achat.
// L'ID est la référence opaque du résultat de recherche (ex: id d'offre de vol).
type LineItem struct {
	ID    string   `bson:"id" json:"id"`
	Name  string   `bson:"name" json:"name"`
	Price Money    `bson:"price" json:"price"`
	Type  ItemType `bson:"type" json:"type"`
}

var (
	ErrItemIDRequired    = errors.New("champ 'id' requis")
	ErrItemNameRequired  = errors.New("champ 'name' requis")
	ErrItemPriceRequired = errors.New("champ 'price' requis")
	ErrItemTypeRequired  = errors.New("champ 'type' requis")
	ErrNegativePrice     = errors.New("le prix ne peut pas être négatif")
)

// Validate vérifie le schéma d'un article et retourne la première
// contrainte violée.
func (i LineItem) Validate() error {
	if i.ID == "" {
		return ErrItemIDRequired
	}
	if i.Name == "" {
		return ErrItemNameRequired
	}
	if i.Price.IsNegative() {
		return ErrNegativePrice
	}
	if i.Type == "" {
		return ErrItemTypeRequired
	}
	if !i.Type.Valid() {
		return fmt.Errorf("type d'article inconnu: %q (attendu: Flight, Hotel, Car ou Activity)", i.Type)
	}
	return nil
}

// Equal compare deux articles par valeur, même sémantique que le
// $addToSet de Mongo.
func (i LineItem) Equal(other LineItem) bool {
	return i.ID == other.ID &&
		i.Name == other.Name &&
		i.Type == other.Type &&
		i.Price.Decimal.Equal(other.Price.Decimal)
}

// CartTotal additionne les prix du panier.
func CartTotal(items []LineItem) Money {
	total := Money{}
	for _, item := range items {
		total = NewMoney(total.Add(item.Price.Decimal))
	}
	return total
}

// UnmarshalJSON rejette un prix non numérique ou absent avec un message
// exploitable. Le prix passe par un pointeur pour distinguer "price": 0
// (valide) d'un champ manquant (la valeur zéro de Money est aussi 0).
func (i *LineItem) UnmarshalJSON(data []byte) error {
	type alias LineItem
	aux := struct {
		*alias
		Price *Money `json:"price"`
	}{alias: (*alias)(i)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return errors.New("article invalide: prix numérique et champs id/name/type attendus")
	}
	if aux.Price == nil {
		return ErrItemPriceRequired
	}
	i.Price = *aux.Price
	return nil
}
