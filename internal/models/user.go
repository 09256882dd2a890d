package models

import "time"

// User est le document compte, clé unique: email. Le compte possède son
// panier et son historique de transactions — jamais supprimé dans ce scope.
type User struct {
	ID           string        `bson:"user_id" json:"userId"`
	Email        string        `bson:"email" json:"email"`
	Username     string        `bson:"username" json:"username,omitempty"`
	Name         string        `bson:"name" json:"name,omitempty"`
	Password     string        `bson:"password" json:"-"`
	Provider     string        `bson:"provider" json:"provider,omitempty"`
	Cart         []LineItem    `bson:"cart" json:"cart"`
	Transactions []Transaction `bson:"transactions" json:"transactions"`
	CreatedAt    time.Time     `bson:"created_at" json:"-"`
}

// Sanitized retourne une copie sans le hash de mot de passe, pour la session.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}
