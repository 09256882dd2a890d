package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voyago_back_end/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const TTL = 24 * time.Hour

var ErrNoSession = errors.New("session absente ou expirée")

// Store garde une copie assainie du compte (mot de passe effacé) dans Redis
// pour la durée de la session navigateur. Le token remis au client est un
// JWT signé qui porte l'identifiant de session.
type Store struct {
	rdb    *redis.Client
	secret []byte
}

func NewStore(rdb *redis.Client, secret string) *Store {
	return &Store{rdb: rdb, secret: []byte(secret)}
}

func (s *Store) Create(ctx context.Context, user models.User) (string, error) {
	sid := uuid.NewString()

	data, err := json.Marshal(user.Sanitized())
	if err != nil {
		return "", fmt.Errorf("sérialisation session: %w", err)
	}
	if err := s.rdb.Set(ctx, key(sid), data, TTL).Err(); err != nil {
		return "", fmt.Errorf("écriture session Redis: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid":   sid,
		"email": user.Email,
		"exp":   time.Now().Add(TTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signature token de session: %w", err)
	}
	return signed, nil
}

func (s *Store) Get(ctx context.Context, token string) (*models.User, error) {
	sid, err := s.sessionID(token)
	if err != nil {
		return nil, err
	}

	data, err := s.rdb.Get(ctx, key(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("lecture session Redis: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("décodage session: %w", err)
	}
	return &user, nil
}

// Update remplace la copie de compte d'une session existante (après un
// changement de nom par exemple), sans toucher au TTL restant.
func (s *Store) Update(ctx context.Context, token string, user models.User) error {
	sid, err := s.sessionID(token)
	if err != nil {
		return err
	}
	data, err := json.Marshal(user.Sanitized())
	if err != nil {
		return fmt.Errorf("sérialisation session: %w", err)
	}
	return s.rdb.Set(ctx, key(sid), data, redis.KeepTTL).Err()
}

func (s *Store) Destroy(ctx context.Context, token string) error {
	sid, err := s.sessionID(token)
	if err != nil {
		return err
	}
	return s.rdb.Del(ctx, key(sid)).Err()
}

func (s *Store) sessionID(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrNoSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrNoSession
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", ErrNoSession
	}
	return sid, nil
}

func key(sid string) string {
	return "session:" + sid
}
