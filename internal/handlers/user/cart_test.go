package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"voyago_back_end/internal/models"
	"voyago_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore est un User Store en mémoire avec la même sémantique d'ensemble
// que le $addToSet de Mongo.
type memStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemStore(emails ...string) *memStore {
	s := &memStore{users: map[string]*models.User{}}
	for _, e := range emails {
		s.users[e] = &models.User{Email: e, Cart: []models.LineItem{}, Transactions: []models.Transaction{}}
	}
	return s
}

func (s *memStore) user(email string) (*models.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) Create(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrUserExists
	}
	s.users[user.Email] = &user
	return nil
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user(email)
}

func (s *memStore) AddCartItem(ctx context.Context, email string, item models.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(email)
	if err != nil {
		return err
	}
	for _, existing := range u.Cart {
		if existing.Equal(item) {
			return nil
		}
	}
	u.Cart = append(u.Cart, item)
	return nil
}

func (s *memStore) RemoveCartItem(ctx context.Context, email, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(email)
	if err != nil {
		return err
	}
	kept := u.Cart[:0]
	for _, item := range u.Cart {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	u.Cart = kept
	return nil
}

func (s *memStore) ClearCart(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(email)
	if err != nil {
		return err
	}
	u.Cart = []models.LineItem{}
	return nil
}

func (s *memStore) Cart(ctx context.Context, email string) ([]models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(email)
	if err != nil {
		return nil, err
	}
	out := make([]models.LineItem, len(u.Cart))
	copy(out, u.Cart)
	return out, nil
}

func (s *memStore) Transactions(ctx context.Context, email string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(email)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, len(u.Transactions))
	copy(out, u.Transactions)
	return out, nil
}

func (s *memStore) TransactionsBySession(ctx context.Context, email, sessionID string) ([]models.Transaction, error) {
	all, err := s.Transactions(ctx, email)
	if err != nil {
		return nil, err
	}
	out := []models.Transaction{}
	for _, tx := range all {
		if tx.SessionID == sessionID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *memStore) UpdateName(ctx context.Context, email, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(email)
	if err != nil {
		return err
	}
	u.Name = name
	return nil
}

func (s *memStore) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(email)
	if err != nil {
		return err
	}
	u.Password = passwordHash
	return nil
}

func setupCartRouter(store *memStore, email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{Store: store}

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("email", email) })
	r.GET("/api/cart/items", h.GetCart)
	r.POST("/api/cart/items", h.AddToCart)
	r.DELETE("/api/cart/items/:itemId", h.RemoveFromCart)
	r.POST("/api/cart/clear", h.ClearCart)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const flightJSON = `{"id":"F1","name":"YVR-JFK","price":250.50,"type":"Flight"}`

func TestGetCart_EmptyCartIsEmptyArray(t *testing.T) {
	store := newMemStore("alice@voyago.dev")
	r := setupCartRouter(store, "alice@voyago.dev")

	w := do(r, http.MethodGet, "/api/cart/items", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Items []models.LineItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestAddToCart_OK(t *testing.T) {
	store := newMemStore("alice@voyago.dev")
	r := setupCartRouter(store, "alice@voyago.dev")

	w := do(r, http.MethodPost, "/api/cart/items", flightJSON)

	assert.Equal(t, http.StatusOK, w.Code)
	cart, _ := store.Cart(context.Background(), "alice@voyago.dev")
	require.Len(t, cart, 1)
	assert.Equal(t, "F1", cart[0].ID)
	assert.Equal(t, "250.5", cart[0].Price.String())
}

func TestAddToCart_DuplicateIsNotAdded(t *testing.T) {
	store := newMemStore("alice@voyago.dev")
	r := setupCartRouter(store, "alice@voyago.dev")

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/cart/items", flightJSON).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/cart/items", flightJSON).Code)

	cart, _ := store.Cart(context.Background(), "alice@voyago.dev")
	assert.Len(t, cart, 1, "le panier est un ensemble : l'article identique ne double pas")
}

func TestAddToCart_SamePriceDifferentIDCoexist(t *testing.T) {
	store := newMemStore("alice@voyago.dev")
	r := setupCartRouter(store, "alice@voyago.dev")

	do(r, http.MethodPost, "/api/cart/items", flightJSON)
	do(r, http.MethodPost, "/api/cart/items", `{"id":"F2","name":"YVR-JFK","price":250.50,"type":"Flight"}`)

	cart, _ := store.Cart(context.Background(), "alice@voyago.dev")
	assert.Len(t, cart, 2)
}

func TestAddToCart_InvalidTypeRejectedCartUnchanged(t *testing.T) {
	store := newMemStore("alice@voyago.dev")
	r := setupCartRouter(store, "alice@voyago.dev")

	w := do(r, http.MethodPost, "/api/cart/items", `{"id":"X1","name":"Croisière","price":999,"type":"Cruise"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cruise")
	cart, _ := store.Cart(context.Background(), "alice@voyago.dev")
	assert.Empty(t, cart, "un article invalide ne laisse aucune trace")
}

func TestAddToCart_NegativePriceRejected(t *testing.T) {
	store := newMemStore("alice@voyago.dev")
	r := setupCartRouter(store, "alice@voyago.dev")

	w := do(r, http.MethodPost, "/api/cart/items", `{"id":"F1","name":"YVR-JFK","price":-10,"type":"Flight"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	cart, _ := store.Cart(context.Background(), "alice@voyago.dev")
	assert.Empty(t, cart)
}

func TestAddToCart_NonNumericPriceRejected(t *testing.T) {
	store := newMemStore("alice@voyago.dev")
	r := setupCartRouter(store, "alice@voyago.dev")

	w := do(r, http.MethodPost, "/api/cart/items", `{"id":"F1","name":"YVR-JFK","price":"gratuit","type":"Flight"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveFromCart_RemovesAllMatchingIDs(t *testing.T) {
	store := newMemStore("alice@voyago.dev")
	r := setupCartRouter(store, "alice@voyago.dev")

	do(r, http.MethodPost, "/api/cart/items", flightJSON)
	do(r, http.MethodPost, "/api/cart/items", `{"id":"H1","name":"Hôtel Gastown","price":129.99,"type":"Hotel"}`)

	w := do(r, http.MethodDelete, "/api/cart/items/F1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	cart, _ := store.Cart(context.Background(), "alice@voyago.dev")
	require.Len(t, cart, 1)
	assert.Equal(t, "H1", cart[0].ID)
}

func TestRemoveFromCart_AbsentItemSucceeds(t *testing.T) {
	store := newMemStore("alice@voyago.dev")
	r := setupCartRouter(store, "alice@voyago.dev")

	w := do(r, http.MethodDelete, "/api/cart/items/introuvable", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClearCart_Idempotent(t *testing.T) {
	store := newMemStore("alice@voyago.dev")
	r := setupCartRouter(store, "alice@voyago.dev")

	do(r, http.MethodPost, "/api/cart/items", flightJSON)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/cart/clear", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/cart/clear", "").Code, "vider un panier vide réussit")

	cart, _ := store.Cart(context.Background(), "alice@voyago.dev")
	assert.Empty(t, cart)
}

func TestCart_UnknownAccountIs404(t *testing.T) {
	store := newMemStore()
	r := setupCartRouter(store, "fantome@voyago.dev")

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/cart/items", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/cart/items", flightJSON).Code)
}
