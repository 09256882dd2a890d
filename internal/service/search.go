package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"voyago_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const transactionsIndex = "transactions"

// SearchService indexe les transactions finalisées dans Elasticsearch et
// sert la recherche plein-texte de l'historique d'un compte.
type SearchService struct {
	es *elasticsearch.Client
}

// NewSearchService retourne nil si Elastic n'est pas configuré : la
// recherche est alors simplement désactivée.
func NewSearchService(es *elasticsearch.Client) *SearchService {
	if es == nil {
		return nil
	}
	return &SearchService{es: es}
}

type transactionDoc struct {
	Email     string `json:"email"`
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Price     string `json:"price"`
	Date      string `json:"date"`
	SessionID string `json:"session_id"`
}

// IndexTransactions pousse un lot de transactions dans l'index. Les échecs
// sont loggés, jamais remontés : l'indexation n'est pas sur le chemin
// critique du checkout.
func (s *SearchService) IndexTransactions(ctx context.Context, email string, txs []models.Transaction) {
	for _, tx := range txs {
		doc := transactionDoc{
			Email:     email,
			ItemID:    tx.ID,
			Name:      tx.Name,
			Type:      string(tx.Type),
			Price:     tx.Price.StringFixed(2),
			Date:      tx.Date.Format("2006-01-02T15:04:05Z07:00"),
			SessionID: tx.SessionID,
		}
		data, _ := json.Marshal(doc)

		req := esapi.IndexRequest{
			Index:      transactionsIndex,
			DocumentID: tx.SessionID + ":" + tx.ID,
			Body:       bytes.NewReader(data),
			Refresh:    "true",
		}

		res, err := req.Do(ctx, s.es)
		if err != nil {
			log.Println("❌ Erreur envoi Elastic:", err)
			continue
		}
		if res.IsError() {
			log.Printf("⚠️ Elastic a renvoyé une erreur pour %s: %s", tx.Name, res.String())
		}
		res.Body.Close()
	}
	log.Printf("🔎 %d transaction(s) indexée(s) pour %s", len(txs), email)
}

// SearchTransactions cherche dans l'historique d'UN compte (filtre strict
// sur l'email) par nom ou type de réservation.
func (s *SearchService) SearchTransactions(ctx context.Context, email, query string) ([]map[string]interface{}, error) {
	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"name", "type", "session_id"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"email.keyword": email},
				},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{transactionsIndex},
		Body:  &buf,
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		json.NewDecoder(res.Body).Decode(&e)
		log.Printf("❌ Elasticsearch erreur: %+v", e)
		return nil, errors.New("index non trouvé ou vide")
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage réponse Elastic: %w", err)
	}

	results := make([]map[string]interface{}, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		results = append(results, hit.Source)
	}
	return results, nil
}
