package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Clients regroupe les connexions externes. Construit une fois au démarrage
// puis injecté dans les repositories et services — pas de globals.
type Clients struct {
	Mongo   *mongo.Client
	UsersDB *mongo.Database
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
}

// Connect initialise Mongo, Redis, Elasticsearch et MinIO.
// Mongo et Redis sont obligatoires; Elastic et MinIO sont optionnels
// (les fonctionnalités qui en dépendent se désactivent proprement).
func Connect(ctx context.Context) (*Clients, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	mongoClient, err := connectMongo(ctx)
	if err != nil {
		return nil, err
	}

	redisClient, err := connectRedis(ctx)
	if err != nil {
		return nil, err
	}

	clients := &Clients{
		Mongo:   mongoClient,
		UsersDB: mongoClient.Database(getenv("MONGO_DB_NAME", "voyago")),
		Redis:   redisClient,
		Elastic: connectElastic(),
		MinIO:   connectMinIO(ctx),
	}

	log.Println("✅ Toutes les bases de données sont connectées")
	return clients, nil
}

func (c *Clients) Close(ctx context.Context) {
	if err := c.Mongo.Disconnect(ctx); err != nil {
		log.Println("⚠️ Erreur déconnexion Mongo:", err)
	}
	if err := c.Redis.Close(); err != nil {
		log.Println("⚠️ Erreur déconnexion Redis:", err)
	}
}

func connectMongo(ctx context.Context) (*mongo.Client, error) {
	uri := getenv("MONGO_URI", "mongodb://localhost:27017")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connexion MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	log.Println("✅ Connecté à MongoDB")
	return client, nil
}

func connectRedis(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     getenv("REDIS_HOST", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connexion Redis: %w", err)
	}

	log.Println("✅ Connecté à Redis")
	return client, nil
}

func connectElastic() *elasticsearch.Client {
	url := os.Getenv("ELASTIC_URL")
	if url == "" {
		log.Println("⚠️ ELASTIC_URL absent — recherche de transactions désactivée")
		return nil
	}

	cfg := elasticsearch.Config{
		Addresses: []string{url},
		Username:  os.Getenv("ELASTIC_USER"),
		Password:  os.Getenv("ELASTIC_PASSWORD"),
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		log.Println("⚠️ Erreur création client Elasticsearch:", err)
		return nil
	}

	res, err := client.Info()
	if err != nil {
		log.Println("⚠️ Elasticsearch injoignable:", err)
		return nil
	}
	defer res.Body.Close()

	log.Println("✅ Connecté à Elasticsearch")
	return client
}

func connectMinIO(ctx context.Context) *minio.Client {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		log.Println("⚠️ MINIO_ENDPOINT absent — stockage des reçus désactivé")
		return nil
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: os.Getenv("MINIO_USE_SSL") == "true",
	})
	if err != nil {
		log.Println("⚠️ Erreur connexion MinIO:", err)
		return nil
	}

	bucket := getenv("MINIO_BUCKET", "voyago-receipts")
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		log.Println("⚠️ Erreur vérification bucket MinIO:", err)
		return nil
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			log.Println("⚠️ Erreur création bucket MinIO:", err)
			return nil
		}
		log.Println("🪣 Bucket créé :", bucket)
	}

	log.Println("✅ Connecté à MinIO :", endpoint)
	return client
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
