package mongodb

import (
	"context"
	"time"

	"github.com/longkeyy/go-datasource/common/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 30 * time.Second

type mongoStore struct {
	client *mongo.Client
}

func connectMongo(ctx context.Context, p config.Params) (store, error) {
	clientOptions := options.Client().
		ApplyURI(p.String(KeyURI)).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	return &mongoStore{client: client}, nil
}

func (s *mongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *mongoStore) ListDatabaseNames(ctx context.Context) ([]string, error) {
	return s.client.ListDatabaseNames(ctx, bson.D{})
}

func (s *mongoStore) ListCollectionNames(ctx context.Context, database string) ([]string, error) {
	return s.client.Database(database).ListCollectionNames(ctx, bson.D{})
}

// Sample 读取前 limit 个文档
func (s *mongoStore) Sample(ctx context.Context, database, collection string, limit int64) ([]bson.D, error) {
	cursor, err := s.client.Database(database).Collection(collection).Find(ctx, bson.D{}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
