package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
)

const defaultMongoDatabase = "social_media"

// MongoStore persists documents in MongoDB, one collection per kind.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to cfg.URI and verifies the deployment is reachable.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, errors.New("mongo store: uri is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo store: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo store: ping: %w", err)
	}

	name := strings.TrimSpace(cfg.Database)
	if name == "" {
		name = defaultMongoDatabase
	}
	s, err := NewMongoStore(client.Database(name))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the secondary indexes the SQL schema also declares:
// unique usernames and posts by author.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection(models.UserKind).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: models.FieldUsername, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo store: index users: %w", err)
	}
	_, err = s.collection(models.PostKind).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: models.FieldUserID, Value: 1}, {Key: models.FieldCreatedAt, Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo store: index posts: %w", err)
	}
	return nil
}

// NewMongoStore wraps an existing database handle.
func NewMongoStore(db *mongo.Database) (*MongoStore, error) {
	if db == nil {
		return nil, errors.New("mongo store: database is required")
	}
	return &MongoStore{client: db.Client(), db: db}, nil
}

func (s *MongoStore) collection(kind *models.Kind) *mongo.Collection {
	return s.db.Collection(kind.Collection)
}

func (s *MongoStore) FindByID(ctx context.Context, kind *models.Kind, id string) (models.Document, bool, error) {
	entity := kind.New()
	err := s.collection(kind).FindOne(ctx, bson.M{"_id": id}).Decode(entity)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongo store: find %s %s: %w", kind.Name, id, err)
	}
	return entity.Document(), true, nil
}

func (s *MongoStore) FindByField(ctx context.Context, kind *models.Kind, field string, value any) ([]models.Document, error) {
	if !kind.HasField(field) {
		return nil, fmt.Errorf("mongo store: unknown field %q on %s", field, kind.Name)
	}

	opts := options.Find()
	if kind.SortField != "" {
		opts.SetSort(bson.D{{Key: kind.BSONField(kind.SortField), Value: 1}})
	}

	cursor, err := s.collection(kind).Find(ctx, bson.M{kind.BSONField(field): value}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo store: list %s by %s: %w", kind.Name, field, err)
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	for cursor.Next(ctx) {
		entity := kind.New()
		if err := cursor.Decode(entity); err != nil {
			return nil, fmt.Errorf("mongo store: decode %s: %w", kind.Name, err)
		}
		docs = append(docs, entity.Document())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo store: list %s by %s: %w", kind.Name, field, err)
	}
	return docs, nil
}

func (s *MongoStore) Insert(ctx context.Context, kind *models.Kind, entity models.Entity) error {
	if _, err := s.collection(kind).InsertOne(ctx, entity); err != nil {
		return fmt.Errorf("mongo store: insert %s: %w", kind.Name, err)
	}
	return nil
}

func (s *MongoStore) AtomicIncrement(ctx context.Context, kind *models.Kind, id, field string, delta int64) error {
	update := bson.M{"$inc": bson.M{kind.BSONField(field): delta}}
	result, err := s.collection(kind).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mongo store: increment %s.%s: %w", kind.Name, field, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
