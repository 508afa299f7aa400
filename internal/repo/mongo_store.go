// Package repo – MongoStore.
//
// MongoStore persists the three collections written by the bots:
//
//	mappings   { mapping, message_id, createdAt }
//	links      { longURL, shortURL, createdAt }
//	user_apis  { userId, apiKey, updatedAt }
//
// Field names match the documents produced by earlier deployments so an
// existing database can be reused as is. Documents are written with
// single-document operations only.
package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tbourn/go-linkbox/internal/domain"
)

// Default collection names.
const (
	DefaultMappingsCollection = "mappings"
	linksCollection           = "links"
	userAPIsCollection        = "user_apis"
)

// MongoStore implements Store on top of a MongoDB database.
type MongoStore struct {
	client   *mongo.Client
	mappings *mongo.Collection
	links    *mongo.Collection
	keys     *mongo.Collection
}

// OpenMongo connects to uri, pings the primary and returns a store bound to
// database dbName. mappingsColl overrides the mappings collection name when
// non-empty.
func OpenMongo(ctx context.Context, uri, dbName, mappingsColl string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, translate("connect", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, translate("ping", err)
	}
	return NewMongoStore(client, dbName, mappingsColl), nil
}

// NewMongoStore binds an existing client to database dbName.
func NewMongoStore(client *mongo.Client, dbName, mappingsColl string) *MongoStore {
	if mappingsColl == "" {
		mappingsColl = DefaultMappingsCollection
	}
	db := client.Database(dbName)
	return &MongoStore{
		client:   client,
		mappings: db.Collection(mappingsColl),
		links:    db.Collection(linksCollection),
		keys:     db.Collection(userAPIsCollection),
	}
}

// EnsureIndexes creates the lookup indexes. The unique index on user_apis
// fails when legacy data already holds duplicates; the error is returned so
// the caller can decide to log and continue.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	var errs []error
	if _, err := s.mappings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "mapping", Value: 1}},
	}); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.links.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "shortURL", Value: 1}, {Key: "_id", Value: -1}},
	}); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.keys.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		errs = append(errs, err)
	}
	return translate("ensure indexes", errors.Join(errs...))
}

// SaveAPIKey upserts the key of userID.
func (s *MongoStore) SaveAPIKey(ctx context.Context, userID int64, apiKey string) error {
	_, err := s.keys.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{
			"userId":    userID,
			"apiKey":    apiKey,
			"updatedAt": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	return translate("save api key", err)
}

// GetAPIKey returns the key of userID or ErrNotFound.
func (s *MongoStore) GetAPIKey(ctx context.Context, userID int64) (string, error) {
	var rec domain.UserAPIKey
	if err := s.keys.FindOne(ctx, bson.M{"userId": userID}).Decode(&rec); err != nil {
		return "", translate("get api key", err)
	}
	if rec.APIKey == "" {
		return "", ErrNotFound
	}
	return rec.APIKey, nil
}

// SaveMapping inserts a mapping document.
func (s *MongoStore) SaveMapping(ctx context.Context, token string, messageID int) error {
	_, err := s.mappings.InsertOne(ctx, domain.Mapping{
		Token:     token,
		MessageID: messageID,
		CreatedAt: time.Now().UTC(),
	})
	return translate("save mapping", err)
}

// ResolveMapping returns the message id bound to token or ErrNotFound. The
// oldest document wins if a token was ever inserted twice.
func (s *MongoStore) ResolveMapping(ctx context.Context, token string) (int, error) {
	var m domain.Mapping
	err := s.mappings.FindOne(ctx,
		bson.M{"mapping": token},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}),
	).Decode(&m)
	if err != nil {
		return 0, translate("resolve mapping", err)
	}
	return m.MessageID, nil
}

// SaveLinkPair appends a links document.
func (s *MongoStore) SaveLinkPair(ctx context.Context, longURL, shortURL string) error {
	_, err := s.links.InsertOne(ctx, domain.LinkPair{
		LongURL:   longURL,
		ShortURL:  shortURL,
		CreatedAt: time.Now().UTC(),
	})
	return translate("save link pair", err)
}

// ResolveLongURL returns the long URL of the most recently inserted document
// whose shortURL matches, or ErrNotFound.
func (s *MongoStore) ResolveLongURL(ctx context.Context, shortURL string) (string, error) {
	var lp domain.LinkPair
	err := s.links.FindOne(ctx,
		bson.M{"shortURL": shortURL},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}),
	).Decode(&lp)
	if err != nil {
		return "", translate("resolve long url", err)
	}
	return lp.LongURL, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
