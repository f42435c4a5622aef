package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the MongoDB-backed store. Transactions use driver sessions; the
// session rides on the context, so every operation issued with the callback's
// context joins the transaction.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("unable to ping mongodb: %w", err)
	}

	log.Println("Connected to MongoDB")
	return &Mongo{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) {
	if m.client != nil {
		_ = m.client.Disconnect(ctx)
	}
}

func (m *Mongo) Find(ctx context.Context, collection string, filter M, opts ...FindOption) ([]M, error) {
	var cfg findConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	findOpts := options.Find()
	if cfg.sortField != "" {
		order := -1
		if cfg.sortAsc {
			order = 1
		}
		findOpts.SetSort(bson.D{{Key: cfg.sortField, Value: order}})
	}

	cur, err := m.db.Collection(collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	var docs []M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return docs, nil
}

func (m *Mongo) FindOne(ctx context.Context, collection string, filter M) (M, error) {
	var doc M
	err := m.db.Collection(collection).FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find one %s: %w", collection, err)
	}
	return doc, nil
}

func (m *Mongo) FindByID(ctx context.Context, collection string, id string) (M, error) {
	return m.FindOne(ctx, collection, M{"_id": id})
}

func (m *Mongo) Insert(ctx context.Context, collection string, doc any) (M, error) {
	encoded, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	encoded = stamp(encoded)
	if _, err := m.db.Collection(collection).InsertOne(ctx, encoded); err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}
	return encoded, nil
}

func (m *Mongo) InsertMany(ctx context.Context, collection string, docs []any) ([]M, error) {
	if len(docs) == 0 {
		return []M{}, nil
	}
	encoded := make([]M, 0, len(docs))
	raw := make([]any, 0, len(docs))
	for _, doc := range docs {
		e, err := Encode(doc)
		if err != nil {
			return nil, err
		}
		e = stamp(e)
		encoded = append(encoded, e)
		raw = append(raw, e)
	}
	if _, err := m.db.Collection(collection).InsertMany(ctx, raw); err != nil {
		return nil, fmt.Errorf("insert many %s: %w", collection, err)
	}
	return encoded, nil
}

func (m *Mongo) UpdateByID(ctx context.Context, collection string, id string, patch M) (M, error) {
	update := M{}
	for k, v := range patch {
		update[k] = v
	}
	update["updatedAt"] = nowMillis()

	var doc M
	err := m.db.Collection(collection).FindOneAndUpdate(
		ctx,
		M{"_id": id},
		M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", collection, err)
	}
	return doc, nil
}

func (m *Mongo) DeleteOne(ctx context.Context, collection string, filter M) (int64, error) {
	res, err := m.db.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete one %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

func (m *Mongo) DeleteMany(ctx context.Context, collection string, filter M) (int64, error) {
	res, err := m.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete many %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

// WithTransaction runs fn inside a session transaction. The session is ended
// on every exit path; the driver aborts the transaction when fn errors.
func (m *Mongo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}
