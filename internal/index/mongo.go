package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/starford/docsync/internal/apperr"
)

// DefaultMongoCollection matches the collection name used by existing
// deployments of the document store.
const DefaultMongoCollection = "documents"

// mongoDocument is the BSON shape of a stored document. The output key lives
// in "path".
type mongoDocument struct {
	DocID       string    `bson:"docId"`
	Path        string    `bson:"path"`
	Title       string    `bson:"title"`
	Category    string    `bson:"category"`
	Subcategory string    `bson:"subcategory"`
	Content     string    `bson:"content"`
	HasSummary  bool      `bson:"hasSummary"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// Mongo is a Store backed by a MongoDB collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects, verifies the connection and ensures a unique index on
// the document key.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	if collection == "" {
		collection = DefaultMongoCollection
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("index: connect mongo: %w: %w", apperr.ErrStoreUnavailable, err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("index: ping mongo: %w: %w", apperr.ErrStoreUnavailable, err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "path", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("index: create mongo index: %w", wrapMongoErr(err))
	}

	return &Mongo{client: client, coll: coll}, nil
}

// Upsert implements Store with a single upserting UpdateOne.
func (m *Mongo) Upsert(ctx context.Context, doc Document) (bool, error) {
	now := time.Now().UTC()
	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}

	set := bson.M{
		"title":       doc.Title,
		"category":    doc.Category,
		"subcategory": doc.Subcategory,
		"content":     doc.Content,
		"updatedAt":   now,
	}
	onInsert := bson.M{
		"docId":     id,
		"createdAt": now,
	}
	// hasSummary is only ever raised.
	if doc.HasSummary {
		set["hasSummary"] = true
	} else {
		onInsert["hasSummary"] = false
	}
	update := bson.M{"$set": set, "$setOnInsert": onInsert}
	res, err := m.coll.UpdateOne(ctx, bson.M{"path": doc.Key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("index: upsert %s: %w", doc.Key, wrapMongoErr(err))
	}
	return res.UpsertedCount > 0, nil
}

// Delete implements Store.
func (m *Mongo) Delete(ctx context.Context, key string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"path": key}); err != nil {
		return fmt.Errorf("index: delete %s: %w", key, wrapMongoErr(err))
	}
	return nil
}

// Keys implements Store.
func (m *Mongo) Keys(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"path": 1}).
		SetSort(bson.D{{Key: "path", Value: 1}})
	cur, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("index: keys: %w", wrapMongoErr(err))
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var row struct {
			Path string `bson:"path"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("index: decode key: %w", err)
		}
		out = append(out, row.Path)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("index: keys: %w", wrapMongoErr(err))
	}
	return out, nil
}

// Get implements Store.
func (m *Mongo) Get(ctx context.Context, key string) (*Document, error) {
	var row mongoDocument
	err := m.coll.FindOne(ctx, bson.M{"path": key}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("index: get %s: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get %s: %w", key, wrapMongoErr(err))
	}
	return &Document{
		ID:          row.DocID,
		Key:         row.Path,
		Title:       row.Title,
		Category:    row.Category,
		Subcategory: row.Subcategory,
		Content:     row.Content,
		HasSummary:  row.HasSummary,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

// SetHasSummary implements Store.
func (m *Mongo) SetHasSummary(ctx context.Context, key string, hasSummary bool) error {
	res, err := m.coll.UpdateOne(ctx, bson.M{"path": key}, bson.M{"$set": bson.M{"hasSummary": hasSummary}})
	if err != nil {
		return fmt.Errorf("index: set hasSummary %s: %w", key, wrapMongoErr(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("index: set hasSummary %s: %w", key, apperr.ErrNotFound)
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func wrapMongoErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	return err
}
