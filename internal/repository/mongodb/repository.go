package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/repository/store"
)

const kvCollection = "hisaabb_kv"

// Open connects to MongoDB and returns a store with one collection per bucket.
func Open(ctx context.Context, uri string, dbName string) (*store.Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	return &store.Store{
		Sales:        newCollection[models.Sale](db, store.BucketSales),
		Invoices:     newCollection[models.Invoice](db, store.BucketInvoices),
		Products:     newCollection[models.Product](db, store.BucketProducts),
		Customers:    newCollection[models.Customer](db, store.BucketCustomers),
		Staff:        newCollection[models.StaffMember](db, store.BucketStaff),
		Tasks:        newCollection[models.Task](db, store.BucketTasks),
		Orders:       newCollection[models.Order](db, store.BucketOrders),
		Vendors:      newCollection[models.Vendor](db, store.BucketVendors),
		VendorOrders: newCollection[models.VendorOrder](db, store.BucketVendorOrders),
		Branches:     newCollection[models.Branch](db, store.BucketBranches),
		Documents:    newCollection[models.Document](db, store.BucketDocuments),
		DailyReports: newCollection[models.DailyReport](db, store.BucketDailyReports),
		KV:           &kv{coll: db.Collection(kvCollection)},
		Closer:       client.Disconnect,
	}, nil
}

// envelope wraps a record with the sequence used to keep insertion order.
type envelope[T any] struct {
	ID     string `bson:"_id"`
	Seq    int64  `bson:"seq"`
	Record T      `bson:"record"`
}

type collection[T store.Record] struct {
	coll *mongo.Collection
}

func newCollection[T store.Record](db *mongo.Database, bucket string) *collection[T] {
	return &collection[T]{coll: db.Collection(bucket)}
}

func (c *collection[T]) List(ctx context.Context) ([]T, error) {
	cur, err := c.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.coll.Name(), err)
	}
	var docs []envelope[T]
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Record)
	}
	return out, nil
}

func (c *collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var doc envelope[T]
	err := c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return zero, fmt.Errorf("%s/%s: %w", c.coll.Name(), id, store.ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("find %s/%s: %w", c.coll.Name(), id, err)
	}
	return doc.Record, nil
}

func (c *collection[T]) Put(ctx context.Context, record T) error {
	id := record.Key()
	if id == "" {
		return fmt.Errorf("put %s: empty id", c.coll.Name())
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "record", Value: record}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "seq", Value: time.Now().UnixNano()}}},
	}
	if _, err := c.coll.UpdateByID(ctx, id, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", c.coll.Name(), id, err)
	}
	return nil
}

func (c *collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.coll.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s/%s: %w", c.coll.Name(), id, store.ErrNotFound)
	}
	return nil
}

// kv keeps JSON text so values round-trip exactly like the other backends.
type kv struct {
	coll *mongo.Collection
}

type kvDoc struct {
	Key     string `bson:"_id"`
	Payload string `bson:"payload"`
}

func (k *kv) GetJSON(ctx context.Context, key string, out any) error {
	var doc kvDoc
	err := k.coll.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", key, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find kv %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(doc.Payload), out); err != nil {
		return fmt.Errorf("decode kv %s: %w", key, err)
	}
	return nil
}

func (k *kv) PutJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode kv %s: %w", key, err)
	}
	_, err = k.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: key}}, kvDoc{Key: key, Payload: string(payload)}, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}

func (k *kv) Delete(ctx context.Context, key string) error {
	if _, err := k.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}}); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}

func (k *kv) DeletePrefix(ctx context.Context, prefix string) error {
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$regex", Value: "^" + regexp.QuoteMeta(prefix)}}}}
	if _, err := k.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("delete kv prefix %s: %w", prefix, err)
	}
	return nil
}
