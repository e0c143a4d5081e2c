// Package sqlite implements the record store on an embedded SQLite file.
// Each record is one row, written with an upsert, so mutations touch only the
// affected record.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/repository/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	bucket  TEXT    NOT NULL,
	id      TEXT    NOT NULL,
	seq     INTEGER NOT NULL,
	payload BLOB    NOT NULL,
	PRIMARY KEY (bucket, id)
);
CREATE INDEX IF NOT EXISTS records_bucket_seq ON records (bucket, seq);
CREATE TABLE IF NOT EXISTS kv (
	key     TEXT PRIMARY KEY,
	payload BLOB NOT NULL
);`

// Open creates (if needed) and opens the database at path.
func Open(ctx context.Context, path string) (*store.Store, error) {
	if path == "" {
		path = "hisaab.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection serialises writers and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

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
		KV:           &kv{db: db},
		Closer: func(context.Context) error {
			return db.Close()
		},
	}, nil
}

type collection[T store.Record] struct {
	db     *sql.DB
	bucket string
}

func newCollection[T store.Record](db *sql.DB, bucket string) *collection[T] {
	return &collection[T]{db: db, bucket: bucket}
}

func (c *collection[T]) List(ctx context.Context) ([]T, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT payload FROM records WHERE bucket = ? ORDER BY seq`, c.bucket)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", c.bucket, err)
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.bucket, err)
		}
		var item T
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.bucket, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.bucket, err)
	}
	return out, nil
}

func (c *collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var payload []byte
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE bucket = ? AND id = ?`, c.bucket, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%s/%s: %w", c.bucket, id, store.ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("select %s/%s: %w", c.bucket, id, err)
	}
	var item T
	if err := json.Unmarshal(payload, &item); err != nil {
		return zero, fmt.Errorf("decode %s/%s: %w", c.bucket, id, err)
	}
	return item, nil
}

func (c *collection[T]) Put(ctx context.Context, record T) error {
	id := record.Key()
	if id == "" {
		return fmt.Errorf("put %s: empty id", c.bucket)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.bucket, id, err)
	}
	_, err = c.db.ExecContext(ctx, `INSERT INTO records(bucket, id, seq, payload)
		VALUES(?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM records WHERE bucket = ?), ?)
		ON CONFLICT(bucket, id) DO UPDATE SET payload = excluded.payload`,
		c.bucket, id, c.bucket, payload)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", c.bucket, id, err)
	}
	return nil
}

func (c *collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM records WHERE bucket = ? AND id = ?`, c.bucket, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.bucket, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.bucket, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", c.bucket, id, store.ErrNotFound)
	}
	return nil
}

type kv struct {
	db *sql.DB
}

func (k *kv) GetJSON(ctx context.Context, key string, out any) error {
	var payload []byte
	err := k.db.QueryRowContext(ctx, `SELECT payload FROM kv WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", key, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("select kv %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode kv %s: %w", key, err)
	}
	return nil
}

func (k *kv) PutJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode kv %s: %w", key, err)
	}
	if _, err := k.db.ExecContext(ctx, `INSERT INTO kv(key, payload) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`, key, payload); err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}

func (k *kv) Delete(ctx context.Context, key string) error {
	if _, err := k.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}

func (k *kv) DeletePrefix(ctx context.Context, prefix string) error {
	if _, err := k.db.ExecContext(ctx, `DELETE FROM kv WHERE substr(key, 1, ?) = ?`, len(prefix), prefix); err != nil {
		return fmt.Errorf("delete kv prefix %s: %w", prefix, err)
	}
	return nil
}
