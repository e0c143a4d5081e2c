// Package documents keeps uploaded business documents: metadata in the
// record store, content in a blob store.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/blob"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

// MaxUploadSize is the largest accepted document.
const MaxUploadSize = 10 << 20

// Service manages documents.
type Service struct {
	store  *store.Store
	blobs  blob.Store
	bus    *events.Bus
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a documents service.
func NewService(st *store.Store, blobs blob.Store, bus *events.Bus, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &Service{
		store:  st,
		blobs:  blobs,
		bus:    bus,
		logger: logger.Named("documents"),
		now:    time.Now,
	}
}

// BlobKey is where the content of document id named filename lives.
func BlobKey(id, filename string) string {
	return path.Join("documents", id, filename)
}

// contentKey falls back to the derived key for stores that drop BlobKey
// along with the other fields hidden from JSON.
func contentKey(doc models.Document) string {
	if doc.BlobKey != "" {
		return doc.BlobKey
	}
	return BlobKey(doc.ID, doc.Name)
}

// Upload stores content read from r and records doc's metadata. Name is
// required; ContentType is guessed from the extension when empty.
func (s *Service) Upload(ctx context.Context, doc models.Document, r io.Reader) (models.Document, error) {
	errs := models.FieldErrors{}
	filename := cleanName(doc.Name)
	errs.Check(filename != "", "name", "file name is required")
	if err := errs.Err(); err != nil {
		return models.Document{}, err
	}
	if doc.BranchID != "" {
		if _, err := s.store.Branches.Get(ctx, doc.BranchID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return models.Document{}, &models.ValidationError{Fields: map[string]string{"branch_id": "unknown branch"}}
			}
			return models.Document{}, fmt.Errorf("load branch: %w", err)
		}
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return models.Document{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return models.Document{}, &models.ValidationError{Fields: map[string]string{"file": "file exceeds 10 MiB"}}
	}

	doc.ID = store.NewID("doc")
	doc.Name = filename
	doc.BlobKey = BlobKey(doc.ID, filename)
	doc.Size = int64(len(data))
	doc.UploadedAt = s.now()
	if doc.ContentType == "" {
		doc.ContentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if doc.ContentType == "" {
		doc.ContentType = "application/octet-stream"
	}

	if _, err := s.blobs.Put(ctx, doc.BlobKey, bytes.NewReader(data), doc.ContentType); err != nil {
		return models.Document{}, fmt.Errorf("store document content: %w", err)
	}
	if err := s.store.Documents.Put(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(ctx, doc.BlobKey); delErr != nil {
			s.logger.Warn("orphaned document blob", zap.String("key", doc.BlobKey), zap.Error(delErr))
		}
		return models.Document{}, fmt.Errorf("save document: %w", err)
	}

	s.bus.Records.Publish(events.RecordChanged{Bucket: store.BucketDocuments, ID: doc.ID, BranchID: doc.BranchID, Op: events.OpCreate})
	s.logger.Info("document uploaded", zap.String("id", doc.ID), zap.Int64("size", doc.Size))
	return doc, nil
}

// Get returns the metadata of document id.
func (s *Service) Get(ctx context.Context, id string) (models.Document, error) {
	return s.store.Documents.Get(ctx, id)
}

// Open returns the metadata and content of document id.
func (s *Service) Open(ctx context.Context, id string) (models.Document, io.ReadCloser, error) {
	doc, err := s.store.Documents.Get(ctx, id)
	if err != nil {
		return models.Document{}, nil, err
	}
	_, rc, err := s.blobs.Get(ctx, contentKey(doc))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return models.Document{}, nil, fmt.Errorf("document content missing: %w", store.ErrNotFound)
		}
		return models.Document{}, nil, fmt.Errorf("open document content: %w", err)
	}
	return doc, rc, nil
}

// List returns the documents within scope.
func (s *Service) List(ctx context.Context, scope access.Scope) ([]models.Document, error) {
	docs, err := s.store.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return access.FilterByBranch(docs, scope), nil
}

// Delete removes the content and then the metadata of document id.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.store.Documents.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, contentKey(doc)); err != nil {
		return fmt.Errorf("delete document content: %w", err)
	}
	if err := s.store.Documents.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.bus.Records.Publish(events.RecordChanged{Bucket: store.BucketDocuments, ID: id, BranchID: doc.BranchID, Op: events.OpDelete})
	return nil
}

// cleanName keeps the base name of an uploaded file.
func cleanName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
