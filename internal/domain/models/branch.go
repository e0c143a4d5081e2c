package models

import (
	"strings"
	"time"
)

// Branch is a physical or logical location of the business. Other records
// point at it through their BranchID field; an empty BranchID means the
// record is not tied to any branch.
type Branch struct {
	ID        string         `bson:"_id" json:"id"`
	Name      string         `bson:"name" json:"name"`
	Code      string         `bson:"code" json:"code"`
	Address   string         `bson:"address" json:"address"`
	Manager   string         `bson:"manager" json:"manager"`
	Status    ActivityStatus `bson:"status" json:"status"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

func (b Branch) Key() string { return b.ID }

// Validate checks the branch before it is stored.
func (b Branch) Validate() error {
	errs := FieldErrors{}
	errs.Check(strings.TrimSpace(b.Name) != "", "name", "name is required")
	errs.Check(b.Status == "" || b.Status.Valid(), "status", "unknown status")
	return errs.Err()
}

// Document describes an uploaded file; its content lives in the blob store.
type Document struct {
	ID          string    `bson:"_id" json:"id"`
	BranchID    string    `bson:"branch_id" json:"branch_id"`
	Name        string    `bson:"name" json:"name"`
	Category    string    `bson:"category" json:"category"`
	ContentType string    `bson:"content_type" json:"content_type"`
	Size        int64     `bson:"size" json:"size"`
	BlobKey     string    `bson:"blob_key" json:"-"`
	UploadedBy  string    `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt  time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

func (d Document) Key() string    { return d.ID }
func (d Document) Branch() string { return d.BranchID }
