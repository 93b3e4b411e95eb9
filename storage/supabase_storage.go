package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"fotokeramika/models"
	"fotokeramika/supabase"
	"fotokeramika/utils"
)

// DefaultBucket is the Supabase bucket holding order photos
const DefaultBucket = "order-photos"

// SupabaseStorage uploads into a Supabase storage bucket
type SupabaseStorage struct {
	bucket *supabase.BucketClient
	now    func() time.Time
}

var _ AssetStorage = (*SupabaseStorage)(nil)

// NewSupabaseStorage creates storage backed by the given bucket
func NewSupabaseStorage(client *supabase.Client, bucket string) *SupabaseStorage {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &SupabaseStorage{
		bucket: client.Storage().From(bucket),
		now:    time.Now,
	}
}

// PublicURLPrefix returns the public URL of the bucket root
func (s *SupabaseStorage) PublicURLPrefix() string {
	return s.bucket.GetPublicURL("")
}

// UploadAsset stores data as "<unix millis>-<sanitized name>" and returns its public URL
func (s *SupabaseStorage) UploadAsset(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if len(data) == 0 {
		return "", &models.UploadError{Name: suggestedName, Err: errors.New("empty payload")}
	}

	name := utils.ObjectName(s.now(), suggestedName)
	resp, err := s.bucket.Upload(ctx, name, data, utils.ContentTypeForName(name))
	if err != nil {
		return "", &models.UploadError{Name: suggestedName, Err: err}
	}
	if err := resp.Error(); err != nil {
		return "", &models.UploadError{Name: suggestedName, Err: err}
	}

	log.Printf("✅ Uploaded %s to Supabase storage (%d bytes)", name, len(data))
	return s.bucket.GetPublicURL(name), nil
}
