package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"fotokeramika/models"
	"fotokeramika/utils"
)

// driveDownloadPrefix is the direct download URL of a shared Drive file without its id
const driveDownloadPrefix = "https://drive.google.com/uc?id="

// DriveStorage uploads into a Google Drive folder through a Service Account
type DriveStorage struct {
	client   *drive.Service
	folderID string
	now      func() time.Time
}

var _ AssetStorage = (*DriveStorage)(nil)

// NewDriveStorage creates a DriveStorage.
// credentialsPath should be the path to the Service Account JSON file.
func NewDriveStorage(ctx context.Context, credentialsPath, folderID string, opts ...option.ClientOption) (*DriveStorage, error) {
	if folderID == "" {
		return nil, fmt.Errorf("drive folder id is required")
	}
	if credentialsPath != "" {
		opts = append([]option.ClientOption{option.WithCredentialsFile(credentialsPath)}, opts...)
	}

	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveStorage{
		client:   driveService,
		folderID: folderID,
		now:      time.Now,
	}, nil
}

// PublicURLPrefix returns the download URL prefix of shared files
func (ds *DriveStorage) PublicURLPrefix() string {
	return driveDownloadPrefix
}

// UploadAsset creates the file in the folder, shares it read-only with anyone
// holding the link and returns the direct download URL
func (ds *DriveStorage) UploadAsset(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if len(data) == 0 {
		return "", &models.UploadError{Name: suggestedName, Err: errors.New("empty payload")}
	}

	name := utils.ObjectName(ds.now(), suggestedName)
	file, err := ds.client.Files.Create(&drive.File{
		Name:     name,
		Parents:  []string{ds.folderID},
		MimeType: utils.ContentTypeForName(name),
	}).Media(bytes.NewReader(data)).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", &models.UploadError{Name: suggestedName, Err: fmt.Errorf("failed to create file: %w", err)}
	}

	_, err = ds.client.Permissions.Create(file.Id, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).Context(ctx).Do()
	if err != nil {
		return "", &models.UploadError{Name: suggestedName, Err: fmt.Errorf("failed to share file: %w", err)}
	}

	log.Printf("✅ Uploaded %s to Drive folder %s (file id %s)", name, ds.folderID, file.Id)
	return driveDownloadPrefix + file.Id, nil
}
