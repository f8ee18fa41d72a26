package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/semmidev/phylax-mongo/internal/config"
	"github.com/semmidev/phylax-mongo/internal/domain"
)

// keyProperty is the Drive app property that stores the object key, since
// Drive file names are not unique and carry no hierarchy.
const keyProperty = "backup_key"

type GDriveStorage struct {
	service  *drive.Service
	folderID string
}

func NewGDrive(ctx context.Context, cfg *config.StorageConfig, opts ...option.ClientOption) (*GDriveStorage, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDriveStorage{
		service:  service,
		folderID: cfg.FolderID,
	}, nil
}

func (g *GDriveStorage) Put(ctx context.Context, key string, body []byte, opts domain.PutOptions) error {
	existing, err := g.find(ctx, func(k string) bool { return k == key })
	if err != nil {
		return err
	}

	fileMetadata := &drive.File{
		Name:          path.Base(key),
		Parents:       []string{g.folderID},
		AppProperties: map[string]string{keyProperty: key},
	}

	var media []googleapi.MediaOption
	if opts.ContentType != "" {
		media = append(media, googleapi.ContentType(opts.ContentType))
	}

	_, err = g.service.Files.Create(fileMetadata).
		Media(bytes.NewReader(body), media...).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to upload to gdrive: %w", err)
	}

	// Same key means overwrite; drop the older copies only once the new one exists.
	for _, f := range existing {
		if err := g.service.Files.Delete(f.Id).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to replace %s: %w", key, err)
		}
	}

	return nil
}

func (g *GDriveStorage) List(ctx context.Context, prefix string) ([]domain.Object, error) {
	files, err := g.find(ctx, func(k string) bool { return strings.HasPrefix(k, prefix) })
	if err != nil {
		return nil, err
	}

	objects := make([]domain.Object, 0, len(files))
	for _, f := range files {
		modified, err := time.Parse(time.RFC3339, f.ModifiedTime)
		if err != nil {
			return nil, fmt.Errorf("invalid modified time for %s: %w", f.Name, err)
		}
		objects = append(objects, domain.Object{
			Key:          objectKey(f),
			LastModified: modified,
			Size:         f.Size,
		})
	}

	return objects, nil
}

func (g *GDriveStorage) DeleteObjects(ctx context.Context, keys []string) error {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	files, err := g.find(ctx, func(k string) bool { return wanted[k] })
	if err != nil {
		return err
	}

	found := make(map[string]bool, len(files))
	for _, f := range files {
		if err := g.service.Files.Delete(f.Id).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		found[objectKey(f)] = true
	}

	for _, k := range keys {
		if !found[k] {
			return fmt.Errorf("file not found: %s", k)
		}
	}

	return nil
}

// find walks every page of the folder listing and keeps files whose key
// satisfies match.
func (g *GDriveStorage) find(ctx context.Context, match func(key string) bool) ([]*drive.File, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", g.folderID)

	var files []*drive.File
	err := g.service.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name, modifiedTime, size, appProperties)").
		Context(ctx).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				if match(objectKey(f)) {
					files = append(files, f)
				}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

func objectKey(f *drive.File) string {
	if key, ok := f.AppProperties[keyProperty]; ok && key != "" {
		return key
	}
	return f.Name
}
