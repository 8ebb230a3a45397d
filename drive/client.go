// Package drive wraps the Google Drive API with the multi-step
// workflows the raw client leaves to callers: upload with duplicate
// detection, nested folder creation, recursive folder sync, and cached
// metadata lookups. Every remote call goes through the shared executor.
package drive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"gapikit/executor"
	"gapikit/internal/diskcache"
)

// FolderMIMEType identifies a Drive folder.
const FolderMIMEType = "application/vnd.google-apps.folder"

const defaultFields = "id, name, mimeType, parents, size, modifiedTime, md5Checksum"

// Client wraps the Drive service behind an executor.
type Client struct {
	service *drive.Service
	exec    *executor.Executor

	disk       *diskcache.Cache
	diskMaxAge time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithMetadataCacheDir enables an on-disk cache for file metadata
// lookups, surviving process restarts. Entries older than maxAge are
// refetched. An unusable directory disables the cache with a warning.
func WithMetadataCacheDir(dir string, maxAge time.Duration) ClientOption {
	return func(c *Client) {
		cache, err := diskcache.New(dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Disk cache disabled")
			return
		}
		c.disk = cache
		c.diskMaxAge = maxAge
	}
}

// NewClient creates a Drive client from a service-account credentials
// file, with a default executor.
func NewClient(ctx context.Context, credentialsFile string, opts ...ClientOption) (*Client, error) {
	service, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return newClient(service, executor.NewDefault(), opts...), nil
}

// NewClientWithTokenSource creates a Drive client from an oauth2 token
// source (see package gauth), with a default executor.
func NewClientWithTokenSource(ctx context.Context, ts oauth2.TokenSource, opts ...ClientOption) (*Client, error) {
	service, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return newClient(service, executor.NewDefault(), opts...), nil
}

// NewClientWithExecutor creates a Drive client around an existing
// service and executor.
func NewClientWithExecutor(service *drive.Service, exec *executor.Executor, opts ...ClientOption) *Client {
	return newClient(service, exec, opts...)
}

func newClient(service *drive.Service, exec *executor.Executor, opts ...ClientOption) *Client {
	c := &Client{service: service, exec: exec}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Executor exposes the underlying executor for stats and shutdown.
func (c *Client) Executor() *executor.Executor { return c.exec }

// Close flushes the executor's background queue.
func (c *Client) Close() { c.exec.Close() }

// Get returns file metadata, consulting the in-memory cache, then the
// optional disk cache, then the API. Mutating calls on the file
// invalidate the in-memory entry.
func (c *Client) Get(ctx context.Context, fileID string) (*drive.File, error) {
	diskKey := diskcache.Key("drive.get", map[string]any{"id": fileID})

	if c.disk != nil {
		var cached drive.File
		if hit, err := c.disk.Get(diskKey, c.diskMaxAge, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	result, err := c.exec.DoCached(ctx, fileKey(fileID), executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Files.Get(fileID).
			Fields(defaultFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}

	file := result.(*drive.File)
	if c.disk != nil {
		if err := c.disk.Put(diskKey, file); err != nil {
			log.Warn().Err(err).Str("file_id", fileID).Msg("Failed to persist metadata to disk cache")
		}
	}
	return file, nil
}

// List returns every file matching the Drive query, following pages.
func (c *Client) List(ctx context.Context, query string) ([]*drive.File, error) {
	var files []*drive.File

	pageToken := ""
	for {
		token := pageToken
		result, err := c.exec.Do(ctx, "drive.list", executor.RequestFunc(func(ctx context.Context) (any, error) {
			call := c.service.Files.List().
				Q(query).
				Fields(googleapi.Field(fmt.Sprintf("nextPageToken, files(%s)", defaultFields))).
				SupportsAllDrives(true).
				IncludeItemsFromAllDrives(true).
				PageSize(1000).
				Context(ctx)
			if token != "" {
				call = call.PageToken(token)
			}
			return call.Do()
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		page := result.(*drive.FileList)
		files = append(files, page.Files...)
		if page.NextPageToken == "" {
			return files, nil
		}
		pageToken = page.NextPageToken
	}
}

// Delete removes a file permanently.
func (c *Client) Delete(ctx context.Context, fileID string) error {
	_, err := c.exec.Do(ctx, "drive.delete", executor.RequestFunc(func(ctx context.Context) (any, error) {
		return nil, c.service.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do()
	}))
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}

	c.invalidateFile(fileID)
	return nil
}

// invalidateFile drops the in-memory and on-disk metadata entries for a
// file after a mutation.
func (c *Client) invalidateFile(fileID string) {
	c.exec.Invalidate(fileKey(fileID))
	if c.disk != nil {
		c.disk.Invalidate(diskcache.Key("drive.get", map[string]any{"id": fileID}))
	}
}

// UploadOptions control Upload behavior.
type UploadOptions struct {
	// ParentID is the destination folder; empty uploads to the root.
	ParentID string
	// Update replaces an existing child of the same name instead of
	// creating a duplicate.
	Update bool
	// ConvertTo sets a Google Workspace MIME type to import into
	// (for example a spreadsheet from a CSV payload).
	ConvertTo string
}

// Upload sends p to Drive. With opts.Update, an existing child of the
// destination folder with the same name is updated in place; otherwise a
// new file is created. Creates are never blind-retried: duplicating a
// file on a false-negative failure is worse than surfacing the error.
func (c *Client) Upload(ctx context.Context, p Payload, opts UploadOptions) (*drive.File, error) {
	resolved, err := p.resolve()
	if err != nil {
		return nil, err
	}
	if resolved.cleanup != nil {
		defer func() {
			if cerr := resolved.cleanup(); cerr != nil {
				log.Warn().Err(cerr).Msg("Failed to close upload payload")
			}
		}()
	}

	if opts.Update && opts.ParentID != "" {
		existing, err := c.findChild(ctx, resolved.name, opts.ParentID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return c.updateMedia(ctx, existing.Id, resolved)
		}
	}

	return c.createFile(ctx, resolved, opts)
}

func (c *Client) updateMedia(ctx context.Context, fileID string, resolved resolvedPayload) (*drive.File, error) {
	log.Debug().
		Str("file_id", fileID).
		Str("name", resolved.name).
		Msg("Updating existing file instead of creating a duplicate")

	result, err := c.exec.Do(ctx, "drive.update", executor.RequestFunc(func(ctx context.Context) (any, error) {
		// Each attempt rewinds the payload so a retry resends the full
		// media body.
		if _, err := resolved.content.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind upload payload: %w", err)
		}
		return c.service.Files.Update(fileID, &drive.File{}).
			Media(resolved.content).
			Fields(defaultFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to update file %s: %w", fileID, err)
	}

	c.invalidateFile(fileID)
	return result.(*drive.File), nil
}

func (c *Client) createFile(ctx context.Context, resolved resolvedPayload, opts UploadOptions) (*drive.File, error) {
	meta := &drive.File{Name: resolved.name}
	if opts.ParentID != "" {
		meta.Parents = []string{opts.ParentID}
	}
	if opts.ConvertTo != "" {
		meta.MimeType = opts.ConvertTo
	}

	result, err := c.exec.DoNoRetry(ctx, "drive.create", executor.RequestFunc(func(ctx context.Context) (any, error) {
		if _, err := resolved.content.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind upload payload: %w", err)
		}
		return c.service.Files.Create(meta).
			Media(resolved.content).
			Fields(defaultFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", resolved.name, err)
	}

	return result.(*drive.File), nil
}

// EnsureFolder returns the folder named name under parentID, creating it
// when absent.
func (c *Client) EnsureFolder(ctx context.Context, name, parentID string) (*drive.File, error) {
	query := fmt.Sprintf("%s in parents and name = %s and mimeType = %s and trashed = false",
		escapeQuery(parentID), escapeQuery(name), escapeQuery(FolderMIMEType))

	folders, err := c.List(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(folders) > 0 {
		return folders[0], nil
	}

	meta := &drive.File{
		Name:     name,
		MimeType: FolderMIMEType,
		Parents:  []string{parentID},
	}

	result, err := c.exec.DoNoRetry(ctx, "drive.createFolder", executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Files.Create(meta).
			Fields(defaultFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", name, err)
	}

	return result.(*drive.File), nil
}

// EnsureFolderPath walks parts from rootID, creating each missing
// folder, and returns the innermost one.
func (c *Client) EnsureFolderPath(ctx context.Context, rootID string, parts ...string) (*drive.File, error) {
	parentID := rootID
	var folder *drive.File
	for _, part := range parts {
		f, err := c.EnsureFolder(ctx, part, parentID)
		if err != nil {
			return nil, err
		}
		folder, parentID = f, f.Id
	}
	if folder == nil {
		return c.Get(ctx, rootID)
	}
	return folder, nil
}

// Share grants an email address a role on a file.
func (c *Client) Share(ctx context.Context, fileID, email, role string) error {
	perm := &drive.Permission{
		Type:         "user",
		Role:         role,
		EmailAddress: email,
	}

	_, err := c.exec.Do(ctx, "drive.share", executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Permissions.Create(fileID, perm).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	}))
	if err != nil {
		return fmt.Errorf("failed to share file %s with %s: %w", fileID, email, err)
	}
	return nil
}

// ShareAsync enqueues the permission grant on the background queue:
// useful when sharing one file with many recipients, where each grant is
// independent and the caller does not need the result inline. Failures
// reach the executor's queue error handler.
func (c *Client) ShareAsync(fileID, email, role string) {
	perm := &drive.Permission{
		Type:         "user",
		Role:         role,
		EmailAddress: email,
	}

	c.exec.Enqueue("drive.share", executor.RequestFunc(func(ctx context.Context) (any, error) {
		return c.service.Permissions.Create(fileID, perm).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	}))
}

// findChild returns the first non-trashed child of parentID named name,
// or nil when none exists.
func (c *Client) findChild(ctx context.Context, name, parentID string) (*drive.File, error) {
	query := fmt.Sprintf("%s in parents and name = %s and trashed = false",
		escapeQuery(parentID), escapeQuery(name))

	files, err := c.List(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	return files[0], nil
}

func fileKey(fileID string) executor.CacheKey {
	return executor.NewCacheKey("drive.get", executor.Arg("id", fileID))
}

// escapeQuery quotes a value for a Drive query expression.
func escapeQuery(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
