package drive

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// SyncStats summarizes one SyncFolder run
type SyncStats struct {
	FoldersEnsured int
	FilesUploaded  int
}

// SyncFolder mirrors a local directory tree into the Drive folder
// parentID: remote folders are created as needed and each file is
// uploaded with duplicate detection, so re-running a sync updates files
// in place instead of multiplying them.
func (c *Client) SyncFolder(ctx context.Context, localDir, parentID string) (SyncStats, error) {
	var stats SyncStats

	// Maps each visited local directory to its remote folder ID.
	folderIDs := map[string]string{".": parentID}

	err := filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		remoteParent, ok := folderIDs[filepath.Dir(rel)]
		if !ok {
			return fmt.Errorf("missing remote folder for %s", filepath.Dir(rel))
		}

		if d.IsDir() {
			folder, err := c.EnsureFolder(ctx, d.Name(), remoteParent)
			if err != nil {
				return err
			}
			folderIDs[rel] = folder.Id
			stats.FoldersEnsured++
			return nil
		}

		file, err := c.Upload(ctx, FilePayload{Path: path}, UploadOptions{
			ParentID: remoteParent,
			Update:   true,
		})
		if err != nil {
			return err
		}
		stats.FilesUploaded++

		log.Debug().
			Str("local_path", rel).
			Str("file_id", file.Id).
			Msg("Synced file")

		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to sync %s: %w", localDir, err)
	}

	log.Info().
		Str("local_dir", localDir).
		Int("folders", stats.FoldersEnsured).
		Int("files", stats.FilesUploaded).
		Msg("Folder sync complete")

	return stats, nil
}
