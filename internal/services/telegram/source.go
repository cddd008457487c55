package telegram

import (
	"context"
	"fmt"
	"path/filepath"

	"scribe/internal/fileutil"
	"scribe/internal/services"
)

// Source acquires a job's video from Telegram into a working directory.
type Source struct {
	client *Client
}

// NewSource wraps a client as the pipeline's source-acquisition adapter.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Fetch resolves fileID, downloads the video into destDir, and returns the
// stored path. The extension comes from the server-side path when it is a
// supported video format, then from the original filename hint, then ".mp4".
func (s *Source) Fetch(ctx context.Context, fileID, filenameHint, destDir string) (string, error) {
	file, err := s.client.GetFile(ctx, fileID)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "getFile", "resolve file reference", err)
	}

	ext := ""
	if fileutil.IsSupportedVideo(file.FilePath) {
		ext = filepath.Ext(file.FilePath)
	} else if filenameHint != "" {
		ext = fileutil.VideoExtensionOrDefault(filenameHint)
	} else {
		ext = ".mp4"
	}

	dest := filepath.Join(destDir, "source"+ext)
	if err := s.client.DownloadFile(ctx, file.FilePath, dest); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "download", "getFile", fmt.Sprintf("download %s", fileID), err)
	}
	return dest, nil
}
