package ckan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ckanutils/ckansync/internal/utils"
)

// FetchResource downloads a filestore resource to a local temp file and
// returns its path plus content metadata. The response body is streamed
// straight to disk, never buffered in memory.
func (c *Client) FetchResource(ctx context.Context, resourceID string) (*FetchedResource, error) {
	res, err := c.ResourceShow(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("fetch resource %s: %w", resourceID, err)
	}

	url := res.DownloadURL()
	if url == "" {
		return nil, fmt.Errorf("fetch resource %s: %w: no download url", resourceID, ErrNotFound)
	}

	ext := strings.ToLower(res.Format)
	if ext == "" {
		ext = utils.ExtByPath(url)
	}
	destPath := utils.TempFilePath("ckanny", ext)

	slog.Debug("fetching resource", "id", resourceID, "url", url)

	resp, err := c.http.R().
		DisableAutoReadResponse().
		SetContext(ctx).
		SetOutputFile(destPath).
		Get(url)

	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("fetch resource %s: %w", resourceID, err)
	}

	if resp.IsErrorState() {
		// the error body landed in destPath because of SetOutputFile
		os.Remove(destPath)

		switch resp.GetStatusCode() {
		case 401, 403:
			return nil, fmt.Errorf("fetch resource %s: %w", resourceID, ErrNotAuthorized)
		case 404:
			return nil, fmt.Errorf("fetch resource %s: %w", resourceID, ErrNotFound)
		default:
			return nil, fmt.Errorf("fetch resource %s: http %d", resourceID, resp.GetStatusCode())
		}
	}

	info, err := os.Stat(destPath)
	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("fetch resource %s: stat download: %w", resourceID, err)
	}

	contentType := resp.GetHeader("Content-Type")
	slog.Info("fetched resource", "id", resourceID, "size", humanize.Bytes(uint64(info.Size())), "type", contentType)

	return &FetchedResource{
		Resource:    res,
		Path:        destPath,
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}

// Discard removes the temp file backing the fetched resource.
func (f *FetchedResource) Discard() error {
	if f == nil || f.Path == "" {
		return nil
	}
	return os.Remove(f.Path)
}

// Ext returns the best-guess bare file extension for the fetched content,
// preferring the declared resource format over the content type.
func (f *FetchedResource) Ext() string {
	if f.Resource != nil && f.Resource.Format != "" {
		return strings.ToLower(f.Resource.Format)
	}
	if ext := utils.ExtByPath(f.Path); ext != "" {
		return ext
	}
	return utils.ExtByContentType(f.ContentType)
}
