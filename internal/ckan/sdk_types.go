package ckan

import (
	"time"
)

// Config holds connection settings for a CKAN instance. Values come from
// flags/env in the CLI; the client itself never reads the environment.
type Config struct {
	Remote    string        // base URL, e.g. https://demo.ckan.org
	APIKey    string        // optional API token
	UserAgent string        // required, identifies the client
	Timeout   time.Duration // optional per-request timeout
}

func (c *Config) Validate() error {
	if c.Remote == "" {
		return ErrNoRemote
	}
	if c.UserAgent == "" {
		return ErrNoUserAgent
	}
	return nil
}

// actionEnvelope is the standard CKAN action API response wrapper.
type actionEnvelope struct {
	Success bool         `json:"success"`
	Result  any          `json:"result,omitempty"`
	Error   *ActionError `json:"error,omitempty"`
}

// Package is a CKAN dataset.
type Package struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Title     string     `json:"title,omitempty"`
	State     string     `json:"state,omitempty"`
	OwnerOrg  string     `json:"owner_org,omitempty"`
	Private   bool       `json:"private,omitempty"`
	Resources []Resource `json:"resources,omitempty"`
}

// Resource is a CKAN filestore resource.
type Resource struct {
	ID          string `json:"id"`
	PackageID   string `json:"package_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	PermaLink   string `json:"perma_link,omitempty"`
	Format      string `json:"format,omitempty"`
	Hash        string `json:"hash,omitempty"`
	Mimetype    string `json:"mimetype,omitempty"`
	Size        int64  `json:"size,omitempty"`
	State       string `json:"state,omitempty"`
}

// DownloadURL prefers the stable perma link over the raw resource url.
func (r *Resource) DownloadURL() string {
	if r.PermaLink != "" {
		return r.PermaLink
	}
	return r.URL
}

// Field describes a datastore column.
type Field struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Record is a single datastore row.
type Record map[string]any

// PackageCreateParams creates a new dataset.
type PackageCreateParams struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	OwnerOrg string `json:"owner_org,omitempty"`
	Private  bool   `json:"private,omitempty"`
}

// ResourceCreateParams creates a filestore resource. Either URL or FilePath
// must be set; FilePath triggers a multipart upload.
type ResourceCreateParams struct {
	PackageID   string `json:"package_id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Format      string `json:"format,omitempty"`
	Hash        string `json:"hash,omitempty"`

	FilePath string `json:"-"`
}

// DatastoreSearchParams queries a datastore table.
type DatastoreSearchParams struct {
	ResourceID string            `json:"resource_id"`
	Filters    map[string]string `json:"filters,omitempty"`
	Fields     string            `json:"fields,omitempty"`
	Limit      int               `json:"limit,omitempty"`
	Offset     int               `json:"offset,omitempty"`
}

// DatastoreSearchResult is the subset of datastore_search output we consume.
type DatastoreSearchResult struct {
	ResourceID string   `json:"resource_id"`
	Fields     []Field  `json:"fields"`
	Records    []Record `json:"records"`
	Total      int      `json:"total"`
}

// DatastoreCreateParams creates a datastore table for a resource.
type DatastoreCreateParams struct {
	ResourceID string   `json:"resource_id"`
	Fields     []Field  `json:"fields"`
	PrimaryKey []string `json:"primary_key,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
	Indexes    []string `json:"indexes,omitempty"`
	Force      bool     `json:"force,omitempty"`
}

// UpsertMethod selects how datastore_upsert treats existing rows.
type UpsertMethod string

const (
	MethodInsert UpsertMethod = "insert"
	MethodUpsert UpsertMethod = "upsert"
	MethodUpdate UpsertMethod = "update"
)

// DatastoreUpsertParams writes records into a datastore table.
type DatastoreUpsertParams struct {
	ResourceID string       `json:"resource_id"`
	Records    []Record     `json:"records"`
	Method     UpsertMethod `json:"method,omitempty"`
	Force      bool         `json:"force,omitempty"`
}

// DatastoreDeleteParams drops a datastore table, or just the rows matching
// Filters when set.
type DatastoreDeleteParams struct {
	ResourceID string            `json:"resource_id"`
	Filters    map[string]string `json:"filters,omitempty"`
	Force      bool              `json:"force,omitempty"`
}

// FetchedResource is a resource downloaded from the filestore to a local
// temp file. The caller owns the file and should Discard it when done.
type FetchedResource struct {
	Resource    *Resource
	Path        string
	ContentType string
	Size        int64
}
