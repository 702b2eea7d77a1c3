package utils

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// TempFilePath returns a unique path under the system temp directory.
// ext may be empty or a bare extension like "csv".
func TempFilePath(prefix, ext string) string {
	name := prefix + "-" + uuid.NewString()
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return filepath.Join(os.TempDir(), name)
}

// ExtByContentType maps a Content-Type header to a bare file extension.
// Tabular types CKAN commonly serves get stable names, everything else
// falls back to mime lookup.
func ExtByContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	switch mediaType {
	case "text/csv", "application/csv":
		return "csv"
	case "text/tab-separated-values":
		return "tsv"
	case "application/json":
		return "json"
	case "application/vnd.ms-excel":
		return "xls"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	case "text/plain":
		return "txt"
	}

	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return strings.TrimPrefix(exts[0], ".")
}

// ExtByPath returns the bare extension of a path, or "" if none.
func ExtByPath(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}
