package loader

import (
	"strings"

	"github.com/ckanutils/ckansync/internal/ckan"
)

// Slugify normalizes a column header to a datastore-safe identifier:
// lowercase, runs of non-alphanumerics collapsed to single underscores.
func Slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true // trims leading separators

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}

// InferFields guesses datastore column types from column names: names
// containing "date" become timestamps, names containing "value" become
// floats, everything else is text.
func InferFields(names []string) []ckan.Field {
	fields := make([]ckan.Field, 0, len(names))
	for _, name := range names {
		var typ string
		switch {
		case strings.Contains(name, "date"):
			typ = "timestamp"
		case strings.Contains(name, "value"):
			typ = "float"
		default:
			typ = "text"
		}
		fields = append(fields, ckan.Field{ID: name, Type: typ})
	}
	return fields
}
