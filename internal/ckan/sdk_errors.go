package ckan

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// client config
	ErrNoRemote    = errors.New("ckan: remote url missing")
	ErrNoUserAgent = errors.New("ckan: user agent missing")

	// action outcomes
	ErrNotFound      = errors.New("ckan: not found")
	ErrNotAuthorized = errors.New("ckan: not authorized")
	ErrValidation    = errors.New("ckan: validation failed")
)

// CKAN error dict __type values.
const (
	typeNotFound      = "Not Found Error"
	typeNotAuthorized = "Authorization Error"
	typeValidation    = "Validation Error"
)

// ActionError is the error dict returned inside a failed action envelope.
// Validation errors carry per-field messages in Fields.
type ActionError struct {
	Type    string
	Message string
	Fields  map[string][]string
}

func (e *ActionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, msgs := range e.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
		}
		return fmt.Sprintf("%s: %s", e.Type, strings.Join(parts, ", "))
	}
	return e.Type
}

// Unwrap maps the CKAN error type onto a sentinel so callers can use
// errors.Is without string matching.
func (e *ActionError) Unwrap() error {
	switch e.Type {
	case typeNotFound:
		return ErrNotFound
	case typeNotAuthorized:
		return ErrNotAuthorized
	case typeValidation:
		// CKAN reports a missing datastore resource as a validation error
		// on the resource_id field. Callers treat that as not found.
		if e.fieldContains("resource_id", "Not found") {
			return ErrNotFound
		}
		return ErrValidation
	}
	return nil
}

func (e *ActionError) fieldContains(field, substr string) bool {
	for _, msg := range e.Fields[field] {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// UnmarshalJSON decodes CKAN's free-form error dict: `__type` and `message`
// are fixed keys, everything else is a field name with a list of messages.
func (e *ActionError) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := jsonUnmarshal(data, &raw); err != nil {
		return err
	}

	for key, val := range raw {
		switch key {
		case "__type":
			e.Type, _ = val.(string)
		case "message":
			e.Message, _ = val.(string)
		default:
			msgs, ok := val.([]any)
			if !ok {
				continue
			}
			for _, m := range msgs {
				if s, ok := m.(string); ok {
					if e.Fields == nil {
						e.Fields = make(map[string][]string)
					}
					e.Fields[key] = append(e.Fields[key], s)
				}
			}
		}
	}

	return nil
}
