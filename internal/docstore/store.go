// Package docstore is a key-path document store: JSON documents addressed by
// slash separated paths, grouped by their parent collection, with change
// notifications per collection.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidPath  = errors.New("invalid document path")
	ErrInvalidField = errors.New("invalid document field")
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Op string

const (
	OpSet    Op = "set"
	OpRemove Op = "remove"
)

// Change is emitted after a document under Collection was written or removed.
type Change struct {
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Op         Op     `json:"op"`
}

// Path returns the full path of the changed document.
func (c Change) Path() string {
	return Join(c.Collection, c.Key)
}

type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
	// List returns every document directly under collection, keyed by child key.
	List(ctx context.Context, collection string) (map[string][]byte, error)
	// ListWhere is List narrowed to documents whose top-level string field
	// equals value.
	ListWhere(ctx context.Context, collection, field, value string) (map[string][]byte, error)
	Set(ctx context.Context, path string, value []byte) error
	Remove(ctx context.Context, path string) error
	// Subscribe delivers changes of the given collections until ctx is done.
	Subscribe(ctx context.Context, collections ...string) (<-chan Change, error)
	Ping(ctx context.Context) error
}

func Join(parts ...string) string {
	return strings.Join(parts, "/")
}

// Split separates a document path into its collection and child key.
func Split(path string) (collection, key string, err error) {
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	collection, key = path[:i], path[i+1:]
	if err := validCollection(collection); err != nil {
		return "", "", err
	}
	return collection, key, nil
}

func validCollection(collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: empty collection", ErrInvalidPath)
	}
	for _, seg := range strings.Split(collection, "/") {
		if seg == "" {
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, collection)
		}
	}
	return nil
}

func validField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

// fieldEquals reports whether data is a JSON object whose field holds the
// string value.
func fieldEquals(data []byte, field, value string) bool {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	raw, ok := doc[field]
	if !ok {
		return false
	}
	var got string
	if err := json.Unmarshal(raw, &got); err != nil {
		return false
	}
	return got == value
}
