// Package normalize turns inconsistently shaped upstream JSON into the canonical
// catalog records. Every function here is total: unexpected shapes degrade to
// empty values, never to errors.
package normalize

import "strings"

// KeySet is an ordered list of wrapper keys probed by ExtractList. Earlier keys
// win when a payload carries several of them.
type KeySet []string

var (
	ItemKeys    = KeySet{"data", "result", "list", "results", "dramas", "animes", "comics"}
	EpisodeKeys = KeySet{"data", "episodes", "chapter"}
	ChapterKeys = KeySet{"data", "chapters"}
	ImageKeys   = KeySet{"data", "images", "pages"}
)

// ExtractList locates the record list inside a response body. A bare array is
// returned as is; otherwise the first key of keys holding an array wins. The
// result is never nil.
func ExtractList(raw any, keys KeySet) []any {
	if list, ok := raw.([]any); ok {
		return list
	}
	object, ok := raw.(map[string]any)
	if !ok {
		return []any{}
	}
	for _, key := range keys {
		if list, ok := object[key].([]any); ok {
			return list
		}
	}
	return []any{}
}

// FirstRecord returns the first element of an array body, or the body itself
// when it is an object. Detail endpoints answer with either shape.
func FirstRecord(raw any) map[string]any {
	switch value := raw.(type) {
	case map[string]any:
		return value
	case []any:
		if len(value) == 0 {
			return nil
		}
		record, _ := value[0].(map[string]any)
		return record
	default:
		return nil
	}
}

// Lookup walks a dotted path ("data.url") through nested objects.
func Lookup(record map[string]any, path string) (any, bool) {
	if record == nil {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var current any = record
	for _, part := range parts {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = object[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ListAt returns the array at any of the dotted paths, in order.
func ListAt(record map[string]any, paths ...string) []any {
	for _, path := range paths {
		value, ok := Lookup(record, path)
		if !ok {
			continue
		}
		if list, ok := value.([]any); ok {
			return list
		}
	}
	return []any{}
}

// Records keeps only the object elements of a list.
func Records(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if record, ok := item.(map[string]any); ok {
			out = append(out, record)
		}
	}
	return out
}
