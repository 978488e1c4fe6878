package openapi

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/teranos/plugctl/errors"
)

var prettyOptions = &pretty.Options{
	Width:    80,
	Indent:   "  ",
	SortKeys: false,
}

// Merge folds docs into the first one.
//
// Later paths replace earlier paths with the same key, components are merged
// key by key (objects recursively, anything else replaced) and tags are appended.
// Every other top-level field comes from the first document.
func Merge(docs ...[]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, errors.NewInvalidRequestError("nothing to merge")
	}
	for n, doc := range docs {
		if !gjson.ValidBytes(doc) || !gjson.ParseBytes(doc).IsObject() {
			return nil, errors.NewInvalidRequestError("document %d is not a JSON object", n+1)
		}
	}

	base := append([]byte(nil), docs[0]...)
	var err error
	for _, doc := range docs[1:] {
		if paths := gjson.GetBytes(doc, "paths"); paths.IsObject() {
			paths.ForEach(func(key, value gjson.Result) bool {
				base, err = sjson.SetRawBytes(base, "paths."+escapeKey(key.String()), []byte(value.Raw))
				return err == nil
			})
			if err != nil {
				return nil, errors.Wrap(err, "failed to merge paths")
			}
		}

		if components := gjson.GetBytes(doc, "components"); components.IsObject() {
			existing := gjson.GetBytes(base, "components")
			merged := []byte(components.Raw)
			if existing.IsObject() {
				if merged, err = mergeObjects([]byte(existing.Raw), []byte(components.Raw)); err != nil {
					return nil, errors.Wrap(err, "failed to merge components")
				}
			}
			if base, err = sjson.SetRawBytes(base, "components", merged); err != nil {
				return nil, errors.Wrap(err, "failed to merge components")
			}
		}

		if tags := gjson.GetBytes(doc, "tags"); tags.IsArray() {
			if !gjson.GetBytes(base, "tags").IsArray() {
				if base, err = sjson.SetRawBytes(base, "tags", []byte("[]")); err != nil {
					return nil, errors.Wrap(err, "failed to merge tags")
				}
			}
			for _, tag := range tags.Array() {
				if base, err = sjson.SetRawBytes(base, "tags.-1", []byte(tag.Raw)); err != nil {
					return nil, errors.Wrap(err, "failed to merge tags")
				}
			}
		}
	}

	return pretty.PrettyOptions(base, prettyOptions), nil
}

// mergeObjects merges the keys of src into dst, recursing where both sides are objects
func mergeObjects(dst, src []byte) ([]byte, error) {
	var err error
	gjson.ParseBytes(src).ForEach(func(key, value gjson.Result) bool {
		path := escapeKey(key.String())
		raw := []byte(value.Raw)

		current := gjson.GetBytes(dst, path)
		if current.IsObject() && value.IsObject() {
			if raw, err = mergeObjects([]byte(current.Raw), raw); err != nil {
				return false
			}
		}
		dst, err = sjson.SetRawBytes(dst, path, raw)
		return err == nil
	})
	return dst, err
}

// escapeKey escapes characters gjson and sjson treat as path syntax
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@', '!', ':', '=', '<', '>', '%', ',':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
