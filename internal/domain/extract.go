package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// DecodeItem builds a CatalogItem from one raw page entry. Entries that are not
// JSON objects keep their raw bytes but have no fields, so extraction drops them.
// Invalid UTF-8 is replaced with U+FFFD in both Raw and Fields.
func DecodeItem(raw json.RawMessage) (CatalogItem, error) {
	raw = toValidUTF8(raw)

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return CatalogItem{}, fmt.Errorf("compact catalog item: %w", err)
	}

	item := CatalogItem{Raw: json.RawMessage(compact.Bytes())}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return CatalogItem{}, fmt.Errorf("decode catalog item: %w", err)
	}
	if fields, ok := v.(map[string]any); ok {
		item.Fields = fields
	}
	return item, nil
}

// ExtractDataset maps a catalog item to a dataset row. The identifier is not
// checked here; see ExtractRecord.
func ExtractDataset(item CatalogItem) Dataset {
	ds := Dataset{
		Title:       NormalizeText(item.Get("title")),
		Description: NormalizeText(item.Get("description")),
		Issued:      ScalarText(item.Get("issued")),
		Modified:    ScalarText(item.Get("modified")),
		Publisher:   NormalizeText(item.Get("publisher")),
		RawJSON:     rawSnapshot(item),
	}
	if id := ScalarText(item.Get("identifier")); id != nil {
		ds.ID = *id
	}
	return ds
}

// ExtractDistributions maps the item's distribution property to distribution
// rows owned by datasetID. A single object counts as a one-element list; any
// other shape yields no rows. Distributions without an identifier are kept.
func ExtractDistributions(item CatalogItem, datasetID string) []Distribution {
	var entries []any
	switch v := item.Get("distribution").(type) {
	case map[string]any:
		entries = []any{v}
	case []any:
		entries = v
	default:
		return []Distribution{}
	}

	dists := make([]Distribution, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		dists = append(dists, Distribution{
			ID:          ScalarText(obj["identifier"]),
			DatasetID:   datasetID,
			Title:       NormalizeText(obj["title"]),
			Format:      NormalizeText(obj["format"]),
			AccessURL:   ScalarText(obj["accessURL"]),
			DownloadURL: ScalarText(obj["downloadURL"]),
			RawJSON:     compactJSON(obj),
		})
	}
	return dists
}

// ExtractRecord maps one catalog item to its dataset and distributions. It
// reports false when the item has no dataset identifier, in which case the
// item and its distributions are dropped. An identifier counts as missing
// when it is null, empty, zero or false.
func ExtractRecord(item CatalogItem) (Record, bool) {
	if !truthy(item.Get("identifier")) {
		return Record{}, false
	}
	ds := ExtractDataset(item)
	if ds.ID == "" {
		return Record{}, false
	}
	return Record{
		Dataset:       ds,
		Distributions: ExtractDistributions(item, ds.ID),
	}, true
}

func rawSnapshot(item CatalogItem) string {
	if len(item.Raw) > 0 {
		return string(item.Raw)
	}
	if item.Fields == nil {
		return "null"
	}
	return compactJSON(item.Fields)
}

// toValidUTF8 replaces every invalid byte with U+FFFD, the same substitution
// encoding/json applies while decoding strings.
func toValidUTF8(b []byte) []byte {
	if utf8.Valid(b) {
		return b
	}
	out := make([]byte, 0, len(b)+8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			out = utf8.AppendRune(out, utf8.RuneError)
		} else {
			out = append(out, b[:size]...)
		}
		b = b[size:]
	}
	return out
}
