package domain

import "encoding/json"

// CatalogItem is one raw item from a catalog page.
type CatalogItem struct {
	// Raw is the item exactly as received, compacted. Empty when the item
	// was built in memory.
	Raw json.RawMessage

	// Fields is the decoded item. Nil when the page entry was not a JSON object.
	Fields map[string]any
}

// Get returns the value stored under key, or nil when absent.
func (i CatalogItem) Get(key string) any {
	return i.Fields[key]
}

// Dataset is the flat row stored in the datasets table.
type Dataset struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Issued      *string `json:"issued,omitempty"`
	Modified    *string `json:"modified,omitempty"`
	Publisher   *string `json:"publisher,omitempty"`
	RawJSON     string  `json:"-"`
}

// Distribution is the flat row stored in the distributions table.
type Distribution struct {
	ID          *string `json:"id,omitempty"`
	DatasetID   string  `json:"dataset_id"`
	Title       *string `json:"title,omitempty"`
	Format      *string `json:"format,omitempty"`
	AccessURL   *string `json:"access_url,omitempty"`
	DownloadURL *string `json:"download_url,omitempty"`
	RawJSON     string  `json:"-"`
}

// Record is a dataset together with the distributions extracted from the same item.
type Record struct {
	Dataset       Dataset        `json:"dataset"`
	Distributions []Distribution `json:"distributions"`
}

// DistributionsWithoutID counts distributions that carry no identifier.
func (r Record) DistributionsWithoutID() int {
	n := 0
	for i := range r.Distributions {
		if r.Distributions[i].ID == nil {
			n++
		}
	}
	return n
}
