// Package domain models open-data catalog records published by the datos.gob.es
// catalog API and the rules that flatten them into tabular rows.
//
// # Data Source
//
// Catalog items come from https://datos.gob.es/apidata/catalog/dataset, a
// Linked Data API that pages results with the _page / _pageSize query
// parameters. Each response wraps the page in {"result": {"items": [...]}}.
// Items are DCAT datasets rendered as JSON, and the same property can arrive
// in several shapes depending on how the publisher described it.
//
// # Field Shapes
//
// Text properties such as title, description, publisher, and distribution
// format appear as:
//
//	"Plain string"
//	{"_value": "Texto", "_lang": "es"}        language-tagged literal
//	{"text": "Texto"}                         alternate literal form
//	[{"_value": "Texto", "_lang": "es"}, ...]  one literal per language
//	{"_about": "http://..."}                  resource reference
//
// [NormalizeText] reduces every shape to one display string: literals yield
// their value, lists are joined with " | ", and objects that carry no literal
// fall back to their compact JSON. The identifier, issued, and modified
// properties are always scalars and pass through untouched.
//
// The distribution property is either a single object or a list of objects.
// [ExtractDistributions] accepts both.
//
// # Identity
//
// Dataset and distribution identifiers are the upsert keys in storage, so
// re-ingesting an item overwrites the previous row. Items without a dataset
// identifier are dropped. Distributions without an identifier are kept: the
// catalog occasionally omits them and the row still carries useful URLs.
//
// # NTI Taxonomy
//
// [GeoTaxonomy] is a small fixed subset of the Spanish NTI (Norma Técnica de
// Interoperabilidad) territory vocabulary. It is seeded into storage on every
// run and is not derived from API data.
package domain
