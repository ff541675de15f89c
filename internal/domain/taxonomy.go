package domain

// GeoLevel is the administrative level of an NTI territory.
type GeoLevel string

const (
	LevelCountry          GeoLevel = "Country"
	LevelAutonomousRegion GeoLevel = "Autonomous-region"
	LevelProvince         GeoLevel = "Province"
)

// Valid reports whether l is one of the known NTI levels.
func (l GeoLevel) Valid() bool {
	switch l {
	case LevelCountry, LevelAutonomousRegion, LevelProvince:
		return true
	}
	return false
}

// GeoEntity is one row of the geo_taxonomy table. URI is the unique key.
type GeoEntity struct {
	Level GeoLevel `json:"level"`
	Name  string   `json:"name"`
	URI   string   `json:"uri"`
}

// TaxonomyVersion identifies the seeded entity list. Bump it when the list changes.
const TaxonomyVersion = "nti-territory-2024.1"

const ntiTerritoryBase = "http://datos.gob.es/apidata/nti/territory/"

// GeoTaxonomy returns the fixed NTI territory entities seeded on every run.
func GeoTaxonomy() []GeoEntity {
	return []GeoEntity{
		{Level: LevelCountry, Name: "España", URI: ntiTerritoryBase + "Country/España"},
		{Level: LevelAutonomousRegion, Name: "Comunidad de Madrid", URI: ntiTerritoryBase + "Autonomous-region/Comunidad-Madrid"},
		{Level: LevelAutonomousRegion, Name: "Andalucía", URI: ntiTerritoryBase + "Autonomous-region/Andalucia"},
		{Level: LevelProvince, Name: "Madrid", URI: ntiTerritoryBase + "Province/Madrid"},
		{Level: LevelProvince, Name: "Sevilla", URI: ntiTerritoryBase + "Province/Sevilla"},
	}
}
