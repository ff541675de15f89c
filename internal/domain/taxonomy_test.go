package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoTaxonomy(t *testing.T) {
	entities := GeoTaxonomy()
	assert.Len(t, entities, 5)

	seen := map[string]bool{}
	levels := map[GeoLevel]int{}
	for _, e := range entities {
		assert.True(t, e.Level.Valid(), e.Name)
		assert.NotEmpty(t, e.Name)
		assert.True(t, strings.HasPrefix(e.URI, "http://datos.gob.es/apidata/nti/territory/"+string(e.Level)+"/"), e.URI)
		assert.False(t, seen[e.URI], "duplicate uri %s", e.URI)
		seen[e.URI] = true
		levels[e.Level]++
	}

	assert.Equal(t, 1, levels[LevelCountry])
	assert.Equal(t, 2, levels[LevelAutonomousRegion])
	assert.Equal(t, 2, levels[LevelProvince])
}

func TestGeoTaxonomy_Deterministic(t *testing.T) {
	assert.Equal(t, GeoTaxonomy(), GeoTaxonomy())
}

func TestGeoLevel_Valid(t *testing.T) {
	assert.False(t, GeoLevel("Municipality").Valid())
	assert.False(t, GeoLevel("").Valid())
}
