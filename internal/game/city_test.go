package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSingleDiseaseBelowCap(t *testing.T) {
	cities := testCities(t)
	atlanta := cities["Atlanta"]

	for i := 1; i <= MaxDiseaseCount; i++ {
		chain := atlanta.AddSingleDisease(cities, Blue, nil)
		assert.Nil(t, chain)
		assert.Equal(t, i, atlanta.DiseaseCount(Blue))
	}
	assert.Equal(t, 0, atlanta.DiseaseCount(Red))
}

func TestOutbreakSpreadsToNeighbours(t *testing.T) {
	cities := testCities(t)
	atlanta := cities["Atlanta"]
	atlanta.diseases[Blue] = MaxDiseaseCount

	chain := atlanta.AddSingleDisease(cities, Blue, nil)
	require.NotNil(t, chain)

	assert.Equal(t, MaxDiseaseCount, atlanta.DiseaseCount(Blue))
	assert.Equal(t, CityKey("Atlanta"), chain.Origin)
	assert.Equal(t, []CityKey{"Atlanta"}, chain.Outbroke)
	for _, name := range []CityKey{"Miami", "Washington", "Chicago"} {
		assert.Equal(t, 1, cities[name].DiseaseCount(Blue), name)
	}
	assert.ElementsMatch(t, []CityKey{"Miami", "Washington", "Chicago"}, chain.Infected)
	assert.True(t, chain.Visited("Atlanta"))
}

func TestOutbreakChainVisitsEachCityOnce(t *testing.T) {
	cities := testCities(t)
	// Atlanta, Miami and Washington form a triangle.
	for _, name := range []CityKey{"Atlanta", "Miami", "Washington"} {
		cities[name].diseases[Yellow] = MaxDiseaseCount
	}

	chain := cities["Atlanta"].AddSingleDisease(cities, Yellow, nil)
	require.NotNil(t, chain)

	assert.ElementsMatch(t, []CityKey{"Atlanta", "Miami", "Washington"}, chain.Outbroke)
	for _, name := range []CityKey{"Atlanta", "Miami", "Washington"} {
		assert.Equal(t, MaxDiseaseCount, cities[name].DiseaseCount(Yellow), name)
	}
	for _, name := range []CityKey{"Chicago", "Bogota", "Mexico City", "New York", "Montreal"} {
		assert.Equal(t, 1, cities[name].DiseaseCount(Yellow), name)
	}
	assert.Len(t, chain.Cities(), 8)
}

func TestAddEpidemicDisease(t *testing.T) {
	cities := testCities(t)
	lima := cities["Lima"]

	assert.Nil(t, lima.AddEpidemicDisease(cities, Yellow))
	assert.Equal(t, MaxDiseaseCount, lima.DiseaseCount(Yellow))

	chain := lima.AddEpidemicDisease(cities, Yellow)
	require.NotNil(t, chain)
	assert.Equal(t, MaxDiseaseCount, lima.DiseaseCount(Yellow))
	assert.Equal(t, []CityKey{"Lima"}, chain.Outbroke)
	for _, key := range lima.Connections() {
		assert.Equal(t, 1, cities[key].DiseaseCount(Yellow), key)
	}
}

func TestTreatDisease(t *testing.T) {
	cities := testCities(t)
	paris := cities["Paris"]

	assert.False(t, paris.TreatSingleDisease(Blue))
	assert.False(t, paris.TreatAllDisease(Blue))

	paris.diseases[Blue] = 3
	assert.True(t, paris.TreatSingleDisease(Blue))
	assert.Equal(t, 2, paris.DiseaseCount(Blue))
	assert.True(t, paris.TreatAllDisease(Blue))
	assert.Equal(t, 0, paris.DiseaseCount(Blue))
}

func TestResearchStationIdempotent(t *testing.T) {
	cities := testCities(t)
	cairo := cities["Cairo"]

	assert.True(t, cairo.AddResearchStation())
	assert.False(t, cairo.AddResearchStation())
	assert.True(t, cairo.HasResearchStation())
}

func TestSameCity(t *testing.T) {
	cities := testCities(t)
	atlanta := cities["Atlanta"]

	assert.True(t, SameCity(atlanta, CityCard{City: "Atlanta", Color: Blue}))
	assert.True(t, SameCity(InfectionCard{City: "Atlanta"}, atlanta))
	assert.False(t, SameCity(atlanta, cities["Chicago"]))
	assert.False(t, SameCity(nil, atlanta))
}
