package game

import (
	"github.com/cureworks/pandemic-server-go/internal/game/mapdata"
)

// CityKey is the shared identity of a city and of the cards that name it.
type CityKey string

func (k CityKey) String() string {
	return string(k)
}

// Keyed is implemented by everything that refers to a city.
type Keyed interface {
	Key() CityKey
}

// SameCity reports whether a and b refer to the same city.
func SameCity(a, b Keyed) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Key() == b.Key()
}

// Cities indexes the board's cities by key.
type Cities map[CityKey]*City

// City is a board location with its disease cubes and research station.
type City struct {
	key             CityKey
	color           Color
	diseases        map[Color]int
	researchStation bool
	connections     []CityKey
}

func newCity(def mapdata.CityDef) *City {
	conns := make([]CityKey, len(def.Connections))
	for i, name := range def.Connections {
		conns[i] = CityKey(name)
	}
	return &City{
		key:         CityKey(def.Name),
		color:       Color(def.Color),
		diseases:    newColorCounts(0),
		connections: conns,
	}
}

// Key implements Keyed.
func (c *City) Key() CityKey { return c.key }

// Name returns the city name.
func (c *City) Name() string { return string(c.key) }

// Color returns the city's own disease color.
func (c *City) Color() Color { return c.color }

// DiseaseCount returns the cubes of color on this city.
func (c *City) DiseaseCount(color Color) int { return c.diseases[color] }

// HasResearchStation reports whether a station has been built here.
func (c *City) HasResearchStation() bool { return c.researchStation }

// Connections returns the adjacent city keys.
func (c *City) Connections() []CityKey {
	return append([]CityKey(nil), c.connections...)
}

// IsConnected reports whether key is adjacent to this city.
func (c *City) IsConnected(key CityKey) bool {
	for _, k := range c.connections {
		if k == key {
			return true
		}
	}
	return false
}

// Outbreak records one outbreak chain. The visited set is shared by every
// hop of the chain so a city outbreaks at most once per chain.
type Outbreak struct {
	Color    Color
	Origin   CityKey
	Outbroke []CityKey // cities that outbroke, in order
	Infected []CityKey // cities that gained a cube from the chain
	visited  map[CityKey]bool
}

func newOutbreak(color Color, origin CityKey) *Outbreak {
	return &Outbreak{
		Color:   color,
		Origin:  origin,
		visited: make(map[CityKey]bool),
	}
}

// Visited reports whether key has already outbroken in this chain.
func (o *Outbreak) Visited(key CityKey) bool {
	return o.visited[key]
}

// Cities returns every city the chain reached, outbreaking cities first.
func (o *Outbreak) Cities() []string {
	seen := make(map[CityKey]bool, len(o.Outbroke)+len(o.Infected))
	names := make([]string, 0, len(o.Outbroke)+len(o.Infected))
	for _, list := range [][]CityKey{o.Outbroke, o.Infected} {
		for _, k := range list {
			if !seen[k] {
				seen[k] = true
				names = append(names, string(k))
			}
		}
	}
	return names
}

// AddSingleDisease places one cube of color here. A city already at the cap
// keeps its count and outbreaks instead. chain is nil for a top-level
// placement; the returned chain is non-nil only when an outbreak happened.
func (c *City) AddSingleDisease(cities Cities, color Color, chain *Outbreak) *Outbreak {
	if c.diseases[color] < MaxDiseaseCount {
		c.diseases[color]++
		if chain != nil {
			chain.Infected = append(chain.Infected, c.key)
		}
		return nil
	}
	if chain == nil {
		chain = newOutbreak(color, c.key)
	}
	chain.visited[c.key] = true
	c.TriggerOutbreak(cities, color, chain)
	return chain
}

// AddEpidemicDisease fills this city to the cap. A city that already had
// cubes of color outbreaks, starting a new chain.
func (c *City) AddEpidemicDisease(cities Cities, color Color) *Outbreak {
	if c.diseases[color] == 0 {
		c.diseases[color] = MaxDiseaseCount
		return nil
	}
	c.diseases[color] = MaxDiseaseCount
	chain := newOutbreak(color, c.key)
	chain.visited[c.key] = true
	c.TriggerOutbreak(cities, color, chain)
	return chain
}

// TriggerOutbreak adds one cube to every neighbour the chain has not
// already outbroken from.
func (c *City) TriggerOutbreak(cities Cities, color Color, chain *Outbreak) {
	chain.Outbroke = append(chain.Outbroke, c.key)
	for _, key := range c.connections {
		if chain.visited[key] {
			continue
		}
		neighbour, ok := cities[key]
		if !ok {
			continue
		}
		neighbour.AddSingleDisease(cities, color, chain)
	}
}

// TreatSingleDisease removes one cube of color.
func (c *City) TreatSingleDisease(color Color) bool {
	if c.diseases[color] == 0 {
		return false
	}
	c.diseases[color]--
	return true
}

// TreatAllDisease removes every cube of color.
func (c *City) TreatAllDisease(color Color) bool {
	if c.diseases[color] == 0 {
		return false
	}
	c.diseases[color] = 0
	return true
}

// AddResearchStation builds a station; it reports false if one already exists.
func (c *City) AddResearchStation() bool {
	if c.researchStation {
		return false
	}
	c.researchStation = true
	return true
}
