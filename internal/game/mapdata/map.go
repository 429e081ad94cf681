// Package mapdata holds the static board topology: the city list, each city's
// disease color and the connections between cities.
package mapdata

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed world.yaml
var worldYAML []byte

// CityDef is the static definition of one city.
type CityDef struct {
	Name        string   `yaml:"name" json:"name"`
	Color       string   `yaml:"color" json:"color"`
	Connections []string `yaml:"connections" json:"connections"`
}

// Map is a parsed, validated board topology.
type Map struct {
	StartingCity string    `yaml:"starting_city" json:"starting_city"`
	Cities       []CityDef `yaml:"cities" json:"cities"`

	index map[string]int
}

var diseaseColors = map[string]bool{"BLUE": true, "RED": true, "YELLOW": true, "GREY": true}

var (
	defaultOnce sync.Once
	defaultMap  *Map
	defaultErr  error
)

// Default returns the embedded 48-city world map.
func Default() (*Map, error) {
	defaultOnce.Do(func() {
		defaultMap, defaultErr = Parse(worldYAML)
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	return defaultMap, nil
}

// Parse decodes a YAML map definition and validates it. Missing reverse
// edges are added so that adjacency is always symmetric.
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode map: %w", err)
	}
	if err := m.build(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Map) build() error {
	if len(m.Cities) == 0 {
		return fmt.Errorf("map has no cities")
	}

	m.index = make(map[string]int, len(m.Cities))
	for i := range m.Cities {
		city := &m.Cities[i]
		city.Name = strings.TrimSpace(city.Name)
		city.Color = strings.ToUpper(strings.TrimSpace(city.Color))
		if city.Name == "" {
			return fmt.Errorf("city %d has no name", i)
		}
		if city.Color == "GRAY" {
			city.Color = "GREY"
		}
		if !diseaseColors[city.Color] {
			return fmt.Errorf("city %s has unknown color %q", city.Name, city.Color)
		}
		if _, dup := m.index[city.Name]; dup {
			return fmt.Errorf("duplicate city %s", city.Name)
		}
		m.index[city.Name] = i
	}

	for i := range m.Cities {
		city := &m.Cities[i]
		seen := make(map[string]bool, len(city.Connections))
		conns := city.Connections[:0]
		for _, name := range city.Connections {
			name = strings.TrimSpace(name)
			if _, ok := m.index[name]; !ok {
				return fmt.Errorf("city %s connects to unknown city %s", city.Name, name)
			}
			if name == city.Name {
				return fmt.Errorf("city %s connects to itself", city.Name)
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			conns = append(conns, name)
		}
		city.Connections = conns
	}

	for i := range m.Cities {
		for _, name := range m.Cities[i].Connections {
			other := &m.Cities[m.index[name]]
			if !contains(other.Connections, m.Cities[i].Name) {
				other.Connections = append(other.Connections, m.Cities[i].Name)
			}
		}
	}

	if m.StartingCity == "" {
		m.StartingCity = m.Cities[0].Name
	}
	if _, ok := m.index[m.StartingCity]; !ok {
		return fmt.Errorf("starting city %s is not on the map", m.StartingCity)
	}
	return nil
}

// City returns the definition of the named city.
func (m *Map) City(name string) (CityDef, bool) {
	i, ok := m.index[name]
	if !ok {
		return CityDef{}, false
	}
	return m.Cities[i], true
}

// Names returns city names in definition order.
func (m *Map) Names() []string {
	names := make([]string, len(m.Cities))
	for i, c := range m.Cities {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of cities.
func (m *Map) Len() int {
	return len(m.Cities)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
