package game

import "fmt"

// CityCard is a player card naming a city. It is used to travel, build
// research stations, share knowledge and discover cures.
type CityCard struct {
	City  CityKey `json:"city"`
	Color Color   `json:"color"`
}

// Key implements Keyed.
func (c CityCard) Key() CityKey { return c.City }

func (c CityCard) String() string {
	return fmt.Sprintf("%s (%s)", c.City, c.Color)
}

// InfectionCard names the city that receives cubes when it is drawn.
type InfectionCard struct {
	City  CityKey `json:"city"`
	Color Color   `json:"color"`
}

// Key implements Keyed.
func (c InfectionCard) Key() CityKey { return c.City }

func (c InfectionCard) String() string {
	return fmt.Sprintf("%s (%s)", c.City, c.Color)
}

// CardKind distinguishes the cards in the player deck.
type CardKind string

const (
	CardKindCity     CardKind = "CITY"
	CardKindEpidemic CardKind = "EPIDEMIC"
)

// PlayerCard is an entry of the player deck: a city card or an epidemic.
type PlayerCard struct {
	Kind  CardKind `json:"kind"`
	City  CityKey  `json:"city,omitempty"`
	Color Color    `json:"color,omitempty"`
}

// NewEpidemicCard returns the epidemic sentinel card.
func NewEpidemicCard() PlayerCard {
	return PlayerCard{Kind: CardKindEpidemic}
}

// FromCityCard wraps a city card for the player deck.
func FromCityCard(c CityCard) PlayerCard {
	return PlayerCard{Kind: CardKindCity, City: c.City, Color: c.Color}
}

// IsEpidemic reports whether this is the epidemic sentinel.
func (p PlayerCard) IsEpidemic() bool {
	return p.Kind == CardKindEpidemic
}

// CityCard unwraps a city card. ok is false for epidemics.
func (p PlayerCard) CityCard() (card CityCard, ok bool) {
	if p.Kind != CardKindCity {
		return CityCard{}, false
	}
	return CityCard{City: p.City, Color: p.Color}, true
}

func (p PlayerCard) String() string {
	if p.IsEpidemic() {
		return "EPIDEMIC"
	}
	return fmt.Sprintf("%s (%s)", p.City, p.Color)
}
