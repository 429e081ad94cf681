package game

import (
	"fmt"
	"slices"
)

// Player is one participant: a location, a hand of city cards and the
// actions left in the current turn. Player methods check every
// precondition before changing anything and report success as a bool.
// Card-spending moves verify and consume the card themselves.
type Player struct {
	id          string
	city        *City
	hand        []CityCard
	active      bool
	actionsLeft int
}

func newPlayer(id string, start *City) *Player {
	return &Player{
		id:   id,
		city: start,
		hand: make([]CityCard, 0, MaxHandCount),
	}
}

// ID returns the player id.
func (p *Player) ID() string { return p.id }

// CurrentCity returns where the player stands.
func (p *Player) CurrentCity() *City { return p.city }

// IsActive reports whether it is this player's turn.
func (p *Player) IsActive() bool { return p.active }

// ActionsLeft returns the remaining actions this turn.
func (p *Player) ActionsLeft() int { return p.actionsLeft }

// Hand returns a copy of the player's city cards.
func (p *Player) Hand() []CityCard {
	return append([]CityCard(nil), p.hand...)
}

// HandSize returns the number of cards held.
func (p *Player) HandSize() int { return len(p.hand) }

// OverHandLimit reports whether the player must discard.
func (p *Player) OverHandLimit() bool { return len(p.hand) > MaxHandCount }

// HasCard reports whether a card for the given city is in hand.
func (p *Player) HasCard(card Keyed) bool {
	return p.indexOf(card.Key()) >= 0
}

func (p *Player) indexOf(key CityKey) int {
	for i, c := range p.hand {
		if c.City == key {
			return i
		}
	}
	return -1
}

// MoveAdjacent drives to a city connected to the current one.
func (p *Player) MoveAdjacent(city *City) bool {
	if city == nil || !p.city.IsConnected(city.Key()) {
		return false
	}
	p.city = city
	return true
}

// MoveDirectFlight plays the card of the destination and flies there.
func (p *Player) MoveDirectFlight(card CityCard, dest *City) bool {
	if dest == nil || !SameCity(card, dest) || SameCity(dest, p.city) || !p.HasCard(card) {
		return false
	}
	p.SubtractCard(card)
	p.city = dest
	return true
}

// MoveCharterFlight plays the card of the current city to fly anywhere.
func (p *Player) MoveCharterFlight(card CityCard, dest *City) bool {
	if dest == nil || !p.HasCard(card) || !SameCity(card, p.city) || SameCity(dest, p.city) {
		return false
	}
	p.SubtractCard(card)
	p.city = dest
	return true
}

// MoveShuttleFlight flies between two research stations.
func (p *Player) MoveShuttleFlight(dest *City) bool {
	if dest == nil || SameCity(dest, p.city) {
		return false
	}
	if !p.city.HasResearchStation() || !dest.HasResearchStation() {
		return false
	}
	p.city = dest
	return true
}

// GiveKnowledge hands the card of the shared current city to other. The
// transfer is undone if other cannot take the card.
func (p *Player) GiveKnowledge(card CityCard, other *Player) bool {
	if other == nil || other == p {
		return false
	}
	if !SameCity(other.city, p.city) || !SameCity(card, p.city) {
		return false
	}
	i := p.indexOf(card.Key())
	if i < 0 {
		return false
	}
	held := p.hand[i]
	p.SubtractCard(held)
	if other.AddCard(held) {
		return true
	}
	p.hand = slices.Insert(p.hand, i, held)
	return false
}

// AddCard puts a card in hand. It refuses duplicates and a full hand.
func (p *Player) AddCard(card CityCard) bool {
	if len(p.hand) >= MaxHandCount {
		return false
	}
	return p.takeCard(card)
}

// takeCard adds a drawn card, ignoring the hand limit.
func (p *Player) takeCard(card CityCard) bool {
	if p.HasCard(card) {
		return false
	}
	p.hand = append(p.hand, card)
	return true
}

// SubtractCard removes a card from hand.
func (p *Player) SubtractCard(card Keyed) bool {
	i := p.indexOf(card.Key())
	if i < 0 {
		return false
	}
	p.hand = append(p.hand[:i], p.hand[i+1:]...)
	return true
}

// CanDiscoverCure checks the research station, the number of cards of
// color and that every supplied card is held. An empty cards list checks
// the whole hand.
func (p *Player) CanDiscoverCure(color Color, cards []CityCard) bool {
	if len(cards) == 0 {
		cards = p.hand
	}
	if !p.city.HasResearchStation() {
		return false
	}
	seen := make(map[CityKey]bool, len(cards))
	matching := 0
	for _, c := range cards {
		if seen[c.City] || !p.HasCard(c) {
			return false
		}
		seen[c.City] = true
		if c.Color == color {
			matching++
		}
	}
	return matching >= CureCount
}

// DiscoverCure spends CureCount cards of color. It must only be called
// after CanDiscoverCure succeeded; the spent cards are returned.
func (p *Player) DiscoverCure(color Color, cards []CityCard) ([]CityCard, error) {
	if len(cards) == 0 || !p.CanDiscoverCure(color, cards) {
		return nil, fmt.Errorf("%w: tried to cure %s without enough cards", ErrInvalidOperation, color)
	}
	spent := make([]CityCard, 0, CureCount)
	for _, c := range cards {
		if c.Color == color && len(spent) < CureCount {
			spent = append(spent, c)
		}
	}
	for _, c := range spent {
		p.SubtractCard(c)
	}
	return spent, nil
}

// BuildResearchStation spends the current city's card to build a station.
func (p *Player) BuildResearchStation(card CityCard) bool {
	if !p.HasCard(card) || !SameCity(card, p.city) || p.city.HasResearchStation() {
		return false
	}
	p.SubtractCard(card)
	return p.city.AddResearchStation()
}

// HasActionsLeft reports whether the player may still act this turn.
func (p *Player) HasActionsLeft() bool { return p.actionsLeft > 0 }

// DecActionsLeft spends one action.
func (p *Player) DecActionsLeft() {
	if p.actionsLeft > 0 {
		p.actionsLeft--
	}
}

// MakeActive starts the player's turn with a full action budget.
func (p *Player) MakeActive() {
	p.active = true
	p.actionsLeft = MaxActions
}

func (p *Player) deactivate() {
	p.active = false
	p.actionsLeft = 0
}
