package game

import (
	"fmt"
	"math/rand/v2"
)

// CardManager owns the player deck, the infection deck and their discard
// piles. Index 0 is the top of every pile; discards are prepended.
type CardManager struct {
	numEpidemicCards int
	cityDeck         []PlayerCard
	cityDiscard      []PlayerCard
	infectionDeck    []InfectionCard
	infectionDiscard []InfectionCard
	rng              *rand.Rand
}

// NewCardManager builds both decks from the given city cards and shuffles
// them. The player deck also holds numEpidemic epidemic cards.
func NewCardManager(cities []CityCard, numEpidemic int, rng *rand.Rand) *CardManager {
	cm := &CardManager{
		numEpidemicCards: numEpidemic,
		cityDeck:         make([]PlayerCard, 0, len(cities)+numEpidemic),
		infectionDeck:    make([]InfectionCard, 0, len(cities)),
		rng:              rng,
	}
	for _, c := range cities {
		cm.cityDeck = append(cm.cityDeck, FromCityCard(c))
		cm.infectionDeck = append(cm.infectionDeck, InfectionCard(c))
	}
	for i := 0; i < numEpidemic; i++ {
		cm.cityDeck = append(cm.cityDeck, NewEpidemicCard())
	}
	cm.shuffle(len(cm.cityDeck), func(i, j int) {
		cm.cityDeck[i], cm.cityDeck[j] = cm.cityDeck[j], cm.cityDeck[i]
	})
	cm.shuffleInfection(cm.infectionDeck)
	return cm
}

func (cm *CardManager) shuffle(n int, swap func(i, j int)) {
	if cm.rng != nil {
		cm.rng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

func (cm *CardManager) shuffleInfection(cards []InfectionCard) {
	cm.shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// NumEpidemicCards returns how many epidemics were seeded into the player deck.
func (cm *CardManager) NumEpidemicCards() int { return cm.numEpidemicCards }

// CityDeckSize returns the number of undrawn player cards.
func (cm *CardManager) CityDeckSize() int { return len(cm.cityDeck) }

// CityDiscard returns a copy of the player discard pile.
func (cm *CardManager) CityDiscard() []PlayerCard {
	return append([]PlayerCard(nil), cm.cityDiscard...)
}

// InfectionDeck returns a copy of the infection deck, top first.
func (cm *CardManager) InfectionDeck() []InfectionCard {
	return append([]InfectionCard(nil), cm.infectionDeck...)
}

// InfectionDiscard returns a copy of the infection discard pile.
func (cm *CardManager) InfectionDiscard() []InfectionCard {
	return append([]InfectionCard(nil), cm.infectionDiscard...)
}

// DrawCityCards removes the top two player cards. Running out of player
// cards ends the game.
func (cm *CardManager) DrawCityCards() ([]PlayerCard, error) {
	if len(cm.cityDeck) < CityCardsPerDraw {
		return nil, gameEnded("not enough city cards remaining")
	}
	drawn := append([]PlayerCard(nil), cm.cityDeck[:CityCardsPerDraw]...)
	cm.cityDeck = cm.cityDeck[CityCardsPerDraw:]
	return drawn, nil
}

// DiscardCityCards prepends cards to the player discard pile.
func (cm *CardManager) DiscardCityCards(cards ...PlayerCard) {
	if len(cards) == 0 {
		return
	}
	pile := make([]PlayerCard, 0, len(cards)+len(cm.cityDiscard))
	pile = append(pile, cards...)
	cm.cityDiscard = append(pile, cm.cityDiscard...)
}

func (cm *CardManager) discardInfection(cards ...InfectionCard) {
	pile := make([]InfectionCard, 0, len(cards)+len(cm.infectionDiscard))
	pile = append(pile, cards...)
	cm.infectionDiscard = append(pile, cm.infectionDiscard...)
}

// DrawInfectionCards draws n cards from the top of the infection deck and
// discards them. When the deck runs short the discard pile is shuffled
// into a new deck and drawing continues from it.
func (cm *CardManager) DrawInfectionCards(n int) []InfectionCard {
	if n <= 0 {
		return nil
	}
	drawn := make([]InfectionCard, 0, n)
	if len(cm.infectionDeck) < n {
		drawn = append(drawn, cm.infectionDeck...)
		cm.infectionDeck = cm.infectionDiscard
		cm.infectionDiscard = nil
		cm.shuffleInfection(cm.infectionDeck)
		rest := min(n-len(drawn), len(cm.infectionDeck))
		drawn = append(drawn, cm.infectionDeck[:rest]...)
		cm.infectionDeck = cm.infectionDeck[rest:]
	} else {
		drawn = append(drawn, cm.infectionDeck[:n]...)
		cm.infectionDeck = cm.infectionDeck[n:]
	}
	cm.discardInfection(drawn...)
	return drawn
}

// DrawBottomInfectionCard takes the bottom card of the infection deck and
// puts it on top of the infection discard pile.
func (cm *CardManager) DrawBottomInfectionCard() (InfectionCard, error) {
	if len(cm.infectionDeck) == 0 {
		cm.infectionDeck = cm.infectionDiscard
		cm.infectionDiscard = nil
		cm.shuffleInfection(cm.infectionDeck)
	}
	if len(cm.infectionDeck) == 0 {
		return InfectionCard{}, fmt.Errorf("%w: infection deck is empty", ErrInvalidOperation)
	}
	last := len(cm.infectionDeck) - 1
	bottom := cm.infectionDeck[last]
	cm.infectionDeck = cm.infectionDeck[:last]
	cm.discardInfection(bottom)
	return bottom, nil
}

// ShuffleAndReplaceInfectionCards shuffles the infection discard pile and
// places it on top of the infection deck.
func (cm *CardManager) ShuffleAndReplaceInfectionCards() {
	cm.shuffleInfection(cm.infectionDiscard)
	deck := make([]InfectionCard, 0, len(cm.infectionDiscard)+len(cm.infectionDeck))
	deck = append(deck, cm.infectionDiscard...)
	cm.infectionDeck = append(deck, cm.infectionDeck...)
	cm.infectionDiscard = nil
}

// HandleEpidemic draws the bottom infection card and then returns the
// intensified discard pile to the top of the deck. The caller places the
// epidemic cubes on the returned card's city.
func (cm *CardManager) HandleEpidemic() (InfectionCard, error) {
	bottom, err := cm.DrawBottomInfectionCard()
	if err != nil {
		return InfectionCard{}, err
	}
	cm.ShuffleAndReplaceInfectionCards()
	return bottom, nil
}

// DealOpeningHands prepares the player deck for a standard game: each
// player receives perPlayer city cards, then the rest of the deck is split
// into one pile per epidemic card, each pile gets an epidemic and is
// shuffled, and the piles are stacked.
func (cm *CardManager) DealOpeningHands(players, perPlayer int) ([][]CityCard, error) {
	cityCards := make([]PlayerCard, 0, len(cm.cityDeck))
	epidemics := 0
	for _, c := range cm.cityDeck {
		if c.IsEpidemic() {
			epidemics++
			continue
		}
		cityCards = append(cityCards, c)
	}
	if players*perPlayer > len(cityCards) {
		return nil, fmt.Errorf("%w: cannot deal %d cards to %d players", ErrInvalidOperation, perPlayer, players)
	}

	hands := make([][]CityCard, players)
	for i := 0; i < perPlayer; i++ {
		for p := 0; p < players; p++ {
			card, _ := cityCards[0].CityCard()
			hands[p] = append(hands[p], card)
			cityCards = cityCards[1:]
		}
	}

	if epidemics == 0 {
		cm.cityDeck = cityCards
		return hands, nil
	}

	deck := make([]PlayerCard, 0, len(cityCards)+epidemics)
	size, extra := len(cityCards)/epidemics, len(cityCards)%epidemics
	start := 0
	for i := 0; i < epidemics; i++ {
		end := start + size
		if i < extra {
			end++
		}
		pile := make([]PlayerCard, 0, end-start+1)
		pile = append(pile, cityCards[start:end]...)
		pile = append(pile, NewEpidemicCard())
		cm.shuffle(len(pile), func(a, b int) { pile[a], pile[b] = pile[b], pile[a] })
		deck = append(deck, pile...)
		start = end
	}
	cm.cityDeck = deck
	return hands, nil
}
