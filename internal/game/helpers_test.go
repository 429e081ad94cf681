package game

import (
	"math/rand/v2"
	"testing"

	"github.com/cureworks/pandemic-server-go/internal/game/mapdata"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func seededRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

// newTestBoard returns a two player board without epidemics in the player
// deck, so end-of-turn draws never resolve an epidemic unless a test
// arranges one.
func newTestBoard(t *testing.T, opts ...Option) *Board {
	t.Helper()
	base := []Option{
		WithRand(seededRand()),
		WithLogger(zaptest.NewLogger(t)),
		WithGameID("test-game"),
		WithEpidemicCards(0),
	}
	b, err := NewBoard([]string{"alice", "bob"}, append(base, opts...)...)
	require.NoError(t, err)
	return b
}

func testCities(t *testing.T) Cities {
	t.Helper()
	world, err := mapdata.Default()
	require.NoError(t, err)
	cities := make(Cities, world.Len())
	for _, def := range world.Cities {
		c := newCity(def)
		cities[c.key] = c
	}
	return cities
}

func card(t *testing.T, b *Board, name string) CityCard {
	t.Helper()
	c, err := b.GetCityCard(name)
	require.NoError(t, err)
	return c
}

// give puts the named cards straight into a player's hand.
func give(t *testing.T, b *Board, playerID string, names ...string) {
	t.Helper()
	p, err := b.GetPlayer(playerID)
	require.NoError(t, err)
	for _, name := range names {
		require.True(t, p.takeCard(card(t, b, name)), "card %s already held", name)
	}
}

// stackCityDeck replaces the player deck with the named city cards, top first.
func stackCityDeck(t *testing.T, b *Board, names ...string) {
	t.Helper()
	deck := make([]PlayerCard, 0, len(names))
	for _, name := range names {
		if name == "EPIDEMIC" {
			deck = append(deck, NewEpidemicCard())
			continue
		}
		deck = append(deck, FromCityCard(card(t, b, name)))
	}
	b.cards.cityDeck = deck
}

// stackInfectionDeck puts the named cities on top of the infection deck.
func stackInfectionDeck(t *testing.T, b *Board, names ...string) {
	t.Helper()
	top := make([]InfectionCard, 0, len(names))
	for _, name := range names {
		top = append(top, InfectionCard(card(t, b, name)))
	}
	rest := make([]InfectionCard, 0, len(b.cards.infectionDeck))
	for _, c := range b.cards.infectionDeck {
		keep := true
		for _, stacked := range top {
			if stacked.City == c.City {
				keep = false
				break
			}
		}
		if keep {
			rest = append(rest, c)
		}
	}
	b.cards.infectionDeck = append(top, rest...)
}

func blueCards(t *testing.T, b *Board) []CityCard {
	t.Helper()
	names := []string{"Chicago", "Montreal", "New York", "London", "Madrid"}
	out := make([]CityCard, len(names))
	for i, n := range names {
		out[i] = card(t, b, n)
	}
	return out
}
