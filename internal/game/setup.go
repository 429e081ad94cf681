package game

import (
	"go.uber.org/zap"
)

// standardSetup deals opening hands and places the opening infections:
// three cities with three cubes, three with two and three with one.
func (b *Board) standardSetup() error {
	hands, err := b.cards.DealOpeningHands(len(b.playerIDs), openingHandSize(len(b.playerIDs)))
	if err != nil {
		return err
	}
	for i, id := range b.playerIDs {
		for _, card := range hands[i] {
			b.players[id].takeCard(card)
		}
	}

	for cubes := MaxDiseaseCount; cubes >= 1; cubes-- {
		for _, card := range b.cards.DrawInfectionCards(3) {
			b.infect(card, cubes)
		}
	}
	// Opening infections never outbreak; the tally only counts play.
	b.outbreaksOccurred = 0
	if err := b.diseases.UpdateDiseaseCounts(b.cities); err != nil {
		return err
	}

	if b.logger != nil {
		b.logger.Debug("standard setup complete",
			zap.String("game_id", b.gameID),
			zap.Int("player_deck", b.cards.CityDeckSize()),
		)
	}
	return nil
}
