package game

import (
	"strings"

	"github.com/cureworks/pandemic-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// setActivePlayer makes p the only active player with a full budget.
func (b *Board) setActivePlayer(p *Player) {
	for _, other := range b.players {
		if other != p {
			other.deactivate()
		}
	}
	p.MakeActive()
	b.activePlayer = p
}

// SetActivePlayer hands the turn to the given player.
func (b *Board) SetActivePlayer(p *Player) error {
	if err := b.turns.SetActivePlayer(p.id); err != nil {
		return err
	}
	b.setActivePlayer(p)
	return nil
}

// DecActivePlayerActions spends one of the active player's actions.
func (b *Board) DecActivePlayerActions() {
	b.activePlayer.DecActionsLeft()
	b.publish(rules.NewEventWithAmount(rules.EventActionTaken, b.activeID(), "", "", b.activePlayer.actionsLeft))
}

// MoveToNextPlayer ends the current turn and activates the next player in
// turn order.
func (b *Board) MoveToNextPlayer() {
	previous := b.activeID()
	b.publish(rules.NewEvent(rules.EventTurnEnded, previous, "", ""))

	next := b.turns.EndTurn()
	b.setActivePlayer(b.players[next])
	b.watchers.ResetWatchersByScope(rules.WatcherScopeTurn)

	b.publish(rules.NewEvent(rules.EventTurnStarted, next, "", ""))
	if b.logger != nil {
		b.logger.Debug("turn passed",
			zap.String("game_id", b.gameID),
			zap.String("from", previous),
			zap.String("to", next),
			zap.Int("turn", b.turns.TurnNumber()),
		)
	}
}

// CheckEndOfActions runs the end of turn once the active player has no
// actions left: draw two player cards, resolve epidemics, infect cities
// and pass the turn. A loss during the sequence is returned as a
// GameEndedError and leaves the board in the LOST state.
func (b *Board) CheckEndOfActions() error {
	if b.activePlayer.HasActionsLeft() || b.IsOver() {
		return nil
	}

	b.advancePhase()
	drawn, err := b.DrawCityCards()
	if err != nil {
		return b.lose(err)
	}
	for _, card := range drawn {
		b.activePlayer.takeCard(card)
		b.publish(rules.NewEvent(rules.EventCardDrawn, b.activeID(), string(card.City), string(card.Color)))
	}
	if b.activePlayer.OverHandLimit() {
		evt := rules.NewEventWithAmount(rules.EventHandLimitExceeded, b.activeID(), "", "", b.activePlayer.HandSize())
		b.publish(evt)
	}

	b.advancePhase()
	if err := b.DrawInfectionCardsAndPlaceCubes(); err != nil {
		return b.lose(err)
	}

	b.MoveToNextPlayer()
	return nil
}

// EndTurn forfeits the active player's remaining actions and runs the end
// of turn.
func (b *Board) EndTurn() error {
	b.activePlayer.actionsLeft = 0
	return b.CheckEndOfActions()
}

func (b *Board) advancePhase() {
	phase := b.turns.AdvancePhase()
	evt := rules.NewEvent(rules.EventPhaseChange, b.activeID(), "", "")
	evt.Description = phase.String()
	b.publish(evt)
}

// DrawCityCards draws two player cards for the active player. Epidemics
// are resolved immediately and discarded; the city cards are returned.
func (b *Board) DrawCityCards() ([]CityCard, error) {
	drawn, err := b.cards.DrawCityCards()
	if err != nil {
		return nil, err
	}
	cityCards := make([]CityCard, 0, len(drawn))
	for _, card := range drawn {
		if c, ok := card.CityCard(); ok {
			cityCards = append(cityCards, c)
			continue
		}
		if err := b.resolveEpidemic(); err != nil {
			return nil, err
		}
		b.cards.DiscardCityCards(card)
	}
	if err := b.drainOutbreaks(); err != nil {
		return nil, err
	}
	return cityCards, nil
}

func (b *Board) resolveEpidemic() error {
	b.infection.IncreaseLevel()
	b.publish(rules.NewEventWithAmount(rules.EventInfectionRate, b.activeID(), "", "", b.infection.Rate()))

	bottom, err := b.cards.HandleEpidemic()
	if err != nil {
		return err
	}
	city := b.cities[bottom.City]
	evt := rules.NewEventWithAmount(rules.EventEpidemic, b.activeID(), string(bottom.City), string(bottom.Color), b.infection.Level())
	b.publish(evt)
	if b.logger != nil {
		b.logger.Info("epidemic",
			zap.String("game_id", b.gameID),
			zap.String("city", string(bottom.City)),
			zap.Int("infection_level", b.infection.Level()),
		)
	}

	if city == nil || b.diseases.IsEradicated(bottom.Color) {
		return nil
	}
	before := city.DiseaseCount(bottom.Color)
	chain := city.AddEpidemicDisease(b.cities, bottom.Color)
	if added := city.DiseaseCount(bottom.Color) - before; added > 0 {
		b.publish(rules.NewEventWithAmount(rules.EventInfect, "", city.Name(), string(bottom.Color), added))
	}
	b.recordOutbreak(chain)
	return b.diseases.UpdateDiseaseCounts(b.cities)
}

// DrawInfectionCardsAndPlaceCubes draws as many infection cards as the
// infection rate and places one cube on each named city, then adds the
// outbreaks that happened to the outbreak counter.
func (b *Board) DrawInfectionCardsAndPlaceCubes() error {
	drawn := b.cards.DrawInfectionCards(b.infection.Rate())
	for _, card := range drawn {
		b.infect(card, 1)
	}
	b.logTurnInfections(len(drawn))
	if err := b.drainOutbreaks(); err != nil {
		return err
	}
	return b.diseases.UpdateDiseaseCounts(b.cities)
}

// logTurnInfections reports the cubes placed during the active turn,
// epidemics included.
func (b *Board) logTurnInfections(cards int) {
	if b.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("game_id", b.gameID),
		zap.Int("turn", b.turns.TurnNumber()),
		zap.Int("infection_cards", cards),
		zap.Int("outbreaks", b.outbreaksOccurred),
	}
	for _, color := range Colors {
		fields = append(fields, zap.Int(strings.ToLower(string(color))+"_cubes", b.CubesPlacedThisTurn(color)))
	}
	b.logger.Debug("cities infected", fields...)
}

// infect places n cubes on the card's city one at a time.
func (b *Board) infect(card InfectionCard, n int) {
	city, ok := b.cities[card.City]
	if !ok || b.diseases.IsEradicated(card.Color) {
		return
	}
	for i := 0; i < n; i++ {
		before := city.DiseaseCount(card.Color)
		chain := city.AddSingleDisease(b.cities, card.Color, nil)
		if city.DiseaseCount(card.Color) > before {
			b.publish(rules.NewEventWithAmount(rules.EventInfect, "", city.Name(), string(card.Color), 1))
		}
		b.recordOutbreak(chain)
	}
}

func (b *Board) recordOutbreak(chain *Outbreak) {
	if chain == nil {
		return
	}
	b.outbreaksOccurred++
	for _, key := range chain.Infected {
		b.publish(rules.NewEventWithAmount(rules.EventInfect, "", string(key), string(chain.Color), 1))
	}
	evt := rules.NewEvent(rules.EventOutbreak, "", string(chain.Origin), string(chain.Color))
	evt.Cities = chain.Cities()
	evt.Amount = len(chain.Outbroke)
	b.publish(evt)
	if b.logger != nil {
		b.logger.Info("outbreak",
			zap.String("game_id", b.gameID),
			zap.String("origin", string(chain.Origin)),
			zap.String("color", string(chain.Color)),
			zap.Strings("cities", evt.Cities),
		)
	}
}

// drainOutbreaks moves the outbreak tally into the outbreak counter.
func (b *Board) drainOutbreaks() error {
	n := b.outbreaksOccurred
	b.outbreaksOccurred = 0
	for i := 0; i < n; i++ {
		if err := b.infection.IncreaseOutbreakCount(); err != nil {
			return err
		}
	}
	return nil
}
