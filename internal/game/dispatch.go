package game

import (
	"fmt"

	"github.com/cureworks/pandemic-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Response is what a client receives after every request: the full board,
// the events the request produced and, on failure, the error.
type Response struct {
	Board  *Snapshot     `json:"board"`
	Error  string        `json:"error,omitempty"`
	Code   ErrorCode     `json:"code,omitempty"`
	Events []rules.Event `json:"events,omitempty"`
}

// Init creates a new game. An empty startingCity uses the map default.
func Init(playerIDs []string, startingCity string, opts ...Option) (*Board, error) {
	opts = append(opts, WithStartingCity(startingCity))
	return NewBoard(playerIDs, opts...)
}

// HandleAction decodes and applies a request and builds the response. The
// error is also returned so callers can log or branch on it.
func HandleAction(b *Board, req Request) (Response, error) {
	action, err := req.Decode()
	if err == nil {
		err = b.Apply(action)
	}
	resp := Response{
		Board:  b.Snapshot(),
		Events: b.DrainEvents(),
	}
	if err != nil {
		resp.Error = err.Error()
		resp.Code = Code(err)
	}
	return resp, err
}

// Apply runs one typed action. Every identifier is resolved before the
// board is touched, the turn budget is only spent on success and the end
// of turn runs once the budget is gone.
func (b *Board) Apply(action Action) error {
	if action == nil {
		return fmt.Errorf("%w: nil action", ErrUnknownAction)
	}
	if b.IsOver() {
		return fmt.Errorf("%w: %s", ErrGameOver, b.endReason)
	}
	if action.Budgeted() || action.Name() == AbilityEndTurn {
		if over := b.HandLimitExceeded(); len(over) > 0 {
			return fmt.Errorf("%w: %v", ErrHandLimit, over)
		}
	}
	if action.Budgeted() && !b.activePlayer.HasActionsLeft() {
		return ErrNoActionsLeft
	}

	ok, err := b.dispatch(action)
	if err != nil {
		if IsGameEnded(err) {
			return b.lose(err)
		}
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrActionFailed, action.Name())
	}

	if b.logger != nil {
		b.logger.Debug("action applied",
			zap.String("game_id", b.gameID),
			zap.String("player_id", b.activeID()),
			zap.String("action", string(action.Name())),
		)
	}

	if !action.Budgeted() {
		return nil
	}
	b.DecActivePlayerActions()
	if b.IsOver() {
		return nil
	}
	return b.CheckEndOfActions()
}

func (b *Board) dispatch(action Action) (bool, error) {
	switch a := action.(type) {
	case MoveAdjacent:
		to, err := b.GetCity(a.ToCity)
		if err != nil {
			return false, err
		}
		return b.MoveAdjacent(to), nil

	case MoveDirectFlight:
		card, err := b.GetCityCard(a.CityCard)
		if err != nil {
			return false, err
		}
		return b.MoveDirectFlight(card), nil

	case MoveCharterFlight:
		card, err := b.GetCityCard(a.CityCard)
		if err != nil {
			return false, err
		}
		to, err := b.GetCity(a.ToCity)
		if err != nil {
			return false, err
		}
		return b.MoveCharterFlight(card, to), nil

	case MoveShuttleFlight:
		to, err := b.GetCity(a.ToCity)
		if err != nil {
			return false, err
		}
		return b.MoveShuttleFlight(to), nil

	case BuildResearchStation:
		card, err := b.GetCityCard(a.CityCard)
		if err != nil {
			return false, err
		}
		return b.BuildResearchStation(card), nil

	case TreatDisease:
		color, err := ParseColor(a.Color)
		if err != nil {
			return false, err
		}
		return b.TreatDisease(color)

	case ShareKnowledge:
		card, err := b.GetCityCard(a.CityCard)
		if err != nil {
			return false, err
		}
		to, err := b.GetPlayer(a.PlayerTo)
		if err != nil {
			return false, err
		}
		from, err := b.GetPlayer(a.PlayerFrom)
		if err != nil {
			return false, err
		}
		return b.ShareKnowledge(card, to, from), nil

	case DiscoverCure:
		color, err := ParseColor(a.Color)
		if err != nil {
			return false, err
		}
		cards, err := b.resolveCards(a.CityCards)
		if err != nil {
			return false, err
		}
		return b.DiscoverCure(cards, color)

	case Discard:
		cards, err := b.resolveCards(a.CityCards)
		if err != nil {
			return false, err
		}
		player, err := b.GetPlayer(a.Player)
		if err != nil {
			return false, err
		}
		return b.Discard(cards, player), nil

	case EndTurn:
		if err := b.EndTurn(); err != nil {
			return false, err
		}
		return true, nil

	default:
		return false, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
}

func (b *Board) resolveCards(names []string) ([]CityCard, error) {
	cards := make([]CityCard, 0, len(names))
	for _, name := range names {
		card, err := b.GetCityCard(name)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}
