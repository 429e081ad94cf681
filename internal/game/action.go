package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ActionName identifies a request kind on the wire.
type ActionName string

// Budgeted actions, each costing one of the active player's four actions.
const (
	ActionMoveAdjacent         ActionName = "MOVE_ADJACENT"
	ActionMoveDirectFlight     ActionName = "MOVE_DIRECT_FLIGHT"
	ActionMoveCharterFlight    ActionName = "MOVE_CHARTER_FLIGHT"
	ActionMoveShuttleFlight    ActionName = "MOVE_SHUTTLE_FLIGHT"
	ActionBuildResearchStation ActionName = "BUILD_RESEARCH_STATION"
	ActionTreatDisease         ActionName = "TREAT_DISEASE"
	ActionShareKnowledge       ActionName = "SHARE_KNOWLEDGE"
	ActionDiscoverCure         ActionName = "DISCOVER_CURE"
)

// Abilities, which cost no actions.
const (
	AbilityDiscard ActionName = "DISCARD"
	AbilityEndTurn ActionName = "END_TURN"
)

// Action is one typed request. The set of implementations is closed.
type Action interface {
	Name() ActionName
	// Budgeted reports whether the action spends one of the turn's actions.
	Budgeted() bool
	validate() error
}

// MoveAdjacent drives to a connected city.
type MoveAdjacent struct {
	ToCity string `json:"to_city"`
}

// MoveDirectFlight plays a card to fly to its city.
type MoveDirectFlight struct {
	CityCard string `json:"city_card"`
}

// MoveCharterFlight plays the current city's card to fly anywhere.
type MoveCharterFlight struct {
	CityCard string `json:"city_card"`
	ToCity   string `json:"to_city"`
}

// MoveShuttleFlight flies between research stations.
type MoveShuttleFlight struct {
	ToCity string `json:"to_city"`
}

// BuildResearchStation spends the current city's card to build a station.
type BuildResearchStation struct {
	CityCard string `json:"city_card"`
}

// TreatDisease removes cubes from the current city.
type TreatDisease struct {
	Color string `json:"color"`
}

// ShareKnowledge passes a card between two players in the same city.
type ShareKnowledge struct {
	CityCard   string `json:"city_card"`
	PlayerTo   string `json:"player_to"`
	PlayerFrom string `json:"player_from"`
}

// DiscoverCure spends five cards of one color at a research station.
type DiscoverCure struct {
	CityCards []string `json:"city_cards"`
	Color     string   `json:"color"`
}

// Discard drops cards from any player's hand.
type Discard struct {
	CityCards []string `json:"city_cards"`
	Player    string   `json:"player"`
}

// EndTurn gives up the remaining actions of the turn.
type EndTurn struct{}

func (MoveAdjacent) Name() ActionName         { return ActionMoveAdjacent }
func (MoveDirectFlight) Name() ActionName     { return ActionMoveDirectFlight }
func (MoveCharterFlight) Name() ActionName    { return ActionMoveCharterFlight }
func (MoveShuttleFlight) Name() ActionName    { return ActionMoveShuttleFlight }
func (BuildResearchStation) Name() ActionName { return ActionBuildResearchStation }
func (TreatDisease) Name() ActionName         { return ActionTreatDisease }
func (ShareKnowledge) Name() ActionName       { return ActionShareKnowledge }
func (DiscoverCure) Name() ActionName         { return ActionDiscoverCure }
func (Discard) Name() ActionName              { return AbilityDiscard }
func (EndTurn) Name() ActionName              { return AbilityEndTurn }

func (MoveAdjacent) Budgeted() bool         { return true }
func (MoveDirectFlight) Budgeted() bool     { return true }
func (MoveCharterFlight) Budgeted() bool    { return true }
func (MoveShuttleFlight) Budgeted() bool    { return true }
func (BuildResearchStation) Budgeted() bool { return true }
func (TreatDisease) Budgeted() bool         { return true }
func (ShareKnowledge) Budgeted() bool       { return true }
func (DiscoverCure) Budgeted() bool         { return true }
func (Discard) Budgeted() bool              { return false }
func (EndTurn) Budgeted() bool              { return false }

func (a MoveAdjacent) validate() error { return required("to_city", a.ToCity) }

func (a MoveDirectFlight) validate() error { return required("city_card", a.CityCard) }

func (a MoveCharterFlight) validate() error {
	if err := required("city_card", a.CityCard); err != nil {
		return err
	}
	return required("to_city", a.ToCity)
}

func (a MoveShuttleFlight) validate() error { return required("to_city", a.ToCity) }

func (a BuildResearchStation) validate() error { return required("city_card", a.CityCard) }

func (a TreatDisease) validate() error { return required("color", a.Color) }

func (a ShareKnowledge) validate() error {
	for _, f := range []struct{ name, value string }{
		{"city_card", a.CityCard},
		{"player_to", a.PlayerTo},
		{"player_from", a.PlayerFrom},
	} {
		if err := required(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func (a DiscoverCure) validate() error {
	if len(a.CityCards) == 0 {
		return fmt.Errorf("%w: city_cards is required", ErrInvalidArgument)
	}
	return required("color", a.Color)
}

func (a Discard) validate() error {
	if len(a.CityCards) == 0 {
		return fmt.Errorf("%w: city_cards is required", ErrInvalidArgument)
	}
	return required("player", a.Player)
}

func (EndTurn) validate() error { return nil }

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidArgument, field)
	}
	return nil
}

// Command is the name and raw arguments of one request.
type Command struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Request is the wire envelope: exactly one of Action or Ability is set.
type Request struct {
	Action  *Command `json:"action,omitempty"`
	Ability *Command `json:"ability,omitempty"`
}

// NewActionRequest wraps a typed action in its wire envelope.
func NewActionRequest(a Action) (Request, error) {
	args, err := json.Marshal(a)
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode %s: %w", a.Name(), err)
	}
	cmd := &Command{Name: string(a.Name()), Args: args}
	if a.Budgeted() {
		return Request{Action: cmd}, nil
	}
	return Request{Ability: cmd}, nil
}

// ParseRequest decodes a JSON request into a typed action.
func ParseRequest(data []byte) (Action, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: malformed request: %v", ErrInvalidArgument, err)
	}
	return req.Decode()
}

// Decode resolves the envelope into its typed action and checks that every
// required argument is present.
func (r Request) Decode() (Action, error) {
	var (
		cmd      *Command
		budgeted bool
	)
	switch {
	case r.Action != nil && r.Ability != nil:
		return nil, fmt.Errorf("%w: request has both action and ability", ErrInvalidArgument)
	case r.Action != nil:
		cmd, budgeted = r.Action, true
	case r.Ability != nil:
		cmd = r.Ability
	default:
		return nil, fmt.Errorf("%w: request has no action or ability", ErrUnknownAction)
	}

	action, err := newAction(ActionName(strings.ToUpper(strings.TrimSpace(cmd.Name))))
	if err != nil {
		return nil, err
	}
	if action.Budgeted() != budgeted {
		return nil, fmt.Errorf("%w: %s sent in the wrong envelope", ErrUnknownAction, cmd.Name)
	}

	if len(bytes.TrimSpace(cmd.Args)) > 0 && !bytes.Equal(bytes.TrimSpace(cmd.Args), []byte("null")) {
		if err := json.Unmarshal(cmd.Args, action); err != nil {
			return nil, fmt.Errorf("%w: bad arguments for %s: %v", ErrInvalidArgument, cmd.Name, err)
		}
	}
	typed := deref(action)
	if err := typed.validate(); err != nil {
		return nil, err
	}
	return typed, nil
}

// newAction returns a pointer to a zero action so arguments can be decoded into it.
func newAction(name ActionName) (Action, error) {
	switch name {
	case ActionMoveAdjacent:
		return &MoveAdjacent{}, nil
	case ActionMoveDirectFlight:
		return &MoveDirectFlight{}, nil
	case ActionMoveCharterFlight:
		return &MoveCharterFlight{}, nil
	case ActionMoveShuttleFlight:
		return &MoveShuttleFlight{}, nil
	case ActionBuildResearchStation:
		return &BuildResearchStation{}, nil
	case ActionTreatDisease:
		return &TreatDisease{}, nil
	case ActionShareKnowledge:
		return &ShareKnowledge{}, nil
	case ActionDiscoverCure:
		return &DiscoverCure{}, nil
	case AbilityDiscard:
		return &Discard{}, nil
	case AbilityEndTurn:
		return &EndTurn{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

func deref(a Action) Action {
	switch v := a.(type) {
	case *MoveAdjacent:
		return *v
	case *MoveDirectFlight:
		return *v
	case *MoveCharterFlight:
		return *v
	case *MoveShuttleFlight:
		return *v
	case *BuildResearchStation:
		return *v
	case *TreatDisease:
		return *v
	case *ShareKnowledge:
		return *v
	case *DiscoverCure:
		return *v
	case *Discard:
		return *v
	case *EndTurn:
		return *v
	default:
		return a
	}
}
