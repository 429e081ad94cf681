package rules

import (
	"fmt"
	"strings"
)

// Phase represents the stages of a single player's turn.
type Phase int

const (
	// PhaseActions is the part of the turn where the active player spends actions.
	PhaseActions Phase = iota
	// PhaseDraw draws two player cards and resolves epidemics.
	PhaseDraw
	// PhaseInfect draws infection cards and places cubes.
	PhaseInfect
)

var phaseNames = map[Phase]string{
	PhaseActions: "ACTIONS",
	PhaseDraw:    "DRAW",
	PhaseInfect:  "INFECT",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(text)))
	for phase, n := range phaseNames {
		if n == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(text))
}

// TurnState is the serialisable form of a TurnManager.
type TurnState struct {
	Order       []string `json:"order"`
	ActiveIndex int      `json:"active_index"`
	TurnNumber  int      `json:"turn_number"`
	Phase       Phase    `json:"phase"`
}

// TurnManager tracks turn order, the active player and the current phase.
type TurnManager struct {
	order       []string
	activeIndex int
	turnNumber  int
	phase       Phase
}

// NewTurnManager creates a turn manager at turn 1 with the first player active.
func NewTurnManager(order []string) *TurnManager {
	cleaned := make([]string, len(order))
	for i, id := range order {
		cleaned[i] = strings.TrimSpace(id)
	}
	return &TurnManager{
		order:      cleaned,
		turnNumber: 1,
		phase:      PhaseActions,
	}
}

// RestoreTurnManager rebuilds a turn manager from saved state.
func RestoreTurnManager(state TurnState) (*TurnManager, error) {
	if len(state.Order) == 0 {
		return nil, fmt.Errorf("turn order is empty")
	}
	if state.ActiveIndex < 0 || state.ActiveIndex >= len(state.Order) {
		return nil, fmt.Errorf("active index %d out of range", state.ActiveIndex)
	}
	if state.TurnNumber < 1 {
		return nil, fmt.Errorf("turn number %d must be positive", state.TurnNumber)
	}
	tm := NewTurnManager(state.Order)
	tm.activeIndex = state.ActiveIndex
	tm.turnNumber = state.TurnNumber
	tm.phase = state.Phase
	return tm, nil
}

// State returns a copy of the manager's state.
func (tm *TurnManager) State() TurnState {
	return TurnState{
		Order:       append([]string(nil), tm.order...),
		ActiveIndex: tm.activeIndex,
		TurnNumber:  tm.turnNumber,
		Phase:       tm.phase,
	}
}

// Order returns the fixed turn order.
func (tm *TurnManager) Order() []string {
	return append([]string(nil), tm.order...)
}

// ActivePlayer returns the player whose turn it is.
func (tm *TurnManager) ActivePlayer() string {
	if len(tm.order) == 0 {
		return ""
	}
	return tm.order[tm.activeIndex]
}

// NextPlayer returns the player who moves after the active one.
func (tm *TurnManager) NextPlayer() string {
	if len(tm.order) == 0 {
		return ""
	}
	return tm.order[(tm.activeIndex+1)%len(tm.order)]
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return tm.phase
}

// AdvancePhase moves to the next phase. Advancing past INFECT ends the turn:
// the next player becomes active and the turn number is incremented.
func (tm *TurnManager) AdvancePhase() Phase {
	switch tm.phase {
	case PhaseActions:
		tm.phase = PhaseDraw
	case PhaseDraw:
		tm.phase = PhaseInfect
	default:
		tm.EndTurn()
	}
	return tm.phase
}

// EndTurn rotates to the next player in round-robin order and returns their id.
func (tm *TurnManager) EndTurn() string {
	if len(tm.order) == 0 {
		return ""
	}
	tm.activeIndex = (tm.activeIndex + 1) % len(tm.order)
	tm.turnNumber++
	tm.phase = PhaseActions
	return tm.order[tm.activeIndex]
}

// SetActivePlayer makes the given player active without changing the turn number.
func (tm *TurnManager) SetActivePlayer(playerID string) error {
	for i, id := range tm.order {
		if id == playerID {
			tm.activeIndex = i
			tm.phase = PhaseActions
			return nil
		}
	}
	return fmt.Errorf("player %s is not in the turn order", playerID)
}
