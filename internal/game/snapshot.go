package game

import (
	"fmt"
	"time"

	"github.com/cureworks/pandemic-server-go/internal/game/rules"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is the complete, self-contained state of a board. It is what
// clients receive after every request and what stores persist.
type Snapshot struct {
	Version           int               `json:"version"`
	GameID            string            `json:"game_id,omitempty"`
	StartingCity      string            `json:"starting_city"`
	Cities            []CitySnapshot    `json:"cities"`
	Players           []PlayerSnapshot  `json:"players"`
	ActivePlayer      string            `json:"active_player"`
	Turn              rules.TurnState   `json:"turn"`
	Infection         InfectionSnapshot `json:"infection"`
	Diseases          DiseaseSnapshot   `json:"diseases"`
	Cards             CardsSnapshot     `json:"cards"`
	OutbreaksOccurred int               `json:"outbreaks_occurred"`
	Status            Status            `json:"status"`
	EndReason         string            `json:"end_reason,omitempty"`
	Timestamp         time.Time         `json:"timestamp"`
}

// CitySnapshot is one city with its cubes and station.
type CitySnapshot struct {
	Name            string        `json:"name"`
	Color           Color         `json:"color"`
	Diseases        map[Color]int `json:"diseases"`
	ResearchStation bool          `json:"research_station"`
	Connections     []string      `json:"connections"`
}

// PlayerSnapshot is one player.
type PlayerSnapshot struct {
	ID          string     `json:"id"`
	City        string     `json:"city"`
	Hand        []CityCard `json:"hand"`
	Active      bool       `json:"active"`
	ActionsLeft int        `json:"actions_left"`
}

// InfectionSnapshot is the infection track and outbreak counter.
type InfectionSnapshot struct {
	Level         int `json:"level"`
	Rate          int `json:"rate"`
	OutbreakCount int `json:"outbreak_count"`
}

// DiseaseSnapshot is the per-color cure state and cube supply.
type DiseaseSnapshot struct {
	Cured      map[Color]bool `json:"cured"`
	Eradicated map[Color]bool `json:"eradicated"`
	Remaining  map[Color]int  `json:"remaining"`
}

// CardsSnapshot holds every pile, top card first.
type CardsSnapshot struct {
	EpidemicCards    int             `json:"epidemic_cards"`
	CityDeck         []PlayerCard    `json:"city_deck"`
	CityDiscard      []PlayerCard    `json:"city_discard"`
	InfectionDeck    []InfectionCard `json:"infection_deck"`
	InfectionDiscard []InfectionCard `json:"infection_discard"`
}

// Snapshot captures the board. The result shares no memory with it.
func (b *Board) Snapshot() *Snapshot {
	s := &Snapshot{
		Version:      SnapshotVersion,
		GameID:       b.gameID,
		StartingCity: string(b.startingCity),
		Cities:       make([]CitySnapshot, 0, len(b.cityOrder)),
		Players:      make([]PlayerSnapshot, 0, len(b.playerIDs)),
		ActivePlayer: b.activeID(),
		Turn:         b.turns.State(),
		Infection: InfectionSnapshot{
			Level:         b.infection.level,
			Rate:          b.infection.rate,
			OutbreakCount: b.infection.outbreakCount,
		},
		Diseases: DiseaseSnapshot{
			Cured:      copyFlags(b.diseases.cured),
			Eradicated: copyFlags(b.diseases.eradicated),
			Remaining:  b.diseases.Remaining(),
		},
		Cards: CardsSnapshot{
			EpidemicCards:    b.cards.numEpidemicCards,
			CityDeck:         append([]PlayerCard{}, b.cards.cityDeck...),
			CityDiscard:      b.cards.CityDiscard(),
			InfectionDeck:    b.cards.InfectionDeck(),
			InfectionDiscard: b.cards.InfectionDiscard(),
		},
		OutbreaksOccurred: b.outbreaksOccurred,
		Status:            b.status,
		EndReason:         b.endReason,
		Timestamp:         time.Now().UTC(),
	}

	for _, key := range b.cityOrder {
		c := b.cities[key]
		conns := make([]string, len(c.connections))
		for i, k := range c.connections {
			conns[i] = string(k)
		}
		diseases := make(map[Color]int, len(Colors))
		for _, color := range Colors {
			diseases[color] = c.diseases[color]
		}
		s.Cities = append(s.Cities, CitySnapshot{
			Name:            string(c.key),
			Color:           c.color,
			Diseases:        diseases,
			ResearchStation: c.researchStation,
			Connections:     conns,
		})
	}

	for _, id := range b.playerIDs {
		p := b.players[id]
		s.Players = append(s.Players, PlayerSnapshot{
			ID:          p.id,
			City:        p.city.Name(),
			Hand:        append([]CityCard{}, p.hand...),
			Active:      p.active,
			ActionsLeft: p.actionsLeft,
		})
	}
	return s
}

func copyFlags(in map[Color]bool) map[Color]bool {
	out := make(map[Color]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// RestoreBoard rebuilds a board from a snapshot. Every reference in the
// snapshot is checked; a snapshot that does not describe a consistent board
// is rejected with ErrInvalidArgument. Options other than WithRand,
// WithLogger and WithGameID are ignored.
func RestoreBoard(s *Snapshot, opts ...Option) (*Board, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidArgument)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", ErrInvalidArgument, s.Version)
	}
	cfg := buildConfig(opts)
	if cfg.gameID == "" {
		cfg.gameID = s.GameID
	}
	b := newEmptyBoard(cfg)

	if err := b.restoreCities(s.Cities); err != nil {
		return nil, err
	}
	start, ok := b.cities[CityKey(s.StartingCity)]
	if !ok {
		return nil, fmt.Errorf("%w: starting city %q", ErrInvalidArgument, s.StartingCity)
	}
	b.startingCity = start.key

	if err := b.restorePlayers(s); err != nil {
		return nil, err
	}
	turns, err := rules.RestoreTurnManager(s.Turn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if turns.ActivePlayer() != s.ActivePlayer {
		return nil, fmt.Errorf("%w: active player %q does not match turn order", ErrInvalidArgument, s.ActivePlayer)
	}
	for i, id := range turns.Order() {
		if i >= len(b.playerIDs) || b.playerIDs[i] != id {
			return nil, fmt.Errorf("%w: turn order does not match players", ErrInvalidArgument)
		}
	}
	if len(turns.Order()) != len(b.playerIDs) {
		return nil, fmt.Errorf("%w: turn order does not match players", ErrInvalidArgument)
	}
	b.turns = turns

	if b.infection, err = restoreInfection(s.Infection); err != nil {
		return nil, err
	}
	if b.diseases, err = restoreDiseases(s.Diseases); err != nil {
		return nil, err
	}
	if b.cards, err = b.restoreCards(s.Cards, cfg); err != nil {
		return nil, err
	}

	if s.OutbreaksOccurred < 0 {
		return nil, fmt.Errorf("%w: negative outbreak tally", ErrInvalidArgument)
	}
	b.outbreaksOccurred = s.OutbreaksOccurred

	switch s.Status {
	case StatusInProgress, StatusWon, StatusLost:
		b.status = s.Status
	case "":
		b.status = StatusInProgress
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, s.Status)
	}
	b.endReason = s.EndReason
	return b, nil
}

func (b *Board) restoreCities(cities []CitySnapshot) error {
	if len(cities) == 0 {
		return fmt.Errorf("%w: snapshot has no cities", ErrInvalidArgument)
	}
	for _, cs := range cities {
		if cs.Name == "" {
			return fmt.Errorf("%w: city without a name", ErrInvalidArgument)
		}
		if !cs.Color.Valid() {
			return fmt.Errorf("%w: city %s has color %q", ErrInvalidArgument, cs.Name, cs.Color)
		}
		key := CityKey(cs.Name)
		if _, dup := b.cities[key]; dup {
			return fmt.Errorf("%w: duplicate city %s", ErrInvalidArgument, cs.Name)
		}
		city := &City{
			key:             key,
			color:           cs.Color,
			diseases:        newColorCounts(0),
			researchStation: cs.ResearchStation,
			connections:     make([]CityKey, len(cs.Connections)),
		}
		for color, n := range cs.Diseases {
			if !color.Valid() || n < 0 || n > MaxDiseaseCount {
				return fmt.Errorf("%w: city %s has %d %s cubes", ErrInvalidArgument, cs.Name, n, color)
			}
			city.diseases[color] = n
		}
		for i, conn := range cs.Connections {
			city.connections[i] = CityKey(conn)
		}
		b.cities[key] = city
		b.cityOrder = append(b.cityOrder, key)
	}
	for _, city := range b.cities {
		for _, conn := range city.connections {
			if _, ok := b.cities[conn]; !ok {
				return fmt.Errorf("%w: city %s connects to unknown %s", ErrInvalidArgument, city.key, conn)
			}
		}
	}
	return nil
}

func (b *Board) checkCard(card CityCard) error {
	city, ok := b.cities[card.City]
	if !ok {
		return fmt.Errorf("%w: card for unknown city %q", ErrInvalidArgument, card.City)
	}
	if city.color != card.Color {
		return fmt.Errorf("%w: card %s has color %s, city is %s", ErrInvalidArgument, card.City, card.Color, city.color)
	}
	return nil
}

func (b *Board) restorePlayers(s *Snapshot) error {
	ids := make([]string, len(s.Players))
	for i, ps := range s.Players {
		ids[i] = ps.ID
	}
	ids, err := validatePlayerIDs(ids)
	if err != nil {
		return err
	}
	b.playerIDs = ids
	for _, ps := range s.Players {
		city, ok := b.cities[CityKey(ps.City)]
		if !ok {
			return fmt.Errorf("%w: player %s is in unknown city %q", ErrInvalidArgument, ps.ID, ps.City)
		}
		if ps.ActionsLeft < 0 || ps.ActionsLeft > MaxActions {
			return fmt.Errorf("%w: player %s has %d actions left", ErrInvalidArgument, ps.ID, ps.ActionsLeft)
		}
		p := newPlayer(ps.ID, city)
		for _, card := range ps.Hand {
			if err := b.checkCard(card); err != nil {
				return err
			}
			if !p.takeCard(card) {
				return fmt.Errorf("%w: player %s holds %s twice", ErrInvalidArgument, ps.ID, card.City)
			}
		}
		p.active = ps.Active
		p.actionsLeft = ps.ActionsLeft
		b.players[ps.ID] = p
	}
	active, ok := b.players[s.ActivePlayer]
	if !ok {
		return fmt.Errorf("%w: unknown active player %q", ErrInvalidArgument, s.ActivePlayer)
	}
	for _, p := range b.players {
		if p.active != (p == active) {
			return fmt.Errorf("%w: exactly one player must be active", ErrInvalidArgument)
		}
	}
	b.activePlayer = active
	return nil
}

func restoreInfection(s InfectionSnapshot) (*InfectionManager, error) {
	if s.Level < 1 || s.Level > MaxInfectionLevel {
		return nil, fmt.Errorf("%w: infection level %d", ErrInvalidArgument, s.Level)
	}
	if s.OutbreakCount < 0 {
		return nil, fmt.Errorf("%w: negative outbreak count", ErrInvalidArgument)
	}
	return &InfectionManager{
		level:         s.Level,
		rate:          infectionRates[s.Level],
		outbreakCount: s.OutbreakCount,
	}, nil
}

func restoreDiseases(s DiseaseSnapshot) (*DiseaseManager, error) {
	dm := NewDiseaseManager()
	for _, color := range Colors {
		dm.cured[color] = s.Cured[color]
		dm.eradicated[color] = s.Eradicated[color]
		if dm.eradicated[color] && !dm.cured[color] {
			return nil, fmt.Errorf("%w: %s eradicated but not cured", ErrInvalidArgument, color)
		}
		if n, ok := s.Remaining[color]; ok {
			if n < 0 || n > DiseaseCubeLimit {
				return nil, fmt.Errorf("%w: %d %s cubes remaining", ErrInvalidArgument, n, color)
			}
			dm.remaining[color] = n
		}
	}
	return dm, nil
}

func (b *Board) restoreCards(s CardsSnapshot, cfg boardConfig) (*CardManager, error) {
	if s.EpidemicCards < 0 {
		return nil, fmt.Errorf("%w: negative epidemic cards", ErrInvalidArgument)
	}
	cm := &CardManager{
		numEpidemicCards: s.EpidemicCards,
		cityDeck:         append([]PlayerCard{}, s.CityDeck...),
		cityDiscard:      append([]PlayerCard{}, s.CityDiscard...),
		infectionDeck:    append([]InfectionCard{}, s.InfectionDeck...),
		infectionDiscard: append([]InfectionCard{}, s.InfectionDiscard...),
		rng:              cfg.rng,
	}
	for _, pile := range [][]PlayerCard{cm.cityDeck, cm.cityDiscard} {
		for _, pc := range pile {
			if pc.IsEpidemic() {
				continue
			}
			card, ok := pc.CityCard()
			if !ok {
				return nil, fmt.Errorf("%w: player card of kind %q", ErrInvalidArgument, pc.Kind)
			}
			if err := b.checkCard(card); err != nil {
				return nil, err
			}
		}
	}
	for _, pile := range [][]InfectionCard{cm.infectionDeck, cm.infectionDiscard} {
		for _, ic := range pile {
			if err := b.checkCard(CityCard(ic)); err != nil {
				return nil, err
			}
		}
	}
	return cm, nil
}
