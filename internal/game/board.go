package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/cureworks/pandemic-server-go/internal/game/mapdata"
	"github.com/cureworks/pandemic-server-go/internal/game/rules"
	"github.com/cureworks/pandemic-server-go/internal/game/watchers"
	"go.uber.org/zap"
)

// Status is the overall state of a game.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusWon        Status = "WON"
	StatusLost       Status = "LOST"
)

// Option configures a new or restored Board.
type Option func(*boardConfig)

type boardConfig struct {
	worldMap      *mapdata.Map
	startingCity  string
	epidemicCards int
	standardSetup bool
	rng           *rand.Rand
	logger        *zap.Logger
	gameID        string
}

// WithMap replaces the default world map.
func WithMap(m *mapdata.Map) Option {
	return func(c *boardConfig) { c.worldMap = m }
}

// WithStartingCity sets where every player starts. Empty keeps the map default.
func WithStartingCity(name string) Option {
	return func(c *boardConfig) { c.startingCity = strings.TrimSpace(name) }
}

// WithEpidemicCards sets the number of epidemic cards in the player deck.
func WithEpidemicCards(n int) Option {
	return func(c *boardConfig) { c.epidemicCards = n }
}

// WithStandardSetup deals opening hands, spreads the epidemics through the
// player deck and places the nine opening infections.
func WithStandardSetup() Option {
	return func(c *boardConfig) { c.standardSetup = true }
}

// WithRand makes every shuffle use r.
func WithRand(r *rand.Rand) Option {
	return func(c *boardConfig) { c.rng = r }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *boardConfig) { c.logger = logger }
}

// WithGameID tags log lines with the game id.
func WithGameID(id string) Option {
	return func(c *boardConfig) { c.gameID = id }
}

// Board is the aggregate root of one game. It owns every city, player,
// deck and counter and is the only entry point for gameplay mutations.
// A Board is not safe for concurrent use.
type Board struct {
	cities       Cities
	cityOrder    []CityKey
	startingCity CityKey

	players      map[string]*Player
	playerIDs    []string
	activePlayer *Player
	turns        *rules.TurnManager

	infection *InfectionManager
	diseases  *DiseaseManager
	cards     *CardManager

	// outbreak origins since the tally was last drained into the counter
	outbreaksOccurred int

	status    Status
	endReason string

	events    *rules.EventBus
	watchers  *rules.WatcherRegistry
	eventLog  *watchers.EventLogWatcher
	outbreaks *watchers.OutbreakWatcher
	cubes     *watchers.CubesPlacedWatcher
	drawn     *watchers.CardsDrawnWatcher

	gameID string
	logger *zap.Logger
}

func buildConfig(opts []Option) boardConfig {
	cfg := boardConfig{epidemicCards: MinNumEpidemicCards}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// NewBoard creates a game for 2 to 4 players. The starting city receives a
// research station and the first player becomes active.
func NewBoard(playerIDs []string, opts ...Option) (*Board, error) {
	cfg := buildConfig(opts)

	ids, err := validatePlayerIDs(playerIDs)
	if err != nil {
		return nil, err
	}
	if cfg.epidemicCards < 0 {
		return nil, fmt.Errorf("%w: epidemic cards must not be negative", ErrInvalidArgument)
	}

	world := cfg.worldMap
	if world == nil {
		if world, err = mapdata.Default(); err != nil {
			return nil, fmt.Errorf("failed to load world map: %w", err)
		}
	}
	startName := cfg.startingCity
	if startName == "" {
		startName = world.StartingCity
	}
	if _, ok := world.City(startName); !ok {
		return nil, fmt.Errorf("%w: starting city %s", ErrUnknownCity, startName)
	}

	b := newEmptyBoard(cfg)
	b.startingCity = CityKey(startName)
	for _, def := range world.Cities {
		city := newCity(def)
		if !city.color.Valid() {
			return nil, fmt.Errorf("%w: city %s has color %q", ErrInvalidArgument, def.Name, def.Color)
		}
		b.cities[city.key] = city
		b.cityOrder = append(b.cityOrder, city.key)
	}
	start := b.cities[b.startingCity]
	start.AddResearchStation()

	b.playerIDs = ids
	for _, id := range ids {
		b.players[id] = newPlayer(id, start)
	}
	b.turns = rules.NewTurnManager(ids)
	b.infection = NewInfectionManager()
	b.diseases = NewDiseaseManager()
	b.cards = NewCardManager(b.cityCards(), cfg.epidemicCards, cfg.rng)
	b.setActivePlayer(b.players[ids[0]])

	if cfg.standardSetup {
		if err := b.standardSetup(); err != nil {
			return nil, err
		}
	}

	if b.logger != nil {
		b.logger.Info("board initialised",
			zap.String("game_id", b.gameID),
			zap.Strings("players", ids),
			zap.String("starting_city", startName),
			zap.Int("epidemic_cards", cfg.epidemicCards),
			zap.Bool("standard_setup", cfg.standardSetup),
		)
	}
	return b, nil
}

func newEmptyBoard(cfg boardConfig) *Board {
	b := &Board{
		cities:    make(Cities),
		players:   make(map[string]*Player),
		status:    StatusInProgress,
		events:    rules.NewEventBus(),
		watchers:  rules.NewWatcherRegistry(),
		eventLog:  watchers.NewEventLogWatcher(),
		outbreaks: watchers.NewOutbreakWatcher(),
		cubes:     watchers.NewCubesPlacedWatcher(),
		drawn:     watchers.NewCardsDrawnWatcher(),
		gameID:    cfg.gameID,
		logger:    cfg.logger,
	}
	b.watchers.AddWatcher(b.eventLog)
	b.watchers.AddWatcher(b.outbreaks)
	b.watchers.AddWatcher(b.cubes)
	b.watchers.AddWatcher(b.drawn)
	b.events.Subscribe(b.watchers.NotifyWatchers)
	return b
}

func validatePlayerIDs(playerIDs []string) ([]string, error) {
	if len(playerIDs) < MinPlayers || len(playerIDs) > MaxPlayers {
		return nil, fmt.Errorf("%w: need %d to %d players, got %d", ErrInvalidArgument, MinPlayers, MaxPlayers, len(playerIDs))
	}
	seen := make(map[string]bool, len(playerIDs))
	ids := make([]string, 0, len(playerIDs))
	for _, id := range playerIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: empty player id", ErrInvalidArgument)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate player id %s", ErrInvalidArgument, id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *Board) cityCards() []CityCard {
	cards := make([]CityCard, 0, len(b.cityOrder))
	for _, key := range b.cityOrder {
		cards = append(cards, CityCard{City: key, Color: b.cities[key].color})
	}
	return cards
}

// GameID returns the id the board was tagged with.
func (b *Board) GameID() string { return b.gameID }

// Status returns whether the game is running, won or lost.
func (b *Board) Status() Status { return b.status }

// EndReason explains a finished game.
func (b *Board) EndReason() string { return b.endReason }

// IsOver reports whether the game has finished.
func (b *Board) IsOver() bool { return b.status != StatusInProgress }

// ActivePlayer returns the player whose turn it is.
func (b *Board) ActivePlayer() *Player { return b.activePlayer }

// PlayerIDs returns the fixed turn order.
func (b *Board) PlayerIDs() []string { return append([]string(nil), b.playerIDs...) }

// Players returns the players in turn order.
func (b *Board) Players() []*Player {
	out := make([]*Player, len(b.playerIDs))
	for i, id := range b.playerIDs {
		out[i] = b.players[id]
	}
	return out
}

// Cities returns the city index. Callers must not mutate it.
func (b *Board) Cities() Cities { return b.cities }

// StartingCity returns where players began.
func (b *Board) StartingCity() *City { return b.cities[b.startingCity] }

// InfectionManager returns the infection level and outbreak tracker.
func (b *Board) InfectionManager() *InfectionManager { return b.infection }

// DiseaseManager returns the cure state and cube supply tracker.
func (b *Board) DiseaseManager() *DiseaseManager { return b.diseases }

// CardManager returns the decks.
func (b *Board) CardManager() *CardManager { return b.cards }

// TurnNumber returns the current turn (1-based).
func (b *Board) TurnNumber() int { return b.turns.TurnNumber() }

// Phase returns the current phase of the turn.
func (b *Board) Phase() rules.Phase { return b.turns.CurrentPhase() }

// OutbreaksOccurred returns outbreak origins not yet added to the counter.
func (b *Board) OutbreaksOccurred() int { return b.outbreaksOccurred }

// Events returns the bus every rules event is published on.
func (b *Board) Events() *rules.EventBus { return b.events }

// Watchers returns the registry of game watchers.
func (b *Board) Watchers() *rules.WatcherRegistry { return b.watchers }

// OutbreakStats returns the watcher aggregating outbreak chains.
func (b *Board) OutbreakStats() *watchers.OutbreakWatcher { return b.outbreaks }

// CubesPlacedThisTurn returns the cubes of color placed since the turn began.
func (b *Board) CubesPlacedThisTurn(color Color) int { return b.cubes.GetPlaced(string(color)) }

// CardsDrawn returns how many player cards a player has drawn.
func (b *Board) CardsDrawn(playerID string) int { return b.drawn.GetCount(playerID) }

// DrainEvents returns the events published since the last drain.
func (b *Board) DrainEvents() []rules.Event { return b.eventLog.Drain() }

// GetCity resolves a city name.
func (b *Board) GetCity(name string) (*City, error) {
	city, ok := b.cities[CityKey(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCity, name)
	}
	return city, nil
}

// GetCityCard resolves a city name into its card.
func (b *Board) GetCityCard(name string) (CityCard, error) {
	city, err := b.GetCity(name)
	if err != nil {
		return CityCard{}, err
	}
	return CityCard{City: city.key, Color: city.color}, nil
}

// GetPlayer resolves a player id.
func (b *Board) GetPlayer(id string) (*Player, error) {
	p, ok := b.players[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, id)
	}
	return p, nil
}

// HandLimitExceeded returns the players holding more than MaxHandCount cards.
func (b *Board) HandLimitExceeded() []string {
	var over []string
	for _, id := range b.playerIDs {
		if b.players[id].OverHandLimit() {
			over = append(over, id)
		}
	}
	return over
}

// CubesOnBoard counts the cubes of color across every city.
func (b *Board) CubesOnBoard(color Color) int {
	total := 0
	for _, city := range b.cities {
		total += city.DiseaseCount(color)
	}
	return total
}

// ResearchStations returns the cities with a station, in map order.
func (b *Board) ResearchStations() []*City {
	var out []*City
	for _, key := range b.cityOrder {
		if c := b.cities[key]; c.researchStation {
			out = append(out, c)
		}
	}
	return out
}

func (b *Board) publish(evt rules.Event) {
	if evt.Turn == 0 && b.turns != nil {
		evt.Turn = b.turns.TurnNumber()
	}
	b.events.Publish(evt)
}

func (b *Board) activeID() string {
	if b.activePlayer == nil {
		return ""
	}
	return b.activePlayer.id
}

// MoveAdjacent drives the active player to a neighbouring city.
func (b *Board) MoveAdjacent(to *City) bool {
	if !b.activePlayer.MoveAdjacent(to) {
		return false
	}
	b.publish(rules.NewEvent(rules.EventPlayerMoved, b.activeID(), to.Name(), ""))
	return true
}

// MoveDirectFlight plays a card and flies the active player to its city.
func (b *Board) MoveDirectFlight(card CityCard) bool {
	dest, ok := b.cities[card.City]
	if !ok || !b.activePlayer.MoveDirectFlight(card, dest) {
		return false
	}
	b.discardPlayed(card)
	b.publish(rules.NewEvent(rules.EventPlayerMoved, b.activeID(), dest.Name(), ""))
	return true
}

// MoveCharterFlight plays the card of the active player's city and flies anywhere.
func (b *Board) MoveCharterFlight(card CityCard, to *City) bool {
	if !b.activePlayer.MoveCharterFlight(card, to) {
		return false
	}
	b.discardPlayed(card)
	b.publish(rules.NewEvent(rules.EventPlayerMoved, b.activeID(), to.Name(), ""))
	return true
}

// MoveShuttleFlight flies the active player between research stations.
func (b *Board) MoveShuttleFlight(to *City) bool {
	if !b.activePlayer.MoveShuttleFlight(to) {
		return false
	}
	b.publish(rules.NewEvent(rules.EventPlayerMoved, b.activeID(), to.Name(), ""))
	return true
}

// BuildResearchStation spends the card of the active player's city to build there.
func (b *Board) BuildResearchStation(card CityCard) bool {
	if !b.activePlayer.BuildResearchStation(card) {
		return false
	}
	b.discardPlayed(card)
	b.publish(rules.NewEvent(rules.EventResearchStation, b.activeID(), string(card.City), ""))
	return true
}

// TreatDisease removes cubes of color from the active player's city: all
// of them once the color is cured, otherwise one. A cured color with no
// cubes left anywhere is eradicated.
func (b *Board) TreatDisease(color Color) (bool, error) {
	if !color.Valid() {
		return false, nil
	}
	city := b.activePlayer.city
	before := city.DiseaseCount(color)

	var ok bool
	if b.diseases.IsCured(color) {
		ok = city.TreatAllDisease(color)
	} else {
		ok = city.TreatSingleDisease(color)
	}
	if !ok {
		return false, nil
	}

	removed := before - city.DiseaseCount(color)
	b.diseases.RemoveDisease(color, removed)
	b.publish(rules.NewEventWithAmount(rules.EventCubesTreated, b.activeID(), city.Name(), string(color), removed))

	if err := b.checkEradication(color); err != nil {
		return true, err
	}
	return true, nil
}

func (b *Board) checkEradication(color Color) error {
	if !b.diseases.IsCured(color) || b.diseases.IsEradicated(color) {
		return nil
	}
	if b.diseases.GetRemainingDiseases(color) != DiseaseCubeLimit {
		return nil
	}
	if err := b.diseases.EradicateDisease(color); err != nil {
		return err
	}
	b.publish(rules.NewEvent(rules.EventEradicated, b.activeID(), "", string(color)))
	if b.logger != nil {
		b.logger.Info("disease eradicated",
			zap.String("game_id", b.gameID),
			zap.String("color", string(color)),
		)
	}
	return nil
}

// ShareKnowledge moves a card from one player to another. One of them must
// be the active player and both must stand in the card's city.
func (b *Board) ShareKnowledge(card CityCard, to, from *Player) bool {
	if to == nil || from == nil {
		return false
	}
	if to != b.activePlayer && from != b.activePlayer {
		return false
	}
	if !from.GiveKnowledge(card, to) {
		return false
	}
	evt := rules.NewEvent(rules.EventKnowledgeShared, from.id, string(card.City), string(card.Color))
	evt.Description = fmt.Sprintf("%s gave %s to %s", from.id, card.City, to.id)
	b.publish(evt)
	return true
}

// DiscoverCure lets the active player cure color with the given cards.
// Curing an already cured color fails.
func (b *Board) DiscoverCure(cards []CityCard, color Color) (bool, error) {
	if !color.Valid() || b.diseases.IsCured(color) {
		return false, nil
	}
	if !b.activePlayer.CanDiscoverCure(color, cards) {
		return false, nil
	}
	spent, err := b.activePlayer.DiscoverCure(color, cards)
	if err != nil {
		return false, err
	}
	b.diseases.CureDisease(color)
	for _, c := range spent {
		b.cards.DiscardCityCards(FromCityCard(c))
	}
	b.publish(rules.NewEvent(rules.EventCured, b.activeID(), b.activePlayer.city.Name(), string(color)))
	if b.logger != nil {
		b.logger.Info("disease cured",
			zap.String("game_id", b.gameID),
			zap.String("player_id", b.activeID()),
			zap.String("color", string(color)),
		)
	}

	if err := b.checkEradication(color); err != nil {
		return true, err
	}
	if b.diseases.AllCured() {
		b.win()
	}
	return true, nil
}

// Discard removes the given cards from a player's hand. Either every card
// is discarded or none is.
func (b *Board) Discard(cards []CityCard, player *Player) bool {
	if player == nil || len(cards) == 0 {
		return false
	}
	seen := make(map[CityKey]bool, len(cards))
	for _, c := range cards {
		if seen[c.City] || !player.HasCard(c) {
			return false
		}
		seen[c.City] = true
	}
	for _, c := range cards {
		player.SubtractCard(c)
		b.cards.DiscardCityCards(FromCityCard(c))
		b.publish(rules.NewEvent(rules.EventCardDiscarded, player.id, string(c.City), string(c.Color)))
	}
	return true
}

func (b *Board) discardPlayed(card CityCard) {
	b.cards.DiscardCityCards(FromCityCard(card))
	b.publish(rules.NewEvent(rules.EventCardDiscarded, b.activeID(), string(card.City), string(card.Color)))
}

func (b *Board) win() {
	if b.status != StatusInProgress {
		return
	}
	b.status = StatusWon
	b.endReason = "all diseases cured"
	evt := rules.NewEvent(rules.EventGameWon, b.activeID(), "", "")
	evt.Description = b.endReason
	b.publish(evt)
	if b.logger != nil {
		b.logger.Info("game won", zap.String("game_id", b.gameID), zap.Int("turn", b.TurnNumber()))
	}
}

// lose records a loss and passes err through.
func (b *Board) lose(err error) error {
	if b.status != StatusInProgress {
		return err
	}
	b.status = StatusLost
	b.endReason = err.Error()
	var ended *GameEndedError
	if errors.As(err, &ended) {
		b.endReason = ended.Reason
	}
	evt := rules.NewEvent(rules.EventGameLost, b.activeID(), "", "")
	evt.Description = b.endReason
	b.publish(evt)
	if b.logger != nil {
		b.logger.Info("game lost",
			zap.String("game_id", b.gameID),
			zap.String("reason", b.endReason),
			zap.Int("turn", b.TurnNumber()),
		)
	}
	return err
}
