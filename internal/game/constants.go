package game

// Rule constants for the standard game.
const (
	MinPlayers          = 2
	MaxPlayers          = 4
	MaxActions          = 4
	MaxHandCount        = 7
	MaxDiseaseCount     = 3
	DiseaseCubeLimit    = 24
	MaxOutbreakCount    = 8
	CureCount           = 5
	MinNumEpidemicCards = 4
	MaxNumEpidemicCards = 6
	MaxInfectionLevel   = 7
	CityCardsPerDraw    = 2

	DefaultStartingCity = "Atlanta"
)

// infectionRates maps infection level to the number of infection cards drawn per turn.
var infectionRates = map[int]int{
	1: 2,
	2: 2,
	3: 2,
	4: 3,
	5: 3,
	6: 4,
	7: 4,
}

// openingHandSize returns how many city cards each player starts with.
func openingHandSize(players int) int {
	switch players {
	case 2:
		return 4
	case 3:
		return 3
	default:
		return 2
	}
}
