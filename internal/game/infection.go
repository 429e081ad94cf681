package game

// InfectionManager tracks the infection level, the derived infection rate
// and the outbreak counter.
type InfectionManager struct {
	level         int
	rate          int
	outbreakCount int
}

// NewInfectionManager starts at level 1 with no outbreaks.
func NewInfectionManager() *InfectionManager {
	return &InfectionManager{
		level: 1,
		rate:  infectionRates[1],
	}
}

// Level returns the infection level (1..7).
func (im *InfectionManager) Level() int { return im.level }

// Rate returns the infection cards drawn per turn.
func (im *InfectionManager) Rate() int { return im.rate }

// OutbreakCount returns the outbreaks recorded so far.
func (im *InfectionManager) OutbreakCount() int { return im.outbreakCount }

// IncreaseLevel advances one level and re-derives the rate. The level
// never passes MaxInfectionLevel.
func (im *InfectionManager) IncreaseLevel() {
	if im.level < MaxInfectionLevel {
		im.level++
	}
	im.rate = infectionRates[im.level]
}

// IncreaseOutbreakCount records one outbreak. Reaching MaxOutbreakCount
// ends the game.
func (im *InfectionManager) IncreaseOutbreakCount() error {
	im.outbreakCount++
	if im.outbreakCount >= MaxOutbreakCount {
		return gameEnded("hit limit of %d outbreaks", MaxOutbreakCount)
	}
	return nil
}
