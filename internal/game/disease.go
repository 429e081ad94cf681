package game

import (
	"fmt"
)

// DiseaseManager holds per-color cure state and the remaining cube supply.
// A color moves Uncured -> Cured -> Eradicated and never back.
type DiseaseManager struct {
	cured      map[Color]bool
	eradicated map[Color]bool
	remaining  map[Color]int
}

// NewDiseaseManager returns a manager with every color uncured and a full supply.
func NewDiseaseManager() *DiseaseManager {
	return &DiseaseManager{
		cured:      newColorFlags(),
		eradicated: newColorFlags(),
		remaining:  newColorCounts(DiseaseCubeLimit),
	}
}

// IsCured reports whether color has been cured.
func (dm *DiseaseManager) IsCured(color Color) bool { return dm.cured[color] }

// IsEradicated reports whether color has been eradicated.
func (dm *DiseaseManager) IsEradicated(color Color) bool { return dm.eradicated[color] }

// AllCured reports whether every color has been cured.
func (dm *DiseaseManager) AllCured() bool {
	for _, c := range Colors {
		if !dm.cured[c] {
			return false
		}
	}
	return true
}

// CureDisease marks color cured. It reports false if it already was.
func (dm *DiseaseManager) CureDisease(color Color) bool {
	if dm.cured[color] {
		return false
	}
	dm.cured[color] = true
	return true
}

// EradicateDisease marks a cured color eradicated.
func (dm *DiseaseManager) EradicateDisease(color Color) error {
	if !dm.cured[color] {
		return fmt.Errorf("%w: cannot eradicate %s before curing it", ErrInvalidOperation, color)
	}
	dm.eradicated[color] = true
	return nil
}

// PlaceDisease takes n cubes from the supply. Running out ends the game.
func (dm *DiseaseManager) PlaceDisease(color Color, n int) error {
	if dm.remaining[color] < n {
		return gameEnded("ran out of %s disease cubes", color)
	}
	dm.remaining[color] -= n
	return nil
}

// RemoveDisease returns n cubes to the supply.
func (dm *DiseaseManager) RemoveDisease(color Color, n int) {
	dm.remaining[color] += n
}

// GetRemainingDiseases returns the cubes of color left in the supply.
func (dm *DiseaseManager) GetRemainingDiseases(color Color) int {
	return dm.remaining[color]
}

// Remaining returns a copy of the supply for every color.
func (dm *DiseaseManager) Remaining() map[Color]int {
	out := make(map[Color]int, len(dm.remaining))
	for k, v := range dm.remaining {
		out[k] = v
	}
	return out
}

// UpdateDiseaseCounts recomputes the supply from the cubes on the board.
// The supply is left untouched if any color would go negative.
func (dm *DiseaseManager) UpdateDiseaseCounts(cities Cities) error {
	remaining := newColorCounts(DiseaseCubeLimit)
	for _, city := range cities {
		for _, color := range Colors {
			remaining[color] -= city.DiseaseCount(color)
		}
	}
	for _, color := range Colors {
		if remaining[color] < 0 {
			return gameEnded("ran out of %s disease cubes", color)
		}
	}
	dm.remaining = remaining
	return nil
}
