package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SerializationChecksum is a deterministic checksum of a board snapshot.
// Two snapshots of the same board state hash equal regardless of when
// they were taken.
type SerializationChecksum struct {
	Hash      string // SHA-256 of the canonical representation
	Timestamp string // when the snapshot was taken
	Version   int
}

// ComputeChecksum hashes the canonical representation of the snapshot.
func (s *Snapshot) ComputeChecksum() (*SerializationChecksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(s.canonical())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: s.Timestamp.Format("2006-01-02T15:04:05.000Z"),
		Version:   s.Version,
	}, nil
}

// canonical renders the snapshot without timestamps, with cities sorted
// by name. Pile and hand order is kept since it is part of the state.
func (s *Snapshot) canonical() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%s|%s|%s|%d\n", s.GameID, s.Status, s.EndReason, s.StartingCity, s.OutbreaksOccurred)
	fmt.Fprintf(&buf, "TURN:%s|%d|%d|%s|%s\n",
		strings.Join(s.Turn.Order, ","), s.Turn.ActiveIndex, s.Turn.TurnNumber, s.Turn.Phase, s.ActivePlayer)
	fmt.Fprintf(&buf, "INFECTION:%d|%d|%d\n", s.Infection.Level, s.Infection.Rate, s.Infection.OutbreakCount)

	for _, color := range Colors {
		fmt.Fprintf(&buf, "DISEASE:%s|%t|%t|%d\n",
			color, s.Diseases.Cured[color], s.Diseases.Eradicated[color], s.Diseases.Remaining[color])
	}

	cities := make([]CitySnapshot, len(s.Cities))
	copy(cities, s.Cities)
	sort.Slice(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
	for _, c := range cities {
		fmt.Fprintf(&buf, "CITY:%s|%s|%t", c.Name, c.Color, c.ResearchStation)
		for _, color := range Colors {
			fmt.Fprintf(&buf, "|%d", c.Diseases[color])
		}
		conns := append([]string(nil), c.Connections...)
		sort.Strings(conns)
		fmt.Fprintf(&buf, "|%s\n", strings.Join(conns, ","))
	}

	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%t|%d\n", p.ID, p.City, p.Active, p.ActionsLeft)
		for _, card := range p.Hand {
			fmt.Fprintf(&buf, "  HAND:%s\n", card.City)
		}
	}

	fmt.Fprintf(&buf, "EPIDEMICS:%d\n", s.Cards.EpidemicCards)
	writePlayerPile(&buf, "CITY_DECK", s.Cards.CityDeck)
	writePlayerPile(&buf, "CITY_DISCARD", s.Cards.CityDiscard)
	writeInfectionPile(&buf, "INFECTION_DECK", s.Cards.InfectionDeck)
	writeInfectionPile(&buf, "INFECTION_DISCARD", s.Cards.InfectionDiscard)

	return buf.String()
}

func writePlayerPile(buf *bytes.Buffer, name string, pile []PlayerCard) {
	names := make([]string, len(pile))
	for i, c := range pile {
		if c.IsEpidemic() {
			names[i] = "*"
			continue
		}
		names[i] = string(c.City)
	}
	fmt.Fprintf(buf, "%s:%s\n", name, strings.Join(names, ","))
}

func writeInfectionPile(buf *bytes.Buffer, name string, pile []InfectionCard) {
	names := make([]string, len(pile))
	for i, c := range pile {
		names[i] = string(c.City)
	}
	fmt.Fprintf(buf, "%s:%s\n", name, strings.Join(names, ","))
}

// VerifyChecksum reports whether the snapshot still matches expected.
func (s *Snapshot) VerifyChecksum(expected *SerializationChecksum) (bool, error) {
	computed, err := s.ComputeChecksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// SerializeToBytes encodes the snapshot with gob. Replay files use this form.
func (s *Snapshot) SerializeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeFromBytes decodes a gob encoded snapshot.
func DeserializeFromBytes(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// MarshalSnapshot encodes the snapshot as JSON for stores and clients.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a JSON snapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// ValidateSerializationRoundtrip checks that the snapshot survives both the
// gob and the JSON encodings unchanged.
func ValidateSerializationRoundtrip(s *Snapshot) error {
	original, err := s.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}

	data, err := s.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	decoded, err := DeserializeFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}
	if ok, _ := decoded.VerifyChecksum(original); !ok {
		return fmt.Errorf("gob checksum mismatch for game %s", s.GameID)
	}

	data, err = MarshalSnapshot(s)
	if err != nil {
		return err
	}
	decoded, err = UnmarshalSnapshot(data)
	if err != nil {
		return err
	}
	if ok, _ := decoded.VerifyChecksum(original); !ok {
		return fmt.Errorf("json checksum mismatch for game %s", s.GameID)
	}
	return nil
}
