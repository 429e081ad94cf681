package server

import (
	"encoding/json"

	"github.com/cureworks/pandemic-server-go/internal/game"
)

// Inbound message types.
const (
	MsgCreateGame = "create_game"
	MsgJoinGame   = "join_game"
	MsgAction     = "action"
	MsgView       = "view"
	MsgEndGame    = "end_game"
)

// Outbound message types.
const (
	MsgGameState = "game_state"
	MsgGameEnded = "game_ended"
	MsgError     = "error"
)

// WSMessage is the envelope of every websocket frame.
type WSMessage struct {
	Type     string          `json:"type"`
	GameID   string          `json:"game_id,omitempty"`
	PlayerID string          `json:"player_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// CreateGameData is the payload of create_game.
type CreateGameData struct {
	Players      []string `json:"players"`
	StartingCity string   `json:"starting_city,omitempty"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Error string         `json:"error"`
	Code  game.ErrorCode `json:"code"`
	Board *game.Snapshot `json:"board,omitempty"`
}

func encode(msgType, gameID, playerID string, data any) ([]byte, error) {
	msg := WSMessage{Type: msgType, GameID: gameID, PlayerID: playerID}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}
