package ws

import (
	"encoding/json"
	"errors"

	"example.com/consensus_chess/internal/game"
	"example.com/consensus_chess/internal/rules"
)

// Client message types.
const (
	TypeJoin        = "join"
	TypeMove        = "move"
	TypeProposeRule = "propose_rule"
	TypeVote        = "vote"
	TypeSpawn       = "spawn"
	TypeGetState    = "get_state"
)

// Direct reply types. Broadcast events use the types in package events.
const (
	TypeJoined   = "joined"
	TypeOK       = "ok"
	TypeSnapshot = "snapshot"
	TypeError    = "error"
)

// CodeInternal is sent when a command failed for a reason other than a
// game rule, for instance a stopped match.
const CodeInternal game.Code = "INTERNAL"

// Msg is the envelope for every message in both directions.
type Msg struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outbound is a reply whose payload is not yet encoded.
func outbound(typ string, payload any) Msg {
	data, err := json.Marshal(payload)
	if err != nil {
		return errorMsg(err)
	}
	return Msg{Type: typ, Payload: data}
}

type JoinPayload struct {
	Name string `json:"name"`
}

type MovePayload struct {
	From rules.Square `json:"from"`
	To   rules.Square `json:"to"`
}

type ProposePayload struct {
	Rule rules.PieceRule `json:"rule"`
}

type VotePayload struct {
	Accept bool `json:"accept"`
}

type SpawnPayload struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type JoinedPayload struct {
	PlayerID game.PlayerID `json:"player_id"`
}

type OKPayload struct {
	Command string `json:"command"`
}

type ErrorPayload struct {
	Code     game.Code         `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func errorMsg(err error) Msg {
	p := ErrorPayload{Code: CodeInternal, Message: err.Error()}
	var ge *game.Error
	if errors.As(err, &ge) {
		p.Code = ge.Code
		p.Metadata = ge.Metadata
	}
	data, _ := json.Marshal(p)
	return Msg{Type: TypeError, Payload: data}
}
