package match

import (
	"example.com/consensus_chess/internal/consensus"
	"example.com/consensus_chess/internal/game"
	"example.com/consensus_chess/internal/rules"
)

// Phase is the match lifecycle stage. It only moves forward:
// WaitingForPlayers, then InProgress, then Finished.
type Phase string

const (
	WaitingForPlayers Phase = "waiting_for_players"
	InProgress        Phase = "in_progress"
	Finished          Phase = "finished"
)

// Status is the lifecycle phase plus, once finished, the winner if any.
type Status struct {
	Phase  Phase         `json:"phase"`
	Winner game.PlayerID `json:"winner,omitempty"`
}

// Snapshot is a point-in-time read of a match. Before both players have
// joined the board is empty and the player fields are blank.
type Snapshot struct {
	Board       game.Board    `json:"board"`
	CurrentTurn game.PlayerID `json:"current_turn"`
	Player1     game.PlayerID `json:"player1"`
	Player2     game.PlayerID `json:"player2"`
	Status      Status        `json:"status"`
}

// StatePayload is the body of a state event.
type StatePayload struct {
	Board                 game.Board          `json:"board"`
	CurrentTurn           game.PlayerID       `json:"current_turn"`
	Players               [2]game.PlayerID    `json:"players"`
	PlayerNames           [2]string           `json:"player_names"`
	Catalog               *rules.Catalog      `json:"catalog"`
	Status                Status              `json:"status"`
	DisagreementCount     int                 `json:"disagreement_count"`
	DisagreementThreshold int                 `json:"disagreement_threshold"`
	PendingProposal       *consensus.Proposal `json:"pending_proposal"`
}

// WaitingRoomPayload announces a join while the match is still filling.
type WaitingRoomPayload struct {
	Players []string `json:"players"`
	Needed  int      `json:"needed"`
}

// VoteRequestedPayload asks the other player to vote on a rule.
type VoteRequestedPayload struct {
	ProposerID   game.PlayerID   `json:"proposer_id"`
	ProposerName string          `json:"proposer_name"`
	Rule         rules.PieceRule `json:"rule"`
}

// VoteRejectedPayload reports a rule that was voted down.
type VoteRejectedPayload struct {
	ProposerID        game.PlayerID   `json:"proposer_id"`
	Rule              rules.PieceRule `json:"rule"`
	DisagreementCount int             `json:"disagreement_count"`
	Threshold         int             `json:"threshold"`
}

// GameOverPayload names the winner.
type GameOverPayload struct {
	Winner     game.PlayerID `json:"winner"`
	WinnerName string        `json:"winner_name"`
}
