// Package game holds the board, the turn order and the move validation that
// decides whether a player's move is applied.
package game

import (
	"example.com/consensus_chess/internal/rules"
)

// State is one match in progress: the board, the two players, whose turn it
// is and the rule catalog the pieces move by. It is owned by a single
// goroutine and is not safe for concurrent use.
type State struct {
	board   Board
	turn    PlayerID
	players [2]PlayerID
	catalog *rules.Catalog
}

// NewState starts a match between first and second on the opening board.
// The first player moves first and treats +y as forward. catalog must define
// rules.Pawn; the state takes ownership of it.
func NewState(first, second PlayerID, catalog *rules.Catalog) *State {
	return &State{
		board:   OpeningBoard(first, second),
		turn:    first,
		players: [2]PlayerID{first, second},
		catalog: catalog,
	}
}

// Board returns a copy of the board. Pieces are immutable values, so the
// copy shares no mutable state with the match.
func (s *State) Board() Board { return s.board }

func (s *State) Turn() PlayerID { return s.turn }

func (s *State) Players() [2]PlayerID { return s.players }

// Catalog returns the live catalog. Callers outside the owning goroutine
// must use a clone.
func (s *State) Catalog() *rules.Catalog { return s.catalog }

// IsFirstPlayer reports whether id moves with +y forward.
func (s *State) IsFirstPlayer(id PlayerID) bool { return id == s.players[0] }

// Opponent returns the other registered player.
func (s *State) Opponent(id PlayerID) PlayerID {
	if id == s.players[0] {
		return s.players[1]
	}
	return s.players[0]
}

// ApplyMove validates and applies a move by player. Either the move is
// applied and the turn passes, or an *Error is returned and nothing changes.
//
// Checks run in a fixed order so the reported error is deterministic:
// bounds, turn, source occupancy, ownership, destination, rule lookup, and
// finally the piece's movement rule.
func (s *State) ApplyMove(player PlayerID, from, to rules.Square) error {
	if !from.InBounds() {
		return OutOfBounds(from.X, from.Y)
	}
	if !to.InBounds() {
		return OutOfBounds(to.X, to.Y)
	}
	if player != s.turn {
		return NotYourTurn(s.turn)
	}
	piece := s.board.At(from)
	if piece == nil {
		return EmptySource(from.X, from.Y)
	}
	if piece.Owner != player {
		return NotYourPiece(piece.Owner)
	}
	if dest := s.board.At(to); dest != nil && dest.Owner == player {
		return DestinationOccupiedBySelf(to.X, to.Y)
	}
	rule, ok := s.catalog.Get(piece.Type)
	if !ok {
		return ViolatesRule("unknown piece")
	}
	if !rules.Evaluate(rule, from, to, s.IsFirstPlayer(player), &s.board) {
		return ViolatesRule("move not allowed")
	}

	// Overwriting the destination is the capture.
	s.board.set(to, piece)
	s.board.set(from, nil)
	s.turn = s.Opponent(s.turn)
	return nil
}

// Spawn places a piece of typeName owned by owner on sq without any
// movement check. It replaces whatever was there.
func (s *State) Spawn(owner PlayerID, typeName string, sq rules.Square) error {
	if !sq.InBounds() {
		return OutOfBounds(sq.X, sq.Y)
	}
	if !s.catalog.Has(typeName) {
		return ViolatesRule("unknown piece")
	}
	s.board.set(sq, &Piece{Type: typeName, Owner: owner})
	return nil
}

// CheckGameOver returns the winner once exactly one player has lost every
// royal piece. With no royal rule in the catalog there is never a winner,
// and a board where both or neither side keeps royals has none either.
func (s *State) CheckGameOver() (PlayerID, bool) {
	if !s.catalog.HasRoyal() {
		return "", false
	}
	var royals [2]int
	s.board.Pieces(func(_ rules.Square, p Piece) {
		if !s.catalog.IsRoyal(p.Type) {
			return
		}
		switch p.Owner {
		case s.players[0]:
			royals[0]++
		case s.players[1]:
			royals[1]++
		}
	})
	switch {
	case royals[0] > 0 && royals[1] == 0:
		return s.players[0], true
	case royals[1] > 0 && royals[0] == 0:
		return s.players[1], true
	}
	return "", false
}
