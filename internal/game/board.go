package game

import "example.com/consensus_chess/internal/rules"

// PlayerID is the opaque session identity the match assigns at join time.
type PlayerID string

// Piece is a piece on the board. Pieces are values; moving one replaces the
// cell contents rather than mutating the piece.
type Piece struct {
	Type  string   `json:"piece_type"`
	Owner PlayerID `json:"owner"`
}

// Board is indexed [y][x]. A nil cell is empty.
type Board [rules.BoardSize][rules.BoardSize]*Piece

// At returns the piece on sq, or nil. sq must be in bounds.
func (b *Board) At(sq rules.Square) *Piece {
	return b[sq.Y][sq.X]
}

func (b *Board) set(sq rules.Square, p *Piece) {
	b[sq.Y][sq.X] = p
}

// Occupied implements rules.Occupancy. Off-board squares are never occupied.
func (b *Board) Occupied(sq rules.Square) bool {
	return sq.InBounds() && b.At(sq) != nil
}

// Pieces calls fn for every occupied square, row by row.
func (b *Board) Pieces(fn func(sq rules.Square, p Piece)) {
	for y := range b {
		for x, p := range b[y] {
			if p != nil {
				fn(rules.Square{X: x, Y: y}, *p)
			}
		}
	}
}

// Count returns the number of pieces on the board.
func (b *Board) Count() int {
	n := 0
	b.Pieces(func(rules.Square, Piece) { n++ })
	return n
}

// OpeningBoard places a row of pawns for each player: the first player on
// y=1 and the second on y=6.
func OpeningBoard(first, second PlayerID) Board {
	var b Board
	for x := 0; x < rules.BoardSize; x++ {
		b[1][x] = &Piece{Type: rules.Pawn, Owner: first}
		b[rules.BoardSize-2][x] = &Piece{Type: rules.Pawn, Owner: second}
	}
	return b
}
