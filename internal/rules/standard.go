package rules

// Pawn is the piece type the opening position is built from.
const Pawn = "Pawn"

// KnightOffsets are the eight L-shaped jumps.
var KnightOffsets = []Offset{
	{1, 2}, {2, 1}, {2, -1}, {1, -2},
	{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

// Standard returns the built-in rules a match starts with when no rule pack
// is configured.
func Standard() []PieceRule {
	return []PieceRule{
		{Name: Pawn, Symbol: "P", Capabilities: []Capability{
			Slide{Pattern: FrontBack, Range: 1, OnlyForward: true},
		}},
		{Name: "Rook", Symbol: "R", Capabilities: []Capability{
			Slide{Pattern: FrontBack},
		}},
		{Name: "Bishop", Symbol: "B", Capabilities: []Capability{
			Slide{Pattern: Diagonal},
		}},
		{Name: "Queen", Symbol: "Q", Capabilities: []Capability{
			Slide{Pattern: Omni},
		}},
		{Name: "Knight", Symbol: "N", Capabilities: []Capability{
			Leap{Offsets: append([]Offset(nil), KnightOffsets...)},
		}},
		{Name: "King", Symbol: "K", IsRoyal: true, Capabilities: []Capability{
			Slide{Pattern: Omni, Range: 1},
		}},
	}
}

// StandardCatalog returns a fresh catalog holding Standard rules.
func StandardCatalog() *Catalog {
	c, err := NewCatalog(Standard()...)
	if err != nil {
		panic("rules: invalid standard catalog: " + err.Error())
	}
	return c
}
