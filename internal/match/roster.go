package match

import "example.com/consensus_chess/internal/game"

// Seats is the number of players in a match.
const Seats = 2

// seat is one joined player.
type seat struct {
	Name string
	ID   game.PlayerID
}

// roster lists players in join order; the first entry moves first.
type roster []seat

func (r roster) full() bool { return len(r) >= Seats }

func (r roster) hasName(name string) bool {
	for _, s := range r {
		if s.Name == name {
			return true
		}
	}
	return false
}

func (r roster) has(id game.PlayerID) bool {
	for _, s := range r {
		if s.ID == id {
			return true
		}
	}
	return false
}

// nameOf returns the display name for id, or "Unknown".
func (r roster) nameOf(id game.PlayerID) string {
	for _, s := range r {
		if s.ID == id {
			return s.Name
		}
	}
	return "Unknown"
}

func (r roster) names() []string {
	out := make([]string, len(r))
	for i, s := range r {
		out[i] = s.Name
	}
	return out
}
