package rules

// Occupancy answers whether a square holds a piece. Evaluate only needs it
// to check slide paths.
type Occupancy interface {
	Occupied(sq Square) bool
}

// OccupancyFunc adapts a function to Occupancy.
type OccupancyFunc func(sq Square) bool

func (f OccupancyFunc) Occupied(sq Square) bool { return f(sq) }

// ForwardSign is the y direction a player considers forward.
func ForwardSign(firstPlayer bool) int {
	if firstPlayer {
		return 1
	}
	return -1
}

// Evaluate reports whether rule permits moving from one square to another.
// The first capability that accepts the delta wins. A zero move is never
// permitted, and neither is a move with an end off the board.
func Evaluate(rule PieceRule, from, to Square, firstPlayer bool, board Occupancy) bool {
	if !from.InBounds() || !to.InBounds() {
		return false
	}
	dx, dy := to.X-from.X, to.Y-from.Y
	if dx == 0 && dy == 0 {
		return false
	}
	for _, c := range rule.Capabilities {
		switch c := c.(type) {
		case Slide:
			if c.allows(from, dx, dy, firstPlayer, board) {
				return true
			}
		case Leap:
			if c.allows(dx, dy) {
				return true
			}
		}
	}
	return false
}

func (s Slide) allows(from Square, dx, dy int, firstPlayer bool, board Occupancy) bool {
	if s.OnlyForward && dy != 0 && sign(dy) != ForwardSign(firstPlayer) {
		return false
	}
	if !s.Pattern.matches(dx, dy) {
		return false
	}
	if s.Range > 0 && max(abs(dx), abs(dy)) > s.Range {
		return false
	}
	if s.CanJump {
		return true
	}
	return pathClear(from, dx, dy, board)
}

func (l Leap) allows(dx, dy int) bool {
	for _, o := range l.Offsets {
		if o.DX == dx && o.DY == dy {
			return true
		}
	}
	return false
}

func (p Pattern) matches(dx, dy int) bool {
	straight := dx == 0 || dy == 0
	diagonal := abs(dx) == abs(dy)
	switch p {
	case FrontBack:
		return straight
	case Diagonal:
		return diagonal
	case Omni:
		return straight || diagonal
	}
	return false
}

// pathClear walks the squares strictly between from and from+(dx,dy).
// Deltas that are neither straight nor diagonal have no path and pass.
func pathClear(from Square, dx, dy int, board Occupancy) bool {
	if dx != 0 && dy != 0 && abs(dx) != abs(dy) {
		return true
	}
	stepX, stepY := sign(dx), sign(dy)
	steps := max(abs(dx), abs(dy))
	for i := 1; i < steps; i++ {
		sq := Square{X: from.X + i*stepX, Y: from.Y + i*stepY}
		if board != nil && board.Occupied(sq) {
			return false
		}
	}
	return true
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
