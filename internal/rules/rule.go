// Package rules describes piece movement as data: a catalog of piece rules,
// each a list of movement capabilities, and the evaluator that decides
// whether a single move is permitted by a rule.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BoardSize is the width and height of the board.
const BoardSize = 8

// Square is a board coordinate. It encodes as a two element array [x, y].
type Square struct {
	X int
	Y int
}

// InBounds reports whether the square lies on the board.
func (s Square) InBounds() bool {
	return s.X >= 0 && s.X < BoardSize && s.Y >= 0 && s.Y < BoardSize
}

func (s Square) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.X, s.Y})
}

func (s *Square) UnmarshalJSON(data []byte) error {
	x, y, err := decodePair(data)
	if err != nil {
		return fmt.Errorf("square: %w", err)
	}
	s.X, s.Y = x, y
	return nil
}

// decodePair reads a JSON array of exactly two integers.
func decodePair(data []byte) (int, int, error) {
	var xy []int
	if err := json.Unmarshal(data, &xy); err != nil {
		return 0, 0, err
	}
	if len(xy) != 2 {
		return 0, 0, fmt.Errorf("want 2 coordinates, got %d", len(xy))
	}
	return xy[0], xy[1], nil
}

// Pattern is the set of directions a slide may follow.
type Pattern string

const (
	FrontBack Pattern = "linear"
	Diagonal  Pattern = "diagonal"
	Omni      Pattern = "omni"
)

// ParsePattern accepts the wire names of a slide pattern, including the
// front_back alias of linear.
func ParsePattern(s string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "front_back", "frontback":
		return FrontBack, nil
	case "diagonal":
		return Diagonal, nil
	case "omni":
		return Omni, nil
	}
	return "", fmt.Errorf("unknown slide pattern %q", s)
}

// Kind tags a capability on the wire.
type Kind string

const (
	KindSlide Kind = "slide"
	KindLeap  Kind = "leap"
)

// Capability is one way a piece may move. Slide and Leap are the only
// implementations.
type Capability interface {
	Kind() Kind
	validate() error
}

// Slide moves continuously along a pattern. Range 0 means unbounded.
type Slide struct {
	Pattern     Pattern
	Range       int
	CanJump     bool
	OnlyForward bool
}

func (Slide) Kind() Kind { return KindSlide }

func (s Slide) validate() error {
	switch s.Pattern {
	case FrontBack, Diagonal, Omni:
	default:
		return fmt.Errorf("unknown slide pattern %q", s.Pattern)
	}
	if s.Range < 0 {
		return fmt.Errorf("slide range must not be negative, got %d", s.Range)
	}
	return nil
}

// Offset is a relative jump (dx, dy). It encodes as [dx, dy].
type Offset struct {
	DX int
	DY int
}

func (o Offset) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{o.DX, o.DY})
}

func (o *Offset) UnmarshalJSON(data []byte) error {
	dx, dy, err := decodePair(data)
	if err != nil {
		return fmt.Errorf("offset: %w", err)
	}
	o.DX, o.DY = dx, dy
	return nil
}

// Leap jumps to any of a fixed set of offsets regardless of what lies between.
type Leap struct {
	Offsets []Offset
}

func (Leap) Kind() Kind { return KindLeap }

func (l Leap) validate() error {
	if len(l.Offsets) == 0 {
		return errors.New("leap needs at least one offset")
	}
	return nil
}

// PieceRule is the complete movement definition of a piece type.
type PieceRule struct {
	Name         string
	Symbol       string
	Capabilities []Capability
	IsRoyal      bool
}

// Validate checks that the rule can be installed in a catalog.
func (r PieceRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("rule name is required")
	}
	if len(r.Capabilities) == 0 {
		return fmt.Errorf("rule %q has no capabilities", r.Name)
	}
	for i, c := range r.Capabilities {
		if c == nil {
			return fmt.Errorf("rule %q capability %d is empty", r.Name, i)
		}
		if err := c.validate(); err != nil {
			return fmt.Errorf("rule %q capability %d: %w", r.Name, i, err)
		}
	}
	return nil
}

type wireRule struct {
	Name         string           `json:"name"`
	Symbol       string           `json:"symbol"`
	Capabilities []wireCapability `json:"capabilities"`
	IsRoyal      bool             `json:"is_royal"`
}

// wireCapability is the flat tagged form of a capability.
type wireCapability struct {
	Kind        Kind     `json:"kind"`
	Pattern     string   `json:"pattern,omitempty"`
	Range       int      `json:"range"`
	CanJump     bool     `json:"can_jump"`
	OnlyForward bool     `json:"only_forward"`
	Offsets     []Offset `json:"offsets,omitempty"`
}

func (r PieceRule) MarshalJSON() ([]byte, error) {
	w := wireRule{
		Name:         r.Name,
		Symbol:       r.Symbol,
		Capabilities: make([]wireCapability, 0, len(r.Capabilities)),
		IsRoyal:      r.IsRoyal,
	}
	for _, c := range r.Capabilities {
		switch c := c.(type) {
		case Slide:
			w.Capabilities = append(w.Capabilities, wireCapability{
				Kind:        KindSlide,
				Pattern:     string(c.Pattern),
				Range:       c.Range,
				CanJump:     c.CanJump,
				OnlyForward: c.OnlyForward,
			})
		case Leap:
			w.Capabilities = append(w.Capabilities, wireCapability{Kind: KindLeap, Offsets: c.Offsets})
		default:
			return nil, fmt.Errorf("rule %q: unsupported capability %T", r.Name, c)
		}
	}
	return json.Marshal(w)
}

func (r *PieceRule) UnmarshalJSON(data []byte) error {
	var w wireRule
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	caps := make([]Capability, 0, len(w.Capabilities))
	for i, wc := range w.Capabilities {
		switch wc.Kind {
		case KindSlide:
			p, err := ParsePattern(wc.Pattern)
			if err != nil {
				return fmt.Errorf("capability %d: %w", i, err)
			}
			caps = append(caps, Slide{Pattern: p, Range: wc.Range, CanJump: wc.CanJump, OnlyForward: wc.OnlyForward})
		case KindLeap:
			caps = append(caps, Leap{Offsets: wc.Offsets})
		default:
			return fmt.Errorf("capability %d: unknown kind %q", i, wc.Kind)
		}
	}
	*r = PieceRule{Name: w.Name, Symbol: w.Symbol, Capabilities: caps, IsRoyal: w.IsRoyal}
	return nil
}

// clone copies the capability list so catalog entries never share slices
// with callers.
func (r PieceRule) clone() PieceRule {
	out := r
	out.Capabilities = make([]Capability, len(r.Capabilities))
	for i, c := range r.Capabilities {
		if l, ok := c.(Leap); ok {
			l.Offsets = append([]Offset(nil), l.Offsets...)
			c = l
		}
		out.Capabilities[i] = c
	}
	return out
}
