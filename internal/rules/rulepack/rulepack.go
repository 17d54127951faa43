// Package rulepack loads piece rule catalogs from Lua scripts.
//
// A rule pack script returns a list of piece tables:
//
//	return {
//	  { name = "Pawn", symbol = "P", capabilities = {
//	      slide { pattern = "linear", range = 1, only_forward = true },
//	  } },
//	  { name = "Knight", symbol = "N", capabilities = {
//	      leap { {1, 2}, {2, 1}, {-1, 2}, {-2, 1} },
//	  } },
//	  { name = "King", symbol = "K", royal = true, capabilities = {
//	      slide { pattern = "omni", range = 1 },
//	  } },
//	}
//
// Scripts run with the base, table, string and math libraries only.
package rulepack

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"example.com/consensus_chess/internal/rules"
)

// ErrNoPawn is returned when a pack omits the piece type the opening
// position needs.
var ErrNoPawn = errors.New("rule pack must define " + rules.Pawn)

// LoadFile runs the Lua script at path and builds a catalog from its result.
func LoadFile(path string) (*rules.Catalog, error) {
	return load(func(L *lua.LState) error { return L.DoFile(path) })
}

// LoadString runs Lua source and builds a catalog from its result.
func LoadString(src string) (*rules.Catalog, error) {
	return load(func(L *lua.LState) error { return L.DoString(src) })
}

func load(run func(*lua.LState) error) (*rules.Catalog, error) {
	L := newState()
	defer L.Close()

	if err := run(L); err != nil {
		return nil, fmt.Errorf("run rule pack: %w", err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	list, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("rule pack must return a table, got %s", ret.Type())
	}
	pieces, err := decodePieces(list)
	if err != nil {
		return nil, err
	}
	catalog, err := rules.NewCatalog(pieces...)
	if err != nil {
		return nil, fmt.Errorf("rule pack: %w", err)
	}
	if !catalog.Has(rules.Pawn) {
		return nil, ErrNoPawn
	}
	return catalog, nil
}

func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			panic(err)
		}
	}
	// dofile and loadfile would let a pack reach the filesystem.
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)

	L.SetGlobal("slide", L.NewFunction(luaSlide))
	L.SetGlobal("leap", L.NewFunction(luaLeap))
	return L
}

// luaSlide tags an options table as a slide capability.
func luaSlide(L *lua.LState) int {
	opts := L.CheckTable(1)
	out := L.NewTable()
	opts.ForEach(func(k, v lua.LValue) { out.RawSet(k, v) })
	out.RawSetString("kind", lua.LString(rules.KindSlide))
	if out.RawGetString("pattern") == lua.LNil {
		out.RawSetString("pattern", lua.LString(rules.FrontBack))
	}
	L.Push(out)
	return 1
}

// luaLeap wraps a list of {dx, dy} pairs as a leap capability.
func luaLeap(L *lua.LState) int {
	offsets := L.CheckTable(1)
	out := L.NewTable()
	out.RawSetString("kind", lua.LString(rules.KindLeap))
	out.RawSetString("offsets", offsets)
	L.Push(out)
	return 1
}

func decodePieces(list *lua.LTable) ([]rules.PieceRule, error) {
	var out []rules.PieceRule
	for i := 1; i <= list.Len(); i++ {
		t, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("piece %d: expected table", i)
		}
		p, err := decodePiece(t)
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func decodePiece(t *lua.LTable) (rules.PieceRule, error) {
	p := rules.PieceRule{
		Name:    lua.LVAsString(t.RawGetString("name")),
		Symbol:  lua.LVAsString(t.RawGetString("symbol")),
		IsRoyal: lua.LVAsBool(t.RawGetString("royal")),
	}
	caps, ok := t.RawGetString("capabilities").(*lua.LTable)
	if !ok {
		return p, fmt.Errorf("%q: capabilities must be a table", p.Name)
	}
	for i := 1; i <= caps.Len(); i++ {
		ct, ok := caps.RawGetInt(i).(*lua.LTable)
		if !ok {
			return p, fmt.Errorf("%q capability %d: expected table", p.Name, i)
		}
		c, err := decodeCapability(ct)
		if err != nil {
			return p, fmt.Errorf("%q capability %d: %w", p.Name, i, err)
		}
		p.Capabilities = append(p.Capabilities, c)
	}
	return p, nil
}

func decodeCapability(t *lua.LTable) (rules.Capability, error) {
	switch kind := rules.Kind(lua.LVAsString(t.RawGetString("kind"))); kind {
	case rules.KindSlide:
		pattern, err := rules.ParsePattern(lua.LVAsString(t.RawGetString("pattern")))
		if err != nil {
			return nil, err
		}
		return rules.Slide{
			Pattern:     pattern,
			Range:       int(lua.LVAsNumber(t.RawGetString("range"))),
			CanJump:     lua.LVAsBool(t.RawGetString("can_jump")),
			OnlyForward: lua.LVAsBool(t.RawGetString("only_forward")),
		}, nil
	case rules.KindLeap:
		list, ok := t.RawGetString("offsets").(*lua.LTable)
		if !ok {
			return nil, errors.New("leap offsets must be a table")
		}
		var offsets []rules.Offset
		for i := 1; i <= list.Len(); i++ {
			pair, ok := list.RawGetInt(i).(*lua.LTable)
			if !ok || pair.Len() != 2 {
				return nil, fmt.Errorf("offset %d: expected {dx, dy}", i)
			}
			offsets = append(offsets, rules.Offset{
				DX: int(lua.LVAsNumber(pair.RawGetInt(1))),
				DY: int(lua.LVAsNumber(pair.RawGetInt(2))),
			})
		}
		return rules.Leap{Offsets: offsets}, nil
	default:
		return nil, fmt.Errorf("unknown capability kind %q", kind)
	}
}
