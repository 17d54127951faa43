package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/consensus_chess/internal/game"
	"example.com/consensus_chess/internal/rules"
)

func TestSymbolFor(t *testing.T) {
	catalog := rules.StandardCatalog()

	t.Run("empty square", func(t *testing.T) {
		assert.Equal(t, ".", symbolFor(nil, catalog, "a"))
	})

	t.Run("case follows owner", func(t *testing.T) {
		knight, ok := catalog.Get("Knight")
		require.True(t, ok)
		up := symbolFor(&game.Piece{Type: "Knight", Owner: "a"}, catalog, "a")
		down := symbolFor(&game.Piece{Type: "Knight", Owner: "b"}, catalog, "a")
		assert.Equal(t, strings.ToUpper(knight.Symbol), up)
		assert.Equal(t, strings.ToLower(knight.Symbol), down)
	})

	t.Run("unknown type falls back to its initial", func(t *testing.T) {
		assert.Equal(t, "d", symbolFor(&game.Piece{Type: "Dragon", Owner: "b"}, catalog, "a"))
		assert.Equal(t, "D", symbolFor(&game.Piece{Type: "Dragon", Owner: "a"}, nil, "a"))
		assert.Equal(t, "É", symbolFor(&game.Piece{Type: "Élan", Owner: "a"}, nil, "a"))
		assert.Equal(t, "é", symbolFor(&game.Piece{Type: "Élan", Owner: "b"}, nil, "a"))
	})
}

func TestBoardString(t *testing.T) {
	b := game.OpeningBoard("a", "b")
	out := boardString(b, rules.StandardCatalog(), "a")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, rules.BoardSize+1)

	pawn, _ := rules.StandardCatalog().Get(rules.Pawn)
	upper, lower := strings.ToUpper(pawn.Symbol), strings.ToLower(pawn.Symbol)

	assert.Equal(t, "7  . . . . . . . .", lines[0])
	assert.Equal(t, "6  "+strings.Repeat(" "+lower, 8)[1:], lines[1])
	assert.Equal(t, "1  "+strings.Repeat(" "+upper, 8)[1:], lines[6])
	assert.Equal(t, "   0 1 2 3 4 5 6 7", lines[8])
}
