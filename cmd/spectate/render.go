package main

import (
	"strings"
	"unicode/utf8"

	"github.com/pterm/pterm"

	"example.com/consensus_chess/internal/game"
	"example.com/consensus_chess/internal/match"
	"example.com/consensus_chess/internal/rules"
)

// symbolFor returns the glyph for a piece, upper case for the first player
// and lower case for the second.
func symbolFor(p *game.Piece, catalog *rules.Catalog, first game.PlayerID) string {
	if p == nil {
		return "."
	}
	sym := ""
	if catalog != nil {
		if r, ok := catalog.Get(p.Type); ok {
			sym = r.Symbol
		}
	}
	if sym == "" && p.Type != "" {
		r, _ := utf8.DecodeRuneInString(p.Type)
		sym = string(r)
	}
	if sym == "" {
		sym = "?"
	}
	if p.Owner == first {
		return strings.ToUpper(sym)
	}
	return strings.ToLower(sym)
}

// boardString draws the board with y=7 on top so the first player's side is
// at the bottom.
func boardString(b game.Board, catalog *rules.Catalog, first game.PlayerID) string {
	var sb strings.Builder
	for y := rules.BoardSize - 1; y >= 0; y-- {
		sb.WriteByte(byte('0' + y))
		sb.WriteString(" ")
		for x := 0; x < rules.BoardSize; x++ {
			sb.WriteString(" ")
			sb.WriteString(symbolFor(b[y][x], catalog, first))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  ")
	for x := 0; x < rules.BoardSize; x++ {
		sb.WriteString(" ")
		sb.WriteByte(byte('0' + x))
	}
	return sb.String()
}

func statusLine(s match.StatePayload) string {
	var sb strings.Builder
	sb.WriteString(pterm.Sprintfln("%s vs %s",
		pterm.LightCyan(s.PlayerNames[0]), pterm.LightRed(s.PlayerNames[1])))
	turn := s.PlayerNames[0]
	if s.CurrentTurn == s.Players[1] {
		turn = s.PlayerNames[1]
	}
	switch s.Status.Phase {
	case match.Finished:
		winner := "nobody"
		if s.Status.Winner == s.Players[0] {
			winner = s.PlayerNames[0]
		} else if s.Status.Winner == s.Players[1] {
			winner = s.PlayerNames[1]
		}
		sb.WriteString(pterm.Sprintfln("Finished, winner: %s", pterm.LightGreen(winner)))
	default:
		sb.WriteString(pterm.Sprintfln("To move: %s", pterm.LightYellow(turn)))
	}
	sb.WriteString(pterm.Sprintfln("Disagreements: %d/%d", s.DisagreementCount, s.DisagreementThreshold))
	if s.PendingProposal != nil {
		sb.WriteString(pterm.Sprintfln("Pending rule: %s", s.PendingProposal.Rule.Name))
	}
	if s.Catalog != nil {
		sb.WriteString(pterm.Sprintfln("Pieces: %s", strings.Join(s.Catalog.Names(), ", ")))
	}
	return sb.String()
}

func printState(s match.StatePayload) error {
	pbox := pterm.DefaultBox.WithLeftPadding(2).WithRightPadding(2).WithTopPadding(1).WithBottomPadding(1)
	board := pterm.Panel{Data: pbox.WithTitle(pterm.LightYellow("|BOARD|")).WithTitleTopCenter().
		Sprint(boardString(s.Board, s.Catalog, s.Players[0]))}
	info := pterm.Panel{Data: pbox.WithTitle(pterm.LightGreen("|MATCH|")).WithTitleTopCenter().
		Sprint(statusLine(s))}
	return pterm.DefaultPanel.WithPanels([][]pterm.Panel{{board, info}}).Render()
}
