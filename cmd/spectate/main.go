// Command spectate follows a match in the terminal. With -name it also
// joins the match as a player.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"example.com/consensus_chess/internal/events"
	"example.com/consensus_chess/internal/match"
	"example.com/consensus_chess/internal/ws"
)

func main() {
	addr := flag.String("url", "ws://localhost:8080/ws", "server websocket url")
	matchID := flag.String("match", ws.DefaultMatch, "match id")
	name := flag.String("name", "", "join the match under this name")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *addr, *matchID, *name); err != nil && !errors.Is(err, context.Canceled) {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr, matchID, name string) error {
	u, err := url.Parse(addr)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("match", matchID)
	u.RawQuery = q.Encode()

	spinner, _ := pterm.DefaultSpinner.Start("Connecting to " + u.String())
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	spinner.Success("Watching match " + matchID)

	if name != "" {
		if err := send(ctx, conn, ws.TypeJoin, ws.JoinPayload{Name: name}); err != nil {
			return err
		}
	}

	for {
		var m ws.Msg
		if err := wsjson.Read(ctx, conn, &m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := show(m); err != nil {
			pterm.Warning.Printfln("cannot show %s: %v", m.Type, err)
		}
	}
}

func send(ctx context.Context, conn *websocket.Conn, typ string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, ws.Msg{Type: typ, Payload: data})
}

func show(m ws.Msg) error {
	switch m.Type {
	case events.TypeState:
		var s match.StatePayload
		if err := json.Unmarshal(m.Payload, &s); err != nil {
			return err
		}
		return printState(s)
	case events.TypeWaitingRoom:
		var p match.WaitingRoomPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return err
		}
		pterm.Info.Printfln("Waiting room: %v, %d more needed", p.Players, p.Needed)
	case events.TypeVoteRequested:
		var p match.VoteRequestedPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return err
		}
		pterm.Info.Printfln("%s proposes rule %s", p.ProposerName, p.Rule.Name)
	case events.TypeVoteRejected:
		var p match.VoteRejectedPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return err
		}
		pterm.Info.Printfln("Rule %s rejected (%d/%d)", p.Rule.Name, p.DisagreementCount, p.Threshold)
	case events.TypeConsensusForced:
		var text string
		if err := json.Unmarshal(m.Payload, &text); err != nil {
			return err
		}
		pterm.Warning.Println(text)
	case events.TypeGameOver:
		var p match.GameOverPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return err
		}
		pterm.Success.Printfln("Game over, winner: %s", p.WinnerName)
	case ws.TypeJoined:
		var p ws.JoinedPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return err
		}
		pterm.Success.Printfln("Joined as %s", p.PlayerID)
	case ws.TypeError:
		var p ws.ErrorPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return err
		}
		pterm.Error.Printfln("%s: %s", p.Code, p.Message)
	}
	return nil
}
