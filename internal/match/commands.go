package match

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/consensus_chess/internal/consensus"
	"example.com/consensus_chess/internal/events"
	"example.com/consensus_chess/internal/game"
	"example.com/consensus_chess/internal/rules"
)

type command interface{ isCommand() }

type joinResult struct {
	id  game.PlayerID
	err error
}

type joinCmd struct {
	name  string
	reply chan<- joinResult
}

type moveCmd struct {
	player   game.PlayerID
	from, to rules.Square
	reply    chan<- error
}

type proposeCmd struct {
	player game.PlayerID
	rule   rules.PieceRule
	reply  chan<- error
}

type voteCmd struct {
	player game.PlayerID
	accept bool
	reply  chan<- error
}

type spawnCmd struct {
	player   game.PlayerID
	typeName string
	at       rules.Square
	reply    chan<- error
}

type stateCmd struct {
	reply chan<- Snapshot
}

func (joinCmd) isCommand()    {}
func (moveCmd) isCommand()    {}
func (proposeCmd) isCommand() {}
func (voteCmd) isCommand()    {}
func (spawnCmd) isCommand()   {}
func (stateCmd) isCommand()   {}

func newPlayerID() game.PlayerID {
	return game.PlayerID(uuid.NewString())
}

func (a *Actor) dispatch(cmd command) {
	switch c := cmd.(type) {
	case joinCmd:
		id, err := a.handleJoin(c.name)
		c.reply <- joinResult{id: id, err: err}
	case moveCmd:
		c.reply <- a.handleMove(c.player, c.from, c.to)
	case proposeCmd:
		c.reply <- a.handlePropose(c.player, c.rule)
	case voteCmd:
		c.reply <- a.handleVote(c.player, c.accept)
	case spawnCmd:
		c.reply <- a.handleSpawn(c.player, c.typeName, c.at)
	case stateCmd:
		c.reply <- a.snapshot()
	}
}

func (a *Actor) handleJoin(name string) (game.PlayerID, error) {
	if a.status.Phase != WaitingForPlayers {
		return "", game.ErrGameAlreadyStarted
	}
	if a.roster.full() {
		return "", game.ErrGameFull
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", game.ErrInvalidName
	}
	if a.roster.hasName(name) {
		return "", game.ErrNameTaken
	}

	id := a.newID()
	a.roster = append(a.roster, seat{Name: name, ID: id})
	a.log.Info("player joined",
		zap.String("player", name),
		zap.String("player_id", string(id)),
		zap.Int("players", len(a.roster)))

	a.pub.Publish(events.Event{Type: events.TypeWaitingRoom, Payload: WaitingRoomPayload{
		Players: a.roster.names(),
		Needed:  Seats - len(a.roster),
	}})

	if a.roster.full() {
		first, second := a.roster[0], a.roster[1]
		a.state = game.NewState(first.ID, second.ID, a.catalog)
		a.consensus = consensus.New(a.state.Catalog(), a.threshold)
		a.status = Status{Phase: InProgress}
		a.log.Info("game starting",
			zap.String("first", first.Name),
			zap.String("second", second.Name))
		a.broadcastState()
	}
	return id, nil
}

// guard rejects commands from unknown players or outside a running match.
func (a *Actor) guard(player game.PlayerID) error {
	if a.state == nil {
		return game.ErrGameNotStarted
	}
	if !a.roster.has(player) {
		return game.ErrUnknownPlayer
	}
	if a.status.Phase == Finished {
		return game.ErrGameFinished
	}
	return nil
}

func (a *Actor) handleMove(player game.PlayerID, from, to rules.Square) error {
	if err := a.guard(player); err != nil {
		return err
	}
	if err := a.state.ApplyMove(player, from, to); err != nil {
		a.log.Debug("move rejected",
			zap.String("player_id", string(player)),
			zap.String("code", string(game.CodeOf(err))),
			zap.Error(err))
		return err
	}

	winner, over := a.state.CheckGameOver()
	if over {
		a.status = Status{Phase: Finished, Winner: winner}
		a.log.Info("game over", zap.String("winner", a.roster.nameOf(winner)))
	}
	a.broadcastState()
	if over {
		a.pub.Publish(events.Event{Type: events.TypeGameOver, Payload: GameOverPayload{
			Winner:     winner,
			WinnerName: a.roster.nameOf(winner),
		}})
	}
	return nil
}

func (a *Actor) handlePropose(player game.PlayerID, rule rules.PieceRule) error {
	if err := a.guard(player); err != nil {
		return err
	}
	res, err := a.consensus.Propose(player, rule)
	if err != nil {
		return err
	}

	switch res {
	case consensus.Forced:
		a.log.Info("disagreement threshold reached, rule forced",
			zap.String("rule", rule.Name),
			zap.String("proposer", a.roster.nameOf(player)))
		a.broadcastState()
		a.pub.Publish(events.Event{
			Type:    events.TypeConsensusForced,
			Payload: "Disagreement threshold reached: " + rule.Name + " installed without a vote",
		})
	case consensus.VoteRequested:
		a.log.Info("vote started", zap.String("rule", rule.Name), zap.String("proposer", a.roster.nameOf(player)))
		a.pub.Publish(events.Event{Type: events.TypeVoteRequested, Payload: VoteRequestedPayload{
			ProposerID:   player,
			ProposerName: a.roster.nameOf(player),
			Rule:         rule,
		}})
	}
	return nil
}

func (a *Actor) handleVote(player game.PlayerID, accept bool) error {
	if err := a.guard(player); err != nil {
		return err
	}
	res, decided, err := a.consensus.Vote(player, accept)
	if err != nil {
		return err
	}

	switch res {
	case consensus.Accepted:
		a.log.Info("rule accepted", zap.String("rule", decided.Rule.Name))
		a.broadcastState()
	case consensus.Rejected:
		a.log.Info("rule rejected",
			zap.String("rule", decided.Rule.Name),
			zap.Int("disagreements", a.consensus.Disagreements()))
		a.pub.Publish(events.Event{Type: events.TypeVoteRejected, Payload: VoteRejectedPayload{
			ProposerID:        decided.Proposer,
			Rule:              decided.Rule,
			DisagreementCount: a.consensus.Disagreements(),
			Threshold:         a.consensus.Threshold(),
		}})
	}
	return nil
}

func (a *Actor) handleSpawn(player game.PlayerID, typeName string, at rules.Square) error {
	if err := a.guard(player); err != nil {
		return err
	}
	if err := a.state.Spawn(player, typeName, at); err != nil {
		return err
	}
	a.log.Debug("piece spawned",
		zap.String("player_id", string(player)),
		zap.String("type", typeName),
		zap.Int("x", at.X),
		zap.Int("y", at.Y))
	a.broadcastState()
	return nil
}

func (a *Actor) snapshot() Snapshot {
	if a.state == nil {
		return Snapshot{Status: a.status}
	}
	players := a.state.Players()
	return Snapshot{
		Board:       a.state.Board(),
		CurrentTurn: a.state.Turn(),
		Player1:     players[0],
		Player2:     players[1],
		Status:      a.status,
	}
}

// broadcastState publishes the full state. The payload holds copies only.
func (a *Actor) broadcastState() {
	if a.state == nil {
		return
	}
	payload := StatePayload{
		Board:                 a.state.Board(),
		CurrentTurn:           a.state.Turn(),
		Players:               a.state.Players(),
		PlayerNames:           [2]string{a.roster[0].Name, a.roster[1].Name},
		Catalog:               a.state.Catalog().Clone(),
		Status:                a.status,
		DisagreementCount:     a.consensus.Disagreements(),
		DisagreementThreshold: a.consensus.Threshold(),
	}
	if p, ok := a.consensus.Pending(); ok {
		payload.PendingProposal = &p
	}
	a.pub.Publish(events.Event{Type: events.TypeState, Payload: payload})
}
