// Package match runs one game as an actor: a single goroutine owns the
// board, the rule catalog, the vote and the roster, and everything else talks
// to it by sending commands over a bounded queue.
//
// Commands are applied strictly in arrival order, so two moves, proposals or
// votes are never evaluated at the same time. Each command carries a reply
// channel that receives exactly one value. Successful state changes are also
// published as events for every connected observer.
package match

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"example.com/consensus_chess/internal/consensus"
	"example.com/consensus_chess/internal/events"
	"example.com/consensus_chess/internal/game"
	"example.com/consensus_chess/internal/logging"
	"example.com/consensus_chess/internal/rules"
)

// ErrActorStopped is returned to callers once the actor's Run loop has
// exited. It is not retryable.
var ErrActorStopped = errors.New("match actor stopped")

// ErrAlreadyRunning is returned by Run when the actor already has a consumer.
var ErrAlreadyRunning = errors.New("match actor already running")

// DefaultQueueSize is the command queue capacity used when none is given.
const DefaultQueueSize = 100

// Publisher receives the events an actor emits. *events.Bus implements it.
type Publisher interface {
	Publish(events.Event)
}

// Options configures an Actor.
type Options struct {
	// Catalog is the rule set the match starts with. It is cloned; nil
	// means rules.StandardCatalog.
	Catalog *rules.Catalog
	// Threshold is the number of rejected votes before a proposal is forced.
	Threshold int
	// QueueSize bounds the command queue. Senders block while it is full.
	QueueSize int
	Publisher Publisher
	Logger    *zap.Logger
	// NewID mints player identities. Defaults to random UUIDs.
	NewID func() game.PlayerID
}

// Actor owns one match. Create it with New and start it with Run.
type Actor struct {
	cmds    chan command
	done    chan struct{}
	running atomic.Bool

	pub       Publisher
	log       *zap.Logger
	newID     func() game.PlayerID
	catalog   *rules.Catalog
	threshold int

	// Owned by the Run goroutine.
	state     *game.State
	consensus *consensus.Manager
	roster    roster
	status    Status
}

// New returns an actor waiting for players.
func New(opts Options) *Actor {
	catalog := rules.StandardCatalog()
	if opts.Catalog != nil {
		catalog = opts.Catalog.Clone()
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Threshold < 1 {
		opts.Threshold = consensus.DefaultThreshold
	}
	if opts.Publisher == nil {
		opts.Publisher = discard{}
	}
	if opts.NewID == nil {
		opts.NewID = newPlayerID
	}
	return &Actor{
		cmds:      make(chan command, opts.QueueSize),
		done:      make(chan struct{}),
		pub:       opts.Publisher,
		log:       logging.OrNop(opts.Logger),
		newID:     opts.NewID,
		catalog:   catalog,
		threshold: opts.Threshold,
		status:    Status{Phase: WaitingForPlayers},
	}
}

type discard struct{}

func (discard) Publish(events.Event) {}

// Run consumes commands until ctx is cancelled. Pending callers then
// observe ErrActorStopped. Run may only be called once.
func (a *Actor) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-a.cmds:
			a.dispatch(cmd)
		}
	}
}

// Done is closed when Run returns.
func (a *Actor) Done() <-chan struct{} { return a.done }

// Join registers a player by display name and returns their identity.
func (a *Actor) Join(ctx context.Context, name string) (game.PlayerID, error) {
	reply := make(chan joinResult, 1)
	if err := a.send(ctx, joinCmd{name: name, reply: reply}); err != nil {
		return "", err
	}
	res, err := await(ctx, a, reply)
	if err != nil {
		return "", err
	}
	return res.id, res.err
}

// MakeMove moves player's piece from one square to another.
func (a *Actor) MakeMove(ctx context.Context, player game.PlayerID, from, to rules.Square) error {
	return a.call(ctx, func(reply chan error) command {
		return moveCmd{player: player, from: from, to: to, reply: reply}
	})
}

// ProposeRule puts a new or replacement piece rule up for a vote.
func (a *Actor) ProposeRule(ctx context.Context, player game.PlayerID, rule rules.PieceRule) error {
	return a.call(ctx, func(reply chan error) command {
		return proposeCmd{player: player, rule: rule, reply: reply}
	})
}

// CastVote accepts or rejects the pending proposal.
func (a *Actor) CastVote(ctx context.Context, player game.PlayerID, accept bool) error {
	return a.call(ctx, func(reply chan error) command {
		return voteCmd{player: player, accept: accept, reply: reply}
	})
}

// SpawnPiece places a piece for player without any movement check. It is a
// debugging aid for trying out new rules.
func (a *Actor) SpawnPiece(ctx context.Context, player game.PlayerID, typeName string, at rules.Square) error {
	return a.call(ctx, func(reply chan error) command {
		return spawnCmd{player: player, typeName: typeName, at: at, reply: reply}
	})
}

// GetState returns a snapshot of the match.
func (a *Actor) GetState(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := a.send(ctx, stateCmd{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	return await(ctx, a, reply)
}

func (a *Actor) call(ctx context.Context, build func(chan error) command) error {
	reply := make(chan error, 1)
	if err := a.send(ctx, build(reply)); err != nil {
		return err
	}
	res, err := await(ctx, a, reply)
	if err != nil {
		return err
	}
	return res
}

// send enqueues cmd, blocking while the queue is full.
func (a *Actor) send(ctx context.Context, cmd command) error {
	select {
	case <-a.done:
		return ErrActorStopped
	default:
	}
	select {
	case a.cmds <- cmd:
		return nil
	case <-a.done:
		return ErrActorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// await waits for the single reply to a command. A reply that raced with
// shutdown is still delivered.
func await[T any](ctx context.Context, a *Actor, reply <-chan T) (T, error) {
	var zero T
	select {
	case res := <-reply:
		return res, nil
	case <-a.done:
		select {
		case res := <-reply:
			return res, nil
		default:
			return zero, ErrActorStopped
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
