// Package ws exposes matches over websockets. Each socket attaches to one
// match, receives that match's events and may join it as a player.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"

	"example.com/consensus_chess/internal/events"
	"example.com/consensus_chess/internal/game"
	"example.com/consensus_chess/internal/logging"
	"example.com/consensus_chess/internal/match"
	"example.com/consensus_chess/internal/rules"
)

// DefaultMatch is used when a socket does not name a match.
const DefaultMatch = "default"

// Options configures a Hub.
type Options struct {
	AllowOrigins     []string
	Catalog          *rules.Catalog
	Threshold        int
	QueueSize        int
	SubscriberBuffer int
	Logger           *zap.Logger
}

// room is one running match and the bus its events go out on.
type room struct {
	ID      string
	Created time.Time
	actor   *match.Actor
	bus     *events.Bus
}

// Hub owns the match registry. Matches are created on first use and run
// until the hub stops.
type Hub struct {
	allowOrigins map[string]bool
	opts         Options
	log          *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	roomsMu sync.Mutex
	rooms   map[string]*room
	stopped bool
}

func NewHub(opts Options) *Hub {
	m := map[string]bool{}
	for _, a := range opts.AllowOrigins {
		if a != "" {
			m[a] = true
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	return &Hub{
		allowOrigins: m,
		opts:         opts,
		log:          logging.OrNop(opts.Logger),
		ctx:          ctx,
		cancel:       cancel,
		group:        group,
		rooms:        map[string]*room{},
	}
}

// Run blocks until ctx is done, then stops every match and closes their
// buses so attached sockets drain and disconnect.
func (h *Hub) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-h.ctx.Done():
	}

	h.roomsMu.Lock()
	h.stopped = true
	h.roomsMu.Unlock()

	h.cancel()
	err := h.group.Wait()

	h.roomsMu.Lock()
	for _, r := range h.rooms {
		r.bus.Close()
	}
	h.roomsMu.Unlock()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// room returns the match with id, starting it if needed.
func (h *Hub) room(id string) (*room, error) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	if h.stopped {
		return nil, match.ErrActorStopped
	}
	if r, ok := h.rooms[id]; ok {
		return r, nil
	}

	bus := events.NewBus(h.opts.SubscriberBuffer)
	actor := match.New(match.Options{
		Catalog:   h.opts.Catalog,
		Threshold: h.opts.Threshold,
		QueueSize: h.opts.QueueSize,
		Publisher: bus,
		Logger:    h.log.With(zap.String("match", id)),
	})
	r := &room{ID: id, Created: time.Now(), actor: actor, bus: bus}
	h.rooms[id] = r
	h.group.Go(func() error { return actor.Run(h.ctx) })
	h.log.Info("match created", zap.String("match", id))
	return r, nil
}

// ---------- websockets ----------

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	matchID := r.URL.Query().Get("match")
	if matchID == "" {
		matchID = DefaultMatch
	}
	rm, err := h.room(matchID)
	if err != nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	// Subscribe before the handshake completes so no event published after
	// the client sees the upgrade is missed.
	sub := rm.bus.Subscribe()
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		sub.Close()
		return
	}

	client := newClient(c, h.log.With(zap.String("match", matchID)))
	ctx, cancel := context.WithCancel(r.Context())

	client.log.Info("client connected")

	// writer
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		client.writePump(ctx, sub)
	}()

	// reader
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		var in Msg
		if err := json.Unmarshal(data, &in); err != nil {
			client.log.Debug("dropping undecodable message", zap.Error(err))
			continue
		}
		out, ok := h.handle(ctx, client, rm, in)
		if !ok {
			continue
		}
		client.reply(ctx, out)
	}

	// disconnect
	cancel()
	wg.Wait()
	sub.Close()
	_ = c.Close(websocket.StatusNormalClosure, "bye")

	if d := sub.Dropped(); d > 0 {
		client.log.Warn("client missed events", zap.Uint64("dropped", d))
	}
	client.log.Info("client disconnected", zap.String("player_id", string(client.player)))
}

// handle turns a client message into an actor command. It reports false
// when the message is dropped without a reply.
func (h *Hub) handle(ctx context.Context, c *Client, rm *room, in Msg) (Msg, bool) {
	a := rm.actor

	switch in.Type {
	case TypeJoin:
		var p JoinPayload
		if !decode(c, in, &p) {
			return Msg{}, false
		}
		if c.player != "" {
			return errorMsg(game.ViolatesRule("already joined")), true
		}
		id, err := a.Join(ctx, p.Name)
		if err != nil {
			return errorMsg(err), true
		}
		c.player = id
		return outbound(TypeJoined, JoinedPayload{PlayerID: id}), true

	case TypeGetState:
		snap, err := a.GetState(ctx)
		if err != nil {
			return errorMsg(err), true
		}
		return outbound(TypeSnapshot, snap), true

	case TypeMove:
		var p MovePayload
		if !decode(c, in, &p) {
			return Msg{}, false
		}
		return h.result(c, in.Type, func(player game.PlayerID) error {
			return a.MakeMove(ctx, player, p.From, p.To)
		}), true

	case TypeProposeRule:
		var p ProposePayload
		if !decode(c, in, &p) {
			return Msg{}, false
		}
		return h.result(c, in.Type, func(player game.PlayerID) error {
			return a.ProposeRule(ctx, player, p.Rule)
		}), true

	case TypeVote:
		var p VotePayload
		if !decode(c, in, &p) {
			return Msg{}, false
		}
		return h.result(c, in.Type, func(player game.PlayerID) error {
			return a.CastVote(ctx, player, p.Accept)
		}), true

	case TypeSpawn:
		var p SpawnPayload
		if !decode(c, in, &p) {
			return Msg{}, false
		}
		return h.result(c, in.Type, func(player game.PlayerID) error {
			return a.SpawnPiece(ctx, player, p.Name, rules.Square{X: p.X, Y: p.Y})
		}), true
	}

	c.log.Debug("dropping unknown message", zap.String("type", in.Type))
	return Msg{}, false
}

// result runs a command that needs a joined player and builds its reply.
func (h *Hub) result(c *Client, command string, run func(game.PlayerID) error) Msg {
	if c.player == "" {
		return errorMsg(&game.Error{Code: game.CodeUnknownPlayer, Message: "join first"})
	}
	if err := run(c.player); err != nil {
		return errorMsg(err)
	}
	return outbound(TypeOK, OKPayload{Command: command})
}

func decode(c *Client, in Msg, v any) bool {
	if len(in.Payload) == 0 {
		c.log.Debug("dropping message without payload", zap.String("type", in.Type))
		return false
	}
	if err := json.Unmarshal(in.Payload, v); err != nil {
		c.log.Debug("dropping undecodable payload", zap.String("type", in.Type), zap.Error(err))
		return false
	}
	return true
}

// ---------- http ----------

// MatchInfo is one entry of the match listing.
type MatchInfo struct {
	ID      string       `json:"id"`
	Status  match.Status `json:"status"`
	Created time.Time    `json:"created"`
}

// Matches lists every match with its status, ordered by id.
func (h *Hub) Matches(ctx context.Context) []MatchInfo {
	h.roomsMu.Lock()
	rooms := make([]*room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.roomsMu.Unlock()

	list := make([]MatchInfo, 0, len(rooms))
	for _, r := range rooms {
		info := MatchInfo{ID: r.ID, Created: r.Created}
		if snap, err := r.actor.GetState(ctx); err == nil {
			info.Status = snap.Status
		}
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (h *Hub) ServeMatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.Matches(ctx))
}

func ServeHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Handler routes the websocket endpoint and the http endpoints.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/health", ServeHealth)
	mux.HandleFunc("/matches", h.ServeMatches)
	return mux
}
