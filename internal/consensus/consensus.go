// Package consensus implements the two-player vote that amends a match's
// rule catalog.
//
// The manager is a two-state machine:
//
//	Idle            --propose-->            ProposalPending
//	ProposalPending --vote(accept|reject)-> Idle
//
// Every rejected vote bumps a disagreement counter. Once the counter reaches
// the threshold, the next proposal is installed immediately without a vote
// (a forced acceptance), which breaks deadlocks where the two players keep
// rejecting each other. Any acceptance resets the counter.
//
// The manager assumes exactly two participants: a single vote by the
// non-proposing player decides the outcome.
package consensus

import (
	"example.com/consensus_chess/internal/game"
	"example.com/consensus_chess/internal/rules"
)

// DefaultThreshold is the number of consecutive rejections that triggers a
// forced acceptance.
const DefaultThreshold = 3

// Phase is the manager state.
type Phase int

const (
	Idle Phase = iota
	ProposalPending
)

func (p Phase) String() string {
	if p == ProposalPending {
		return "proposal_pending"
	}
	return "idle"
}

// Result says what a successful Propose or Vote did.
type Result int

const (
	// VoteRequested means the proposal now awaits the other player's vote.
	VoteRequested Result = iota + 1
	// Forced means the rule was installed without a vote.
	Forced
	// Accepted means the pending rule was voted in.
	Accepted
	// Rejected means the pending rule was voted down.
	Rejected
)

// Proposal is a rule waiting for a vote.
type Proposal struct {
	Proposer game.PlayerID   `json:"proposer_id"`
	Rule     rules.PieceRule `json:"rule"`
}

// Manager runs the vote over a catalog it does not own. It is driven by the
// match actor and is not safe for concurrent use.
type Manager struct {
	catalog       *rules.Catalog
	threshold     int
	disagreements int
	phase         Phase
	pending       Proposal
}

// New returns an idle manager amending catalog. A threshold below one uses
// DefaultThreshold.
func New(catalog *rules.Catalog, threshold int) *Manager {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	return &Manager{catalog: catalog, threshold: threshold}
}

func (m *Manager) Phase() Phase { return m.phase }

func (m *Manager) Threshold() int { return m.threshold }

// Disagreements is the number of rejections since the last acceptance.
func (m *Manager) Disagreements() int { return m.disagreements }

// Pending returns the outstanding proposal, if any.
func (m *Manager) Pending() (Proposal, bool) {
	if m.phase != ProposalPending {
		return Proposal{}, false
	}
	return m.pending, true
}

// Propose offers rule on behalf of proposer. On error nothing changes.
func (m *Manager) Propose(proposer game.PlayerID, rule rules.PieceRule) (Result, error) {
	if err := rule.Validate(); err != nil {
		return 0, game.ViolatesRule("invalid rule: " + err.Error())
	}
	if m.disagreements >= m.threshold {
		if err := m.catalog.Put(rule); err != nil {
			return 0, game.ViolatesRule("invalid rule: " + err.Error())
		}
		m.disagreements = 0
		return Forced, nil
	}
	if m.phase == ProposalPending {
		return 0, game.ViolatesRule("vote in progress")
	}
	m.pending = Proposal{Proposer: proposer, Rule: rule}
	m.phase = ProposalPending
	return VoteRequested, nil
}

// Vote settles the pending proposal. The proposer may not vote on their own
// rule. The decided proposal is returned alongside the result.
func (m *Manager) Vote(voter game.PlayerID, accept bool) (Result, Proposal, error) {
	if m.phase != ProposalPending {
		return 0, Proposal{}, game.ViolatesRule("no vote in progress")
	}
	if voter == m.pending.Proposer {
		return 0, Proposal{}, game.ViolatesRule("cannot vote on own proposal")
	}
	decided := m.pending
	if accept {
		if err := m.catalog.Put(decided.Rule); err != nil {
			return 0, Proposal{}, game.ViolatesRule("invalid rule: " + err.Error())
		}
		m.disagreements = 0
	} else {
		m.disagreements++
	}
	m.pending = Proposal{}
	m.phase = Idle
	if accept {
		return Accepted, decided, nil
	}
	return Rejected, decided, nil
}
