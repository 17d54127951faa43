package consensus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/consensus_chess/internal/game"
	"example.com/consensus_chess/internal/rules"
)

const (
	alice game.PlayerID = "alice-id"
	bob   game.PlayerID = "bob-id"
)

func dragon(rangeN int) rules.PieceRule {
	return rules.PieceRule{
		Name:         "Dragon",
		Symbol:       "D",
		Capabilities: []rules.Capability{rules.Slide{Pattern: rules.Omni, Range: rangeN}},
	}
}

func catalogJSON(t *testing.T, c *rules.Catalog) string {
	t.Helper()
	data, err := json.Marshal(c)
	require.NoError(t, err)
	return string(data)
}

func TestNew(t *testing.T) {
	m := New(rules.StandardCatalog(), 0)
	assert.Equal(t, DefaultThreshold, m.Threshold())
	assert.Equal(t, Idle, m.Phase())
	assert.Equal(t, 0, m.Disagreements())

	_, ok := m.Pending()
	assert.False(t, ok)
}

func TestProposeAndAccept(t *testing.T) {
	catalog := rules.StandardCatalog()
	m := New(catalog, 3)

	res, err := m.Propose(alice, dragon(2))
	require.NoError(t, err)
	assert.Equal(t, VoteRequested, res)
	assert.Equal(t, ProposalPending, m.Phase())
	assert.False(t, catalog.Has("Dragon"), "nothing installed before the vote")

	p, ok := m.Pending()
	require.True(t, ok)
	assert.Equal(t, alice, p.Proposer)

	res, decided, err := m.Vote(bob, true)
	require.NoError(t, err)
	assert.Equal(t, Accepted, res)
	assert.Equal(t, "Dragon", decided.Rule.Name)
	assert.True(t, catalog.Has("Dragon"))
	assert.Equal(t, Idle, m.Phase())
	assert.Equal(t, 0, m.Disagreements())
}

func TestProposeWhilePending(t *testing.T) {
	m := New(rules.StandardCatalog(), 3)
	_, err := m.Propose(alice, dragon(1))
	require.NoError(t, err)

	_, err = m.Propose(bob, dragon(2))
	require.ErrorIs(t, err, game.ErrViolatesRule)
	assert.Equal(t, "vote in progress", err.Error())

	p, _ := m.Pending()
	assert.Equal(t, alice, p.Proposer, "pending proposal kept")
}

func TestVoteWithoutProposal(t *testing.T) {
	m := New(rules.StandardCatalog(), 3)
	_, _, err := m.Vote(bob, true)
	require.ErrorIs(t, err, game.ErrViolatesRule)
	assert.Equal(t, "no vote in progress", err.Error())
}

func TestSelfVoteRejected(t *testing.T) {
	catalog := rules.StandardCatalog()
	m := New(catalog, 3)
	_, err := m.Propose(alice, dragon(1))
	require.NoError(t, err)
	before := catalogJSON(t, catalog)

	for _, accept := range []bool{true, false} {
		_, _, err = m.Vote(alice, accept)
		assert.ErrorIs(t, err, game.ErrViolatesRule)
	}

	p, ok := m.Pending()
	require.True(t, ok)
	assert.Equal(t, alice, p.Proposer)
	assert.Equal(t, 0, m.Disagreements())
	assert.Equal(t, before, catalogJSON(t, catalog))
}

func TestRejectCountsDisagreement(t *testing.T) {
	catalog := rules.StandardCatalog()
	m := New(catalog, 3)
	_, err := m.Propose(alice, dragon(1))
	require.NoError(t, err)

	res, decided, err := m.Vote(bob, false)
	require.NoError(t, err)
	assert.Equal(t, Rejected, res)
	assert.Equal(t, "Dragon", decided.Rule.Name)
	assert.Equal(t, 1, m.Disagreements())
	assert.Equal(t, Idle, m.Phase())
	assert.False(t, catalog.Has("Dragon"))
}

func TestForcedAcceptanceAfterThreshold(t *testing.T) {
	catalog := rules.StandardCatalog()
	m := New(catalog, 3)

	for i := 0; i < 3; i++ {
		proposer, voter := alice, bob
		if i%2 == 1 {
			proposer, voter = bob, alice
		}
		res, err := m.Propose(proposer, dragon(i+1))
		require.NoError(t, err)
		require.Equal(t, VoteRequested, res)
		res, _, err = m.Vote(voter, false)
		require.NoError(t, err)
		require.Equal(t, Rejected, res)
	}
	assert.Equal(t, 3, m.Disagreements())
	assert.False(t, catalog.Has("Dragon"))

	res, err := m.Propose(alice, dragon(7))
	require.NoError(t, err)
	assert.Equal(t, Forced, res)
	assert.Equal(t, Idle, m.Phase())
	assert.Equal(t, 0, m.Disagreements())

	got, ok := catalog.Get("Dragon")
	require.True(t, ok)
	assert.Equal(t, 7, got.Capabilities[0].(rules.Slide).Range)

	// Back to normal voting.
	res, err = m.Propose(bob, dragon(1))
	require.NoError(t, err)
	assert.Equal(t, VoteRequested, res)
}

func TestAcceptResetsDisagreements(t *testing.T) {
	m := New(rules.StandardCatalog(), 3)
	for i := 0; i < 2; i++ {
		_, err := m.Propose(alice, dragon(1))
		require.NoError(t, err)
		_, _, err = m.Vote(bob, false)
		require.NoError(t, err)
	}
	require.Equal(t, 2, m.Disagreements())

	_, err := m.Propose(alice, dragon(1))
	require.NoError(t, err)
	_, _, err = m.Vote(bob, true)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Disagreements())
}

func TestReplaceExistingRule(t *testing.T) {
	catalog := rules.StandardCatalog()
	m := New(catalog, 3)

	fastPawn := rules.PieceRule{Name: rules.Pawn, Symbol: "P", Capabilities: []rules.Capability{
		rules.Slide{Pattern: rules.FrontBack, Range: 2, OnlyForward: true},
	}}
	_, err := m.Propose(bob, fastPawn)
	require.NoError(t, err)
	_, _, err = m.Vote(alice, true)
	require.NoError(t, err)

	got, _ := catalog.Get(rules.Pawn)
	assert.Equal(t, 2, got.Capabilities[0].(rules.Slide).Range)
}

func TestInvalidRuleRejectedWithoutTransition(t *testing.T) {
	catalog := rules.StandardCatalog()
	m := New(catalog, 1)
	_, err := m.Propose(alice, dragon(1))
	require.NoError(t, err)
	_, _, err = m.Vote(bob, false)
	require.NoError(t, err)
	require.Equal(t, 1, m.Disagreements())

	_, err = m.Propose(alice, rules.PieceRule{Name: "Empty"})
	assert.ErrorIs(t, err, game.ErrViolatesRule)
	assert.Equal(t, 1, m.Disagreements(), "forced path not taken for invalid rule")
	assert.False(t, catalog.Has("Empty"))
	assert.Equal(t, Idle, m.Phase())
}
