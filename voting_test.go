package syscore

import (
	"fmt"
	"testing"

	"github.com/corechain/syscore/schema"
	"github.com/stretchr/testify/assert"
)

func TestStake2Vote(t *testing.T) {
	assert.Equal(t, float64(10000), stake2vote(10000, schema.VoteWeightEpoch))
	// the weight doubles every 52 weeks
	year := int64(52 * 7 * schema.SecondsPerDay)
	assert.InDelta(t, 20000, stake2vote(10000, schema.VoteWeightEpoch+year), 1e-6)
	assert.Greater(t, stake2vote(10000, testGenesis), stake2vote(10000, schema.VoteWeightEpoch))
}

func TestValidVoteList(t *testing.T) {
	assert.NoError(t, validVoteList("someproxy", nil))
	assert.NoError(t, validVoteList("", []string{"proda", "prodb"}))
	assert.NoError(t, validVoteList("", nil))

	assert.Equal(t, schema.ErrInvalidVoteList, validVoteList("someproxy", []string{"proda"}))
	assert.Equal(t, schema.ErrInvalidVoteList, validVoteList("", []string{"prodb", "proda"}))
	assert.Equal(t, schema.ErrInvalidVoteList, validVoteList("", []string{"proda", "proda"}))

	many := make([]string, 0, schema.MaxProducerVotes+1)
	for i := 0; i <= schema.MaxProducerVotes; i++ {
		many = append(many, fmt.Sprintf("prod%03d", i))
	}
	assert.Equal(t, schema.ErrInvalidVoteList, validVoteList("", many))
}

func TestRegProducer(t *testing.T) {
	s, l, _ := newTestCore(t)
	bootChain(t, s, l)

	assert.Equal(t, schema.ErrInvalidKey, s.RegProducer("proda", "", "https://a.example", 0))
	assert.NoError(t, s.RegProducer("proda", "PUBKEYA", "https://a.example", 7))

	p, err := s.wdb.GetProducer("proda")
	assert.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, "PUBKEYA", p.SigningKey)
	assert.Equal(t, uint16(7), p.Location)
	assert.Equal(t, testGenesis, p.LastClaimTime)

	assert.NoError(t, s.UnregProd("proda"))
	p, err = s.wdb.GetProducer("proda")
	assert.NoError(t, err)
	assert.False(t, p.IsActive)
	assert.Equal(t, "", p.SigningKey)

	assert.Equal(t, schema.ErrNotExist, s.RmvProducer("ghost"))
}

func TestVoteProducer(t *testing.T) {
	s, l, clock := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	assert.NoError(t, s.RegProducer("proda", "PUBKEYA", "", 0))
	assert.NoError(t, s.RegProducer("prodb", "PUBKEYB", "", 0))

	// no stake, no vote
	assert.Equal(t, schema.ErrInsufficientStake, s.VoteProducer("alice", "", []string{"proda"}))

	staked := int64(200_0000)
	assert.NoError(t, s.DelegateBW("alice", "alice", coreAsset(staked/2), coreAsset(staked/2), false))
	assert.NoError(t, s.VoteProducer("alice", "", []string{"proda", "prodb"}))

	weight := stake2vote(staked, clock.Now().Unix())
	for _, name := range []string{"proda", "prodb"} {
		p, err := s.wdb.GetProducer(name)
		assert.NoError(t, err)
		assert.InDelta(t, weight, p.TotalVotes, 1e-6)
	}
	v, err := s.wdb.GetVoter("alice")
	assert.NoError(t, err)
	assert.InDelta(t, weight, v.LastVoteWeight, 1e-6)

	g, err := s.wdb.GetGlobal()
	assert.NoError(t, err)
	assert.InDelta(t, 2*weight, g.TotalProducerVoteWeight, 1e-6)
	assert.Equal(t, staked, g.TotalActivatedStake)

	// narrowing the slate cancels the dropped producer's weight
	assert.NoError(t, s.VoteProducer("alice", "", []string{"proda"}))
	pb, err := s.wdb.GetProducer("prodb")
	assert.NoError(t, err)
	assert.InDelta(t, 0, pb.TotalVotes, 1e-6)

	// unknown and inactive producers are rejected
	assert.Equal(t, schema.ErrInvalidVoteList, s.VoteProducer("alice", "", []string{"ghost"}))
	assert.NoError(t, s.UnregProd("prodb"))
	assert.Equal(t, schema.ErrInvalidVoteList, s.VoteProducer("alice", "", []string{"proda", "prodb"}))
}

func TestDelegateRefreshesVote(t *testing.T) {
	s, l, clock := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	assert.NoError(t, s.RegProducer("proda", "PUBKEYA", "", 0))

	assert.NoError(t, s.DelegateBW("alice", "alice", coreAsset(100_0000), coreAsset(100_0000), false))
	assert.NoError(t, s.VoteProducer("alice", "", []string{"proda"}))

	// more stake lands on the producer without an explicit re-vote
	assert.NoError(t, s.DelegateBW("alice", "alice", coreAsset(50_0000), coreAsset(50_0000), false))
	p, err := s.wdb.GetProducer("proda")
	assert.NoError(t, err)
	assert.InDelta(t, stake2vote(300_0000, clock.Now().Unix()), p.TotalVotes, 1e-6)
}

func TestProxyVoting(t *testing.T) {
	s, l, clock := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	fundAccount(t, l, "bob", 1000_0000)
	assert.NoError(t, s.RegProducer("proda", "PUBKEYA", "", 0))

	assert.Equal(t, schema.ErrInsufficientStake, s.RegProxy("bob", true))

	bobStake := int64(100_0000)
	aliceStake := int64(200_0000)
	assert.NoError(t, s.DelegateBW("bob", "bob", coreAsset(bobStake/2), coreAsset(bobStake/2), false))
	assert.NoError(t, s.DelegateBW("alice", "alice", coreAsset(aliceStake/2), coreAsset(aliceStake/2), false))

	assert.NoError(t, s.RegProxy("bob", true))
	assert.Equal(t, schema.ErrNoEffect, s.RegProxy("bob", true))
	assert.NoError(t, s.VoteProducer("bob", "", []string{"proda"}))

	// voting through an unregistered proxy fails
	assert.Equal(t, schema.ErrUnregisteredProxy, s.VoteProducer("alice", "carol", nil))
	// self-proxy fails
	assert.Equal(t, schema.ErrInvalidVoteList, s.VoteProducer("alice", "alice", nil))

	assert.NoError(t, s.VoteProducer("alice", "bob", nil))

	now := clock.Now().Unix()
	aliceWeight := stake2vote(aliceStake, now)
	bob, err := s.wdb.GetVoter("bob")
	assert.NoError(t, err)
	assert.InDelta(t, aliceWeight, bob.ProxiedVoteWeight, 1e-6)

	p, err := s.wdb.GetProducer("proda")
	assert.NoError(t, err)
	assert.InDelta(t, stake2vote(bobStake, now)+aliceWeight, p.TotalVotes, 1e-6)

	// a delegator's stake change fans out through the proxy
	assert.NoError(t, s.DelegateBW("alice", "alice", coreAsset(50_0000), coreAsset(50_0000), false))
	p, err = s.wdb.GetProducer("proda")
	assert.NoError(t, err)
	assert.InDelta(t, stake2vote(bobStake, now)+stake2vote(aliceStake+100_0000, now), p.TotalVotes, 1e-6)

	// an account voting through a proxy cannot register as one
	assert.Equal(t, schema.ErrInvalidVoteList, s.RegProxy("alice", true))
	// and a proxy cannot itself vote through a proxy
	assert.Equal(t, schema.ErrInvalidVoteList, s.VoteProducer("bob", "alice", nil))

	// dropping the proxy returns the weight
	assert.NoError(t, s.VoteProducer("alice", "", nil))
	bob, err = s.wdb.GetVoter("bob")
	assert.NoError(t, err)
	assert.InDelta(t, 0, bob.ProxiedVoteWeight, 1e-6)
	p, err = s.wdb.GetProducer("proda")
	assert.NoError(t, err)
	assert.InDelta(t, stake2vote(bobStake, now), p.TotalVotes, 1e-6)
}
