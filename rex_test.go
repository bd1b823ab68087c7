package syscore

import (
	"testing"
	"time"

	"github.com/corechain/syscore/schema"
	"github.com/stretchr/testify/assert"
)

func TestDepositWithdraw(t *testing.T) {
	s, l, _ := newTestCore(t)
	core := bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)

	assert.Equal(t, schema.ErrZeroOrNegativeAmount, s.Deposit("alice", coreAsset(0)))
	assert.Equal(t, schema.ErrSymbolMismatch, s.Deposit("alice", rexAsset(100)))

	assert.NoError(t, s.Deposit("alice", coreAsset(300_0000)))
	assert.Equal(t, int64(700_0000), l.Balance("alice", core).Amount)
	assert.Equal(t, int64(300_0000), l.Balance(RexAccount, core).Amount)

	fund, err := s.wdb.GetRexFund("alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(300_0000), fund.Balance)

	assert.Equal(t, schema.ErrInsufficientFunds, s.Withdraw("alice", coreAsset(300_0001)))
	assert.NoError(t, s.Withdraw("alice", coreAsset(100_0000)))
	assert.Equal(t, int64(800_0000), l.Balance("alice", core).Amount)

	fund, err = s.wdb.GetRexFund("alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(200_0000), fund.Balance)
}

func TestBuyRexFirstIssue(t *testing.T) {
	s, l, clock := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	assert.NoError(t, s.Deposit("alice", coreAsset(100_0000)))

	// buying rex requires a full vote or a proxy
	assert.Equal(t, schema.ErrVoteRequirement, s.BuyRex("alice", coreAsset(100_0000)))

	enableRexVoting(t, s, "alice")
	assert.NoError(t, s.BuyRex("alice", coreAsset(100_0000)))

	pool, err := s.wdb.GetRexPool()
	assert.NoError(t, err)
	assert.Equal(t, int64(100_0000)*schema.InitialRexRatio, pool.TotalRex)
	assert.Equal(t, int64(100_0000), pool.TotalLendable)
	assert.Equal(t, int64(100_0000), pool.TotalUnlent)
	assert.Equal(t, schema.InitialRentBalance, pool.TotalRent)
	assert.Equal(t, int64(0), pool.TotalLent)

	bal, err := s.wdb.GetRexBalance("alice")
	assert.NoError(t, err)
	assert.Equal(t, pool.TotalRex, bal.RexBalance)
	assert.Equal(t, int64(100_0000), bal.VoteStake)
	assert.Equal(t, int64(0), bal.MaturedRex)

	buckets := bal.MaturityBuckets()
	assert.Len(t, buckets, 1)
	assert.Equal(t, schema.RexMaturityDate(clock.Now().Unix()), buckets[0].Date)
	assert.Equal(t, bal.RexBalance, buckets[0].Amount)

	// the payment counts toward voting stake
	v, err := s.wdb.GetVoter("alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(100_0000), v.Staked)
}

func TestBuyRexPriceContinuity(t *testing.T) {
	s, l, _ := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	fundAccount(t, l, "bob", 1000_0000)
	enableRexVoting(t, s, "alice")
	enableRexVoting(t, s, "bob")

	assert.NoError(t, s.Deposit("alice", coreAsset(100_0000)))
	assert.NoError(t, s.BuyRex("alice", coreAsset(100_0000)))

	// a second buy at the same price gets a proportional share
	assert.NoError(t, s.Deposit("bob", coreAsset(50_0000)))
	assert.NoError(t, s.BuyRex("bob", coreAsset(50_0000)))

	bal, err := s.wdb.GetRexBalance("bob")
	assert.NoError(t, err)
	assert.Equal(t, int64(50_0000)*schema.InitialRexRatio, bal.RexBalance)

	pool, err := s.wdb.GetRexPool()
	assert.NoError(t, err)
	assert.Equal(t, int64(150_0000), pool.TotalLendable)
	assert.Equal(t, int64(150_0000)*schema.InitialRexRatio, pool.TotalRex)
}

func TestSellRexAfterMaturity(t *testing.T) {
	s, l, clock := newTestCore(t)
	core := bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	enableRexVoting(t, s, "alice")
	assert.NoError(t, s.Deposit("alice", coreAsset(100_0000)))
	assert.NoError(t, s.BuyRex("alice", coreAsset(100_0000)))
	rexTotal := int64(100_0000) * schema.InitialRexRatio

	// nothing matured yet
	assert.Equal(t, schema.ErrInsufficientFunds, s.SellRex("alice", rexAsset(rexTotal)))
	assert.Equal(t, schema.ErrSymbolMismatch, s.SellRex("alice", coreAsset(1)))

	clock.Advance(6 * 24 * time.Hour)
	assert.NoError(t, s.SellRex("alice", rexAsset(rexTotal)))

	pool, err := s.wdb.GetRexPool()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), pool.TotalRex)
	assert.Equal(t, int64(0), pool.TotalLendable)

	bal, err := s.wdb.GetRexBalance("alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), bal.RexBalance)
	assert.Equal(t, int64(0), bal.VoteStake)

	// proceeds landed in the fund at the original price
	fund, err := s.wdb.GetRexFund("alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(100_0000), fund.Balance)

	// and the vote stake unwound
	v, err := s.wdb.GetVoter("alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), v.Staked)

	assert.NoError(t, s.Withdraw("alice", coreAsset(100_0000)))
	assert.Equal(t, int64(1000_0000), l.Balance("alice", core).Amount)
}

func TestSellRexQueuesWhenIlliquid(t *testing.T) {
	s, l, clock := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	fundAccount(t, l, "bob", 2000_0000)
	enableRexVoting(t, s, "alice")
	assert.NoError(t, s.Deposit("alice", coreAsset(100_0000)))
	assert.NoError(t, s.BuyRex("alice", coreAsset(100_0000)))
	rexTotal := int64(100_0000) * schema.InitialRexRatio

	// rent out most of the idle liquidity
	assert.NoError(t, s.Deposit("bob", coreAsset(1000_0000)))
	assert.NoError(t, s.RentCPU("bob", "carol", coreAsset(900_0000), coreAsset(0)))

	pool, err := s.wdb.GetRexPool()
	assert.NoError(t, err)
	assert.Equal(t, int64(10_0000), pool.TotalUnlent)
	assert.Equal(t, int64(90_0000), pool.TotalLent)

	clock.Advance(6 * 24 * time.Hour)
	assert.NoError(t, s.SellRex("alice", rexAsset(rexTotal)))

	order, err := s.wdb.GetRexOrder("alice")
	assert.NoError(t, err)
	assert.True(t, order.IsOpen)
	assert.Equal(t, rexTotal, order.RexRequested)

	// open orders block new loans
	assert.Equal(t, schema.ErrLiquidityExhausted, s.RentCPU("bob", "carol", coreAsset(10_0000), coreAsset(0)))

	// a second sell merges into the standing order
	assert.Equal(t, schema.ErrInsufficientFunds, s.SellRex("alice", rexAsset(1)))

	assert.NoError(t, s.CnclRexOrder("alice"))
	_, err = s.wdb.GetRexOrder("alice")
	assert.Equal(t, schema.ErrNotExist, err)

	// queue again, then let the loan expire and the sweep fill the order
	assert.NoError(t, s.SellRex("alice", rexAsset(rexTotal)))
	clock.Advance(31 * 24 * time.Hour)
	assert.Equal(t, schema.ErrZeroOrNegativeAmount, s.RexExec("bob", 0))
	assert.NoError(t, s.RexExec("bob", 10))

	// the expired loan returned its stake and the order filled whole
	order, err = s.wdb.GetRexOrder("alice")
	assert.NoError(t, err)
	assert.False(t, order.IsOpen)
	assert.Equal(t, int64(100_0000), order.Proceeds)

	res, err := s.wdb.GetUserResources("carol")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), res.CpuWeight)

	// the next rex action harvests the filled order into the fund
	assert.NoError(t, s.Withdraw("alice", coreAsset(100_0000)))
	_, err = s.wdb.GetRexOrder("alice")
	assert.Equal(t, schema.ErrNotExist, err)
}

func TestUnstakeToRex(t *testing.T) {
	s, l, _ := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	enableRexVoting(t, s, "alice")
	assert.NoError(t, s.DelegateBW("alice", "alice", coreAsset(100_0000), coreAsset(100_0000), false))

	assert.Equal(t, schema.ErrInsufficientStake, s.UnstakeToRex("alice", "alice", coreAsset(200_0000), coreAsset(0)))
	assert.NoError(t, s.UnstakeToRex("alice", "alice", coreAsset(50_0000), coreAsset(30_0000)))

	del, err := s.wdb.GetDelegatedBandwidth("alice", "alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(50_0000), del.NetWeight)
	assert.Equal(t, int64(70_0000), del.CpuWeight)

	bal, err := s.wdb.GetRexBalance("alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(80_0000)*schema.InitialRexRatio, bal.RexBalance)
	assert.Equal(t, int64(80_0000), bal.VoteStake)

	// the stake stays counted, it just moved into rex
	v, err := s.wdb.GetVoter("alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(200_0000), v.Staked)
}

func TestSavingsMoves(t *testing.T) {
	s, l, _ := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	enableRexVoting(t, s, "alice")
	assert.NoError(t, s.Deposit("alice", coreAsset(100_0000)))
	assert.NoError(t, s.BuyRex("alice", coreAsset(100_0000)))
	rexTotal := int64(100_0000) * schema.InitialRexRatio

	assert.NoError(t, s.MvToSavings("alice", rexAsset(rexTotal*2/5)))
	bal, err := s.wdb.GetRexBalance("alice")
	assert.NoError(t, err)
	assert.Equal(t, rexTotal*2/5, bal.SavingsRex)
	buckets := bal.MaturityBuckets()
	assert.Len(t, buckets, 1)
	assert.Equal(t, rexTotal*3/5, buckets[0].Amount)

	// back out of savings into a fresh bucket, merged with the same date
	assert.NoError(t, s.MvFrSavings("alice", rexAsset(rexTotal/5)))
	bal, err = s.wdb.GetRexBalance("alice")
	assert.NoError(t, err)
	assert.Equal(t, rexTotal/5, bal.SavingsRex)
	buckets = bal.MaturityBuckets()
	assert.Len(t, buckets, 1)
	assert.Equal(t, rexTotal*4/5, buckets[0].Amount)

	assert.Equal(t, schema.ErrInsufficientFunds, s.MvFrSavings("alice", rexAsset(rexTotal)))
	assert.Equal(t, schema.ErrInsufficientFunds, s.MvToSavings("alice", rexAsset(rexTotal)))
}

func TestConsolidate(t *testing.T) {
	s, l, clock := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	enableRexVoting(t, s, "alice")
	assert.NoError(t, s.Deposit("alice", coreAsset(200_0000)))
	assert.NoError(t, s.BuyRex("alice", coreAsset(100_0000)))
	clock.Advance(24 * time.Hour)
	assert.NoError(t, s.BuyRex("alice", coreAsset(100_0000)))

	bal, err := s.wdb.GetRexBalance("alice")
	assert.NoError(t, err)
	assert.Len(t, bal.MaturityBuckets(), 2)

	assert.NoError(t, s.Consolidate("alice"))
	bal, err = s.wdb.GetRexBalance("alice")
	assert.NoError(t, err)
	buckets := bal.MaturityBuckets()
	assert.Len(t, buckets, 1)
	assert.Equal(t, schema.RexMaturityDate(clock.Now().Unix()), buckets[0].Date)
	assert.Equal(t, bal.RexBalance, buckets[0].Amount)
	assert.Equal(t, int64(0), bal.MaturedRex)
}

func TestUpdateRexMarksToMarket(t *testing.T) {
	s, l, _ := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	fundAccount(t, l, "bob", 1000_0000)
	enableRexVoting(t, s, "alice")
	assert.NoError(t, s.Deposit("alice", coreAsset(100_0000)))
	assert.NoError(t, s.BuyRex("alice", coreAsset(100_0000)))

	// rental income raises the pool value, and with it the vote stake
	assert.NoError(t, s.Deposit("bob", coreAsset(100_0000)))
	assert.NoError(t, s.RentCPU("bob", "carol", coreAsset(50_0000), coreAsset(0)))
	pool, err := s.wdb.GetRexPool()
	assert.NoError(t, err)
	pool.TotalLendable += 50_0000 // rent revenue realized into the pool
	pool.TotalUnlent += 50_0000
	pool.TotalRent -= 50_0000
	assert.NoError(t, s.wdb.SaveRexPool(pool))

	assert.NoError(t, s.UpdateRex("alice"))
	bal, err := s.wdb.GetRexBalance("alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(150_0000), bal.VoteStake)

	v, err := s.wdb.GetVoter("alice")
	assert.NoError(t, err)
	assert.Equal(t, int64(150_0000), v.Staked)
}

func TestCloseRex(t *testing.T) {
	s, l, clock := newTestCore(t)
	core := bootChain(t, s, l)
	fundAccount(t, l, "alice", 1000_0000)
	enableRexVoting(t, s, "alice")
	assert.NoError(t, s.Deposit("alice", coreAsset(100_0000)))
	assert.NoError(t, s.BuyRex("alice", coreAsset(50_0000)))

	assert.Equal(t, schema.ErrNonzeroBalance, s.CloseRex("alice"))

	clock.Advance(6 * 24 * time.Hour)
	assert.NoError(t, s.SellRex("alice", rexAsset(int64(50_0000)*schema.InitialRexRatio)))
	assert.NoError(t, s.CloseRex("alice"))

	// the fund came back to the wallet and the rows are gone
	assert.Equal(t, int64(1000_0000), l.Balance("alice", core).Amount)
	_, err := s.wdb.GetRexBalance("alice")
	assert.Equal(t, schema.ErrNotExist, err)
	_, err = s.wdb.GetRexFund("alice")
	assert.Equal(t, schema.ErrNotExist, err)
}
