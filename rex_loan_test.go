package syscore

import (
	"testing"
	"time"

	"github.com/corechain/syscore/schema"
	"github.com/stretchr/testify/assert"
)

// seedRexPool boots a chain with alice holding rex so the rental market has
// liquidity.
func seedRexPool(t *testing.T, s *Syscore, l *MemLedger, lendable int64) {
	t.Helper()
	bootChain(t, s, l)
	fundAccount(t, l, "alice", 2*lendable)
	enableRexVoting(t, s, "alice")
	assert.NoError(t, s.Deposit("alice", coreAsset(lendable)))
	assert.NoError(t, s.BuyRex("alice", coreAsset(lendable)))
}

func TestRentRequiresLiquidity(t *testing.T) {
	s, l, _ := newTestCore(t)
	bootChain(t, s, l)
	fundAccount(t, l, "bob", 100_0000)
	assert.NoError(t, s.Deposit("bob", coreAsset(100_0000)))

	// no rex has ever been bought
	assert.Equal(t, schema.ErrLiquidityExhausted, s.RentCPU("bob", "carol", coreAsset(10_0000), coreAsset(0)))
}

func TestRentCPU(t *testing.T) {
	s, l, clock := newTestCore(t)
	seedRexPool(t, s, l, 1000_0000)
	fundAccount(t, l, "bob", 100_0000)
	assert.NoError(t, s.Deposit("bob", coreAsset(100_0000)))

	assert.Equal(t, schema.ErrZeroOrNegativeAmount, s.RentCPU("bob", "carol", coreAsset(0), coreAsset(0)))
	assert.Equal(t, schema.ErrSymbolMismatch, s.RentCPU("bob", "carol", rexAsset(1), coreAsset(0)))
	assert.Equal(t, schema.ErrInsufficientFunds, s.RentCPU("bob", "carol", coreAsset(200_0000), coreAsset(0)))

	payment := int64(10_0000)
	expected, err := bancorOutput(schema.InitialRentBalance, 1000_0000, payment)
	assert.NoError(t, err)

	assert.NoError(t, s.RentCPU("bob", "carol", coreAsset(payment), coreAsset(20_0000)))

	fund, err := s.wdb.GetRexFund("bob")
	assert.NoError(t, err)
	assert.Equal(t, int64(70_0000), fund.Balance)

	pool, err := s.wdb.GetRexPool()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), pool.LoanNum)
	assert.Equal(t, expected, pool.TotalLent)
	assert.Equal(t, 1000_0000-expected, pool.TotalUnlent)
	assert.Equal(t, schema.InitialRentBalance+payment, pool.TotalRent)

	loan, err := s.wdb.GetLoan(schema.ResourceCPU, 1)
	assert.NoError(t, err)
	assert.Equal(t, "bob", loan.From)
	assert.Equal(t, "carol", loan.Receiver)
	assert.Equal(t, payment, loan.Payment)
	assert.Equal(t, int64(20_0000), loan.Balance)
	assert.Equal(t, expected, loan.TotalStaked)
	assert.Equal(t, clock.Now().Unix()+schema.LoanDurationSec, loan.Expiration)

	res, err := s.wdb.GetUserResources("carol")
	assert.NoError(t, err)
	assert.Equal(t, expected, res.CpuWeight)
	assert.Equal(t, int64(0), res.NetWeight)

	// the cpu loan is invisible on the net side
	_, err = s.wdb.GetLoan(schema.ResourceNET, 1)
	assert.Equal(t, schema.ErrNotExist, err)
}

func TestRentNetDelegatesNet(t *testing.T) {
	s, l, _ := newTestCore(t)
	seedRexPool(t, s, l, 1000_0000)
	fundAccount(t, l, "bob", 100_0000)
	assert.NoError(t, s.Deposit("bob", coreAsset(100_0000)))

	assert.NoError(t, s.RentNet("bob", "carol", coreAsset(10_0000), coreAsset(0)))
	res, err := s.wdb.GetUserResources("carol")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), res.CpuWeight)
	assert.Greater(t, res.NetWeight, int64(0))
}

func TestLoanRenewalAndClose(t *testing.T) {
	s, l, clock := newTestCore(t)
	seedRexPool(t, s, l, 1000_0000)
	fundAccount(t, l, "bob", 100_0000)
	assert.NoError(t, s.Deposit("bob", coreAsset(100_0000)))

	payment := int64(10_0000)
	// the renewal balance covers one renewal and leaves a remainder
	assert.NoError(t, s.RentCPU("bob", "carol", coreAsset(payment), coreAsset(15_0000)))

	firstExpiry := clock.Now().Unix() + schema.LoanDurationSec
	clock.Advance(time.Duration(schema.LoanDurationSec+1) * time.Second)
	assert.NoError(t, s.RexExec("bob", 10))

	loan, err := s.wdb.GetLoan(schema.ResourceCPU, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(5_0000), loan.Balance)
	assert.Equal(t, firstExpiry+schema.LoanDurationSec, loan.Expiration)
	assert.Greater(t, loan.TotalStaked, int64(0))

	res, err := s.wdb.GetUserResources("carol")
	assert.NoError(t, err)
	assert.Equal(t, loan.TotalStaked, res.CpuWeight)

	// remainder below the payment: the next expiry closes the loan and
	// refunds the leftover balance
	fundBefore := int64(0)
	if f, err := s.wdb.GetRexFund("bob"); err == nil {
		fundBefore = f.Balance
	}
	clock.Advance(time.Duration(schema.LoanDurationSec+1) * time.Second)
	assert.NoError(t, s.RexExec("bob", 10))

	_, err = s.wdb.GetLoan(schema.ResourceCPU, 1)
	assert.Equal(t, schema.ErrNotExist, err)

	fund, err := s.wdb.GetRexFund("bob")
	assert.NoError(t, err)
	assert.Equal(t, fundBefore+5_0000, fund.Balance)

	res, err = s.wdb.GetUserResources("carol")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), res.CpuWeight)

	pool, err := s.wdb.GetRexPool()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), pool.TotalLent)
}

func TestLoanClosesWholeBalanceWhenMarketDrained(t *testing.T) {
	s, l, clock := newTestCore(t)
	seedRexPool(t, s, l, 1000_0000)
	fundAccount(t, l, "bob", 100_0000)
	assert.NoError(t, s.Deposit("bob", coreAsset(100_0000)))

	payment := int64(10_0000)
	assert.NoError(t, s.RentCPU("bob", "carol", coreAsset(payment), coreAsset(15_0000)))

	// push the rent connector out until a renewal quote rounds to zero
	pool, err := s.wdb.GetRexPool()
	assert.NoError(t, err)
	pool.TotalRent = int64(1) << 50
	assert.NoError(t, s.wdb.SaveRexPool(pool))

	fundBefore, err := s.wdb.GetRexFund("bob")
	assert.NoError(t, err)

	clock.Advance(time.Duration(schema.LoanDurationSec+1) * time.Second)
	assert.NoError(t, s.RexExec("bob", 10))

	// the loan cannot renew, so it closes with nothing withheld: the whole
	// remaining balance comes back, including the untaken renewal payment
	_, err = s.wdb.GetLoan(schema.ResourceCPU, 1)
	assert.Equal(t, schema.ErrNotExist, err)

	fund, err := s.wdb.GetRexFund("bob")
	assert.NoError(t, err)
	assert.Equal(t, fundBefore.Balance+15_0000, fund.Balance)

	res, err := s.wdb.GetUserResources("carol")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), res.CpuWeight)
}

func TestFundAndDefundLoan(t *testing.T) {
	s, l, clock := newTestCore(t)
	seedRexPool(t, s, l, 1000_0000)
	fundAccount(t, l, "bob", 100_0000)
	assert.NoError(t, s.Deposit("bob", coreAsset(100_0000)))
	assert.NoError(t, s.RentCPU("bob", "carol", coreAsset(10_0000), coreAsset(0)))

	assert.NoError(t, s.FundCPULoan("bob", 1, coreAsset(5_0000)))
	loan, err := s.wdb.GetLoan(schema.ResourceCPU, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(5_0000), loan.Balance)

	// only the borrower can touch the balance, and only on the right side
	assert.Equal(t, schema.ErrNotLoanOwner, s.FundCPULoan("mallory", 1, coreAsset(1_0000)))
	assert.Equal(t, schema.ErrNotExist, s.FundNetLoan("bob", 1, coreAsset(1_0000)))

	assert.Equal(t, schema.ErrInsufficientFunds, s.DefCPULoan("bob", 1, coreAsset(6_0000)))
	assert.NoError(t, s.DefCPULoan("bob", 1, coreAsset(5_0000)))
	loan, err = s.wdb.GetLoan(schema.ResourceCPU, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), loan.Balance)

	fund, err := s.wdb.GetRexFund("bob")
	assert.NoError(t, err)
	assert.Equal(t, int64(90_0000), fund.Balance)

	// an expired loan can no longer be funded
	clock.Advance(time.Duration(schema.LoanDurationSec+1) * time.Second)
	assert.Equal(t, schema.ErrLoanExpired, s.FundCPULoan("bob", 1, coreAsset(1_0000)))
}

func TestCloseRexBlockedByLoan(t *testing.T) {
	s, l, _ := newTestCore(t)
	seedRexPool(t, s, l, 1000_0000)
	fundAccount(t, l, "bob", 100_0000)
	enableRexVoting(t, s, "bob")
	assert.NoError(t, s.Deposit("bob", coreAsset(100_0000)))
	assert.NoError(t, s.BuyRex("bob", coreAsset(10_0000)))
	assert.NoError(t, s.RentCPU("bob", "carol", coreAsset(10_0000), coreAsset(0)))

	assert.Equal(t, schema.ErrOpenObligations, s.CloseRex("bob"))
}
