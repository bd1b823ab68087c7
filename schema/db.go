package schema

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	SecondsPerDay = 24 * 3600

	// voting
	MaxProducerVotes       = 30
	MaxProducersInSchedule = 21
	MinActivatedStake      = int64(150_000_000_0000)
	// vote weight doubles once a year, measured from this epoch
	VoteWeightEpoch = int64(946684800) // 2000-01-01T00:00:00Z

	// producer pay
	ContinuousInflationRate = "0.04879" // ln(1.05), annual
	InflationPayFactor      = 5         // 1/5 of inflation to producers
	VotepayFactor           = 4         // 1/4 of producer pay is per-block
	MinPervoteDailyPay      = int64(100_0000)
	MinClaimIntervalSec     = int64(SecondsPerDay)

	// ram market
	RamMarketFeeDivisor = 200 // 0.5%
	InitialRamBytes     = int64(64) * 1024 * 1024 * 1024

	// staking
	RefundDelaySec = int64(3 * SecondsPerDay)

	// rex
	RexMaturityBuckets = 5 // matures at start-of-day + 5d, i.e. 4 full days past today
	InitialRexRatio    = 10000
	InitialRentBalance = int64(100_0000) // seeds the rental bancor connector
	LoanDurationSec    = int64(30 * SecondsPerDay)
	RexSweepBatch      = 2 // loans/orders drained at the head of every rex action

	// name auction
	MaxFreeNameLen         = 12
	NameAuctionIdleSec     = int64(SecondsPerDay)
	NameAuctionCloseGapSec = int64(SecondsPerDay)
)

// Resource is the rentable resource kind a loan is parameterized by.
type Resource string

const (
	ResourceCPU Resource = "cpu"
	ResourceNET Resource = "net"
)

func (r Resource) Valid() bool { return r == ResourceCPU || r == ResourceNET }

// RexMaturityDate is the bucket date for newly bought rex: four full days
// past the end of the current day.
func RexMaturityDate(now int64) int64 {
	return now - now%SecondsPerDay + RexMaturityBuckets*SecondsPerDay
}

// GlobalState is the singleton economic state row.
type GlobalState struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	CoreSymbolCode      string
	CoreSymbolPrecision uint8
	Initialized         bool

	MaxRamSize            int64
	TotalRamBytesReserved int64
	TotalRamStake         int64
	NewRamPerBlock        int64
	LastRamIncrease       int64 // unix sec

	LastProducerScheduleUpdate int64 // unix sec
	LastProducerScheduleSize   int
	TotalProducerVoteWeight    float64
	TotalActivatedStake        int64
	ThreshActivatedStakeTime   int64 // unix sec

	LastPervoteBucketFill int64 // unix sec
	PervoteBucket         int64
	PerblockBucket        int64
	TotalUnpaidBlocks     int64

	TotalProducerVotepayShare float64
	LastVpayStateUpdate       int64 // unix sec
	TotalVpayShareChangeRate  float64

	LastNameClose int64 // unix sec
}

func (g *GlobalState) CoreSymbol() Symbol {
	return Symbol{Code: g.CoreSymbolCode, Precision: g.CoreSymbolPrecision}
}

func (g *GlobalState) FreeRam() int64 {
	return g.MaxRamSize - g.TotalRamBytesReserved
}

// Voter votes either directly or through exactly one proxy, never both.
type Voter struct {
	Owner     string    `gorm:"primarykey"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Proxy             string
	Producers         datatypes.JSON // sorted []string, empty when proxy is set
	Staked            int64
	LastVoteWeight    float64
	ProxiedVoteWeight float64
	IsProxy           bool

	RamManaged bool
	NetManaged bool
	CpuManaged bool
}

func (v *Voter) ProducerList() []string {
	if len(v.Producers) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(v.Producers, &list); err != nil {
		return nil
	}
	return list
}

func (v *Voter) SetProducerList(list []string) {
	if len(list) == 0 {
		v.Producers = nil
		return
	}
	js, _ := json.Marshal(list)
	v.Producers = js
}

// Producer persists past deactivation; deactivation zeroes the signing key.
type Producer struct {
	Owner     string    `gorm:"primarykey"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	TotalVotes    float64 `gorm:"index:idx_prod_votes"`
	SigningKey    string
	IsActive      bool `gorm:"index:idx_prod_votes"`
	Url           string
	UnpaidBlocks  int64
	LastClaimTime int64 // unix sec
	Location      uint16

	VotepayShare           float64
	LastVotepayShareUpdate int64 // unix sec
}

func (p *Producer) Deactivate() {
	p.SigningKey = ""
	p.IsActive = false
}

// ExchangePool is the ram bonding-curve market row, keyed by pool symbol.
type ExchangePool struct {
	PoolSymbol string `gorm:"primarykey"` // "RAMCORE"
	UpdatedAt  time.Time

	Supply int64

	BaseBalance    int64 // RAM bytes reserve
	BaseSymbol     string
	BaseWeight     float64
	QuoteBalance   int64 // core token reserve
	QuoteSymbol    string
	QuotePrecision uint8
	QuoteWeight    float64
}

// RexPool is the singleton rental-market pool. (TotalRent, TotalUnlent) is the
// bancor pair that prices loans, TotalLendable/TotalRex prices REX itself.
type RexPool struct {
	ID        uint `gorm:"primarykey"`
	UpdatedAt time.Time

	TotalLent       int64
	TotalUnlent     int64
	TotalRent       int64
	TotalLendable   int64
	TotalRex        int64
	NamebidProceeds int64
	LoanNum         uint64
}

type RexFund struct {
	Owner     string `gorm:"primarykey"`
	UpdatedAt time.Time
	Balance   int64
}

// RexMaturity is one maturity bucket of a RexBalance; buckets are kept
// time-ascending in a deque serialized as JSON.
type RexMaturity struct {
	Date   int64 `json:"date"` // unix sec
	Amount int64 `json:"amount"`
}

// RexBalance invariant: sum(bucket amounts) + MaturedRex + SavingsRex == RexBalance.
type RexBalance struct {
	Owner     string `gorm:"primarykey"`
	UpdatedAt time.Time

	VoteStake  int64
	RexBalance int64
	MaturedRex int64
	SavingsRex int64
	Maturities datatypes.JSON
}

func (b *RexBalance) MaturityBuckets() []RexMaturity {
	if len(b.Maturities) == 0 {
		return nil
	}
	var buckets []RexMaturity
	if err := json.Unmarshal(b.Maturities, &buckets); err != nil {
		return nil
	}
	return buckets
}

func (b *RexBalance) SetMaturityBuckets(buckets []RexMaturity) {
	if len(buckets) == 0 {
		b.Maturities = nil
		return
	}
	js, _ := json.Marshal(buckets)
	b.Maturities = js
}

// CheckInvariant verifies the bucket/matured/savings split sums to the balance.
func (b *RexBalance) CheckInvariant() error {
	sum := b.MaturedRex + b.SavingsRex
	for _, m := range b.MaturityBuckets() {
		sum += m.Amount
	}
	if sum != b.RexBalance {
		return ErrInconsistentMaturities
	}
	return nil
}

// RexLoan is a collateralized resource loan, generic over Resource.
type RexLoan struct {
	LoanNum   uint64 `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Resource    Resource `gorm:"index:idx_loan_expr;index:idx_loan_owner"`
	From        string   `gorm:"index:idx_loan_owner"`
	Receiver    string
	Payment     int64
	Balance     int64
	TotalStaked int64
	Expiration  int64 `gorm:"index:idx_loan_expr"` // unix sec
}

// RexOrder is a queued sell order; at most one open order per owner.
type RexOrder struct {
	Owner     string `gorm:"primarykey"`
	UpdatedAt time.Time

	RexRequested int64
	Proceeds     int64
	StakeChange  int64
	OrderTime    int64 `gorm:"index:idx_order_time"` // unix sec
	IsOpen       bool  `gorm:"index:idx_order_time"`
}

// RexOrderOutcome reports a fill attempt to the caller.
type RexOrderOutcome struct {
	Success     bool  `json:"success"`
	Proceeds    int64 `json:"proceeds"`
	StakeChange int64 `json:"stakeChange"`
}

// NameBid: a negative HighBid marks a closed auction awaiting claim.
type NameBid struct {
	NewName     string `gorm:"primarykey"`
	UpdatedAt   time.Time
	HighBidder  string
	HighBid     int64 `gorm:"index:idx_bid_high"`
	LastBidTime int64 // unix sec
}

type BidRefund struct {
	NewName   string `gorm:"primarykey"`
	Bidder    string `gorm:"primarykey"`
	UpdatedAt time.Time
	Amount    int64
}

// UserResources mirrors the limits handed to the resource keeper.
type UserResources struct {
	Owner     string `gorm:"primarykey"`
	UpdatedAt time.Time
	RamBytes  int64
	NetWeight int64
	CpuWeight int64
}

type DelegatedBandwidth struct {
	From      string `gorm:"primarykey"`
	To        string `gorm:"primarykey"`
	UpdatedAt time.Time
	NetWeight int64
	CpuWeight int64
}

func (d *DelegatedBandwidth) Empty() bool { return d.NetWeight == 0 && d.CpuWeight == 0 }

type RefundRequest struct {
	Owner       string `gorm:"primarykey"`
	UpdatedAt   time.Time
	RequestTime int64 // unix sec
	NetAmount   int64
	CpuAmount   int64
}
