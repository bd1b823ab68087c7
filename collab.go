package syscore

import (
	"sync"
	"time"

	"github.com/corechain/syscore/schema"
)

// System custody accounts.
const (
	StakeAccount  = "core.stake"
	RamAccount    = "core.ram"
	RamFeeAccount = "core.ramfee"
	BpayAccount   = "core.bpay"
	VpayAccount   = "core.vpay"
	NamesAccount  = "core.names"
	RexAccount    = "core.rex"
	SavingAccount = "core.saving"
)

// TokenLedger is the currency-transfer collaborator. Transfers must debit and
// credit atomically with the surrounding action; implementations that sit
// outside the database transaction must be compensating-safe.
type TokenLedger interface {
	Transfer(from, to string, amount schema.Asset, memo string) error
	Issue(to string, amount schema.Asset, memo string) error
	Supply(sym schema.Symbol) (schema.Asset, error)
}

// ResourceKeeper consumes "set limits" calls; the chain's own enforcement of
// those limits is outside this core.
type ResourceKeeper interface {
	SetLimits(account string, ramBytes, netWeight, cpuWeight int64) error
	UpdateBandwidth(account string, netDelta, cpuDelta int64) error
}

// ScheduleInstaller consumes the proposed producer schedule.
type ScheduleInstaller interface {
	SetProposedProducers(producers []ProducerKey) error
}

type ProducerKey struct {
	Producer   string `json:"producer"`
	SigningKey string `json:"signingKey"`
}

// BlockClock supplies the current logical time; tests drive it manually.
type BlockClock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func NewRealClock() BlockClock { return realClock{} }

// ManualClock is a settable clock for tests and replay.
type ManualClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewManualClock(t time.Time) *ManualClock { return &ManualClock{t: t} }

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// MemLedger is the in-process TokenLedger used when the service runs
// standalone and in tests.
type MemLedger struct {
	mu       sync.Mutex
	balances map[string]map[schema.Symbol]int64
	supplies map[schema.Symbol]int64
}

func NewMemLedger() *MemLedger {
	return &MemLedger{
		balances: make(map[string]map[schema.Symbol]int64),
		supplies: make(map[schema.Symbol]int64),
	}
}

func (l *MemLedger) balanceOf(account string, sym schema.Symbol) int64 {
	if m, ok := l.balances[account]; ok {
		return m[sym]
	}
	return 0
}

func (l *MemLedger) credit(account string, sym schema.Symbol, amount int64) {
	m, ok := l.balances[account]
	if !ok {
		m = make(map[schema.Symbol]int64)
		l.balances[account] = m
	}
	m[sym] += amount
}

func (l *MemLedger) Transfer(from, to string, amount schema.Asset, memo string) error {
	if amount.Amount <= 0 {
		return schema.ErrZeroOrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balanceOf(from, amount.Symbol) < amount.Amount {
		return schema.ErrInsufficientFunds
	}
	l.credit(from, amount.Symbol, -amount.Amount)
	l.credit(to, amount.Symbol, amount.Amount)
	return nil
}

func (l *MemLedger) Issue(to string, amount schema.Asset, memo string) error {
	if amount.Amount <= 0 {
		return schema.ErrZeroOrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(to, amount.Symbol, amount.Amount)
	l.supplies[amount.Symbol] += amount.Amount
	return nil
}

func (l *MemLedger) Supply(sym schema.Symbol) (schema.Asset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return schema.NewAsset(l.supplies[sym], sym), nil
}

func (l *MemLedger) Balance(account string, sym schema.Symbol) schema.Asset {
	l.mu.Lock()
	defer l.mu.Unlock()
	return schema.NewAsset(l.balanceOf(account, sym), sym)
}

type noopResourceKeeper struct{}

func (noopResourceKeeper) SetLimits(account string, ramBytes, netWeight, cpuWeight int64) error {
	return nil
}

func (noopResourceKeeper) UpdateBandwidth(account string, netDelta, cpuDelta int64) error {
	return nil
}

func NewNoopResourceKeeper() ResourceKeeper { return noopResourceKeeper{} }

type logScheduleInstaller struct{}

func (logScheduleInstaller) SetProposedProducers(producers []ProducerKey) error {
	log.Debug("proposed producer schedule", "size", len(producers))
	return nil
}

func NewLogScheduleInstaller() ScheduleInstaller { return logScheduleInstaller{} }
