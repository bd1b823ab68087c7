package syscore

import (
	"testing"
	"time"

	"github.com/corechain/syscore/schema"
	"github.com/stretchr/testify/assert"
)

const (
	testSupply   = int64(1_000_000_000_0000) // 1e9 core tokens
	testTreasury = "core.treasury"
	testGenesis  = int64(1_700_000_000)
)

func newTestCore(t *testing.T) (*Syscore, *MemLedger, *ManualClock) {
	t.Helper()
	cfg := &schema.Config{
		UseSqlite: true,
		SqliteDir: t.TempDir(),
		BoltDir:   t.TempDir(),
		SweepMax:  10,
	}
	s := New(cfg)
	t.Cleanup(s.Close)
	ledger := NewMemLedger()
	clock := NewManualClock(time.Unix(testGenesis, 0))
	s.SetCollaborators(ledger, nil, nil, clock)
	return s, ledger, clock
}

func testCoreSymbol() schema.Symbol {
	return schema.Symbol{Code: schema.CoreSymbolCode, Precision: schema.CoreSymbolPrecision}
}

// bootChain issues the core supply and initializes the chain state.
func bootChain(t *testing.T, s *Syscore, l *MemLedger) schema.Symbol {
	t.Helper()
	core := testCoreSymbol()
	assert.NoError(t, l.Issue(testTreasury, schema.NewAsset(testSupply, core), "genesis"))
	assert.NoError(t, s.InitChain(0, core))
	return core
}

func fundAccount(t *testing.T, l *MemLedger, account string, amount int64) {
	t.Helper()
	assert.NoError(t, l.Transfer(testTreasury, account, schema.NewAsset(amount, testCoreSymbol()), "test funding"))
}

// enableRexVoting satisfies the rex voting requirement by routing the owner's
// vote through a registered proxy.
func enableRexVoting(t *testing.T, s *Syscore, owner string) {
	t.Helper()
	assert.NoError(t, s.wdb.SaveVoter(&schema.Voter{Owner: "rex.proxy", IsProxy: true}))
	assert.NoError(t, s.wdb.SaveVoter(&schema.Voter{Owner: owner, Proxy: "rex.proxy"}))
}

func coreAsset(amount int64) schema.Asset {
	return schema.NewAsset(amount, testCoreSymbol())
}

func rexAsset(amount int64) schema.Asset {
	return schema.NewAsset(amount, schema.RexSymbol())
}
