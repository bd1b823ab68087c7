package syscore

import (
	"sync"

	"github.com/corechain/syscore/schema"
)

// Cache holds hot read-path snapshots so query endpoints never hit the
// database. Refreshed by a background job after every sweep tick.
type Cache struct {
	global    schema.GlobalState
	rexPool   schema.RexPool
	ramMarket schema.ExchangePool
	schedule  []schema.Producer
	lock      sync.RWMutex
}

func NewCache(wdb *Wdb) *Cache {
	c := &Cache{}
	// best effort on boot; an uninitialized chain has nothing to snapshot
	if err := c.Refresh(wdb); err != nil && err != schema.ErrNotInitialized {
		log.Warn("cache boot refresh", "err", err)
	}
	return c
}

func (c *Cache) Refresh(wdb *Wdb) error {
	g, err := wdb.GetGlobal()
	if err != nil {
		return err
	}
	pool, err := wdb.GetRexPool()
	if err != nil {
		return err
	}
	market, err := wdb.GetExchangePool(schema.RamCoreSymbolCode)
	if err != nil {
		return err
	}
	schedule, err := wdb.GetTopProducers(schema.MaxProducersInSchedule)
	if err != nil {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.global = *g
	c.rexPool = *pool
	c.ramMarket = *market
	c.schedule = schedule
	return nil
}

func (c *Cache) GetGlobal() schema.GlobalState {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.global
}

func (c *Cache) GetRexPool() schema.RexPool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.rexPool
}

func (c *Cache) GetRamMarket() schema.ExchangePool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.ramMarket
}

// RamPrice reports the marginal core cost of one byte.
func (c *Cache) RamPrice() float64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.ramMarket.BaseBalance == 0 {
		return 0
	}
	return float64(c.ramMarket.QuoteBalance) / float64(c.ramMarket.BaseBalance)
}

func (c *Cache) GetSchedule() []schema.Producer {
	c.lock.RLock()
	defer c.lock.RUnlock()
	out := make([]schema.Producer, len(c.schedule))
	copy(out, c.schedule)
	return out
}
