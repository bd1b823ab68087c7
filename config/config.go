package config

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/inconshreveable/log15"

	"github.com/corechain/syscore/config/schema"
)

var log = log15.New("module", "config")

type Config struct {
	wdb         *Wdb
	scheduler   *gocron.Scheduler
	lock        sync.RWMutex
	param       schema.Param
	ipWhiteList map[string]struct{}
}

func New(dsn string, sqliteDir string, useSqlite bool) *Config {
	var wdb *Wdb
	if useSqlite {
		wdb = NewSqliteWdb(sqliteDir)
	} else {
		wdb = NewWdb(dsn)
	}
	if err := wdb.Migrate(); err != nil {
		panic(err)
	}
	param, err := wdb.GetParam()
	if err != nil {
		panic(err)
	}
	return &Config{
		wdb:         wdb,
		scheduler:   gocron.NewScheduler(time.UTC),
		param:       param,
		ipWhiteList: make(map[string]struct{}),
	}
}

func (c *Config) Param() schema.Param {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.param
}

// SetParams persists new runtime parameters and applies them immediately
// instead of waiting for the next refresh tick.
func (c *Config) SetParams(param schema.Param) error {
	if err := c.wdb.SaveParam(param); err != nil {
		return err
	}
	c.lock.Lock()
	c.param = param
	c.lock.Unlock()
	return nil
}

func (c *Config) IpWhiteList() *map[string]struct{} {
	c.lock.RLock()
	defer c.lock.RUnlock()
	mmap := make(map[string]struct{}, len(c.ipWhiteList))
	for k := range c.ipWhiteList {
		mmap[k] = struct{}{}
	}
	return &mmap
}

func (c *Config) Run() {
	go c.runJobs()
}

func (c *Config) Close() {
	c.scheduler.Stop()
	c.wdb.Close()
}
