package syscore

import (
	"time"

	localcache "github.com/corechain/syscore/cache"
	"github.com/corechain/syscore/common"
	"github.com/corechain/syscore/config"
	cfgSchema "github.com/corechain/syscore/config/schema"
	"github.com/corechain/syscore/schema"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"gorm.io/gorm"
)

type Syscore struct {
	wdb       *Wdb
	store     *Store
	engine    *gin.Engine
	scheduler *gocron.Scheduler

	cache      *Cache
	localCache *localcache.Cache
	config     *config.Config

	ledger    TokenLedger
	resources ResourceKeeper
	installer ScheduleInstaller
	clock     BlockClock

	kafka    map[string]*KWriter // nil when the event stream is disabled
	sweepMax int
}

func New(cfg *schema.Config) *Syscore {
	store, err := NewStore(cfg.BoltDir)
	if err != nil {
		panic(err)
	}

	wdb := &Wdb{}
	if cfg.UseSqlite {
		wdb = NewSqliteDb(cfg.SqliteDir)
	} else {
		wdb = NewMysqlDb(cfg.Mysql)
	}
	if err := wdb.Migrate(); err != nil {
		panic(err)
	}

	var writers map[string]*KWriter
	if cfg.Kafka.Start {
		writers, err = NewKWriters(cfg.Kafka.Uri)
		if err != nil {
			panic(err)
		}
	}

	sweepMax := cfg.SweepMax
	if sweepMax <= 0 {
		sweepMax = schema.RexSweepBatch
	}

	localCache, err := localcache.NewLocalCache(5 * time.Second)
	if err != nil {
		panic(err)
	}

	s := &Syscore{
		wdb:        wdb,
		store:      store,
		engine:     gin.Default(),
		scheduler:  gocron.NewScheduler(time.UTC),
		config:     config.New(cfg.Mysql, cfg.SqliteDir, cfg.UseSqlite),
		ledger:     NewMemLedger(),
		resources:  NewNoopResourceKeeper(),
		installer:  NewLogScheduleInstaller(),
		clock:      NewRealClock(),
		kafka:      writers,
		localCache: localCache,
		sweepMax:   sweepMax,
	}
	s.cache = NewCache(s.wdb)
	return s
}

// SetCollaborators swaps the external interfaces in before Run; nil keeps the
// current implementation.
func (s *Syscore) SetCollaborators(ledger TokenLedger, resources ResourceKeeper, installer ScheduleInstaller, clock BlockClock) {
	if ledger != nil {
		s.ledger = ledger
	}
	if resources != nil {
		s.resources = resources
	}
	if installer != nil {
		s.installer = installer
	}
	if clock != nil {
		s.clock = clock
	}
}

// SetParams updates the operator-tunable runtime parameters.
func (s *Syscore) SetParams(param cfgSchema.Param) error {
	return s.config.SetParams(param)
}

func (s *Syscore) Run(port string, tickInterval int) {
	s.config.Run()
	common.NewMetricServer()
	go s.runAPI(port)
	go s.runJobs(tickInterval)
}

func (s *Syscore) Close() {
	s.scheduler.Stop()
	s.store.Close()
	s.config.Close()
	for _, kw := range s.kafka {
		kw.Close()
	}
	log.Info("syscore closed")
}

func (s *Syscore) now() int64 {
	return s.clock.Now().Unix()
}

// tx runs one action as a single transaction; an error rolls every row
// mutation back, which is the action-boundary atomicity of the core.
func (s *Syscore) tx(fn func(w *Wdb) error) error {
	err := s.wdb.Db.Transaction(func(dbtx *gorm.DB) error {
		return fn(s.wdb.WithTx(dbtx))
	})
	if err != nil && IsInvariantErr(err) {
		log.Error("invariant violation aborted action", "err", err)
	}
	return err
}
