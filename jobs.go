package syscore

import (
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/corechain/syscore/schema"
)

func (s *Syscore) runJobs(tickInterval int) {
	if tickInterval <= 0 {
		tickInterval = 10
	}
	s.scheduler.Every(tickInterval).Seconds().SingletonMode().Do(s.jobRexSweep)
	s.scheduler.Every(1).Minute().SingletonMode().Do(s.jobCloseAuctions)
	s.scheduler.Every(1).Minute().SingletonMode().Do(s.jobPayRefunds)
	s.scheduler.Every(1).Minute().SingletonMode().Do(s.jobRefreshSchedule)
	s.scheduler.Every(30).Seconds().SingletonMode().Do(s.jobRefreshCache)
	s.scheduler.Every(30).Seconds().SingletonMode().Do(s.jobUpdateMetrics)

	s.scheduler.StartAsync()
}

// jobRexSweep settles expired loans and drains queued sell orders so the
// markets keep moving even when no user action arrives.
func (s *Syscore) jobRexSweep() {
	max := s.config.Param().SweepBatch
	if max <= 0 {
		max = s.sweepMax
	}
	err := s.tx(func(w *Wdb) error {
		return s.runRex(w, max)
	})
	if err != nil {
		log.Error("rex sweep", "err", err)
	}
}

func (s *Syscore) jobCloseAuctions() {
	err := s.tx(func(w *Wdb) error {
		g, err := w.GetGlobal()
		if err != nil {
			if err == schema.ErrNotInitialized {
				return nil
			}
			return err
		}
		batch := s.config.Param().AuctionBatch
		if batch <= 0 {
			batch = 1
		}
		if err := s.closeIdleAuctions(w, g, batch); err != nil {
			return err
		}
		return w.SaveGlobal(g)
	})
	if err != nil {
		log.Error("close idle auctions", "err", err)
	}
}

// jobPayRefunds pays out matured unstaking refunds without waiting for the
// owner to claim. Each refund runs in its own transaction; one failure does
// not block the batch.
func (s *Syscore) jobPayRefunds() {
	due, err := s.wdb.GetDueRefunds(s.now()-schema.RefundDelaySec, 50)
	if err != nil {
		log.Error("s.wdb.GetDueRefunds(cutoff)", "err", err)
		return
	}
	if len(due) == 0 {
		return
	}

	var wg sync.WaitGroup
	p, _ := ants.NewPoolWithFunc(10, func(i interface{}) {
		defer wg.Done()
		owner := i.(string)
		if err := s.Refund(owner); err != nil && err != schema.ErrRefundNotDue {
			log.Error("s.Refund(owner)", "err", err, "owner", owner)
		}
	})
	defer p.Release()

	for _, r := range due {
		wg.Add(1)
		if err := p.Invoke(r.Owner); err != nil {
			wg.Done()
			log.Error("p.Invoke(r.Owner)", "err", err, "owner", r.Owner)
		}
	}
	wg.Wait()
}

func (s *Syscore) jobRefreshSchedule() {
	err := s.tx(func(w *Wdb) error {
		g, err := w.GetGlobal()
		if err != nil {
			if err == schema.ErrNotInitialized {
				return nil
			}
			return err
		}
		if g.TotalActivatedStake < schema.MinActivatedStake {
			return nil
		}
		if err := s.updateElectedProducers(w, g); err != nil {
			return err
		}
		return w.SaveGlobal(g)
	})
	if err != nil {
		log.Error("refresh producer schedule", "err", err)
	}
}

func (s *Syscore) jobRefreshCache() {
	if err := s.cache.Refresh(s.wdb); err != nil && err != schema.ErrNotInitialized {
		log.Error("s.cache.Refresh(s.wdb)", "err", err)
	}
}

func (s *Syscore) jobUpdateMetrics() {
	g := s.cache.GetGlobal()
	totalVoteWeight.Set(g.TotalProducerVoteWeight)
	metricRexPool(s.cache.GetRexPool())
	metricRamMarket(s.cache.GetRamMarket())

	n, err := s.wdb.CountOpenRexOrders()
	if err != nil {
		log.Error("s.wdb.CountOpenRexOrders()", "err", err)
		return
	}
	openSellOrders.Set(float64(n))
}
