package syscore

import (
	"github.com/corechain/syscore/schema"
	"github.com/shopspring/decimal"
)

const secondsPerYear = 52 * 7 * schema.SecondsPerDay

// settleProducerVotepayShare accrues the producer's votepay share at its
// current vote rate up to now. Incremental by elapsed time, never a rescan.
func settleProducerVotepayShare(p *schema.Producer, now int64) {
	if now > p.LastVotepayShareUpdate {
		p.VotepayShare += p.TotalVotes * float64(now-p.LastVotepayShareUpdate)
	}
	p.LastVotepayShareUpdate = now
}

// settleTotalVotepayShare does the same for the global accumulator using the
// aggregate change rate.
func settleTotalVotepayShare(g *schema.GlobalState, now int64) {
	if now > g.LastVpayStateUpdate {
		g.TotalProducerVotepayShare += g.TotalVpayShareChangeRate * float64(now-g.LastVpayStateUpdate)
	}
	g.LastVpayStateUpdate = now
}

// OnBlock credits the authoring producer with one unpaid block and performs
// the per-block housekeeping: ram growth, minute-gated schedule refresh and
// the daily chance to close an idle name auction.
func (s *Syscore) OnBlock(producer string, blockTime int64) error {
	return s.tx(func(w *Wdb) error {
		g, err := w.GetGlobal()
		if err != nil {
			return err
		}
		if g.TotalActivatedStake >= schema.MinActivatedStake {
			if p, err := w.GetProducer(producer); err == nil {
				p.UnpaidBlocks++
				if err := w.SaveProducer(p); err != nil {
					return err
				}
				g.TotalUnpaidBlocks++
			}
		}
		if err := s.updateRamSupply(w, g); err != nil {
			return err
		}
		if blockTime-g.LastProducerScheduleUpdate >= 60 {
			if err := s.updateElectedProducers(w, g); err != nil {
				return err
			}
		}
		if blockTime-g.LastNameClose >= schema.NameAuctionCloseGapSec {
			if err := s.closeIdleAuctions(w, g, 1); err != nil {
				return err
			}
		}
		if err := w.SaveGlobal(g); err != nil {
			return err
		}
		return s.store.SaveCheckpoint(producer, blockTime)
	})
}

// ClaimRewards pays the owner's per-block share plus accrued votepay share.
// Inflation is minted continuously: 4.879%/yr on supply, a fifth of which
// funds producer pay, split 1:3 between the per-block and per-vote pools.
func (s *Syscore) ClaimRewards(owner string) error {
	return s.tx(func(w *Wdb) error {
		g, err := w.GetGlobal()
		if err != nil {
			return err
		}
		if g.TotalActivatedStake < schema.MinActivatedStake {
			return schema.ErrChainNotActivated
		}
		prod, err := w.GetProducer(owner)
		if err != nil {
			return err
		}
		now := s.now()
		if now-prod.LastClaimTime < schema.MinClaimIntervalSec {
			return schema.ErrNothingToClaim
		}
		core := g.CoreSymbol()

		// mint inflation accrued since the last bucket fill
		supply, err := s.ledger.Supply(core)
		if err != nil {
			return err
		}
		elapsed := now - g.LastPervoteBucketFill
		if elapsed > 0 && g.LastPervoteBucketFill > 0 {
			rate, err := decimal.NewFromString(schema.ContinuousInflationRate)
			if err != nil {
				return err
			}
			newTokens := decimal.NewFromInt(supply.Amount).
				Mul(rate).
				Mul(decimal.NewFromInt(elapsed)).
				Div(decimal.NewFromInt(secondsPerYear)).
				IntPart()
			toProducers := newTokens / schema.InflationPayFactor
			toPerBlockPay := toProducers / schema.VotepayFactor
			toPerVotePay := toProducers - toPerBlockPay
			toSavings := newTokens - toProducers

			if newTokens > 0 {
				if err := s.ledger.Issue(SavingAccount, schema.NewAsset(toSavings, core), "inflation savings"); err != nil {
					return err
				}
				if err := s.ledger.Issue(BpayAccount, schema.NewAsset(toPerBlockPay, core), "per-block pay"); err != nil {
					return err
				}
				if err := s.ledger.Issue(VpayAccount, schema.NewAsset(toPerVotePay, core), "per-vote pay"); err != nil {
					return err
				}
			}
			g.PervoteBucket += toPerVotePay
			g.PerblockBucket += toPerBlockPay
			g.LastPervoteBucketFill = now
		}
		if g.LastPervoteBucketFill == 0 {
			g.LastPervoteBucketFill = now
		}

		// per-block share, proportional to blocks produced
		var producerPerBlockPay int64
		if g.TotalUnpaidBlocks > 0 && prod.UnpaidBlocks > 0 {
			producerPerBlockPay, err = schema.MulDiv(g.PerblockBucket, prod.UnpaidBlocks, g.TotalUnpaidBlocks)
			if err != nil {
				return err
			}
		}

		// per-vote share, proportional to accrued votepay share
		settleTotalVotepayShare(g, now)
		settleProducerVotepayShare(prod, now)
		var producerPerVotePay int64
		if g.TotalProducerVotepayShare > 0 && prod.VotepayShare > 0 {
			fraction := prod.VotepayShare / g.TotalProducerVotepayShare
			producerPerVotePay = int64(float64(g.PervoteBucket) * fraction)
			if producerPerVotePay > g.PervoteBucket {
				producerPerVotePay = g.PervoteBucket
			}
		}
		if producerPerVotePay < schema.MinPervoteDailyPay {
			producerPerVotePay = 0
		}
		if producerPerBlockPay == 0 && producerPerVotePay == 0 {
			return schema.ErrNothingToClaim
		}

		g.PervoteBucket -= producerPerVotePay
		g.PerblockBucket -= producerPerBlockPay
		g.TotalUnpaidBlocks -= prod.UnpaidBlocks
		g.TotalProducerVotepayShare -= prod.VotepayShare

		prod.LastClaimTime = now
		prod.UnpaidBlocks = 0
		prod.VotepayShare = 0

		if err := w.SaveGlobal(g); err != nil {
			return err
		}
		if err := w.SaveProducer(prod); err != nil {
			return err
		}
		if producerPerBlockPay > 0 {
			if err := s.ledger.Transfer(BpayAccount, owner, schema.NewAsset(producerPerBlockPay, core), "producer block pay"); err != nil {
				return err
			}
		}
		if producerPerVotePay > 0 {
			if err := s.ledger.Transfer(VpayAccount, owner, schema.NewAsset(producerPerVotePay, core), "producer vote pay"); err != nil {
				return err
			}
		}
		return nil
	})
}
