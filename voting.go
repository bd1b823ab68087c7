package syscore

import (
	"math"
	"sort"

	"github.com/corechain/syscore/schema"
)

// stake2vote computes the time-decayed vote weight:
// staked * 2^(weeks_since_epoch / 52), recomputed at call time.
func stake2vote(staked int64, now int64) float64 {
	weeks := (now - schema.VoteWeightEpoch) / (7 * schema.SecondsPerDay)
	return float64(staked) * math.Pow(2, float64(weeks)/52.0)
}

func (s *Syscore) RegProducer(owner, signingKey, url string, location uint16) error {
	if signingKey == "" {
		return schema.ErrInvalidKey
	}
	now := s.now()
	return s.tx(func(w *Wdb) error {
		p, err := w.GetProducer(owner)
		if err == schema.ErrNotExist {
			p = &schema.Producer{
				Owner:                  owner,
				LastClaimTime:          now,
				LastVotepayShareUpdate: now,
			}
		} else if err != nil {
			return err
		}
		p.SigningKey = signingKey
		p.IsActive = true
		p.Url = url
		p.Location = location
		return w.SaveProducer(p)
	})
}

func (s *Syscore) UnregProd(owner string) error {
	return s.deactivateProducer(owner)
}

func (s *Syscore) RmvProducer(owner string) error {
	return s.deactivateProducer(owner)
}

// deactivateProducer zeroes the signing key and clears the active flag; the
// record persists so existing votes keep a target, contributing zero to the
// schedule.
func (s *Syscore) deactivateProducer(owner string) error {
	return s.tx(func(w *Wdb) error {
		p, err := w.GetProducer(owner)
		if err != nil {
			return err
		}
		p.Deactivate()
		return w.SaveProducer(p)
	})
}

func (s *Syscore) RegProxy(proxy string, isProxy bool) error {
	return s.tx(func(w *Wdb) error {
		v, err := w.GetVoter(proxy)
		if err == schema.ErrNotExist {
			return schema.ErrInsufficientStake
		} else if err != nil {
			return err
		}
		if isProxy && v.Proxy != "" {
			// an account that votes through a proxy cannot itself be one
			return schema.ErrInvalidVoteList
		}
		if v.IsProxy == isProxy {
			return schema.ErrNoEffect
		}
		v.IsProxy = isProxy
		if err := w.SaveVoter(v); err != nil {
			return err
		}
		return s.propagateWeightChange(w, v)
	})
}

func (s *Syscore) VoteProducer(voter, proxy string, producers []string) error {
	return s.tx(func(w *Wdb) error {
		return s.updateVotes(w, voter, proxy, producers, true)
	})
}

func validVoteList(proxy string, producers []string) error {
	if proxy != "" {
		if len(producers) > 0 {
			return schema.ErrInvalidVoteList
		}
		return nil
	}
	if len(producers) > schema.MaxProducerVotes {
		return schema.ErrInvalidVoteList
	}
	for i := 1; i < len(producers); i++ {
		if producers[i-1] >= producers[i] {
			return schema.ErrInvalidVoteList
		}
	}
	return nil
}

// updateVotes cancels the voter's previous weight everywhere it was applied,
// then applies the freshly computed weight to the new producer list or proxy.
func (s *Syscore) updateVotes(w *Wdb, voterName, proxy string, producers []string, voting bool) error {
	if err := validVoteList(proxy, producers); err != nil {
		return err
	}
	if proxy != "" && proxy == voterName {
		return schema.ErrInvalidVoteList
	}

	voter, err := w.GetVoter(voterName)
	if err == schema.ErrNotExist {
		return schema.ErrInsufficientStake
	} else if err != nil {
		return err
	}
	if voter.IsProxy && proxy != "" {
		return schema.ErrInvalidVoteList
	}

	now := s.now()
	g, err := w.GetGlobal()
	if err != nil {
		return err
	}

	newWeight := stake2vote(voter.Staked, now)
	if voter.IsProxy {
		newWeight += voter.ProxiedVoteWeight
	}

	// first direct vote activates the voter's stake
	if voting && voter.LastVoteWeight <= 0 {
		g.TotalActivatedStake += voter.Staked
		if g.TotalActivatedStake >= schema.MinActivatedStake && g.ThreshActivatedStakeTime == 0 {
			g.ThreshActivatedStakeTime = now
		}
	}

	// cancel the old proxy contribution, apply the new one
	if voter.Proxy != "" {
		oldProxy, err := w.GetVoter(voter.Proxy)
		if err != nil {
			return err
		}
		oldProxy.ProxiedVoteWeight -= voter.LastVoteWeight
		if err := w.SaveVoter(oldProxy); err != nil {
			return err
		}
		if err := s.propagateWeightChange(w, oldProxy); err != nil {
			return err
		}
	}
	if proxy != "" {
		newProxy, err := w.GetVoter(proxy)
		if err == schema.ErrNotExist || (err == nil && !newProxy.IsProxy) {
			return schema.ErrUnregisteredProxy
		} else if err != nil {
			return err
		}
		newProxy.ProxiedVoteWeight += newWeight
		if err := w.SaveVoter(newProxy); err != nil {
			return err
		}
		if err := s.propagateWeightChange(w, newProxy); err != nil {
			return err
		}
	}

	// net per-producer weight deltas: -old for previously approved, +new for
	// newly approved
	deltas := make(map[string]float64)
	newSet := make(map[string]bool, len(producers))
	for _, p := range voter.ProducerList() {
		deltas[p] -= voter.LastVoteWeight
	}
	for _, p := range producers {
		deltas[p] += newWeight
		newSet[p] = true
	}

	names := make([]string, 0, len(deltas))
	for name := range deltas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		delta := deltas[name]
		prod, err := w.GetProducer(name)
		if err == schema.ErrNotExist {
			if newSet[name] {
				return schema.ErrInvalidVoteList
			}
			continue
		} else if err != nil {
			return err
		}
		if newSet[name] && !prod.IsActive {
			return schema.ErrInvalidVoteList
		}
		settleTotalVotepayShare(g, now)
		settleProducerVotepayShare(prod, now)
		prod.TotalVotes += delta
		if prod.TotalVotes < 0 {
			prod.TotalVotes = 0
		}
		g.TotalProducerVoteWeight += delta
		g.TotalVpayShareChangeRate += delta
		if err := w.SaveProducer(prod); err != nil {
			return err
		}
	}

	voter.LastVoteWeight = newWeight
	voter.Proxy = proxy
	voter.SetProducerList(producers)
	if err := w.SaveVoter(voter); err != nil {
		return err
	}
	return w.SaveGlobal(g)
}

// propagateWeightChange re-derives one voter's weight and pushes the delta to
// its vote targets. When the voter is a proxy this is the one-level fan-out:
// a delegator's change lands here once, and proxies cannot chain.
func (s *Syscore) propagateWeightChange(w *Wdb, voter *schema.Voter) error {
	now := s.now()
	newWeight := stake2vote(voter.Staked, now)
	if voter.IsProxy {
		newWeight += voter.ProxiedVoteWeight
	}
	if math.Abs(newWeight-voter.LastVoteWeight) <= 1 {
		return nil
	}

	if voter.Proxy != "" {
		proxyV, err := w.GetVoter(voter.Proxy)
		if err != nil {
			return err
		}
		proxyV.ProxiedVoteWeight += newWeight - voter.LastVoteWeight
		if err := w.SaveVoter(proxyV); err != nil {
			return err
		}
		if err := s.propagateWeightChange(w, proxyV); err != nil {
			return err
		}
	} else {
		delta := newWeight - voter.LastVoteWeight
		g, err := w.GetGlobal()
		if err != nil {
			return err
		}
		for _, name := range voter.ProducerList() {
			prod, err := w.GetProducer(name)
			if err == schema.ErrNotExist {
				continue
			} else if err != nil {
				return err
			}
			settleTotalVotepayShare(g, now)
			settleProducerVotepayShare(prod, now)
			prod.TotalVotes += delta
			g.TotalProducerVoteWeight += delta
			g.TotalVpayShareChangeRate += delta
			if err := w.SaveProducer(prod); err != nil {
				return err
			}
		}
		if err := w.SaveGlobal(g); err != nil {
			return err
		}
	}

	voter.LastVoteWeight = newWeight
	return w.SaveVoter(voter)
}

// updateElectedProducers installs the top-ranked active producers.
func (s *Syscore) updateElectedProducers(w *Wdb, g *schema.GlobalState) error {
	tops, err := w.GetTopProducers(schema.MaxProducersInSchedule)
	if err != nil {
		return err
	}
	if len(tops) == 0 {
		return nil
	}
	keys := make([]ProducerKey, 0, len(tops))
	for _, p := range tops {
		keys = append(keys, ProducerKey{Producer: p.Owner, SigningKey: p.SigningKey})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Producer < keys[j].Producer })
	if err := s.installer.SetProposedProducers(keys); err != nil {
		return err
	}
	g.LastProducerScheduleUpdate = s.now()
	g.LastProducerScheduleSize = len(keys)
	return nil
}
