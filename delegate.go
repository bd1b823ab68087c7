package syscore

import (
	"github.com/corechain/syscore/schema"
)

// DelegateBW stakes core tokens from `from` for the benefit of `receiver`.
// With transfer set, the receiver becomes the stake owner and can unstake it.
func (s *Syscore) DelegateBW(from, receiver string, stakeNet, stakeCpu schema.Asset, transfer bool) error {
	if stakeNet.Amount < 0 || stakeCpu.Amount < 0 || stakeNet.Amount+stakeCpu.Amount <= 0 {
		return schema.ErrZeroOrNegativeAmount
	}
	if transfer && from == receiver {
		return schema.ErrNoEffect
	}
	return s.tx(func(w *Wdb) error {
		return s.changeBW(w, from, receiver, stakeNet, stakeCpu, transfer)
	})
}

// UndelegateBW unwinds a delegation; the tokens become claimable through
// Refund once the delay elapses.
func (s *Syscore) UndelegateBW(from, receiver string, unstakeNet, unstakeCpu schema.Asset) error {
	if unstakeNet.Amount < 0 || unstakeCpu.Amount < 0 || unstakeNet.Amount+unstakeCpu.Amount <= 0 {
		return schema.ErrZeroOrNegativeAmount
	}
	negNet := schema.NewAsset(-unstakeNet.Amount, unstakeNet.Symbol)
	negCpu := schema.NewAsset(-unstakeCpu.Amount, unstakeCpu.Symbol)
	return s.tx(func(w *Wdb) error {
		return s.changeBW(w, from, receiver, negNet, negCpu, false)
	})
}

func (s *Syscore) changeBW(w *Wdb, from, receiver string, netDelta, cpuDelta schema.Asset, transfer bool) error {
	core, err := s.coreSymbol(w)
	if err != nil {
		return err
	}
	if netDelta.Symbol != core || cpuDelta.Symbol != core {
		return schema.ErrSymbolMismatch
	}

	source := from
	if transfer {
		from = receiver
	}

	// managed resources are excluded from owner-initiated unstake
	if netDelta.Amount < 0 || cpuDelta.Amount < 0 {
		if v, err := w.GetVoter(receiver); err == nil {
			if (netDelta.Amount < 0 && v.NetManaged) || (cpuDelta.Amount < 0 && v.CpuManaged) {
				return schema.ErrResourceManaged
			}
		}
	}

	del, err := w.GetDelegatedBandwidth(from, receiver)
	if err == schema.ErrNotExist {
		del = &schema.DelegatedBandwidth{From: from, To: receiver}
	} else if err != nil {
		return err
	}
	del.NetWeight += netDelta.Amount
	del.CpuWeight += cpuDelta.Amount
	if del.NetWeight < 0 || del.CpuWeight < 0 {
		return schema.ErrInsufficientStake
	}
	if del.Empty() {
		if err := w.DeleteDelegatedBandwidth(from, receiver); err != nil {
			return err
		}
	} else if err := w.SaveDelegatedBandwidth(del); err != nil {
		return err
	}

	res, err := w.GetUserResources(receiver)
	if err == schema.ErrNotExist {
		res = &schema.UserResources{Owner: receiver}
	} else if err != nil {
		return err
	}
	res.NetWeight += netDelta.Amount
	res.CpuWeight += cpuDelta.Amount
	if err := w.SaveUserResources(res); err != nil {
		return err
	}
	if err := s.resources.SetLimits(receiver, res.RamBytes, res.NetWeight, res.CpuWeight); err != nil {
		return err
	}

	if err := s.settleStakeTransfer(w, source, from, netDelta.Amount, cpuDelta.Amount, core); err != nil {
		return err
	}
	return s.updateVotingPower(w, from, netDelta.Amount+cpuDelta.Amount)
}

// settleStakeTransfer moves tokens for a bandwidth change. Staking draws down
// any pending refund before debiting the payer; unstaking books (or extends)
// a refund request with a fresh delay.
func (s *Syscore) settleStakeTransfer(w *Wdb, payer, owner string, netDelta, cpuDelta int64, core schema.Symbol) error {
	req, reqErr := w.GetRefundRequest(owner)
	if reqErr != nil && reqErr != schema.ErrNotExist {
		return reqErr
	}

	needNet, needCpu := netDelta, cpuDelta
	if reqErr == nil {
		if needNet > 0 {
			use := min64(needNet, req.NetAmount)
			req.NetAmount -= use
			needNet -= use
		}
		if needCpu > 0 {
			use := min64(needCpu, req.CpuAmount)
			req.CpuAmount -= use
			needCpu -= use
		}
	}
	if needNet < 0 || needCpu < 0 {
		if reqErr == schema.ErrNotExist {
			req = &schema.RefundRequest{Owner: owner}
		}
		if needNet < 0 {
			req.NetAmount += -needNet
			needNet = 0
		}
		if needCpu < 0 {
			req.CpuAmount += -needCpu
			needCpu = 0
		}
		req.RequestTime = s.now()
		reqErr = nil
	}
	if reqErr == nil {
		if req.NetAmount == 0 && req.CpuAmount == 0 {
			if err := w.DeleteRefundRequest(owner); err != nil {
				return err
			}
		} else if err := w.SaveRefundRequest(req); err != nil {
			return err
		}
	}

	if needNet+needCpu > 0 {
		return s.ledger.Transfer(payer, StakeAccount, schema.NewAsset(needNet+needCpu, core), "stake bandwidth")
	}
	return nil
}

// Refund claims the pending unstaked tokens once the delegation delay passed.
func (s *Syscore) Refund(owner string) error {
	return s.tx(func(w *Wdb) error {
		req, err := w.GetRefundRequest(owner)
		if err != nil {
			return err
		}
		if s.now() < req.RequestTime+schema.RefundDelaySec {
			return schema.ErrRefundNotDue
		}
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		total := req.NetAmount + req.CpuAmount
		if total > 0 {
			if err := s.ledger.Transfer(StakeAccount, owner, schema.NewAsset(total, core), "unstake refund"); err != nil {
				return err
			}
		}
		return w.DeleteRefundRequest(owner)
	})
}

// updateVotingPower adjusts the owner's staked total and re-propagates vote
// weight when the owner has an active vote.
func (s *Syscore) updateVotingPower(w *Wdb, owner string, delta int64) error {
	voter, err := w.GetVoter(owner)
	if err == schema.ErrNotExist {
		voter = &schema.Voter{Owner: owner}
	} else if err != nil {
		return err
	}
	voter.Staked += delta
	if voter.Staked < 0 {
		return schema.ErrInsufficientStake
	}
	if delta > 0 {
		if voter.LastVoteWeight > 0 {
			g, err := w.GetGlobal()
			if err != nil {
				return err
			}
			g.TotalActivatedStake += delta
			if err := w.SaveGlobal(g); err != nil {
				return err
			}
		}
	}
	if err := w.SaveVoter(voter); err != nil {
		return err
	}
	if voter.Proxy != "" || len(voter.ProducerList()) > 0 {
		return s.updateVotes(w, owner, voter.Proxy, voter.ProducerList(), false)
	}
	if voter.IsProxy {
		return s.propagateWeightChange(w, voter)
	}
	return nil
}

// SetALimits forwards explicit resource limits to the chain's enforcer.
func (s *Syscore) SetALimits(account string, ramBytes, netWeight, cpuWeight int64) error {
	return s.tx(func(w *Wdb) error {
		res, err := w.GetUserResources(account)
		if err == schema.ErrNotExist {
			res = &schema.UserResources{Owner: account}
		} else if err != nil {
			return err
		}
		res.RamBytes = ramBytes
		res.NetWeight = netWeight
		res.CpuWeight = cpuWeight
		if err := w.SaveUserResources(res); err != nil {
			return err
		}
		return s.resources.SetLimits(account, ramBytes, netWeight, cpuWeight)
	})
}

// SetAcctRam/Net/Cpu flag a resource as externally managed (non-nil limit) or
// hand it back to owner management (nil).
func (s *Syscore) SetAcctRam(account string, ramBytes *int64) error {
	return s.setManaged(account, "ram", ramBytes)
}

func (s *Syscore) SetAcctNet(account string, netWeight *int64) error {
	return s.setManaged(account, "net", netWeight)
}

func (s *Syscore) SetAcctCpu(account string, cpuWeight *int64) error {
	return s.setManaged(account, "cpu", cpuWeight)
}

func (s *Syscore) setManaged(account, kind string, value *int64) error {
	return s.tx(func(w *Wdb) error {
		voter, err := w.GetVoter(account)
		if err == schema.ErrNotExist {
			voter = &schema.Voter{Owner: account}
		} else if err != nil {
			return err
		}
		managed := value != nil
		res, err := w.GetUserResources(account)
		if err == schema.ErrNotExist {
			res = &schema.UserResources{Owner: account}
		} else if err != nil {
			return err
		}
		switch kind {
		case "ram":
			voter.RamManaged = managed
			if managed {
				res.RamBytes = *value
			}
		case "net":
			voter.NetManaged = managed
			if managed {
				res.NetWeight = *value
			}
		case "cpu":
			voter.CpuManaged = managed
			if managed {
				res.CpuWeight = *value
			}
		}
		if err := w.SaveVoter(voter); err != nil {
			return err
		}
		if err := w.SaveUserResources(res); err != nil {
			return err
		}
		return s.resources.SetLimits(account, res.RamBytes, res.NetWeight, res.CpuWeight)
	})
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
