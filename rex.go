package syscore

import (
	"github.com/corechain/syscore/schema"
)

// Deposit moves core tokens from the owner's wallet into their rex fund. All
// rex proceeds and expenses flow through this fund.
func (s *Syscore) Deposit(owner string, amount schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		if amount.Symbol != core {
			return schema.ErrSymbolMismatch
		}
		if amount.Amount <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		if err := s.ledger.Transfer(owner, RexAccount, amount, "rex deposit"); err != nil {
			return err
		}
		return s.transferToFund(w, owner, amount.Amount)
	})
}

// Withdraw moves core tokens from the rex fund back to the owner's wallet.
func (s *Syscore) Withdraw(owner string, amount schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		if amount.Symbol != core {
			return schema.ErrSymbolMismatch
		}
		if amount.Amount <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		if err := s.updateRexAccount(w, owner, 0, 0, false); err != nil {
			return err
		}
		if err := s.transferFromFund(w, owner, amount.Amount); err != nil {
			return err
		}
		return s.ledger.Transfer(RexAccount, owner, amount, "rex withdraw")
	})
}

// BuyRex converts tokens from the owner's fund into rex shares. The payment
// grows both pool sides by the same factor, keeping the share price
// continuous; the purchased rex lands in a fresh maturity bucket.
func (s *Syscore) BuyRex(from string, amount schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		if amount.Symbol != core {
			return schema.ErrSymbolMismatch
		}
		if amount.Amount <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		if err := s.checkVotingRequirement(w, from); err != nil {
			return err
		}
		if err := s.runRex(w, s.sweepMax); err != nil {
			return err
		}
		if err := s.transferFromFund(w, from, amount.Amount); err != nil {
			return err
		}
		rexReceived, err := s.addToRexPool(w, amount.Amount)
		if err != nil {
			return err
		}
		if err := s.addToRexBalance(w, from, amount.Amount, rexReceived); err != nil {
			return err
		}
		return s.updateRexAccount(w, from, 0, amount.Amount, false)
	})
}

// UnstakeToRex converts delegated bandwidth stake directly into rex.
func (s *Syscore) UnstakeToRex(owner, receiver string, fromNet, fromCpu schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		if fromNet.Symbol != core || fromCpu.Symbol != core {
			return schema.ErrSymbolMismatch
		}
		tokens := fromNet.Amount + fromCpu.Amount
		if fromNet.Amount < 0 || fromCpu.Amount < 0 || tokens <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		if err := s.checkVotingRequirement(w, owner); err != nil {
			return err
		}
		if err := s.runRex(w, s.sweepMax); err != nil {
			return err
		}

		del, err := w.GetDelegatedBandwidth(owner, receiver)
		if err != nil {
			return err
		}
		if del.NetWeight < fromNet.Amount || del.CpuWeight < fromCpu.Amount {
			return schema.ErrInsufficientStake
		}
		del.NetWeight -= fromNet.Amount
		del.CpuWeight -= fromCpu.Amount
		if del.Empty() {
			if err := w.DeleteDelegatedBandwidth(owner, receiver); err != nil {
				return err
			}
		} else if err := w.SaveDelegatedBandwidth(del); err != nil {
			return err
		}
		res, err := w.GetUserResources(receiver)
		if err != nil {
			return err
		}
		res.NetWeight -= fromNet.Amount
		res.CpuWeight -= fromCpu.Amount
		if err := w.SaveUserResources(res); err != nil {
			return err
		}
		if err := s.resources.SetLimits(receiver, res.RamBytes, res.NetWeight, res.CpuWeight); err != nil {
			return err
		}

		rexReceived, err := s.addToRexPool(w, tokens)
		if err != nil {
			return err
		}
		if err := s.addToRexBalance(w, owner, tokens, rexReceived); err != nil {
			return err
		}
		// the unstaked tokens re-enter the vote as rex stake, so the owner's
		// staked total is unchanged but the vote is refreshed
		return s.updateRexAccount(w, owner, 0, 0, true)
	})
}

// SellRex redeems matured rex at the current pool price. When the pool lacks
// liquidity the request is queued (or merged into the owner's open order)
// instead of failing; fills are all-or-nothing.
func (s *Syscore) SellRex(from string, rex schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		if rex.Symbol != schema.RexSymbol() {
			return schema.ErrSymbolMismatch
		}
		if rex.Amount <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		if err := s.runRex(w, s.sweepMax); err != nil {
			return err
		}
		bal, err := w.GetRexBalance(from)
		if err != nil {
			return err
		}
		now := s.now()
		processRexMaturities(bal, now)

		order, orderErr := w.GetRexOrder(from)
		if orderErr != nil && orderErr != schema.ErrNotExist {
			return orderErr
		}
		queued := orderErr == nil && order.IsOpen
		requested := rex.Amount
		if queued {
			requested += order.RexRequested
		}
		if requested > bal.MaturedRex {
			return schema.ErrInsufficientFunds
		}

		outcome, err := s.fillRexOrder(w, bal, requested)
		if err != nil {
			return err
		}
		if outcome.Success {
			if queued {
				if err := w.DeleteRexOrder(from); err != nil {
					return err
				}
			}
			if err := w.SaveRexBalance(bal); err != nil {
				return err
			}
			return s.updateRexAccount(w, from, outcome.Proceeds, outcome.StakeChange, false)
		}

		// queue or merge; the original submission keeps its queue position
		if queued {
			order.RexRequested = requested
			return w.SaveRexOrder(order)
		}
		if orderErr == nil {
			// a filled order must be harvested before selling again
			if err := s.updateRexAccount(w, from, 0, 0, false); err != nil {
				return err
			}
		}
		if err := w.SaveRexBalance(bal); err != nil {
			return err
		}
		return w.SaveRexOrder(&schema.RexOrder{
			Owner:        from,
			RexRequested: rex.Amount,
			OrderTime:    now,
			IsOpen:       true,
		})
	})
}

// CnclRexOrder cancels a queued sell order; filled orders cannot be canceled.
func (s *Syscore) CnclRexOrder(owner string) error {
	return s.tx(func(w *Wdb) error {
		order, err := w.GetRexOrder(owner)
		if err != nil {
			return err
		}
		if !order.IsOpen {
			return schema.ErrNoEffect
		}
		return w.DeleteRexOrder(owner)
	})
}

// UpdateRex refreshes the owner's rex vote stake to its current value.
func (s *Syscore) UpdateRex(owner string) error {
	return s.tx(func(w *Wdb) error {
		if err := s.runRex(w, s.sweepMax); err != nil {
			return err
		}
		bal, err := w.GetRexBalance(owner)
		if err != nil {
			return err
		}
		processRexMaturities(bal, s.now())
		pool, err := w.GetRexPool()
		if err != nil {
			return err
		}
		if pool.TotalRex == 0 {
			return schema.ErrNotInitialized
		}
		current, err := schema.MulDiv(bal.RexBalance, pool.TotalLendable, pool.TotalRex)
		if err != nil {
			return err
		}
		delta := current - bal.VoteStake
		bal.VoteStake = current
		if err := w.SaveRexBalance(bal); err != nil {
			return err
		}
		return s.updateRexAccount(w, owner, 0, delta, true)
	})
}

// RexExec drains at most max expired loans and queued sell orders; callers
// bound the sweep so one invocation never runs unbounded work.
func (s *Syscore) RexExec(user string, max int) error {
	if max <= 0 {
		return schema.ErrZeroOrNegativeAmount
	}
	return s.tx(func(w *Wdb) error {
		return s.runRex(w, max)
	})
}

// Consolidate merges all maturity buckets into one dated a full maturity
// period from the end of today.
func (s *Syscore) Consolidate(owner string) error {
	return s.tx(func(w *Wdb) error {
		if err := s.runRex(w, s.sweepMax); err != nil {
			return err
		}
		bal, err := w.GetRexBalance(owner)
		if err != nil {
			return err
		}
		now := s.now()
		processRexMaturities(bal, now)

		rexInSellOrder := int64(0)
		if order, err := w.GetRexOrder(owner); err == nil && order.IsOpen {
			rexInSellOrder = order.RexRequested
		}
		total := bal.MaturedRex - rexInSellOrder
		for _, b := range bal.MaturityBuckets() {
			total += b.Amount
		}
		if total < 0 {
			return schema.ErrInconsistentMaturities
		}
		bal.MaturedRex = rexInSellOrder
		if total > 0 {
			bal.SetMaturityBuckets([]schema.RexMaturity{{Date: schema.RexMaturityDate(now), Amount: total}})
		} else {
			bal.SetMaturityBuckets(nil)
		}
		if err := bal.CheckInvariant(); err != nil {
			return err
		}
		return w.SaveRexBalance(bal)
	})
}

// MvToSavings moves rex into the savings bucket, which never matures.
func (s *Syscore) MvToSavings(owner string, rex schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		if rex.Symbol != schema.RexSymbol() {
			return schema.ErrSymbolMismatch
		}
		if rex.Amount <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		if err := s.runRex(w, s.sweepMax); err != nil {
			return err
		}
		bal, err := w.GetRexBalance(owner)
		if err != nil {
			return err
		}
		processRexMaturities(bal, s.now())

		rexInSellOrder := int64(0)
		if order, err := w.GetRexOrder(owner); err == nil && order.IsOpen {
			rexInSellOrder = order.RexRequested
		}
		buckets := bal.MaturityBuckets()
		available := bal.MaturedRex - rexInSellOrder
		for _, b := range buckets {
			available += b.Amount
		}
		if rex.Amount > available {
			return schema.ErrInsufficientFunds
		}

		// drain the youngest buckets first, then the matured total
		remaining := rex.Amount
		for i := len(buckets) - 1; i >= 0 && remaining > 0; i-- {
			take := min64(remaining, buckets[i].Amount)
			buckets[i].Amount -= take
			remaining -= take
		}
		trimmed := buckets[:0]
		for _, b := range buckets {
			if b.Amount > 0 {
				trimmed = append(trimmed, b)
			}
		}
		bal.SetMaturityBuckets(trimmed)
		if remaining > 0 {
			bal.MaturedRex -= remaining
		}
		bal.SavingsRex += rex.Amount
		if err := bal.CheckInvariant(); err != nil {
			return err
		}
		return w.SaveRexBalance(bal)
	})
}

// MvFrSavings moves rex out of savings; it regains the standard maturity
// period from today.
func (s *Syscore) MvFrSavings(owner string, rex schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		if rex.Symbol != schema.RexSymbol() {
			return schema.ErrSymbolMismatch
		}
		if rex.Amount <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		if err := s.runRex(w, s.sweepMax); err != nil {
			return err
		}
		bal, err := w.GetRexBalance(owner)
		if err != nil {
			return err
		}
		if rex.Amount > bal.SavingsRex {
			return schema.ErrInsufficientFunds
		}
		bal.SavingsRex -= rex.Amount
		addMaturityBucket(bal, schema.RexMaturityDate(s.now()), rex.Amount)
		if err := bal.CheckInvariant(); err != nil {
			return err
		}
		return w.SaveRexBalance(bal)
	})
}

// CloseRex deletes the owner's rex records; the balance must be zero and
// there must be no outstanding loans or open orders.
func (s *Syscore) CloseRex(owner string) error {
	return s.tx(func(w *Wdb) error {
		if err := s.runRex(w, s.sweepMax); err != nil {
			return err
		}
		if err := s.updateRexAccount(w, owner, 0, 0, false); err != nil {
			return err
		}
		if n, err := w.CountLoansByOwner(owner); err != nil {
			return err
		} else if n > 0 {
			return schema.ErrOpenObligations
		}
		if order, err := w.GetRexOrder(owner); err == nil && order.IsOpen {
			return schema.ErrOpenObligations
		}
		if bal, err := w.GetRexBalance(owner); err == nil {
			if bal.RexBalance != 0 {
				return schema.ErrNonzeroBalance
			}
			if err := w.DeleteRexBalance(owner); err != nil {
				return err
			}
		}
		if fund, err := w.GetRexFund(owner); err == nil {
			if fund.Balance > 0 {
				core, err := s.coreSymbol(w)
				if err != nil {
					return err
				}
				if err := s.ledger.Transfer(RexAccount, owner, schema.NewAsset(fund.Balance, core), "close rex fund"); err != nil {
					return err
				}
			}
			if err := w.DeleteRexFund(owner); err != nil {
				return err
			}
		}
		return nil
	})
}

// internals

// checkVotingRequirement: rex can only be bought by accounts voting for a
// full producer slate or through a proxy.
func (s *Syscore) checkVotingRequirement(w *Wdb, owner string) error {
	voter, err := w.GetVoter(owner)
	if err == schema.ErrNotExist {
		return schema.ErrVoteRequirement
	} else if err != nil {
		return err
	}
	if voter.Proxy != "" {
		return nil
	}
	if len(voter.ProducerList()) >= schema.MaxProducersInSchedule {
		return nil
	}
	return schema.ErrVoteRequirement
}

// addToRexPool grows both sides of the pool by the payment's proportion:
// R1 = R0*S1/S0, so price stays continuous.
func (s *Syscore) addToRexPool(w *Wdb, payment int64) (int64, error) {
	pool, err := w.GetRexPool()
	if err != nil {
		return 0, err
	}
	var rexReceived int64
	if pool.TotalRex == 0 {
		rexReceived, err = schema.MulDiv(payment, schema.InitialRexRatio, 1)
		if err != nil {
			return 0, err
		}
		// auction proceeds that accumulated before the first issue join the
		// pool here; rex received is still priced off the payment alone
		pool.TotalLendable = payment + pool.NamebidProceeds
		pool.TotalUnlent = pool.TotalLendable
		pool.TotalLent = 0
		pool.TotalRent = schema.InitialRentBalance
		pool.TotalRex = rexReceived
		pool.NamebidProceeds = 0
	} else {
		if pool.TotalLendable <= 0 {
			return 0, schema.ErrInconsistentReserves
		}
		S0 := pool.TotalLendable
		S1 := S0 + payment
		R1, err := schema.MulDiv(pool.TotalRex, S1, S0)
		if err != nil {
			return 0, err
		}
		rexReceived = R1 - pool.TotalRex
		if rexReceived <= 0 {
			return 0, schema.ErrInsufficientLiquidity
		}
		pool.TotalLendable = S1
		pool.TotalUnlent += payment
		pool.TotalRex = R1
	}
	return rexReceived, w.SaveRexPool(pool)
}

func (s *Syscore) addToRexBalance(w *Wdb, owner string, payment, rexReceived int64) error {
	bal, err := w.GetRexBalance(owner)
	if err == schema.ErrNotExist {
		bal = &schema.RexBalance{Owner: owner}
	} else if err != nil {
		return err
	}
	bal.VoteStake += payment
	bal.RexBalance += rexReceived
	addMaturityBucket(bal, schema.RexMaturityDate(s.now()), rexReceived)
	if err := bal.CheckInvariant(); err != nil {
		return err
	}
	return w.SaveRexBalance(bal)
}

// addMaturityBucket appends to the deque, merging with an equal-dated tail.
func addMaturityBucket(bal *schema.RexBalance, date, amount int64) {
	buckets := bal.MaturityBuckets()
	if n := len(buckets); n > 0 && buckets[n-1].Date == date {
		buckets[n-1].Amount += amount
	} else {
		buckets = append(buckets, schema.RexMaturity{Date: date, Amount: amount})
	}
	bal.SetMaturityBuckets(buckets)
}

// processRexMaturities pops due buckets from the front of the deque into the
// matured total. Invoked lazily before any matured-balance read.
func processRexMaturities(bal *schema.RexBalance, now int64) {
	buckets := bal.MaturityBuckets()
	i := 0
	for ; i < len(buckets); i++ {
		if buckets[i].Date > now {
			break
		}
		bal.MaturedRex += buckets[i].Amount
	}
	if i > 0 {
		bal.SetMaturityBuckets(buckets[i:])
	}
}

// fillRexOrder attempts an all-or-nothing redemption against current pool
// liquidity. On success both pool sides shrink by the same factor and the
// seller's vote stake is marked to the new price.
func (s *Syscore) fillRexOrder(w *Wdb, bal *schema.RexBalance, rex int64) (schema.RexOrderOutcome, error) {
	outcome := schema.RexOrderOutcome{}
	pool, err := w.GetRexPool()
	if err != nil {
		return outcome, err
	}
	if pool.TotalRex <= 0 || rex > bal.RexBalance {
		return outcome, schema.ErrInconsistentReserves
	}
	S0 := pool.TotalLendable
	R0 := pool.TotalRex
	proceeds, err := schema.MulDiv(rex, S0, R0)
	if err != nil {
		return outcome, err
	}
	if proceeds <= 0 || proceeds > pool.TotalUnlent {
		return outcome, nil // not enough idle liquidity, caller queues
	}
	R1 := R0 - rex
	S1 := S0 - proceeds

	currentStakeValue, err := schema.MulDiv(bal.RexBalance, S0, R0)
	if err != nil {
		return outcome, err
	}
	initVoteStake := bal.VoteStake

	pool.TotalRex = R1
	pool.TotalLendable = S1
	pool.TotalUnlent -= proceeds
	if pool.TotalUnlent < 0 || pool.TotalLendable < 0 {
		return outcome, schema.ErrInconsistentReserves
	}
	if err := w.SaveRexPool(pool); err != nil {
		return outcome, err
	}

	bal.RexBalance -= rex
	bal.MaturedRex -= rex
	if bal.MaturedRex < 0 {
		return outcome, schema.ErrInconsistentMaturities
	}
	bal.VoteStake = currentStakeValue - proceeds

	outcome.Success = true
	outcome.Proceeds = proceeds
	outcome.StakeChange = bal.VoteStake - initVoteStake
	return outcome, nil
}

// updateRexAccount harvests a filled sell order into the owner's fund and
// applies any vote-stake delta to the owner's voting power.
func (s *Syscore) updateRexAccount(w *Wdb, owner string, proceeds, deltaStake int64, forceVoteUpdate bool) error {
	if order, err := w.GetRexOrder(owner); err == nil && !order.IsOpen {
		proceeds += order.Proceeds
		deltaStake += order.StakeChange
		if err := w.DeleteRexOrder(owner); err != nil {
			return err
		}
	} else if err != nil && err != schema.ErrNotExist {
		return err
	}
	if proceeds > 0 {
		if err := s.transferToFund(w, owner, proceeds); err != nil {
			return err
		}
	}
	if deltaStake != 0 || forceVoteUpdate {
		return s.updateVotingPower(w, owner, deltaStake)
	}
	return nil
}

func (s *Syscore) transferToFund(w *Wdb, owner string, amount int64) error {
	fund, err := w.GetRexFund(owner)
	if err == schema.ErrNotExist {
		fund = &schema.RexFund{Owner: owner}
	} else if err != nil {
		return err
	}
	fund.Balance += amount
	return w.SaveRexFund(fund)
}

func (s *Syscore) transferFromFund(w *Wdb, owner string, amount int64) error {
	fund, err := w.GetRexFund(owner)
	if err == schema.ErrNotExist || (err == nil && fund.Balance < amount) {
		return schema.ErrInsufficientFunds
	} else if err != nil {
		return err
	}
	fund.Balance -= amount
	return w.SaveRexFund(fund)
}
