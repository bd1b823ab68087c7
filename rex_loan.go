package syscore

import (
	"github.com/corechain/syscore/schema"
)

// RentCPU opens a 30-day cpu loan; the rented amount is priced against the
// rental connector and delegated to the receiver.
func (s *Syscore) RentCPU(from, receiver string, payment, fund schema.Asset) error {
	return s.rentResource(schema.ResourceCPU, from, receiver, payment, fund)
}

// RentNet opens a 30-day net loan.
func (s *Syscore) RentNet(from, receiver string, payment, fund schema.Asset) error {
	return s.rentResource(schema.ResourceNET, from, receiver, payment, fund)
}

// FundCPULoan tops up a loan's renewal balance from the owner's rex fund.
func (s *Syscore) FundCPULoan(from string, loanNum uint64, payment schema.Asset) error {
	return s.fundLoan(schema.ResourceCPU, from, loanNum, payment)
}

func (s *Syscore) FundNetLoan(from string, loanNum uint64, payment schema.Asset) error {
	return s.fundLoan(schema.ResourceNET, from, loanNum, payment)
}

// DefCPULoan withdraws part of a loan's renewal balance back into the
// owner's rex fund.
func (s *Syscore) DefCPULoan(from string, loanNum uint64, amount schema.Asset) error {
	return s.defundLoan(schema.ResourceCPU, from, loanNum, amount)
}

func (s *Syscore) DefNetLoan(from string, loanNum uint64, amount schema.Asset) error {
	return s.defundLoan(schema.ResourceNET, from, loanNum, amount)
}

func (s *Syscore) rentResource(res schema.Resource, from, receiver string, payment, fund schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		if payment.Symbol != core || fund.Symbol != core {
			return schema.ErrSymbolMismatch
		}
		if payment.Amount <= 0 || fund.Amount < 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		if err := s.runRex(w, s.sweepMax); err != nil {
			return err
		}
		pool, err := w.GetRexPool()
		if err != nil {
			return err
		}
		if pool.TotalRex == 0 {
			return schema.ErrLiquidityExhausted
		}
		// loans stay closed while redemptions are waiting on liquidity
		if n, err := w.CountOpenRexOrders(); err != nil {
			return err
		} else if n > 0 {
			return schema.ErrLiquidityExhausted
		}
		if err := s.transferFromFund(w, from, payment.Amount+fund.Amount); err != nil {
			return err
		}

		rented, err := bancorOutput(pool.TotalRent, pool.TotalUnlent, payment.Amount)
		if err != nil || rented <= 0 {
			return schema.ErrLiquidityExhausted
		}
		pool.TotalRent += payment.Amount
		pool.TotalUnlent -= rented
		pool.TotalLent += rented
		pool.LoanNum++
		if err := w.SaveRexPool(pool); err != nil {
			return err
		}

		loan := &schema.RexLoan{
			LoanNum:     pool.LoanNum,
			Resource:    res,
			From:        from,
			Receiver:    receiver,
			Payment:     payment.Amount,
			Balance:     fund.Amount,
			TotalStaked: rented,
			Expiration:  s.now() + schema.LoanDurationSec,
		}
		if err := w.InsertLoan(loan); err != nil {
			return err
		}
		return s.delegateRented(w, res, receiver, rented)
	})
}

func (s *Syscore) fundLoan(res schema.Resource, from string, loanNum uint64, payment schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		if payment.Symbol != core {
			return schema.ErrSymbolMismatch
		}
		if payment.Amount <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		loan, err := s.getOwnedLoan(w, res, from, loanNum)
		if err != nil {
			return err
		}
		if err := s.transferFromFund(w, from, payment.Amount); err != nil {
			return err
		}
		loan.Balance += payment.Amount
		return w.SaveLoan(loan)
	})
}

func (s *Syscore) defundLoan(res schema.Resource, from string, loanNum uint64, amount schema.Asset) error {
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
		loan, err := s.getOwnedLoan(w, res, from, loanNum)
		if err != nil {
			return err
		}
		if amount.Amount > loan.Balance {
			return schema.ErrInsufficientFunds
		}
		loan.Balance -= amount.Amount
		if err := w.SaveLoan(loan); err != nil {
			return err
		}
		return s.transferToFund(w, from, amount.Amount)
	})
}

func (s *Syscore) getOwnedLoan(w *Wdb, res schema.Resource, from string, loanNum uint64) (*schema.RexLoan, error) {
	loan, err := w.GetLoan(res, loanNum)
	if err != nil {
		return nil, err
	}
	if loan.From != from {
		return nil, schema.ErrNotLoanOwner
	}
	if loan.Expiration <= s.now() {
		return nil, schema.ErrLoanExpired
	}
	return loan, nil
}

// runRex is the bounded maintenance sweep every rex entry point shares:
// settle up to max expired loans, then fill up to max queued sell orders in
// arrival order, stopping at the first that cannot fill whole.
func (s *Syscore) runRex(w *Wdb, max int) error {
	pool, err := w.GetRexPool()
	if err == schema.ErrNotInitialized {
		return nil
	} else if err != nil {
		return err
	}
	if pool.TotalRex == 0 {
		return nil
	}
	now := s.now()

	loans, err := w.GetExpiredLoans(now, max)
	if err != nil {
		return err
	}
	for i := range loans {
		loan := &loans[i]
		// the staked amount comes back to the idle side either way
		pool.TotalLent -= loan.TotalStaked
		pool.TotalUnlent += loan.TotalStaked
		if pool.TotalLent < 0 {
			return schema.ErrInconsistentReserves
		}
		if err := s.undelegateRented(w, loan.Resource, loan.Receiver, loan.TotalStaked); err != nil {
			return err
		}

		if loan.Balance >= loan.Payment {
			rented, rentErr := bancorOutput(pool.TotalRent, pool.TotalUnlent, loan.Payment)
			if rentErr != nil || rented <= 0 {
				// connector drained, close with the full remaining balance
				if err := s.closeLoan(w, loan); err != nil {
					return err
				}
				continue
			}
			loan.Balance -= loan.Payment
			pool.TotalRent += loan.Payment
			pool.TotalUnlent -= rented
			pool.TotalLent += rented
			loan.TotalStaked = rented
			loan.Expiration += schema.LoanDurationSec
			if err := w.SaveLoan(loan); err != nil {
				return err
			}
			if err := s.delegateRented(w, loan.Resource, loan.Receiver, rented); err != nil {
				return err
			}
		} else {
			if err := s.closeLoan(w, loan); err != nil {
				return err
			}
		}
	}
	if err := w.SaveRexPool(pool); err != nil {
		return err
	}

	orders, err := w.GetOpenRexOrders(max)
	if err != nil {
		return err
	}
	for i := range orders {
		order := &orders[i]
		bal, err := w.GetRexBalance(order.Owner)
		if err != nil {
			return err
		}
		processRexMaturities(bal, now)
		outcome, err := s.fillRexOrder(w, bal, order.RexRequested)
		if err != nil {
			return err
		}
		if !outcome.Success {
			break
		}
		if err := w.SaveRexBalance(bal); err != nil {
			return err
		}
		order.IsOpen = false
		order.Proceeds = outcome.Proceeds
		order.StakeChange = outcome.StakeChange
		if err := w.SaveRexOrder(order); err != nil {
			return err
		}
		s.publishOrderFilled(order)
	}
	return nil
}

// closeLoan refunds the remaining renewal balance to the borrower's fund and
// drops the row.
func (s *Syscore) closeLoan(w *Wdb, loan *schema.RexLoan) error {
	if loan.Balance > 0 {
		if err := s.transferToFund(w, loan.From, loan.Balance); err != nil {
			return err
		}
	}
	if err := w.DeleteLoan(loan.LoanNum); err != nil {
		return err
	}
	s.publishLoanClosed(loan)
	return nil
}

func (s *Syscore) delegateRented(w *Wdb, res schema.Resource, receiver string, amount int64) error {
	ur, err := w.GetUserResources(receiver)
	if err == schema.ErrNotExist {
		ur = &schema.UserResources{Owner: receiver}
	} else if err != nil {
		return err
	}
	switch res {
	case schema.ResourceCPU:
		ur.CpuWeight += amount
	case schema.ResourceNET:
		ur.NetWeight += amount
	}
	if err := w.SaveUserResources(ur); err != nil {
		return err
	}
	return s.resources.SetLimits(receiver, ur.RamBytes, ur.NetWeight, ur.CpuWeight)
}

func (s *Syscore) undelegateRented(w *Wdb, res schema.Resource, receiver string, amount int64) error {
	return s.delegateRented(w, res, receiver, -amount)
}
