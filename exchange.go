package syscore

import (
	"github.com/corechain/syscore/schema"
)

// bancorOutput prices one conversion leg: out = in*outReserve/(inReserve+in).
// Both reserves scale by the same factor, so reserve product is preserved.
func bancorOutput(inReserve, outReserve, in int64) (int64, error) {
	if inReserve <= 0 || outReserve <= 0 {
		return 0, schema.ErrInsufficientLiquidity
	}
	if in <= 0 {
		return 0, schema.ErrZeroOrNegativeAmount
	}
	denom, err := schema.AddInt64(inReserve, in)
	if err != nil {
		return 0, err
	}
	out, err := schema.MulDiv(in, outReserve, denom)
	if err != nil {
		return 0, err
	}
	if out <= 0 {
		return 0, schema.ErrInsufficientLiquidity
	}
	return out, nil
}

// bancorInput answers the inverse question: the input needed to receive out.
func bancorInput(outReserve, inReserve, out int64) (int64, error) {
	if inReserve <= 0 || outReserve <= 0 {
		return 0, schema.ErrInsufficientLiquidity
	}
	if out <= 0 || out >= outReserve {
		return 0, schema.ErrInsufficientLiquidity
	}
	return schema.MulDiv(inReserve, out, outReserve-out)
}

// InitChain creates the global state row, the ram market and the rex pool.
// Succeeds only once, for version 0, with a positive core-token supply.
func (s *Syscore) InitChain(version int, core schema.Symbol) error {
	if version != 0 {
		return schema.ErrInvalidName
	}
	if !core.Valid() {
		return schema.ErrSymbolMismatch
	}
	supply, err := s.ledger.Supply(core)
	if err != nil {
		return err
	}
	if supply.Amount <= 0 {
		return schema.ErrInsufficientFunds
	}
	now := s.now()
	return s.tx(func(w *Wdb) error {
		if g, err := w.GetGlobal(); err == nil && g.Initialized {
			return schema.ErrAlreadyInitialized
		}
		g := &schema.GlobalState{
			CoreSymbolCode:        core.Code,
			CoreSymbolPrecision:   core.Precision,
			Initialized:           true,
			MaxRamSize:            schema.InitialRamBytes,
			LastRamIncrease:       now,
			LastPervoteBucketFill: now,
			LastVpayStateUpdate:   now,
		}
		if err := w.SaveGlobal(g); err != nil {
			return err
		}
		pool := &schema.ExchangePool{
			PoolSymbol:     schema.RamCoreSymbolCode,
			Supply:         100000000000000,
			BaseBalance:    g.FreeRam(),
			BaseSymbol:     schema.RamSymbolCode,
			BaseWeight:     0.5,
			QuoteBalance:   supply.Amount / 1000,
			QuoteSymbol:    core.Code,
			QuotePrecision: core.Precision,
			QuoteWeight:    0.5,
		}
		if err := w.SaveExchangePool(pool); err != nil {
			return err
		}
		return w.SaveRexPool(&schema.RexPool{})
	})
}

func (s *Syscore) coreSymbol(w *Wdb) (schema.Symbol, error) {
	g, err := w.GetGlobal()
	if err != nil {
		return schema.Symbol{}, err
	}
	if !g.Initialized {
		return schema.Symbol{}, schema.ErrNotInitialized
	}
	return g.CoreSymbol(), nil
}

// BuyRam converts quant core tokens into ram bytes for receiver through the
// ram bonding curve. A 0.5% fee is taken off the top and channeled to REX.
func (s *Syscore) BuyRam(payer, receiver string, quant schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		g, err := w.GetGlobal()
		if err != nil {
			return err
		}
		if quant.Symbol != g.CoreSymbol() {
			return schema.ErrSymbolMismatch
		}
		if quant.Amount <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		if err := s.updateRamSupply(w, g); err != nil {
			return err
		}

		fee := (quant.Amount + 199) / 200 // RamMarketFeeDivisor, rounded up
		quantAfterFee := quant.Amount - fee
		if err := s.ledger.Transfer(payer, RamAccount, schema.NewAsset(quantAfterFee, quant.Symbol), "buy ram"); err != nil {
			return err
		}
		if fee > 0 {
			if err := s.ledger.Transfer(payer, RamFeeAccount, schema.NewAsset(fee, quant.Symbol), "ram fee"); err != nil {
				return err
			}
			if err := s.channelToRex(w, RamFeeAccount, fee, g.CoreSymbol()); err != nil {
				return err
			}
		}

		pool, err := w.GetExchangePool(schema.RamCoreSymbolCode)
		if err != nil {
			return err
		}
		bytesOut, err := bancorOutput(pool.QuoteBalance, pool.BaseBalance, quantAfterFee)
		if err != nil {
			return err
		}
		pool.QuoteBalance += quantAfterFee
		pool.BaseBalance -= bytesOut
		if pool.BaseBalance < 0 {
			return schema.ErrInconsistentReserves
		}
		if err := w.SaveExchangePool(pool); err != nil {
			return err
		}

		g.TotalRamBytesReserved += bytesOut
		g.TotalRamStake += quantAfterFee
		if err := w.SaveGlobal(g); err != nil {
			return err
		}

		return s.addRamBytes(w, receiver, bytesOut)
	})
}

// BuyRamBytes buys an exact byte amount, pricing the cost through the curve.
func (s *Syscore) BuyRamBytes(payer, receiver string, bytes int64) error {
	if bytes <= 0 {
		return schema.ErrZeroOrNegativeAmount
	}
	var cost schema.Asset
	err := s.tx(func(w *Wdb) error {
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		pool, err := w.GetExchangePool(schema.RamCoreSymbolCode)
		if err != nil {
			return err
		}
		in, err := bancorInput(pool.BaseBalance, pool.QuoteBalance, bytes)
		if err != nil {
			return err
		}
		costPlusFee, err := schema.MulDiv(in, 200, 199)
		if err != nil {
			return err
		}
		cost = schema.NewAsset(costPlusFee, core)
		return nil
	})
	if err != nil {
		return err
	}
	return s.BuyRam(payer, receiver, cost)
}

// SellRam converts ram bytes back to core tokens at the current curve price,
// charging the same 0.5% fee on the way out.
func (s *Syscore) SellRam(account string, bytes int64) error {
	return s.tx(func(w *Wdb) error {
		if bytes <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		g, err := w.GetGlobal()
		if err != nil {
			return err
		}
		if err := s.updateRamSupply(w, g); err != nil {
			return err
		}
		res, err := w.GetUserResources(account)
		if err != nil {
			return err
		}
		if res.RamBytes < bytes {
			return schema.ErrInsufficientFunds
		}

		pool, err := w.GetExchangePool(schema.RamCoreSymbolCode)
		if err != nil {
			return err
		}
		tokensOut, err := bancorOutput(pool.BaseBalance, pool.QuoteBalance, bytes)
		if err != nil {
			return err
		}
		if tokensOut <= 1 {
			return schema.ErrInsufficientLiquidity
		}
		pool.BaseBalance += bytes
		pool.QuoteBalance -= tokensOut
		if pool.QuoteBalance < 0 {
			return schema.ErrInconsistentReserves
		}
		if err := w.SaveExchangePool(pool); err != nil {
			return err
		}

		g.TotalRamBytesReserved -= bytes
		g.TotalRamStake -= tokensOut
		if err := w.SaveGlobal(g); err != nil {
			return err
		}

		core := g.CoreSymbol()
		if err := s.ledger.Transfer(RamAccount, account, schema.NewAsset(tokensOut, core), "sell ram"); err != nil {
			return err
		}
		fee := (tokensOut + 199) / 200
		if fee > 0 {
			if err := s.ledger.Transfer(account, RamFeeAccount, schema.NewAsset(fee, core), "sell ram fee"); err != nil {
				return err
			}
			if err := s.channelToRex(w, RamFeeAccount, fee, core); err != nil {
				return err
			}
		}

		res.RamBytes -= bytes
		if err := w.SaveUserResources(res); err != nil {
			return err
		}
		return s.resources.SetLimits(account, res.RamBytes, res.NetWeight, res.CpuWeight)
	})
}

// SetRam adjusts the ram supply for sale; the delta flows into the curve base.
func (s *Syscore) SetRam(maxRamSize int64) error {
	return s.tx(func(w *Wdb) error {
		g, err := w.GetGlobal()
		if err != nil {
			return err
		}
		if maxRamSize <= g.TotalRamBytesReserved {
			return schema.ErrInsufficientLiquidity
		}
		delta := maxRamSize - g.MaxRamSize
		pool, err := w.GetExchangePool(schema.RamCoreSymbolCode)
		if err != nil {
			return err
		}
		pool.BaseBalance += delta
		if pool.BaseBalance <= 0 {
			return schema.ErrInconsistentReserves
		}
		if err := w.SaveExchangePool(pool); err != nil {
			return err
		}
		g.MaxRamSize = maxRamSize
		return w.SaveGlobal(g)
	})
}

func (s *Syscore) SetRamRate(bytesPerSecond int64) error {
	if bytesPerSecond < 0 {
		return schema.ErrZeroOrNegativeAmount
	}
	return s.tx(func(w *Wdb) error {
		g, err := w.GetGlobal()
		if err != nil {
			return err
		}
		if err := s.updateRamSupply(w, g); err != nil {
			return err
		}
		g.NewRamPerBlock = bytesPerSecond
		return w.SaveGlobal(g)
	})
}

// updateRamSupply grows the sellable ram reserve at the configured rate.
func (s *Syscore) updateRamSupply(w *Wdb, g *schema.GlobalState) error {
	now := s.now()
	if g.NewRamPerBlock == 0 || now <= g.LastRamIncrease {
		g.LastRamIncrease = now
		return nil
	}
	newBytes, err := schema.MulDiv(now-g.LastRamIncrease, g.NewRamPerBlock, 1)
	if err != nil {
		return err
	}
	pool, err := w.GetExchangePool(schema.RamCoreSymbolCode)
	if err != nil {
		return err
	}
	pool.BaseBalance += newBytes
	if err := w.SaveExchangePool(pool); err != nil {
		return err
	}
	g.MaxRamSize += newBytes
	g.LastRamIncrease = now
	return w.SaveGlobal(g)
}

func (s *Syscore) addRamBytes(w *Wdb, receiver string, bytes int64) error {
	res, err := w.GetUserResources(receiver)
	if err == schema.ErrNotExist {
		res = &schema.UserResources{Owner: receiver}
	} else if err != nil {
		return err
	}
	res.RamBytes += bytes
	if err := w.SaveUserResources(res); err != nil {
		return err
	}
	return s.resources.SetLimits(receiver, res.RamBytes, res.NetWeight, res.CpuWeight)
}

// channelToRex moves fee proceeds into the rex pool's lendable reserve.
func (s *Syscore) channelToRex(w *Wdb, from string, amount int64, core schema.Symbol) error {
	pool, err := w.GetRexPool()
	if err != nil || pool.TotalRex == 0 {
		// rex not initialized yet, fees stay in custody
		return nil
	}
	if err := s.ledger.Transfer(from, RexAccount, schema.NewAsset(amount, core), "channel to rex"); err != nil {
		return err
	}
	pool.TotalUnlent += amount
	pool.TotalLendable += amount
	return w.SaveRexPool(pool)
}
