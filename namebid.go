package syscore

import (
	"strings"

	"github.com/corechain/syscore/schema"
)

// BidName places or raises a bid on a premium name. Short names register
// freely and cannot be auctioned; a raise must beat the standing bid by at
// least ten percent.
func (s *Syscore) BidName(bidder, newName string, bid schema.Asset) error {
	return s.tx(func(w *Wdb) error {
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		if bid.Symbol != core {
			return schema.ErrSymbolMismatch
		}
		if bid.Amount <= 0 {
			return schema.ErrZeroOrNegativeAmount
		}
		if newName == "" || strings.Contains(newName, ".") {
			return schema.ErrInvalidName
		}
		if len(newName) <= schema.MaxFreeNameLen {
			return schema.ErrInvalidName
		}

		nb, err := w.GetNameBid(newName)
		if err == schema.ErrNotExist {
			if err := s.ledger.Transfer(bidder, NamesAccount, bid, "name bid"); err != nil {
				return err
			}
			return w.SaveNameBid(&schema.NameBid{
				NewName:     newName,
				HighBidder:  bidder,
				HighBid:     bid.Amount,
				LastBidTime: s.now(),
			})
		} else if err != nil {
			return err
		}

		if nb.HighBid < 0 {
			return schema.ErrAuctionClosed
		}
		if nb.HighBidder == bidder {
			return schema.ErrSelfOutbid
		}
		// bid must exceed the standing bid by 10 percent
		if bid.Amount*10 < nb.HighBid*11 {
			return schema.ErrBidTooLow
		}
		if err := s.ledger.Transfer(bidder, NamesAccount, bid, "name bid"); err != nil {
			return err
		}
		// an unclaimed refund from an earlier round accumulates
		prev := int64(0)
		if r, err := w.GetBidRefund(nb.NewName, nb.HighBidder); err == nil {
			prev = r.Amount
		} else if err != schema.ErrNoRefundDue {
			return err
		}
		if err := w.UpsertBidRefund(&schema.BidRefund{
			NewName: nb.NewName,
			Bidder:  nb.HighBidder,
			Amount:  prev + nb.HighBid,
		}); err != nil {
			return err
		}
		nb.HighBidder = bidder
		nb.HighBid = bid.Amount
		nb.LastBidTime = s.now()
		return w.SaveNameBid(nb)
	})
}

// ClaimBidRefund pays out an outbid bidder's escrowed funds.
func (s *Syscore) ClaimBidRefund(newName, bidder string) error {
	return s.tx(func(w *Wdb) error {
		refund, err := w.GetBidRefund(newName, bidder)
		if err != nil {
			return err
		}
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		if err := s.ledger.Transfer(NamesAccount, bidder, schema.NewAsset(refund.Amount, core), "bid refund"); err != nil {
			return err
		}
		return w.DeleteBidRefund(newName, bidder)
	})
}

// ApplyNameClaim is invoked when an account with an auctioned name is
// created. It settles the auction: the standing bid closes if the name has
// been idle past the window, the creator must be the winning bidder, and the
// winning bid is channeled to the rex pool.
func (s *Syscore) ApplyNameClaim(creator, name string) error {
	return s.tx(func(w *Wdb) error {
		if len(name) <= schema.MaxFreeNameLen || strings.Contains(name, ".") {
			return nil // not a premium name, nothing to settle
		}
		nb, err := w.GetNameBid(name)
		if err == schema.ErrNotExist {
			return schema.ErrAuctionOpen
		} else if err != nil {
			return err
		}
		g, err := w.GetGlobal()
		if err != nil {
			return err
		}
		now := s.now()
		if nb.HighBid > 0 && s.auctionCloseable(g, nb, now) {
			nb.HighBid = -nb.HighBid
			g.LastNameClose = now
			if err := w.SaveNameBid(nb); err != nil {
				return err
			}
			if err := w.SaveGlobal(g); err != nil {
				return err
			}
		}
		if nb.HighBid > 0 {
			return schema.ErrAuctionOpen
		}
		if nb.HighBidder != creator {
			return schema.ErrNotHighBidder
		}

		proceeds := -nb.HighBid
		core, err := s.coreSymbol(w)
		if err != nil {
			return err
		}
		if err := s.ledger.Transfer(NamesAccount, RexAccount, schema.NewAsset(proceeds, core), "name bid proceeds"); err != nil {
			return err
		}
		pool, err := w.GetRexPool()
		if err == nil {
			if pool.TotalRex > 0 {
				pool.TotalUnlent += proceeds
				pool.TotalLendable += proceeds
			} else {
				pool.NamebidProceeds += proceeds
			}
			if err := w.SaveRexPool(pool); err != nil {
				return err
			}
		} else if err != schema.ErrNotInitialized {
			return err
		}
		if err := w.DeleteNameBid(name); err != nil {
			return err
		}
		s.publishAuctionClosed(name, creator, proceeds)
		return nil
	})
}

// auctionCloseable: one auction closes per day, and only once its standing
// bid has gone a full idle window without a raise.
func (s *Syscore) auctionCloseable(g *schema.GlobalState, nb *schema.NameBid, now int64) bool {
	if now-nb.LastBidTime <= schema.NameAuctionIdleSec {
		return false
	}
	return now-g.LastNameClose > schema.NameAuctionCloseGapSec
}

// closeIdleAuctions sweeps up to limit idle open auctions, oldest bid first.
// Shared by the block hook and the background job.
func (s *Syscore) closeIdleAuctions(w *Wdb, g *schema.GlobalState, limit int) error {
	now := s.now()
	bids, err := w.GetIdleOpenBids(now-schema.NameAuctionIdleSec, limit)
	if err != nil {
		return err
	}
	for i := range bids {
		nb := &bids[i]
		if !s.auctionCloseable(g, nb, now) {
			break
		}
		nb.HighBid = -nb.HighBid
		g.LastNameClose = now
		if err := w.SaveNameBid(nb); err != nil {
			return err
		}
	}
	return nil
}
