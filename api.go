package syscore

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corechain/syscore/common"
	cfgSchema "github.com/corechain/syscore/config/schema"
	"github.com/corechain/syscore/schema"
)

func (s *Syscore) runAPI(port string) {
	r := s.engine
	r.Use(common.CORSMiddleware())
	r.Use(common.LimiterMiddleware(s.config.Param().ApiRateLimit, "M", s.config.IpWhiteList()))
	r.Use(s.pauseMiddleware())
	v1 := r.Group("/")
	{
		v1.POST("/init", s.initChain)

		// stake
		v1.POST("/stake/delegate", s.delegateBw)
		v1.POST("/stake/undelegate", s.undelegateBw)
		v1.POST("/stake/refund", s.refund)

		// ram market
		v1.POST("/ram/buy", s.buyRam)
		v1.POST("/ram/buybytes", s.buyRamBytes)
		v1.POST("/ram/sell", s.sellRam)
		v1.GET("/ram/price", s.getRamPrice)

		// voting
		v1.POST("/vote/regproducer", s.regProducer)
		v1.POST("/vote/unregprod", s.unregProd)
		v1.POST("/vote/rmvproducer", s.rmvProducer)
		v1.POST("/vote/regproxy", s.regProxy)
		v1.POST("/vote/producers", s.voteProducer)
		v1.GET("/vote/voter/:owner", s.getVoter)
		v1.GET("/vote/producer/:owner", s.getProducer)
		v1.GET("/vote/schedule", s.getSchedule)

		// rex
		v1.POST("/rex/deposit", s.rexDeposit)
		v1.POST("/rex/withdraw", s.rexWithdraw)
		v1.POST("/rex/buy", s.buyRex)
		v1.POST("/rex/unstaketo", s.unstakeToRex)
		v1.POST("/rex/sell", s.sellRex)
		v1.POST("/rex/cnclorder", s.cnclRexOrder)
		v1.POST("/rex/update", s.updateRexHandler)
		v1.POST("/rex/exec", s.rexExec)
		v1.POST("/rex/consolidate", s.consolidate)
		v1.POST("/rex/mvtosavings", s.mvToSavings)
		v1.POST("/rex/mvfrsavings", s.mvFrSavings)
		v1.POST("/rex/close", s.closeRex)
		v1.GET("/rex/pool", s.getRexPool)
		v1.GET("/rex/balance/:owner", s.getRexBalance)
		v1.GET("/rex/fund/:owner", s.getRexFund)
		v1.GET("/rex/order/:owner", s.getRexOrder)

		// resource loans
		v1.POST("/rex/rentcpu", s.rentCpu)
		v1.POST("/rex/rentnet", s.rentNet)
		v1.POST("/rex/fundcpuloan", s.fundCpuLoan)
		v1.POST("/rex/fundnetloan", s.fundNetLoan)
		v1.POST("/rex/defcpuloan", s.defCpuLoan)
		v1.POST("/rex/defnetloan", s.defNetLoan)
		v1.GET("/rex/loans/:resource/:owner", s.getLoans)

		// name auction
		v1.POST("/name/bid", s.bidName)
		v1.POST("/name/bidrefund", s.bidRefund)
		v1.POST("/name/claim", s.nameClaim)
		v1.GET("/name/bid/:name", s.getNameBid)

		// producer pay
		v1.POST("/block", s.onBlock)
		v1.POST("/producer/claimrewards", s.claimRewards)

		v1.GET("/global", s.getGlobal)
		v1.GET("/resources/:owner", s.getResources)
		v1.POST("/params", s.setParams)
	}

	if err := r.Run(port); err != nil {
		panic(err)
	}
}

// pauseMiddleware rejects mutating calls while the operator pause flag is
// set; reads keep working.
func (s *Syscore) pauseMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && s.config.Param().PauseActions {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, schema.RespErr{
				Err: s.config.Param().PauseMessages,
			})
			return
		}
		c.Next()
	}
}

func (s *Syscore) initChain(c *gin.Context) {
	req := schema.InitReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	core, err := schema.ParseSymbol(req.Core)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.InitChain(int(req.Version), core))
}

func (s *Syscore) delegateBw(c *gin.Context) {
	req := schema.DelegateReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	net, cpu, err := parseAssetPair(req.Net, req.Cpu)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.DelegateBW(req.From, req.Receiver, net, cpu, req.Transfer))
}

func (s *Syscore) undelegateBw(c *gin.Context) {
	req := schema.UndelegateReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	net, cpu, err := parseAssetPair(req.Net, req.Cpu)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.UndelegateBW(req.From, req.Receiver, net, cpu))
}

func (s *Syscore) refund(c *gin.Context) {
	req := schema.RefundReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.Refund(req.Owner))
}

func (s *Syscore) buyRam(c *gin.Context) {
	req := schema.BuyRamReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	quant, err := schema.ParseAsset(req.Quant)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.BuyRam(req.Payer, req.Receiver, quant))
}

func (s *Syscore) buyRamBytes(c *gin.Context) {
	req := schema.BuyRamBytesReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.BuyRamBytes(req.Payer, req.Receiver, req.Bytes))
}

func (s *Syscore) sellRam(c *gin.Context) {
	req := schema.SellRamReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.SellRam(req.Account, req.Bytes))
}

func (s *Syscore) getRamPrice(c *gin.Context) {
	market := s.cache.GetRamMarket()
	c.JSON(http.StatusOK, schema.RespRamPrice{
		BytesReserve: market.BaseBalance,
		CoreReserve:  market.QuoteBalance,
		Price:        s.cache.RamPrice(),
	})
}

func (s *Syscore) regProducer(c *gin.Context) {
	req := schema.RegProducerReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.RegProducer(req.Producer, req.SigningKey, req.Url, req.Location))
}

func (s *Syscore) unregProd(c *gin.Context) {
	req := schema.UnregProdReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.UnregProd(req.Producer))
}

func (s *Syscore) rmvProducer(c *gin.Context) {
	req := schema.UnregProdReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.RmvProducer(req.Producer))
}

func (s *Syscore) regProxy(c *gin.Context) {
	req := schema.RegProxyReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.RegProxy(req.Proxy, req.IsProxy))
}

func (s *Syscore) voteProducer(c *gin.Context) {
	req := schema.VoteProducerReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.VoteProducer(req.Voter, req.Proxy, req.Producers))
}

func (s *Syscore) getVoter(c *gin.Context) {
	voter, err := s.wdb.GetVoter(c.Param("owner"))
	if err != nil {
		notFoundResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, voter)
}

func (s *Syscore) getProducer(c *gin.Context) {
	p, err := s.wdb.GetProducer(c.Param("owner"))
	if err != nil {
		notFoundResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Syscore) getSchedule(c *gin.Context) {
	c.JSON(http.StatusOK, s.cache.GetSchedule())
}

func (s *Syscore) rexDeposit(c *gin.Context) {
	owner, amount, ok := bindOwnerAmount(c)
	if !ok {
		return
	}
	doAction(c, s.Deposit(owner, amount))
}

func (s *Syscore) rexWithdraw(c *gin.Context) {
	owner, amount, ok := bindOwnerAmount(c)
	if !ok {
		return
	}
	doAction(c, s.Withdraw(owner, amount))
}

func (s *Syscore) buyRex(c *gin.Context) {
	owner, amount, ok := bindOwnerAmount(c)
	if !ok {
		return
	}
	doAction(c, s.BuyRex(owner, amount))
}

func (s *Syscore) unstakeToRex(c *gin.Context) {
	req := schema.UnstakeToRexReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	net, cpu, err := parseAssetPair(req.FromNet, req.FromCpu)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.UnstakeToRex(req.Owner, req.Receiver, net, cpu))
}

func (s *Syscore) sellRex(c *gin.Context) {
	owner, rex, ok := bindOwnerRex(c)
	if !ok {
		return
	}
	doAction(c, s.SellRex(owner, rex))
}

func (s *Syscore) cnclRexOrder(c *gin.Context) {
	req := schema.RexOwnerReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.CnclRexOrder(req.Owner))
}

func (s *Syscore) updateRexHandler(c *gin.Context) {
	req := schema.RexOwnerReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.UpdateRex(req.Owner))
}

func (s *Syscore) rexExec(c *gin.Context) {
	req := schema.RexExecReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.RexExec(req.User, req.Max))
}

func (s *Syscore) consolidate(c *gin.Context) {
	req := schema.RexOwnerReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.Consolidate(req.Owner))
}

func (s *Syscore) mvToSavings(c *gin.Context) {
	owner, rex, ok := bindOwnerRex(c)
	if !ok {
		return
	}
	doAction(c, s.MvToSavings(owner, rex))
}

func (s *Syscore) mvFrSavings(c *gin.Context) {
	owner, rex, ok := bindOwnerRex(c)
	if !ok {
		return
	}
	doAction(c, s.MvFrSavings(owner, rex))
}

func (s *Syscore) closeRex(c *gin.Context) {
	req := schema.RexOwnerReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.CloseRex(req.Owner))
}

func (s *Syscore) getRexPool(c *gin.Context) {
	c.JSON(http.StatusOK, s.cache.GetRexPool())
}

func (s *Syscore) getRexBalance(c *gin.Context) {
	bal, err := s.wdb.GetRexBalance(c.Param("owner"))
	if err != nil {
		notFoundResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (s *Syscore) getRexFund(c *gin.Context) {
	fund, err := s.wdb.GetRexFund(c.Param("owner"))
	if err != nil {
		notFoundResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, fund)
}

func (s *Syscore) getRexOrder(c *gin.Context) {
	order, err := s.wdb.GetRexOrder(c.Param("owner"))
	if err != nil {
		notFoundResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Syscore) rentCpu(c *gin.Context) {
	from, receiver, payment, fund, ok := bindRent(c)
	if !ok {
		return
	}
	doAction(c, s.RentCPU(from, receiver, payment, fund))
}

func (s *Syscore) rentNet(c *gin.Context) {
	from, receiver, payment, fund, ok := bindRent(c)
	if !ok {
		return
	}
	doAction(c, s.RentNet(from, receiver, payment, fund))
}

func (s *Syscore) fundCpuLoan(c *gin.Context) {
	from, loanNum, amount, ok := bindLoanFund(c)
	if !ok {
		return
	}
	doAction(c, s.FundCPULoan(from, loanNum, amount))
}

func (s *Syscore) fundNetLoan(c *gin.Context) {
	from, loanNum, amount, ok := bindLoanFund(c)
	if !ok {
		return
	}
	doAction(c, s.FundNetLoan(from, loanNum, amount))
}

func (s *Syscore) defCpuLoan(c *gin.Context) {
	from, loanNum, amount, ok := bindLoanFund(c)
	if !ok {
		return
	}
	doAction(c, s.DefCPULoan(from, loanNum, amount))
}

func (s *Syscore) defNetLoan(c *gin.Context) {
	from, loanNum, amount, ok := bindLoanFund(c)
	if !ok {
		return
	}
	doAction(c, s.DefNetLoan(from, loanNum, amount))
}

func (s *Syscore) getLoans(c *gin.Context) {
	res := schema.Resource(c.Param("resource"))
	if !res.Valid() {
		errorResponse(c, schema.ErrInvalidName.Error())
		return
	}
	owner := c.Param("owner")
	cacheKey := "loans:" + string(res) + ":" + owner
	if by, err := s.localCache.Cache.Get(cacheKey); err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", by)
		return
	}
	loans, err := s.wdb.GetLoansByOwner(res, owner)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	if by, err := json.Marshal(loans); err == nil {
		s.localCache.Cache.Set(cacheKey, by)
	}
	c.JSON(http.StatusOK, loans)
}

func (s *Syscore) bidName(c *gin.Context) {
	req := schema.BidNameReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	bid, err := schema.ParseAsset(req.Bid)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.BidName(req.Bidder, req.NewName, bid))
}

func (s *Syscore) bidRefund(c *gin.Context) {
	req := schema.BidRefundReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.ClaimBidRefund(req.NewName, req.Bidder))
}

func (s *Syscore) nameClaim(c *gin.Context) {
	req := schema.NameClaimReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.ApplyNameClaim(req.Creator, req.Name))
}

func (s *Syscore) getNameBid(c *gin.Context) {
	nb, err := s.wdb.GetNameBid(c.Param("name"))
	if err != nil {
		notFoundResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, nb)
}

func (s *Syscore) onBlock(c *gin.Context) {
	req := schema.OnBlockReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.OnBlock(req.Producer, req.BlockTime))
}

func (s *Syscore) claimRewards(c *gin.Context) {
	req := schema.ClaimRewardsReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.ClaimRewards(req.Owner))
}

func (s *Syscore) getGlobal(c *gin.Context) {
	c.JSON(http.StatusOK, s.cache.GetGlobal())
}

func (s *Syscore) getResources(c *gin.Context) {
	res, err := s.wdb.GetUserResources(c.Param("owner"))
	if err != nil {
		notFoundResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Syscore) setParams(c *gin.Context) {
	param := cfgSchema.Param{}
	if err := c.ShouldBindJSON(&param); err != nil {
		errorResponse(c, err.Error())
		return
	}
	doAction(c, s.SetParams(param))
}

// binding helpers

func bindOwnerAmount(c *gin.Context) (string, schema.Asset, bool) {
	req := schema.RexTransferReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return "", schema.Asset{}, false
	}
	amount, err := schema.ParseAsset(req.Amount)
	if err != nil {
		errorResponse(c, err.Error())
		return "", schema.Asset{}, false
	}
	return req.Owner, amount, true
}

func bindOwnerRex(c *gin.Context) (string, schema.Asset, bool) {
	req := schema.RexAmountReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return "", schema.Asset{}, false
	}
	rex, err := schema.ParseAsset(req.Rex)
	if err != nil {
		errorResponse(c, err.Error())
		return "", schema.Asset{}, false
	}
	return req.Owner, rex, true
}

func bindRent(c *gin.Context) (string, string, schema.Asset, schema.Asset, bool) {
	req := schema.RentReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return "", "", schema.Asset{}, schema.Asset{}, false
	}
	payment, fund, err := parseAssetPair(req.Payment, req.Fund)
	if err != nil {
		errorResponse(c, err.Error())
		return "", "", schema.Asset{}, schema.Asset{}, false
	}
	return req.From, req.Receiver, payment, fund, true
}

func bindLoanFund(c *gin.Context) (string, uint64, schema.Asset, bool) {
	req := schema.LoanFundReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return "", 0, schema.Asset{}, false
	}
	amount, err := schema.ParseAsset(req.Amount)
	if err != nil {
		errorResponse(c, err.Error())
		return "", 0, schema.Asset{}, false
	}
	return req.From, req.LoanNum, amount, true
}

func parseAssetPair(a, b string) (schema.Asset, schema.Asset, error) {
	first, err := schema.ParseAsset(a)
	if err != nil {
		return schema.Asset{}, schema.Asset{}, err
	}
	second, err := schema.ParseAsset(b)
	if err != nil {
		return schema.Asset{}, schema.Asset{}, err
	}
	return first, second, nil
}

func doAction(c *gin.Context, err error) {
	if err != nil {
		// invariant violations are server-side faults, everything else the
		// caller can correct
		if IsInvariantErr(err) {
			internalErrorResponse(c, err.Error())
		} else {
			errorResponse(c, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, schema.RespOk{Ok: true})
}

func notFoundResponse(c *gin.Context, err error) {
	c.JSON(http.StatusNotFound, schema.RespErr{
		Err: err.Error(),
	})
}

func errorResponse(c *gin.Context, err string) {
	// client error
	c.JSON(http.StatusBadRequest, schema.RespErr{
		Err: err,
	})
}

func internalErrorResponse(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, schema.RespErr{
		Err: err,
	})
}
