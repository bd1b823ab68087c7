package sdk

import (
	"errors"
	"fmt"

	"gopkg.in/h2non/gentleman.v2"
	"gopkg.in/h2non/gentleman.v2/plugins/body"

	"github.com/corechain/syscore/schema"
)

// SysCli is a thin http client over the syscore api.
type SysCli struct {
	SCli *gentleman.Client
}

func New(syscoreUrl string) *SysCli {
	return &SysCli{
		SCli: gentleman.New().URL(syscoreUrl),
	}
}

// stake

func (a *SysCli) DelegateBw(from, receiver, net, cpu string, transfer bool) error {
	return a.post("/stake/delegate", schema.DelegateReq{
		From: from, Receiver: receiver, Net: net, Cpu: cpu, Transfer: transfer,
	})
}

func (a *SysCli) UndelegateBw(from, receiver, net, cpu string) error {
	return a.post("/stake/undelegate", schema.UndelegateReq{
		From: from, Receiver: receiver, Net: net, Cpu: cpu,
	})
}

func (a *SysCli) Refund(owner string) error {
	return a.post("/stake/refund", schema.RefundReq{Owner: owner})
}

// ram

func (a *SysCli) BuyRam(payer, receiver, quant string) error {
	return a.post("/ram/buy", schema.BuyRamReq{Payer: payer, Receiver: receiver, Quant: quant})
}

func (a *SysCli) BuyRamBytes(payer, receiver string, bytes int64) error {
	return a.post("/ram/buybytes", schema.BuyRamBytesReq{Payer: payer, Receiver: receiver, Bytes: bytes})
}

func (a *SysCli) SellRam(account string, bytes int64) error {
	return a.post("/ram/sell", schema.SellRamReq{Account: account, Bytes: bytes})
}

func (a *SysCli) GetRamPrice() (schema.RespRamPrice, error) {
	price := schema.RespRamPrice{}
	err := a.get("/ram/price", &price)
	return price, err
}

// voting

func (a *SysCli) RegProducer(producer, signingKey, url string, location uint16) error {
	return a.post("/vote/regproducer", schema.RegProducerReq{
		Producer: producer, SigningKey: signingKey, Url: url, Location: location,
	})
}

func (a *SysCli) VoteProducer(voter, proxy string, producers []string) error {
	return a.post("/vote/producers", schema.VoteProducerReq{
		Voter: voter, Proxy: proxy, Producers: producers,
	})
}

func (a *SysCli) RegProxy(proxy string, isProxy bool) error {
	return a.post("/vote/regproxy", schema.RegProxyReq{Proxy: proxy, IsProxy: isProxy})
}

// rex

func (a *SysCli) Deposit(owner, amount string) error {
	return a.post("/rex/deposit", schema.RexTransferReq{Owner: owner, Amount: amount})
}

func (a *SysCli) Withdraw(owner, amount string) error {
	return a.post("/rex/withdraw", schema.RexTransferReq{Owner: owner, Amount: amount})
}

func (a *SysCli) BuyRex(owner, amount string) error {
	return a.post("/rex/buy", schema.RexTransferReq{Owner: owner, Amount: amount})
}

func (a *SysCli) SellRex(owner, rex string) error {
	return a.post("/rex/sell", schema.RexAmountReq{Owner: owner, Rex: rex})
}

func (a *SysCli) RentCpu(from, receiver, payment, fund string) error {
	return a.post("/rex/rentcpu", schema.RentReq{
		From: from, Receiver: receiver, Payment: payment, Fund: fund,
	})
}

func (a *SysCli) RentNet(from, receiver, payment, fund string) error {
	return a.post("/rex/rentnet", schema.RentReq{
		From: from, Receiver: receiver, Payment: payment, Fund: fund,
	})
}

func (a *SysCli) RexExec(user string, max int) error {
	return a.post("/rex/exec", schema.RexExecReq{User: user, Max: max})
}

// name auction

func (a *SysCli) BidName(bidder, newName, bid string) error {
	return a.post("/name/bid", schema.BidNameReq{Bidder: bidder, NewName: newName, Bid: bid})
}

func (a *SysCli) ClaimBidRefund(newName, bidder string) error {
	return a.post("/name/bidrefund", schema.BidRefundReq{NewName: newName, Bidder: bidder})
}

// producer pay

func (a *SysCli) ClaimRewards(owner string) error {
	return a.post("/producer/claimrewards", schema.ClaimRewardsReq{Owner: owner})
}

// queries

func (a *SysCli) GetGlobal() (schema.GlobalState, error) {
	g := schema.GlobalState{}
	err := a.get("/global", &g)
	return g, err
}

func (a *SysCli) GetRexPool() (schema.RexPool, error) {
	pool := schema.RexPool{}
	err := a.get("/rex/pool", &pool)
	return pool, err
}

func (a *SysCli) GetVoter(owner string) (schema.Voter, error) {
	v := schema.Voter{}
	err := a.get(fmt.Sprintf("/vote/voter/%s", owner), &v)
	return v, err
}

func (a *SysCli) GetProducer(owner string) (schema.Producer, error) {
	p := schema.Producer{}
	err := a.get(fmt.Sprintf("/vote/producer/%s", owner), &p)
	return p, err
}

func (a *SysCli) GetSchedule() ([]schema.Producer, error) {
	ps := make([]schema.Producer, 0)
	err := a.get("/vote/schedule", &ps)
	return ps, err
}

func (a *SysCli) GetRexBalance(owner string) (schema.RexBalance, error) {
	bal := schema.RexBalance{}
	err := a.get(fmt.Sprintf("/rex/balance/%s", owner), &bal)
	return bal, err
}

func (a *SysCli) GetNameBid(name string) (schema.NameBid, error) {
	nb := schema.NameBid{}
	err := a.get(fmt.Sprintf("/name/bid/%s", name), &nb)
	return nb, err
}

func (a *SysCli) post(path string, payload interface{}) error {
	req := a.SCli.Post()
	req.AddPath(path)
	req.Use(body.JSON(payload))
	resp, err := req.Send()
	if err != nil {
		return err
	}
	defer resp.Close()
	if !resp.Ok {
		return errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	return nil
}

func (a *SysCli) get(path string, out interface{}) error {
	req := a.SCli.Get()
	req.AddPath(path)
	resp, err := req.Send()
	if err != nil {
		return err
	}
	defer resp.Close()
	if !resp.Ok {
		return errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	return resp.JSON(out)
}
