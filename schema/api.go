package schema

// Amounts travel over the API in canonical asset form, e.g. "1.0000 SYS".

type InitReq struct {
	Version uint64 `json:"version"`
	Core    string `json:"core"`
}

type DelegateReq struct {
	From     string `json:"from"`
	Receiver string `json:"receiver"`
	Net      string `json:"net"`
	Cpu      string `json:"cpu"`
	Transfer bool   `json:"transfer"`
}

type UndelegateReq struct {
	From     string `json:"from"`
	Receiver string `json:"receiver"`
	Net      string `json:"net"`
	Cpu      string `json:"cpu"`
}

type RefundReq struct {
	Owner string `json:"owner"`
}

type BuyRamReq struct {
	Payer    string `json:"payer"`
	Receiver string `json:"receiver"`
	Quant    string `json:"quant"`
}

type BuyRamBytesReq struct {
	Payer    string `json:"payer"`
	Receiver string `json:"receiver"`
	Bytes    int64  `json:"bytes"`
}

type SellRamReq struct {
	Account string `json:"account"`
	Bytes   int64  `json:"bytes"`
}

type RegProducerReq struct {
	Producer   string `json:"producer"`
	SigningKey string `json:"signingKey"`
	Url        string `json:"url"`
	Location   uint16 `json:"location"`
}

type UnregProdReq struct {
	Producer string `json:"producer"`
}

type RegProxyReq struct {
	Proxy   string `json:"proxy"`
	IsProxy bool   `json:"isProxy"`
}

type VoteProducerReq struct {
	Voter     string   `json:"voter"`
	Proxy     string   `json:"proxy"`
	Producers []string `json:"producers"`
}

type RexTransferReq struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

type UnstakeToRexReq struct {
	Owner    string `json:"owner"`
	Receiver string `json:"receiver"`
	FromNet  string `json:"fromNet"`
	FromCpu  string `json:"fromCpu"`
}

type RexAmountReq struct {
	Owner string `json:"owner"`
	Rex   string `json:"rex"`
}

type RexOwnerReq struct {
	Owner string `json:"owner"`
}

type RexExecReq struct {
	User string `json:"user"`
	Max  int    `json:"max"`
}

type RentReq struct {
	From     string `json:"from"`
	Receiver string `json:"receiver"`
	Payment  string `json:"payment"`
	Fund     string `json:"fund"`
}

type LoanFundReq struct {
	From    string `json:"from"`
	LoanNum uint64 `json:"loanNum"`
	Amount  string `json:"amount"`
}

type BidNameReq struct {
	Bidder  string `json:"bidder"`
	NewName string `json:"newName"`
	Bid     string `json:"bid"`
}

type BidRefundReq struct {
	NewName string `json:"newName"`
	Bidder  string `json:"bidder"`
}

type NameClaimReq struct {
	Creator string `json:"creator"`
	Name    string `json:"name"`
}

type ClaimRewardsReq struct {
	Owner string `json:"owner"`
}

type OnBlockReq struct {
	Producer  string `json:"producer"`
	BlockTime int64  `json:"blockTime"`
}

type RespOk struct {
	Ok bool `json:"ok"`
}

type RespRamPrice struct {
	BytesReserve int64   `json:"bytesReserve"`
	CoreReserve  int64   `json:"coreReserve"`
	Price        float64 `json:"price"` // core per byte
}

type RespErr struct {
	Err string `json:"error"`
}

func (r RespErr) Error() string {
	return r.Err
}
