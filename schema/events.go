package schema

// Event payloads published to kafka when the event stream is enabled.

type OrderFilledEvent struct {
	EventId     string `json:"eventId"`
	Owner       string `json:"owner"`
	RexSold     int64  `json:"rexSold"`
	Proceeds    int64  `json:"proceeds"`
	StakeChange int64  `json:"stakeChange"`
	FilledAt    int64  `json:"filledAt"`
}

type LoanClosedEvent struct {
	EventId  string   `json:"eventId"`
	LoanNum  uint64   `json:"loanNum"`
	Resource Resource `json:"resource"`
	Owner    string   `json:"owner"`
	Receiver string   `json:"receiver"`
	Refund   int64    `json:"refund"`
	ClosedAt int64    `json:"closedAt"`
}

type AuctionClosedEvent struct {
	EventId    string `json:"eventId"`
	NewName    string `json:"newName"`
	HighBidder string `json:"highBidder"`
	HighBid    int64  `json:"highBid"`
	ClosedAt   int64  `json:"closedAt"`
}
