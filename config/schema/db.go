package schema

// Param holds operator-tunable serving knobs, refreshed from the database at
// runtime so a restart is never needed to apply them.
type Param struct {
	ID uint `gorm:"primarykey"`

	SweepBatch    int // loans and sell orders settled per sweep
	AuctionBatch  int // idle auctions closed per sweep
	ApiRateLimit  int // requests per minute per origin+ip
	PauseActions  bool
	PauseMessages string
}

type IpRateWhitelist struct {
	OriginOrIP  string // e.g "188.0.2.2"
	Available   bool   `gorm:"index:idx3"` // true means effective
	Description string
}
