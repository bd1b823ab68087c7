package syscore

import (
	"errors"
	"path"

	"github.com/corechain/syscore/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Wdb struct {
	Db *gorm.DB
}

func NewMysqlDb(dsn string) *Wdb {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect mysql db success")
	return &Wdb{Db: db}
}

func NewSqliteDb(dbDir string) *Wdb {
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, "syscore.sqlite")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect sqlite db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(
		&schema.GlobalState{}, &schema.Voter{}, &schema.Producer{},
		&schema.ExchangePool{}, &schema.RexPool{}, &schema.RexFund{},
		&schema.RexBalance{}, &schema.RexLoan{}, &schema.RexOrder{},
		&schema.NameBid{}, &schema.BidRefund{},
		&schema.UserResources{}, &schema.DelegatedBandwidth{}, &schema.RefundRequest{},
	)
}

// WithTx returns a Wdb bound to tx so every action mutates state inside one
// transaction and rolls back as a unit.
func (w *Wdb) WithTx(tx *gorm.DB) *Wdb {
	return &Wdb{Db: tx}
}

// global state

func (w *Wdb) GetGlobal() (*schema.GlobalState, error) {
	g := &schema.GlobalState{}
	err := w.Db.First(g, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotInitialized
	}
	return g, err
}

func (w *Wdb) SaveGlobal(g *schema.GlobalState) error {
	g.ID = 1
	return w.Db.Save(g).Error
}

// voters

func (w *Wdb) GetVoter(owner string) (*schema.Voter, error) {
	v := &schema.Voter{}
	err := w.Db.First(v, "owner = ?", owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	return v, err
}

func (w *Wdb) SaveVoter(v *schema.Voter) error {
	return w.Db.Save(v).Error
}

func (w *Wdb) GetProxyDelegators(proxy string) ([]schema.Voter, error) {
	res := make([]schema.Voter, 0)
	err := w.Db.Where("proxy = ?", proxy).Find(&res).Error
	return res, err
}

// producers

func (w *Wdb) GetProducer(owner string) (*schema.Producer, error) {
	p := &schema.Producer{}
	err := w.Db.First(p, "owner = ?", owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	return p, err
}

func (w *Wdb) SaveProducer(p *schema.Producer) error {
	return w.Db.Save(p).Error
}

// GetTopProducers returns active producers ranked by descending vote total.
func (w *Wdb) GetTopProducers(limit int) ([]schema.Producer, error) {
	res := make([]schema.Producer, 0, limit)
	err := w.Db.Where("is_active = ? AND total_votes > 0", true).
		Order("total_votes DESC").Order("owner ASC").Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) GetProducers() ([]schema.Producer, error) {
	res := make([]schema.Producer, 0)
	err := w.Db.Order("owner ASC").Find(&res).Error
	return res, err
}

// exchange pool

func (w *Wdb) GetExchangePool(poolSymbol string) (*schema.ExchangePool, error) {
	p := &schema.ExchangePool{}
	err := w.Db.First(p, "pool_symbol = ?", poolSymbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotInitialized
	}
	return p, err
}

func (w *Wdb) SaveExchangePool(p *schema.ExchangePool) error {
	return w.Db.Save(p).Error
}

// rex pool and funds

func (w *Wdb) GetRexPool() (*schema.RexPool, error) {
	p := &schema.RexPool{}
	err := w.Db.First(p, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotInitialized
	}
	return p, err
}

func (w *Wdb) SaveRexPool(p *schema.RexPool) error {
	p.ID = 1
	return w.Db.Save(p).Error
}

func (w *Wdb) GetRexFund(owner string) (*schema.RexFund, error) {
	f := &schema.RexFund{}
	err := w.Db.First(f, "owner = ?", owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	return f, err
}

func (w *Wdb) SaveRexFund(f *schema.RexFund) error {
	return w.Db.Save(f).Error
}

func (w *Wdb) DeleteRexFund(owner string) error {
	return w.Db.Delete(&schema.RexFund{}, "owner = ?", owner).Error
}

func (w *Wdb) GetRexBalance(owner string) (*schema.RexBalance, error) {
	b := &schema.RexBalance{}
	err := w.Db.First(b, "owner = ?", owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	return b, err
}

func (w *Wdb) SaveRexBalance(b *schema.RexBalance) error {
	return w.Db.Save(b).Error
}

func (w *Wdb) DeleteRexBalance(owner string) error {
	return w.Db.Delete(&schema.RexBalance{}, "owner = ?", owner).Error
}

// loans

func (w *Wdb) InsertLoan(l *schema.RexLoan) error {
	return w.Db.Create(l).Error
}

func (w *Wdb) GetLoan(res schema.Resource, loanNum uint64) (*schema.RexLoan, error) {
	l := &schema.RexLoan{}
	err := w.Db.First(l, "resource = ? AND loan_num = ?", res, loanNum).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	return l, err
}

func (w *Wdb) SaveLoan(l *schema.RexLoan) error {
	return w.Db.Save(l).Error
}

func (w *Wdb) DeleteLoan(loanNum uint64) error {
	return w.Db.Delete(&schema.RexLoan{}, "loan_num = ?", loanNum).Error
}

// GetExpiredLoans returns at most limit expired loans in ascending expiration
// order, so repeated sweeps with any bound stay idempotent.
func (w *Wdb) GetExpiredLoans(now int64, limit int) ([]schema.RexLoan, error) {
	res := make([]schema.RexLoan, 0, limit)
	err := w.Db.Where("expiration <= ?", now).
		Order("expiration ASC").Order("loan_num ASC").Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) GetLoansByOwner(res schema.Resource, owner string) ([]schema.RexLoan, error) {
	loans := make([]schema.RexLoan, 0)
	err := w.Db.Where("resource = ? AND `from` = ?", res, owner).
		Order("loan_num ASC").Find(&loans).Error
	return loans, err
}

func (w *Wdb) CountLoansByOwner(owner string) (int64, error) {
	var n int64
	err := w.Db.Model(&schema.RexLoan{}).Where("`from` = ?", owner).Count(&n).Error
	return n, err
}

// sell orders

func (w *Wdb) GetRexOrder(owner string) (*schema.RexOrder, error) {
	o := &schema.RexOrder{}
	err := w.Db.First(o, "owner = ?", owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	return o, err
}

func (w *Wdb) SaveRexOrder(o *schema.RexOrder) error {
	return w.Db.Save(o).Error
}

func (w *Wdb) DeleteRexOrder(owner string) error {
	return w.Db.Delete(&schema.RexOrder{}, "owner = ?", owner).Error
}

// GetOpenRexOrders returns the oldest open orders first (FIFO by submission).
func (w *Wdb) GetOpenRexOrders(limit int) ([]schema.RexOrder, error) {
	res := make([]schema.RexOrder, 0, limit)
	err := w.Db.Where("is_open = ?", true).
		Order("order_time ASC").Order("owner ASC").Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) CountOpenRexOrders() (int64, error) {
	var n int64
	err := w.Db.Model(&schema.RexOrder{}).Where("is_open = ?", true).Count(&n).Error
	return n, err
}

// name bids

func (w *Wdb) GetNameBid(newName string) (*schema.NameBid, error) {
	b := &schema.NameBid{}
	err := w.Db.First(b, "new_name = ?", newName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	return b, err
}

func (w *Wdb) SaveNameBid(b *schema.NameBid) error {
	return w.Db.Save(b).Error
}

func (w *Wdb) DeleteNameBid(newName string) error {
	return w.Db.Delete(&schema.NameBid{}, "new_name = ?", newName).Error
}

// GetIdleOpenBids returns open auctions whose last bid is older than cutoff,
// highest bid first.
func (w *Wdb) GetIdleOpenBids(cutoff int64, limit int) ([]schema.NameBid, error) {
	res := make([]schema.NameBid, 0, limit)
	err := w.Db.Where("high_bid > 0 AND last_bid_time <= ?", cutoff).
		Order("high_bid DESC").Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) GetBidRefund(newName, bidder string) (*schema.BidRefund, error) {
	r := &schema.BidRefund{}
	err := w.Db.First(r, "new_name = ? AND bidder = ?", newName, bidder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNoRefundDue
	}
	return r, err
}

func (w *Wdb) UpsertBidRefund(r *schema.BidRefund) error {
	return w.Db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "new_name"}, {Name: "bidder"}},
		UpdateAll: true,
	}).Create(r).Error
}

func (w *Wdb) DeleteBidRefund(newName, bidder string) error {
	return w.Db.Delete(&schema.BidRefund{}, "new_name = ? AND bidder = ?", newName, bidder).Error
}

// staking

func (w *Wdb) GetUserResources(owner string) (*schema.UserResources, error) {
	u := &schema.UserResources{}
	err := w.Db.First(u, "owner = ?", owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	return u, err
}

func (w *Wdb) SaveUserResources(u *schema.UserResources) error {
	return w.Db.Save(u).Error
}

func (w *Wdb) GetDelegatedBandwidth(from, to string) (*schema.DelegatedBandwidth, error) {
	d := &schema.DelegatedBandwidth{}
	err := w.Db.First(d, "`from` = ? AND `to` = ?", from, to).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	return d, err
}

func (w *Wdb) SaveDelegatedBandwidth(d *schema.DelegatedBandwidth) error {
	return w.Db.Save(d).Error
}

func (w *Wdb) DeleteDelegatedBandwidth(from, to string) error {
	return w.Db.Delete(&schema.DelegatedBandwidth{}, "`from` = ? AND `to` = ?", from, to).Error
}

func (w *Wdb) GetRefundRequest(owner string) (*schema.RefundRequest, error) {
	r := &schema.RefundRequest{}
	err := w.Db.First(r, "owner = ?", owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	return r, err
}

func (w *Wdb) SaveRefundRequest(r *schema.RefundRequest) error {
	return w.Db.Save(r).Error
}

func (w *Wdb) DeleteRefundRequest(owner string) error {
	return w.Db.Delete(&schema.RefundRequest{}, "owner = ?", owner).Error
}

// GetDueRefunds returns up to limit refund requests whose delay has elapsed.
func (w *Wdb) GetDueRefunds(cutoff int64, limit int) ([]schema.RefundRequest, error) {
	res := make([]schema.RefundRequest, 0, limit)
	err := w.Db.Where("request_time <= ?", cutoff).
		Order("request_time ASC").Limit(limit).Find(&res).Error
	return res, err
}
