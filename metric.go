package syscore

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/corechain/syscore/schema"
)

const (
	MetricNameSpace = "syscore"
)

var (
	totalVoteWeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "total_producer_vote_weight",
			Help:      "sum of all producer vote weights",
		},
	)
	rexPoolBalance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "rex_pool_balance",
			Help:      "rex pool reserves by side",
		},
		[]string{"side"},
	)
	ramMarketReserve = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "ram_market_reserve",
			Help:      "ram market connector reserves",
		},
		[]string{"side"},
	)
	openSellOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "rex_open_sell_orders",
			Help:      "queued rex sell orders waiting on liquidity",
		},
	)
)

func init() {
	prometheus.MustRegister(
		totalVoteWeight,
		rexPoolBalance,
		ramMarketReserve,
		openSellOrders,
	)
}

func metricRexPool(pool schema.RexPool) {
	rexPoolBalance.WithLabelValues("lendable").Set(float64(pool.TotalLendable))
	rexPoolBalance.WithLabelValues("unlent").Set(float64(pool.TotalUnlent))
	rexPoolBalance.WithLabelValues("lent").Set(float64(pool.TotalLent))
	rexPoolBalance.WithLabelValues("rent").Set(float64(pool.TotalRent))
	rexPoolBalance.WithLabelValues("rex").Set(float64(pool.TotalRex))
}

func metricRamMarket(pool schema.ExchangePool) {
	ramMarketReserve.WithLabelValues("bytes").Set(float64(pool.BaseBalance))
	ramMarketReserve.WithLabelValues("core").Set(float64(pool.QuoteBalance))
}
