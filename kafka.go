package syscore

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/corechain/syscore/schema"
)

const (
	OrderTopic   = "syscore_rex_order"
	LoanTopic    = "syscore_rex_loan"
	AuctionTopic = "syscore_name_auction"
)

type KWriter struct {
	w *kafka.Writer
}

func NewKWriter(topic string, uri string) (*KWriter, error) {
	w := &kafka.Writer{
		Addr:     kafka.TCP(uri),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &KWriter{
		w: w,
	}, nil
}

func (kw *KWriter) Write(body []byte) error {
	err := kw.w.WriteMessages(
		context.Background(),
		kafka.Message{
			Value: body,
		},
	)
	return err
}

func (kw *KWriter) Close() {
	kw.w.Close()
}

func NewKWriters(uri string) (map[string]*KWriter, error) {
	orderWriter, err := NewKWriter(OrderTopic, uri)
	if err != nil {
		return nil, err
	}
	loanWriter, err := NewKWriter(LoanTopic, uri)
	if err != nil {
		return nil, err
	}
	auctionWriter, err := NewKWriter(AuctionTopic, uri)
	if err != nil {
		return nil, err
	}
	return map[string]*KWriter{
		OrderTopic:   orderWriter,
		LoanTopic:    loanWriter,
		AuctionTopic: auctionWriter,
	}, nil
}

// publish is fire-and-forget; a broker failure never rolls back state.
func (s *Syscore) publish(topic string, ev interface{}) {
	kw, ok := s.kafka[topic]
	if !ok {
		return
	}
	by, err := json.Marshal(ev)
	if err != nil {
		log.Error("json.Marshal(ev)", "err", err, "topic", topic)
		return
	}
	if err := kw.Write(by); err != nil {
		log.Error("kafka write failed", "err", err, "topic", topic)
	}
}

func (s *Syscore) publishOrderFilled(order *schema.RexOrder) {
	s.publish(OrderTopic, &schema.OrderFilledEvent{
		EventId:     uuid.NewString(),
		Owner:       order.Owner,
		RexSold:     order.RexRequested,
		Proceeds:    order.Proceeds,
		StakeChange: order.StakeChange,
		FilledAt:    s.now(),
	})
}

func (s *Syscore) publishLoanClosed(loan *schema.RexLoan) {
	s.publish(LoanTopic, &schema.LoanClosedEvent{
		EventId:  uuid.NewString(),
		LoanNum:  loan.LoanNum,
		Resource: loan.Resource,
		Owner:    loan.From,
		Receiver: loan.Receiver,
		Refund:   loan.Balance,
		ClosedAt: s.now(),
	})
}

func (s *Syscore) publishAuctionClosed(name, winner string, proceeds int64) {
	s.publish(AuctionTopic, &schema.AuctionClosedEvent{
		EventId:    uuid.NewString(),
		NewName:    name,
		HighBidder: winner,
		HighBid:    proceeds,
		ClosedAt:   s.now(),
	})
}
