package journal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/kafka-go"

	"matchcore/internal/engine"
)

// KafkaFanout decorates another engine.MsgQueue, replicating every
// journalled record to a Kafka topic after the primary accepts it. The
// primary's ack is still what createOrder/etc wait on; fan-out failures
// are logged by the caller, never allowed to fail the operation itself
// (spec.md §5: the journal submission is the one suspension point, and
// it is the primary journal, not its replicas, that must succeed).
type KafkaFanout struct {
	primary engine.MsgQueue
	writer  *kafka.Writer
	enc     *zstd.Encoder
}

// NewKafkaFanout wraps primary with replication to topic on brokers.
func NewKafkaFanout(primary engine.MsgQueue, brokers []string, topic string) (*KafkaFanout, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	return &KafkaFanout{
		primary: primary,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
		},
		enc: enc,
	}, nil
}

func (k *KafkaFanout) Close() error {
	return k.writer.Close()
}

func (k *KafkaFanout) publish(ctx context.Context, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	compressed := k.enc.EncodeAll(raw, nil)
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: compressed,
	})
}

func (k *KafkaFanout) CreateMarket(id engine.Id64, instr string, settlDay engine.JulianDay, state engine.MarketState) error {
	if err := k.primary.CreateMarket(id, instr, settlDay, state); err != nil {
		return err
	}
	return k.publish(context.Background(), "market/"+id.String(), marketRecord{Id: id, Instr: instr, SettlDay: settlDay, State: state})
}

func (k *KafkaFanout) UpdateMarket(id engine.Id64, state engine.MarketState) error {
	if err := k.primary.UpdateMarket(id, state); err != nil {
		return err
	}
	return k.publish(context.Background(), "market/"+id.String(), struct {
		Id    engine.Id64        `json:"id"`
		State engine.MarketState `json:"state"`
	}{id, state})
}

// CreateExec fans the whole batch out as a single compressed Kafka
// message, keyed by the market the batch belongs to (every exec in one
// createOrder/reviseOrder/cancelOrder batch shares a market).
func (k *KafkaFanout) CreateExec(execs []*engine.Exec) error {
	if err := k.primary.CreateExec(execs); err != nil {
		return err
	}
	if len(execs) == 0 {
		return nil
	}
	jsonExecs := make([]engine.ExecJSON, len(execs))
	for i, e := range execs {
		jsonExecs[i] = e.ToJSON()
	}
	return k.publish(context.Background(), "exec/"+execs[0].MarketId.String(), jsonExecs)
}

func (k *KafkaFanout) ArchiveTrade(marketId engine.Id64, ids []engine.Id64, modified engine.Time) error {
	if err := k.primary.ArchiveTrade(marketId, ids, modified); err != nil {
		return err
	}
	return k.publish(context.Background(), "archive/"+marketId.String(), archiveRecord{MarketId: marketId, Ids: ids, Modified: modified})
}
