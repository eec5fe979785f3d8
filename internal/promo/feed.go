package promo

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/cart-engine/internal/domain"
)

// feedMessage is the wire shape of one promo table update. Deleted entries
// carry deleted=true and only need the code.
type feedMessage struct {
	domain.PromoCode
	Deleted bool `json:"deleted,omitempty"`
}

// Feed keeps a MemoryRepository in sync with a promo reference topic. The
// engine treats the table as read-only; all writes arrive through here.
type Feed struct {
	table  *MemoryRepository
	reader *kafka.Reader
	log    *zap.Logger
}

// NewFeed creates a consumer for the given topic.
func NewFeed(table *MemoryRepository, log *zap.Logger, topic, groupID string, brokers ...string) *Feed {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Feed{table: table, reader: reader, log: log}
}

// Run consumes updates until ctx is cancelled. Malformed messages are logged
// and skipped; the table keeps its last good state.
func (f *Feed) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		f.consumeOne(ctx)
	}
}

// Close releases the underlying reader.
func (f *Feed) Close() {
	if err := f.reader.Close(); err != nil {
		f.log.Warn("closing promo feed reader", zap.Error(err))
	}
}

func (f *Feed) consumeOne(ctx context.Context) {
	m, err := f.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			f.log.Warn("reading promo feed message", zap.Error(err))
		}
		return
	}
	f.apply(m.Value)
}

// apply folds one raw message into the table.
func (f *Feed) apply(value []byte) {
	var msg feedMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		f.log.Warn("parsing promo feed message", zap.Error(err))
		return
	}
	if msg.Code == "" {
		f.log.Warn("promo feed message missing code")
		return
	}

	if msg.Deleted {
		f.table.Delete(msg.Code)
		f.log.Info("promo removed", zap.String("code", Normalize(msg.Code)))
		return
	}

	f.table.Upsert(msg.PromoCode)
	f.log.Info("promo updated", zap.String("code", Normalize(msg.Code)), zap.String("type", string(msg.Type)))
}
