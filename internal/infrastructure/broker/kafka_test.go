package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_PublishLowStock(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, logger.Nop())
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	err := p.PublishLowStock(context.Background(), dto.LowStockEvent{
		EventType:  dto.EventTypeLowStock,
		EntityKind: "fabric",
		EntityID:   7,
		ItemName:   "Lino",
		Quantity:   decimal.RequireFromString("3.5"),
		Threshold:  decimal.NewFromInt(10),
		Timestamp:  ts,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "fabric:7", string(msg.Key))
	assert.Equal(t, ts, msg.Time)

	var got dto.LowStockEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, dto.EventTypeLowStock, got.EventType)
	assert.True(t, got.Quantity.Equal(decimal.RequireFromString("3.5")))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := newKafkaPublisher(&fakeWriter{err: errors.New("broker down")}, logger.Nop())
	err := p.PublishLowStock(context.Background(), dto.LowStockEvent{EntityKind: "accessory", EntityID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestLogPublisher_NeverFails(t *testing.T) {
	p := NewLogPublisher(logger.Nop())
	assert.NoError(t, p.PublishLowStock(context.Background(), dto.LowStockEvent{EntityKind: "printed", EntityID: 2}))
}
