package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ismaiel54/zigzag-trading-bridge/internal/idempotency"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/msg"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturingProducer struct {
	ops []zigzag.Operation
	err error
}

func (c *capturingProducer) ProduceOperation(ctx context.Context, op zigzag.Operation) error {
	c.ops = append(c.ops, op)
	return c.err
}

type capturingSender struct {
	sent []zigzag.Operation
}

func (c *capturingSender) Send(ctx context.Context, op zigzag.Operation) error {
	c.sent = append(c.sent, op)
	return nil
}

func newTestRouter(t *testing.T) (*router, *idempotency.Store, *capturingProducer) {
	t.Helper()
	store, err := idempotency.Open(filepath.Join(t.TempDir(), "receipts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	prod := &capturingProducer{}
	return &router{store: store, producer: prod, logger: zap.NewNop()}, store, prod
}

func decode(t *testing.T, frame string) zigzag.Operation {
	t.Helper()
	op, err := zigzag.Decode([]byte(frame))
	require.NoError(t, err)
	return op
}

func TestRouter_ReceiptsGoThroughStore(t *testing.T) {
	r, store, prod := newTestRouter(t)
	ctx := context.Background()

	frames := []string{
		`{"op":"userorderack","args":[1000,40,"ETH-USDT","s",3370.93,0.1,337.093,4294967295,"23","o"]}`,
		`{"op":"orderreceipt","args":[1000,40,"ETH-USDT","s",3370.93,0.1,337.093,4294967295,"23","o"]}`,
		`{"op":"orders","args":[[[1000,40,"ETH-USDT","s",3370.93,0.1,337.093,4294967295,"23","f",0]]]}`,
		`{"op":"fills","args":[[[1000,7,"ETH-USDT","b",3300,0.5,"m",null,"23","24"]]]}`,
		`{"op":"fillstatus","args":[[[1000,7,"f","0x600ad64c7a931753bbd3ad24cc21efb8513de1dab67daf25b934db8d01f91ed9",0]]]}`,
	}
	for _, f := range frames {
		require.NoError(t, r.handleInbound(ctx, decode(t, f)))
	}
	assert.Empty(t, prod.ops)

	events, err := store.ListUnpublished(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, msg.TopicOrders, events[0].Topic)
	assert.Equal(t, msg.TopicOrders, events[1].Topic)
	assert.Equal(t, msg.TopicFills, events[2].Topic)
	assert.Equal(t, msg.TopicFills, events[3].Topic)

	st, ok, err := store.FillStatus(ctx, 1000, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, zigzag.Filled, st)
}

func TestRouter_PublishesMarketData(t *testing.T) {
	r, _, prod := newTestRouter(t)
	ctx := context.Background()

	require.NoError(t, r.handleInbound(ctx, decode(t, `{"op":"lastprice","args":[[["ETH-USDT",3370.93,-12.5]]]}`)))
	require.NoError(t, r.handleInbound(ctx, decode(t, `{"op":"error","args":["submitorder3","Order is too small"]}`)))
	require.NoError(t, r.handleInbound(ctx, decode(t, `{"op":"login","args":[1000,"23"]}`)))

	require.Len(t, prod.ops, 2)
	assert.Equal(t, "lastprice", zigzag.Tag(prod.ops[0]))
	assert.Equal(t, "error", zigzag.Tag(prod.ops[1]))
}

func TestRouter_PublishFailureIsNotFatal(t *testing.T) {
	r, _, prod := newTestRouter(t)
	prod.err = errors.New("broker down")
	assert.NoError(t, r.handleInbound(context.Background(), decode(t, `{"op":"marketsummary","args":["ETH-USDT",3370.93,3500,3300,-12.5,100,337000]}`)))
}

func TestForwardCommand(t *testing.T) {
	sender := &capturingSender{}
	forward := forwardCommand(sender, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, forward(ctx, decode(t, `{"op":"cancelall","args":[1000,"23"]}`), msg.Record{Offset: 1}))
	require.NoError(t, forward(ctx, decode(t, `{"op":"fillreceipt","args":[1000,7,"ETH-USDT","b",3300,0.5,"m",null,"23","24"]}`), msg.Record{Offset: 2}))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, &zigzag.Cancelall{ChainID: 1000, UserID: "23"}, sender.sent[0])
}
