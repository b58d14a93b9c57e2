package main

import (
	"context"
	"fmt"

	"github.com/ismaiel54/zigzag-trading-bridge/internal/idempotency"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/msg"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
	"go.uber.org/zap"
)

type receiptRecorder interface {
	RecordOrder(ctx context.Context, o zigzag.Order) (idempotency.RecordResult, error)
	RecordFill(ctx context.Context, f zigzag.Fill) (idempotency.RecordResult, error)
	RecordFillStatus(ctx context.Context, fs zigzag.FillStatus) (idempotency.RecordResult, error)
}

type operationProducer interface {
	ProduceOperation(ctx context.Context, op zigzag.Operation) error
}

type operationSender interface {
	Send(ctx context.Context, op zigzag.Operation) error
}

// router moves operations between the exchange session and Kafka. Order and
// fill receipts go through the receipt store so that only state changes are
// published; everything else the exchange sends is published as received.
type router struct {
	store    receiptRecorder
	producer operationProducer
	logger   *zap.Logger
}

func (r *router) handleInbound(ctx context.Context, op zigzag.Operation) error {
	switch v := op.(type) {
	case *zigzag.Orderreceipt:
		return r.recordOrders(ctx, v.Order)
	case *zigzag.Userorderack:
		return r.recordOrders(ctx, v.Order)
	case *zigzag.Orders:
		return r.recordOrders(ctx, v.Orders...)
	case *zigzag.Fillreceipt:
		return r.recordFills(ctx, v.Fill)
	case *zigzag.Fills:
		return r.recordFills(ctx, v.Fills...)
	case *zigzag.Fillstatus:
		for _, fs := range v.Statuses {
			res, err := r.store.RecordFillStatus(ctx, fs)
			if err != nil {
				return fmt.Errorf("failed to record fill status %d: %w", fs.FillID, err)
			}
			r.logResult("fill", fs.ChainID, fs.FillID, res)
		}
		return nil
	}

	if msg.TopicFor(op) == msg.TopicCommands {
		r.logger.Debug("ignoring client operation from exchange", zap.String("op", zigzag.Tag(op)))
		return nil
	}
	if err := r.producer.ProduceOperation(ctx, op); err != nil {
		r.logger.Warn("failed to publish operation", zap.String("op", zigzag.Tag(op)), zap.Error(err))
	}
	return nil
}

func (r *router) recordOrders(ctx context.Context, orders ...zigzag.Order) error {
	for _, o := range orders {
		res, err := r.store.RecordOrder(ctx, o)
		if err != nil {
			return fmt.Errorf("failed to record order %d: %w", o.ID, err)
		}
		r.logResult("order", o.ChainID, o.ID, res)
	}
	return nil
}

func (r *router) recordFills(ctx context.Context, fills ...zigzag.Fill) error {
	for _, f := range fills {
		res, err := r.store.RecordFill(ctx, f)
		if err != nil {
			return fmt.Errorf("failed to record fill %d: %w", f.ID, err)
		}
		r.logResult("fill", f.ChainID, f.ID, res)
	}
	return nil
}

func (r *router) logResult(kind string, chainID, id uint32, res idempotency.RecordResult) {
	if res.Duplicate {
		r.logger.Debug("duplicate receipt",
			zap.String("kind", kind),
			zap.Uint32("chain_id", chainID),
			zap.Uint32("id", id),
			zap.String("status", res.Status.String()),
		)
		return
	}
	fields := []zap.Field{
		zap.String("kind", kind),
		zap.Uint32("chain_id", chainID),
		zap.Uint32("id", id),
		zap.String("status", res.Status.String()),
	}
	if res.Previous != 0 {
		fields = append(fields, zap.String("previous", res.Previous.String()))
	}
	r.logger.Info("receipt recorded", fields...)
}

// forwardCommand sends a command consumed from Kafka to the exchange
func forwardCommand(sender operationSender, logger *zap.Logger) func(context.Context, zigzag.Operation, msg.Record) error {
	return func(ctx context.Context, op zigzag.Operation, rec msg.Record) error {
		tag := zigzag.Tag(op)
		if msg.TopicFor(op) != msg.TopicCommands {
			logger.Warn("refusing to forward server operation",
				zap.String("op", tag),
				zap.Int64("kafka_offset", rec.Offset),
			)
			return nil
		}
		if err := sender.Send(ctx, op); err != nil {
			return err
		}
		logger.Info("command forwarded",
			zap.String("op", tag),
			zap.String("key", rec.Key),
			zap.Int32("kafka_partition", rec.Partition),
			zap.Int64("kafka_offset", rec.Offset),
		)
		return nil
	}
}
