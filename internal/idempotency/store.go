package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/msg"
	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
	_ "modernc.org/sqlite"
)

// Store deduplicates order and fill receipts and keeps an outbox of the
// state changes they produce
type Store struct {
	db *sql.DB
}

// RecordResult describes what recording a receipt changed
type RecordResult struct {
	Duplicate   bool
	Previous    zigzag.OrderStatus // zero when the receipt was new
	Status      zigzag.OrderStatus
	OutboxEvent *OutboxEvent
}

// OutboxEvent is an encoded frame waiting to be published
type OutboxEvent struct {
	ID                  int64
	Subject             string
	EventID             string
	Topic               string
	Key                 string
	PayloadJSON         string
	CreatedUnixMillis   int64
	PublishedUnixMillis sql.NullInt64
}

// Open creates or opens the receipt store
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS order_receipts (
			chain_id INTEGER NOT NULL,
			order_id INTEGER NOT NULL,
			market TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL DEFAULT '',
			side TEXT NOT NULL DEFAULT '',
			price TEXT NOT NULL DEFAULT '',
			base_quantity REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			tx_hash TEXT NULL,
			first_seen_unix_millis INTEGER NOT NULL,
			updated_unix_millis INTEGER NOT NULL,
			PRIMARY KEY (chain_id, order_id)
		)`,
		`CREATE TABLE IF NOT EXISTS fill_receipts (
			chain_id INTEGER NOT NULL,
			fill_id INTEGER NOT NULL,
			market TEXT NOT NULL DEFAULT '',
			side TEXT NOT NULL DEFAULT '',
			price TEXT NOT NULL DEFAULT '',
			base_quantity REAL NOT NULL DEFAULT 0,
			taker_user_id TEXT NOT NULL DEFAULT '',
			maker_user_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			tx_hash TEXT NULL,
			first_seen_unix_millis INTEGER NOT NULL,
			updated_unix_millis INTEGER NOT NULL,
			PRIMARY KEY (chain_id, fill_id)
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			subject TEXT NOT NULL,
			event_id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			key TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_unix_millis INTEGER NOT NULL,
			published_unix_millis INTEGER NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
			ON outbox_events(published_unix_millis)
			WHERE published_unix_millis IS NULL`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// receipt is one status observation for an order or a fill
type receipt struct {
	table    string
	idColumn string
	chainID  uint32
	id       uint32
	status   zigzag.OrderStatus
	txHash   *zigzag.TxHash
	topic    string
	key      string
	frame    []byte
	upsert   func(ctx context.Context, tx *sql.Tx, now int64, txHash sql.NullString) error
}

// RecordOrder records an order receipt. A new order or a status change
// queues an orderreceipt frame on the outbox.
func (s *Store) RecordOrder(ctx context.Context, o zigzag.Order) (RecordResult, error) {
	frame, err := zigzag.Encode(&zigzag.Orderreceipt{Order: o})
	if err != nil {
		return RecordResult{}, err
	}

	return s.record(ctx, receipt{
		table:    "order_receipts",
		idColumn: "order_id",
		chainID:  o.ChainID,
		id:       o.ID,
		status:   o.Status,
		txHash:   o.TxHash,
		topic:    msg.TopicOrders,
		key:      msg.OrderKey(o.ChainID, o.ID),
		frame:    frame,
		upsert: func(ctx context.Context, tx *sql.Tx, now int64, txHash sql.NullString) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO order_receipts (chain_id, order_id, market, user_id, side, price, base_quantity, status, tx_hash, first_seen_unix_millis, updated_unix_millis)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (chain_id, order_id) DO UPDATE SET
					status = excluded.status,
					tx_hash = COALESCE(excluded.tx_hash, order_receipts.tx_hash),
					updated_unix_millis = excluded.updated_unix_millis`,
				o.ChainID, o.ID, o.Market, o.UserID, o.Side.Code(), o.Price.String(), o.BaseQuantity,
				o.Status.Code(), txHash, now, now,
			)
			return err
		},
	})
}

// RecordFill records a fill receipt. A new fill or a status change queues a
// fillreceipt frame on the outbox.
func (s *Store) RecordFill(ctx context.Context, f zigzag.Fill) (RecordResult, error) {
	frame, err := zigzag.Encode(&zigzag.Fillreceipt{Fill: f})
	if err != nil {
		return RecordResult{}, err
	}

	return s.record(ctx, receipt{
		table:    "fill_receipts",
		idColumn: "fill_id",
		chainID:  f.ChainID,
		id:       f.ID,
		status:   f.Status,
		txHash:   f.TxHash,
		topic:    msg.TopicFills,
		key:      msg.FillKey(f.ChainID, f.ID),
		frame:    frame,
		upsert: func(ctx context.Context, tx *sql.Tx, now int64, txHash sql.NullString) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO fill_receipts (chain_id, fill_id, market, side, price, base_quantity, taker_user_id, maker_user_id, status, tx_hash, first_seen_unix_millis, updated_unix_millis)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (chain_id, fill_id) DO UPDATE SET
					market = excluded.market,
					side = excluded.side,
					price = excluded.price,
					base_quantity = excluded.base_quantity,
					taker_user_id = excluded.taker_user_id,
					maker_user_id = excluded.maker_user_id,
					status = excluded.status,
					tx_hash = COALESCE(excluded.tx_hash, fill_receipts.tx_hash),
					updated_unix_millis = excluded.updated_unix_millis`,
				f.ChainID, f.ID, f.Market, f.Side.Code(), f.Price.String(), f.BaseQuantity,
				f.TakerUserID, f.MakerUserID, f.Status.Code(), txHash, now, now,
			)
			return err
		},
	})
}

// RecordFillStatus records a fill status update. The fill does not need to
// have been seen before.
func (s *Store) RecordFillStatus(ctx context.Context, fs zigzag.FillStatus) (RecordResult, error) {
	frame, err := zigzag.Encode(&zigzag.Fillstatus{Statuses: []zigzag.FillStatus{fs}})
	if err != nil {
		return RecordResult{}, err
	}

	return s.record(ctx, receipt{
		table:    "fill_receipts",
		idColumn: "fill_id",
		chainID:  fs.ChainID,
		id:       fs.FillID,
		status:   fs.Status,
		txHash:   fs.TxHash,
		topic:    msg.TopicFills,
		key:      msg.FillKey(fs.ChainID, fs.FillID),
		frame:    frame,
		upsert: func(ctx context.Context, tx *sql.Tx, now int64, txHash sql.NullString) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO fill_receipts (chain_id, fill_id, status, tx_hash, first_seen_unix_millis, updated_unix_millis)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT (chain_id, fill_id) DO UPDATE SET
					status = excluded.status,
					tx_hash = COALESCE(excluded.tx_hash, fill_receipts.tx_hash),
					updated_unix_millis = excluded.updated_unix_millis`,
				fs.ChainID, fs.FillID, fs.Status.Code(), txHash, now, now,
			)
			return err
		},
	})
}

func (s *Store) record(ctx context.Context, r receipt) (RecordResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RecordResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var code string
	var existingHash sql.NullString
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT status, tx_hash FROM %s WHERE chain_id = ? AND %s = ?", r.table, r.idColumn),
		r.chainID, r.id,
	).Scan(&code, &existingHash)

	var previous zigzag.OrderStatus
	switch {
	case err == nil:
		previous, err = zigzag.ParseOrderStatus(code)
		if err != nil {
			return RecordResult{}, fmt.Errorf("stored receipt %s has bad status: %w", r.key, err)
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return RecordResult{}, fmt.Errorf("failed to check existing receipt: %w", err)
	}

	var txHash sql.NullString
	if r.txHash != nil {
		txHash = sql.NullString{String: r.txHash.String(), Valid: true}
	}

	if previous == r.status && (!txHash.Valid || txHash == existingHash) {
		return RecordResult{Duplicate: true, Previous: previous, Status: r.status}, nil
	}

	now := time.Now().UnixMilli()
	if err := r.upsert(ctx, tx, now, txHash); err != nil {
		return RecordResult{}, fmt.Errorf("failed to upsert %s: %w", r.key, err)
	}

	event := &OutboxEvent{
		Subject:           r.key,
		EventID:           uuid.New().String(),
		Topic:             r.topic,
		Key:               r.key,
		PayloadJSON:       string(r.frame),
		CreatedUnixMillis: now,
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (subject, event_id, topic, key, payload_json, created_unix_millis, published_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		event.Subject, event.EventID, event.Topic, event.Key, event.PayloadJSON, event.CreatedUnixMillis,
	)
	if err != nil {
		return RecordResult{}, fmt.Errorf("failed to insert outbox event: %w", err)
	}
	if event.ID, err = res.LastInsertId(); err != nil {
		return RecordResult{}, fmt.Errorf("failed to read outbox id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return RecordResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return RecordResult{
		Previous:    previous,
		Status:      r.status,
		OutboxEvent: event,
	}, nil
}

// OrderStatus returns the last recorded status of an order
func (s *Store) OrderStatus(ctx context.Context, chainID, orderID uint32) (zigzag.OrderStatus, bool, error) {
	return s.status(ctx, "SELECT status FROM order_receipts WHERE chain_id = ? AND order_id = ?", chainID, orderID)
}

// FillStatus returns the last recorded status of a fill
func (s *Store) FillStatus(ctx context.Context, chainID, fillID uint32) (zigzag.OrderStatus, bool, error) {
	return s.status(ctx, "SELECT status FROM fill_receipts WHERE chain_id = ? AND fill_id = ?", chainID, fillID)
}

func (s *Store) status(ctx context.Context, query string, chainID, id uint32) (zigzag.OrderStatus, bool, error) {
	var code string
	err := s.db.QueryRowContext(ctx, query, chainID, id).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query status: %w", err)
	}
	st, err := zigzag.ParseOrderStatus(code)
	if err != nil {
		return 0, false, err
	}
	return st, true, nil
}

// ListUnpublished returns unpublished outbox events oldest first
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject, event_id, topic, key, payload_json, created_unix_millis, published_unix_millis
		 FROM outbox_events
		 WHERE published_unix_millis IS NULL
		 ORDER BY id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpublished events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(
			&e.ID, &e.Subject, &e.EventID, &e.Topic, &e.Key,
			&e.PayloadJSON, &e.CreatedUnixMillis, &e.PublishedUnixMillis,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// MarkPublished marks an event as published
func (s *Store) MarkPublished(ctx context.Context, eventID string, nowMillis int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE outbox_events SET published_unix_millis = ? WHERE event_id = ?",
		nowMillis, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
