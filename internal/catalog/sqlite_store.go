package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS medicines (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	brand TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	packets INTEGER NOT NULL DEFAULT 0,
	tablets_per_packet INTEGER NOT NULL DEFAULT 0,
	price_per_tablet REAL NOT NULL DEFAULT 0,
	low_stock_threshold INTEGER NOT NULL DEFAULT 0,
	requires_prescription INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
	order_id TEXT NOT NULL REFERENCES orders(id),
	medicine_id TEXT NOT NULL REFERENCES medicines(id),
	quantity INTEGER NOT NULL,
	PRIMARY KEY (order_id, medicine_id)
);
`

// SQLiteStore backs the catalog (and the executor, which shares the
// same handle) with a single sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the handle so the command executor can share it.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) ListActive(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, brand, category, packets, tablets_per_packet, price_per_tablet, low_stock_threshold, requires_prescription
FROM medicines
WHERE deleted = 0
ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var rx int
		if err := rows.Scan(&it.ID, &it.Name, &it.Brand, &it.Category, &it.Packets, &it.TabletsPerPacket, &it.PricePerTablet, &it.LowStockThreshold, &rx); err != nil {
			return nil, fmt.Errorf("scan medicine: %w", err)
		}
		it.RequiresPrescription = rx != 0
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*Item, error) {
	var it Item
	var rx, deleted int
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, brand, category, packets, tablets_per_packet, price_per_tablet, low_stock_threshold, requires_prescription, deleted
FROM medicines WHERE id = ?`, id).
		Scan(&it.ID, &it.Name, &it.Brand, &it.Category, &it.Packets, &it.TabletsPerPacket, &it.PricePerTablet, &it.LowStockThreshold, &rx, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get medicine: %w", err)
	}
	it.RequiresPrescription = rx != 0
	it.Deleted = deleted != 0
	return &it, nil
}

// Seed inserts or replaces items, used by bootstrap and tests.
func (s *SQLiteStore) Seed(ctx context.Context, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		_, err := tx.ExecContext(ctx, `
INSERT INTO medicines(id, name, brand, category, packets, tablets_per_packet, price_per_tablet, low_stock_threshold, requires_prescription, deleted)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name,
	brand=excluded.brand,
	category=excluded.category,
	packets=excluded.packets,
	tablets_per_packet=excluded.tablets_per_packet,
	price_per_tablet=excluded.price_per_tablet,
	low_stock_threshold=excluded.low_stock_threshold,
	requires_prescription=excluded.requires_prescription,
	deleted=excluded.deleted
`, it.ID, it.Name, it.Brand, it.Category, it.Packets, it.TabletsPerPacket, it.PricePerTablet, it.LowStockThreshold, boolToInt(it.RequiresPrescription), boolToInt(it.Deleted))
		if err != nil {
			return fmt.Errorf("seed medicine %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
