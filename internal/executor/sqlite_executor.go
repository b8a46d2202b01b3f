package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/A-zanke/pharmachat/internal/models"
)

// SQLiteExecutor applies commands to the inventory database. It
// shares the sqlite handle with the catalog store.
type SQLiteExecutor struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLite(db *sql.DB, logger *zap.Logger) *SQLiteExecutor {
	return &SQLiteExecutor{db: db, logger: logger}
}

func (e *SQLiteExecutor) Execute(ctx context.Context, cmd models.Command) (*models.Ack, error) {
	switch cmd.Kind {
	case models.CommandMutateStock:
		if cmd.MutateStock == nil {
			return nil, fmt.Errorf("%w: mutate_stock payload missing", ErrRejected)
		}
		return e.mutateStock(ctx, *cmd.MutateStock)
	case models.CommandCreateOrder:
		if cmd.CreateOrder == nil {
			return nil, fmt.Errorf("%w: create_order payload missing", ErrRejected)
		}
		return e.createOrder(ctx, *cmd.CreateOrder)
	case models.CommandRemoveMedicine:
		if cmd.RemoveMedicine == nil {
			return nil, fmt.Errorf("%w: remove_medicine payload missing", ErrRejected)
		}
		return e.removeMedicine(ctx, *cmd.RemoveMedicine)
	default:
		return nil, fmt.Errorf("%w: unknown command kind %q", ErrRejected, cmd.Kind)
	}
}

func (e *SQLiteExecutor) mutateStock(ctx context.Context, cmd models.MutateStockCommand) (*models.Ack, error) {
	if cmd.TabletsPerPacket <= 0 {
		return nil, fmt.Errorf("%w: tablets per packet must be positive", ErrRejected)
	}
	res, err := e.db.ExecContext(ctx, `
UPDATE medicines SET
	packets = packets + ?,
	tablets_per_packet = ?,
	price_per_tablet = ?
WHERE id = ? AND deleted = 0`,
		cmd.DeltaPackets, cmd.TabletsPerPacket, cmd.PricePerPacket/float64(cmd.TabletsPerPacket), cmd.MedicineID)
	if err != nil {
		return nil, fmt.Errorf("mutate stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("mutate stock: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: medicine %s not found", ErrRejected, cmd.MedicineID)
	}

	e.logger.Info("stock mutated",
		zap.String("medicine_id", cmd.MedicineID),
		zap.Int("delta_packets", cmd.DeltaPackets))
	return &models.Ack{}, nil
}

func (e *SQLiteExecutor) createOrder(ctx context.Context, cmd models.CreateOrderCommand) (*models.Ack, error) {
	if len(cmd.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrRejected)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order: %w", err)
	}
	defer tx.Rollback()

	orderID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders(id, user_id, created_at) VALUES (?, ?, ?)`,
		orderID, cmd.UserID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range cmd.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: non-positive quantity for %s", ErrRejected, item.MedicineID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items(order_id, medicine_id, quantity) VALUES (?, ?, ?)`,
			orderID, item.MedicineID, item.Quantity); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	e.logger.Info("order created",
		zap.String("order_id", orderID),
		zap.Int("items", len(cmd.Items)))
	return &models.Ack{OrderID: orderID}, nil
}

func (e *SQLiteExecutor) removeMedicine(ctx context.Context, cmd models.RemoveMedicineCommand) (*models.Ack, error) {
	res, err := e.db.ExecContext(ctx,
		`UPDATE medicines SET deleted = 1 WHERE id = ? AND deleted = 0`, cmd.MedicineID)
	if err != nil {
		return nil, fmt.Errorf("remove medicine: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("remove medicine: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: medicine %s not found", ErrRejected, cmd.MedicineID)
	}

	e.logger.Info("medicine removed", zap.String("medicine_id", cmd.MedicineID))
	return &models.Ack{}, nil
}
