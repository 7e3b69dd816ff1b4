package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aq2208/gorder-storefront/internal/usecase"
)

// Schema lives in migrations/001_orders.sql.
type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

func (r *MySQLOrderRepo) Create(ctx context.Context, o *usecase.OrderRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO orders (id,status,order_type,estimated_time,customer_json,items_json,total,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,NOW())
`, o.ID, o.Status, o.OrderType, o.EstimatedTime, o.CustomerJSON, o.ItemsJSON, o.Total, o.CreatedAt)
	return err
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*usecase.OrderRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id,status,order_type,estimated_time,customer_json,items_json,total,created_at
FROM orders WHERE id=?`, id)
	var rec usecase.OrderRecord
	err := row.Scan(&rec.ID, &rec.Status, &rec.OrderType, &rec.EstimatedTime,
		&rec.CustomerJSON, &rec.ItemsJSON, &rec.Total, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, id string, fromStatus, toStatus string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, updated_at = NOW()
        WHERE id = ? AND status = ?`,
		toStatus, id, fromStatus,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// rows == 0 → nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
