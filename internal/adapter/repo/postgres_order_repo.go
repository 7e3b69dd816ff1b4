package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aq2208/gorder-storefront/internal/usecase"
)

// PostgresOrderRepo stores orders through the pgx database/sql driver.
// Schema lives in migrations/postgres/001_orders.sql.
type PostgresOrderRepo struct{ db *sql.DB }

func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo { return &PostgresOrderRepo{db: db} }

func (r *PostgresOrderRepo) Create(ctx context.Context, o *usecase.OrderRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO orders (id,status,order_type,estimated_time,customer_json,items_json,total,created_at,updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
`, o.ID, o.Status, o.OrderType, o.EstimatedTime, o.CustomerJSON, o.ItemsJSON, o.Total, o.CreatedAt)
	return err
}

func (r *PostgresOrderRepo) GetByID(ctx context.Context, id string) (*usecase.OrderRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id,status,order_type,estimated_time,customer_json::text,items_json::text,total,created_at
FROM orders WHERE id=$1`, id)
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

func (r *PostgresOrderRepo) UpdateStatusIf(ctx context.Context, id string, fromStatus, toStatus string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET status = $1, updated_at = now()
WHERE id = $2 AND status = $3`, toStatus, id, fromStatus)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

var _ usecase.OrderRepo = (*PostgresOrderRepo)(nil)
