// Package mirror copies workflow events into the postgres schema created by
// migrations/0001_init.sql. The key-value store stays the source of truth;
// callers log mirror failures and carry on.
package mirror

import (
	"context"
	"database/sql"
	"fmt"

	"builders-pos/internal/apperr"
	"builders-pos/internal/logger"
	"builders-pos/internal/order"
	"builders-pos/internal/payment"
	"builders-pos/internal/product"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	order.Recorder
	payment.Recorder
	product.TransactionRecorder

	SyncProducts(ctx context.Context, products []product.Product) error
	LogAudit(ctx context.Context, e AuditEntry) error
	LowStock(ctx context.Context, statuses ...product.Status) ([]LowStockRow, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// RecordOrder inserts the order header, its items and, for online orders,
// the collection token in one transaction.
func (r *repository) RecordOrder(ctx context.Context, o order.Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Mirror"),
		zap.String("method", "RecordOrder"),
		zap.String("order_id", o.ID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("begin failed", zap.Error(err))
		return apperr.Persistence("mirror.RecordOrder", err)
	}
	defer tx.Rollback()

	const insertOrder = `
		INSERT INTO orders (
			order_number, customer_id, staff_id,
			order_date, status, total_amount, payment_status, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING order_id
	`

	var orderID int64
	err = tx.QueryRowContext(ctx, insertOrder,
		o.ID, nullInt(o.CustomerID), nullInt(o.StaffID),
		o.Date, string(o.Status), o.Total, paymentStatus(o.Status), string(o.Method()),
	).Scan(&orderID)
	if err != nil {
		log.Error("insert order failed", zap.Error(err))
		return apperr.Persistence("mirror.RecordOrder", err)
	}

	const insertItem = `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx, insertItem,
			orderID, it.ProductID, it.Quantity, it.Price, it.Subtotal(),
		); err != nil {
			log.Error("insert item failed", zap.Int64("product_id", it.ProductID), zap.Error(err))
			return apperr.Persistence("mirror.RecordOrder", err)
		}
	}

	if o.Token != "" {
		const insertToken = `
			INSERT INTO tokens (order_number, token_code, generated_at, sent_sms, sent_email)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, insertToken,
			o.ID, o.Token, o.Date, o.Phone != "", false,
		); err != nil {
			log.Error("insert token failed", zap.Error(err))
			return apperr.Persistence("mirror.RecordOrder", err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("commit failed", zap.Error(err))
		return apperr.Persistence("mirror.RecordOrder", err)
	}

	log.Debug("order mirrored", zap.Int64("row_id", orderID), zap.Int("items", len(o.Items)))
	return nil
}

// RecordRelease updates the order status and redeems its token.
func (r *repository) RecordRelease(ctx context.Context, o order.Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Mirror"),
		zap.String("method", "RecordRelease"),
		zap.String("order_id", o.ID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("mirror.RecordRelease", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, payment_status = $2 WHERE order_number = $3`,
		string(o.Status), paymentStatus(o.Status), o.ID,
	)
	if err != nil {
		log.Error("update order failed", zap.Error(err))
		return apperr.Persistence("mirror.RecordRelease", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Orders placed before the mirror was configured have no row.
		log.Warn("order not mirrored yet")
	}

	if o.Token != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE tokens SET redeemed = TRUE, redeemed_at = $1 WHERE order_number = $2 AND token_code = $3`,
			o.ReleasedAt, o.ID, o.Token,
		); err != nil {
			log.Error("redeem token failed", zap.Error(err))
			return apperr.Persistence("mirror.RecordRelease", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("mirror.RecordRelease", err)
	}
	return nil
}

func (r *repository) SavePayment(ctx context.Context, p payment.Payment) error {
	const q = `
		INSERT INTO payments (
			order_number, customer_id, payment_amount, payment_method,
			payment_date, reference_number, status, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, q,
		p.OrderID, nullInt(p.CustomerID), p.Amount, string(p.Method),
		p.Date, p.Reference, string(p.Status), p.Notes,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("insert payment failed",
			zap.String("repo", "Mirror"),
			zap.String("order_id", p.OrderID),
			zap.Error(err),
		)
		return apperr.Persistence("mirror.SavePayment", err)
	}
	return nil
}

// RecordInventoryTransaction logs the movement and applies it to the
// mirrored stock level.
func (r *repository) RecordInventoryTransaction(ctx context.Context, t product.Transaction) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Mirror"),
		zap.String("method", "RecordInventoryTransaction"),
		zap.Int64("product_id", t.ProductID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("mirror.RecordInventoryTransaction", err)
	}
	defer tx.Rollback()

	const insertTx = `
		INSERT INTO inventory_transactions (
			product_id, transaction_type, quantity, reason, staff_id, transaction_date
		)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var staffID any
	if t.StaffID != 0 {
		staffID = t.StaffID
	}
	if _, err := tx.ExecContext(ctx, insertTx,
		t.ProductID, string(t.Type), t.Quantity, t.Reason, staffID, t.Date,
	); err != nil {
		log.Error("insert transaction failed", zap.Error(err))
		return apperr.Persistence("mirror.RecordInventoryTransaction", err)
	}

	if q, args := stockUpdate(t); q != "" {
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			log.Error("update stock failed", zap.Error(err))
			return apperr.Persistence("mirror.RecordInventoryTransaction", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("mirror.RecordInventoryTransaction", err)
	}
	return nil
}

func stockUpdate(t product.Transaction) (string, []any) {
	switch t.Type {
	case product.TxPurchase, product.TxReturn:
		return `UPDATE products SET stock = stock + $1, updated_at = $2 WHERE product_id = $3`,
			[]any{t.Quantity, t.Date, t.ProductID}
	case product.TxSale, product.TxDamage:
		return `UPDATE products SET stock = stock - $1, updated_at = $2 WHERE product_id = $3`,
			[]any{t.Quantity, t.Date, t.ProductID}
	case product.TxAdjustment:
		return `UPDATE products SET stock = $1, updated_at = $2 WHERE product_id = $3`,
			[]any{t.Quantity, t.Date, t.ProductID}
	}
	return "", nil
}

// SyncProducts upserts the catalog so stock queries see the store's view.
func (r *repository) SyncProducts(ctx context.Context, products []product.Product) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Mirror"),
		zap.String("method", "SyncProducts"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("mirror.SyncProducts", err)
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO products (
			product_id, product_name, category, price, stock, low_stock_threshold, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			low_stock_threshold = EXCLUDED.low_stock_threshold,
			status = EXCLUDED.status,
			updated_at = NOW()
	`
	for _, p := range products {
		status := p.Status
		if status == "" {
			status = product.StatusActive
		}
		if _, err := tx.ExecContext(ctx, upsert,
			p.ID, p.Name, p.Category, p.Price, p.Stock, p.LowStockThreshold, string(status),
		); err != nil {
			log.Error("upsert failed", zap.Int64("product_id", p.ID), zap.Error(err))
			return apperr.Persistence("mirror.SyncProducts", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("mirror.SyncProducts", err)
	}
	log.Info("catalog mirrored", zap.Int("products", len(products)))
	return nil
}

func (r *repository) LogAudit(ctx context.Context, e AuditEntry) error {
	if e.Status == "" {
		e.Status = AuditSuccess
	}

	const q = `
		INSERT INTO audit_log (
			user_id, action, entity_type, entity_id, old_value, new_value, logged_at, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, q,
		nullInt(e.UserID), e.Action, e.EntityType, e.EntityID,
		e.OldValue, e.NewValue, e.At, string(e.Status),
	)
	if err != nil {
		logger.FromCtx(ctx).Error("insert audit row failed",
			zap.String("repo", "Mirror"),
			zap.String("action", e.Action),
			zap.Error(err),
		)
		return apperr.Persistence("mirror.LogAudit", err)
	}
	return nil
}

// LowStock lists products at or below threshold, lowest first. With no
// statuses given only active products are returned.
func (r *repository) LowStock(ctx context.Context, statuses ...product.Status) ([]LowStockRow, error) {
	if len(statuses) == 0 {
		statuses = []product.Status{product.StatusActive}
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	const q = `
		SELECT product_id, product_name, category, stock, low_stock_threshold
		FROM products
		WHERE stock <= low_stock_threshold
		  AND status = ANY($1)
		ORDER BY stock ASC, product_id ASC
	`

	rows, err := r.db.QueryContext(ctx, q, pq.Array(names))
	if err != nil {
		logger.FromCtx(ctx).Error("low stock query failed", zap.String("repo", "Mirror"), zap.Error(err))
		return nil, apperr.Persistence("mirror.LowStock", err)
	}
	defer rows.Close()

	var out []LowStockRow
	for rows.Next() {
		var row LowStockRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.Category, &row.Stock, &row.LowStockThreshold); err != nil {
			return nil, apperr.Persistence("mirror.LowStock", fmt.Errorf("scan: %w", err))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("mirror.LowStock", err)
	}
	return out, nil
}

func paymentStatus(s order.Status) string {
	switch s {
	case order.StatusPaid, order.StatusCompleted:
		return string(payment.StatusCompleted)
	case order.StatusCancelled:
		return string(payment.StatusFailed)
	default:
		return string(payment.StatusPending)
	}
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
