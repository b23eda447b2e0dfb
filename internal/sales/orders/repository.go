package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists sales orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	Create(ctx context.Context, so SalesOrder) (int64, error)
	Get(ctx context.Context, id int64) (*SalesOrder, error)
	List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, int, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status SalesOrderStatus, userID int64) error
	InsertLine(ctx context.Context, soID int64, line documents.Line) (int64, error)
	DeleteLines(ctx context.Context, soID int64) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const soColumns = `id, number, customer_id, order_date, delivery_date, status, notes,
	subtotal, discount_amount, tax_amount, rounding_adjustment, total_amount,
	created_by, confirmed_by, confirmed_at, cancelled_by, cancelled_at, created_at, updated_at`

const lineColumns = `line_id, product_id, product_name, sku, hsn_code, quantity, unit_label,
	unit_multiplier, unit_price, discount, tax_type, tax_rate, tax_amount, line_total,
	serialized, serials, parent_line_id, original_quantity, original_discount, line_order`

func scanOrder(row pgx.Row) (SalesOrder, error) {
	var so SalesOrder
	var status string
	err := row.Scan(&so.ID, &so.Number, &so.CustomerID, &so.OrderDate, &so.DeliveryDate, &status, &so.Notes,
		&so.Subtotal, &so.DiscountAmount, &so.TaxAmount, &so.RoundingAdjustment, &so.TotalAmount,
		&so.CreatedBy, &so.ConfirmedBy, &so.ConfirmedAt, &so.CancelledBy, &so.CancelledAt, &so.CreatedAt, &so.UpdatedAt)
	so.Status = SalesOrderStatus(status)
	return so, err
}

func (r *repository) Create(ctx context.Context, so SalesOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO sales_orders (number, customer_id, order_date, delivery_date, status, notes,
	subtotal, discount_amount, tax_amount, rounding_adjustment, total_amount, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW()) RETURNING id`,
		so.Number, so.CustomerID, so.OrderDate, so.DeliveryDate, string(so.Status), so.Notes,
		so.Subtotal, so.DiscountAmount, so.TaxAmount, so.RoundingAdjustment, so.TotalAmount, so.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	so, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+soColumns+` FROM sales_orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	so.Lines, err = r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return &so, nil
}

func (r *repository) loadLines(ctx context.Context, soID int64) ([]documents.Line, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, `+lineColumns+` FROM sales_order_lines WHERE so_id = $1 ORDER BY line_order, id`, soID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []documents.Line
	for rows.Next() {
		var l documents.Line
		if err := rows.Scan(&l.ID,
			&l.LineID, &l.ProductID, &l.ProductName, &l.SKU, &l.HSNCode, &l.Quantity, &l.UnitLabel,
			&l.UnitMultiplier, &l.UnitPrice, &l.Discount, &l.TaxType, &l.TaxRate, &l.TaxAmount, &l.LineTotal,
			&l.Serialized, &l.Serials, &l.ParentLineID, &l.OriginalQuantity, &l.OriginalDiscount, &l.LineOrder,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1
	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("order_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}
	where := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		where += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM sales_orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM sales_orders %s ORDER BY order_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		soColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var sos []SalesOrder
	for rows.Next() {
		so, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		sos = append(sos, so)
	}
	return sos, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	allowed := []string{
		"order_date", "delivery_date", "notes",
		"subtotal", "discount_amount", "tax_amount", "rounding_adjustment", "total_amount",
	}
	query := "UPDATE sales_orders SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for _, col := range allowed {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)
	_, err := r.db.Exec(ctx, query, args...)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status SalesOrderStatus, userID int64) error {
	var err error
	switch status {
	case SalesOrderStatusConfirmed:
		_, err = r.db.Exec(ctx, `UPDATE sales_orders SET status = $1, confirmed_by = $2, confirmed_at = NOW(), updated_at = NOW() WHERE id = $3`,
			string(status), userID, id)
	case SalesOrderStatusCancelled:
		_, err = r.db.Exec(ctx, `UPDATE sales_orders SET status = $1, cancelled_by = $2, cancelled_at = NOW(), updated_at = NOW() WHERE id = $3`,
			string(status), userID, id)
	default:
		_, err = r.db.Exec(ctx, `UPDATE sales_orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			string(status), id)
	}
	return err
}

func (r *repository) InsertLine(ctx context.Context, soID int64, line documents.Line) (int64, error) {
	query := `INSERT INTO sales_order_lines (so_id, ` + lineColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query, soID,
		line.LineID, line.ProductID, line.ProductName, line.SKU, line.HSNCode, line.Quantity, line.UnitLabel,
		line.UnitMultiplier, line.UnitPrice, line.Discount, line.TaxType, line.TaxRate, line.TaxAmount, line.LineTotal,
		line.Serialized, line.Serials, line.ParentLineID, line.OriginalQuantity, line.OriginalDiscount, line.LineOrder,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteLines(ctx context.Context, soID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sales_order_lines WHERE so_id = $1`, soID)
	return err
}

func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM sales_orders`).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("SO-%s-%04d", date.Format("0601"), count+1), nil
}
