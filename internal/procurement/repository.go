package procurement

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

// Repository persists purchase orders and goods receipts.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	CreatePO(ctx context.Context, po PurchaseOrder) (int64, error)
	GetPO(ctx context.Context, id int64) (*PurchaseOrder, error)
	ListPOs(ctx context.Context, req ListPurchaseOrdersRequest) ([]PurchaseOrder, int, error)
	UpdatePO(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdatePOStatus(ctx context.Context, id int64, status POStatus, userID int64) error
	InsertPOLine(ctx context.Context, poID int64, line documents.Line) (int64, error)
	DeletePOLines(ctx context.Context, poID int64) error
	GeneratePONumber(ctx context.Context, date time.Time) (string, error)

	CreateGRN(ctx context.Context, grn GoodsReceipt) (int64, error)
	GetGRN(ctx context.Context, id int64) (*GoodsReceipt, error)
	ListGRNs(ctx context.Context, req ListGoodsReceiptsRequest) ([]GoodsReceipt, int, error)
	UpdateGRN(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateGRNStatus(ctx context.Context, id int64, status GRNStatus, userID int64) error
	InsertGRNLine(ctx context.Context, grnID int64, line documents.Line) (int64, error)
	DeleteGRNLines(ctx context.Context, grnID int64) error
	GenerateGRNNumber(ctx context.Context, date time.Time) (string, error)
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

const lineColumns = `line_id, product_id, product_name, sku, hsn_code, quantity, unit_label,
	unit_multiplier, unit_price, discount, tax_type, tax_rate, tax_amount, line_total,
	serialized, serials, parent_line_id, original_quantity, original_discount, line_order`

func insertDocLine(ctx context.Context, dbx dbtx, table, fk string, docID int64, l documents.Line) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
RETURNING id`, table, fk, lineColumns)
	var id int64
	err := dbx.QueryRow(ctx, query, docID,
		l.LineID, l.ProductID, l.ProductName, l.SKU, l.HSNCode, l.Quantity, l.UnitLabel,
		l.UnitMultiplier, l.UnitPrice, l.Discount, l.TaxType, l.TaxRate, l.TaxAmount, l.LineTotal,
		l.Serialized, l.Serials, l.ParentLineID, l.OriginalQuantity, l.OriginalDiscount, l.LineOrder,
	).Scan(&id)
	return id, err
}

func loadDocLines(ctx context.Context, dbx dbtx, table, fk string, docID int64) ([]documents.Line, error) {
	query := fmt.Sprintf(`SELECT id, %s FROM %s WHERE %s = $1 ORDER BY line_order, id`, lineColumns, table, fk)
	rows, err := dbx.Query(ctx, query, docID)
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

func buildUpdate(table string, id int64, updates map[string]interface{}, allowed []string) (string, []interface{}) {
	query := fmt.Sprintf("UPDATE %s SET updated_at = NOW()", table)
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
	return query, args
}

const poColumns = `id, number, supplier_id, order_date, expected_date, status, notes,
	subtotal, discount_amount, tax_amount, rounding_adjustment, total_amount,
	created_by, approved_by, approved_at, cancelled_by, cancelled_at, created_at, updated_at`

func scanPO(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	var status string
	err := row.Scan(&po.ID, &po.Number, &po.SupplierID, &po.OrderDate, &po.ExpectedDate, &status, &po.Notes,
		&po.Subtotal, &po.DiscountAmount, &po.TaxAmount, &po.RoundingAdjustment, &po.TotalAmount,
		&po.CreatedBy, &po.ApprovedBy, &po.ApprovedAt, &po.CancelledBy, &po.CancelledAt, &po.CreatedAt, &po.UpdatedAt)
	po.Status = POStatus(status)
	return po, err
}

func (r *repository) CreatePO(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO purchase_orders (number, supplier_id, order_date, expected_date, status, notes,
	subtotal, discount_amount, tax_amount, rounding_adjustment, total_amount, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW()) RETURNING id`,
		po.Number, po.SupplierID, po.OrderDate, po.ExpectedDate, string(po.Status), po.Notes,
		po.Subtotal, po.DiscountAmount, po.TaxAmount, po.RoundingAdjustment, po.TotalAmount, po.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) GetPO(ctx context.Context, id int64) (*PurchaseOrder, error) {
	po, err := scanPO(r.db.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	po.Lines, err = loadDocLines(ctx, r.db, "purchase_order_lines", "po_id", id)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) ListPOs(ctx context.Context, req ListPurchaseOrdersRequest) ([]PurchaseOrder, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1
	if req.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", argPos))
		args = append(args, *req.SupplierID)
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
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM purchase_orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM purchase_orders %s ORDER BY order_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		poColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var pos []PurchaseOrder
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, 0, err
		}
		pos = append(pos, po)
	}
	return pos, total, rows.Err()
}

func (r *repository) UpdatePO(ctx context.Context, id int64, updates map[string]interface{}) error {
	query, args := buildUpdate("purchase_orders", id, updates, []string{
		"order_date", "expected_date", "notes",
		"subtotal", "discount_amount", "tax_amount", "rounding_adjustment", "total_amount",
	})
	_, err := r.db.Exec(ctx, query, args...)
	return err
}

func (r *repository) UpdatePOStatus(ctx context.Context, id int64, status POStatus, userID int64) error {
	var err error
	switch status {
	case POStatusApproved:
		_, err = r.db.Exec(ctx, `UPDATE purchase_orders SET status = $1, approved_by = $2, approved_at = NOW(), updated_at = NOW() WHERE id = $3`,
			string(status), userID, id)
	case POStatusCancelled:
		_, err = r.db.Exec(ctx, `UPDATE purchase_orders SET status = $1, cancelled_by = $2, cancelled_at = NOW(), updated_at = NOW() WHERE id = $3`,
			string(status), userID, id)
	default:
		_, err = r.db.Exec(ctx, `UPDATE purchase_orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			string(status), id)
	}
	return err
}

func (r *repository) InsertPOLine(ctx context.Context, poID int64, line documents.Line) (int64, error) {
	return insertDocLine(ctx, r.db, "purchase_order_lines", "po_id", poID, line)
}

func (r *repository) DeletePOLines(ctx context.Context, poID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM purchase_order_lines WHERE po_id = $1`, poID)
	return err
}

func (r *repository) GeneratePONumber(ctx context.Context, date time.Time) (string, error) {
	return r.generateNumber(ctx, "purchase_orders", "PO", date)
}

const grnColumns = `id, number, supplier_id, po_id, is_direct, received_at, status, notes,
	subtotal, discount_amount, tax_amount, rounding_adjustment, total_amount,
	created_by, posted_by, posted_at, created_at, updated_at`

func scanGRN(row pgx.Row) (GoodsReceipt, error) {
	var grn GoodsReceipt
	var status string
	err := row.Scan(&grn.ID, &grn.Number, &grn.SupplierID, &grn.POID, &grn.IsDirect, &grn.ReceivedAt, &status, &grn.Notes,
		&grn.Subtotal, &grn.DiscountAmount, &grn.TaxAmount, &grn.RoundingAdjustment, &grn.TotalAmount,
		&grn.CreatedBy, &grn.PostedBy, &grn.PostedAt, &grn.CreatedAt, &grn.UpdatedAt)
	grn.Status = GRNStatus(status)
	return grn, err
}

func (r *repository) CreateGRN(ctx context.Context, grn GoodsReceipt) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO goods_receipts (number, supplier_id, po_id, is_direct, received_at, status, notes,
	subtotal, discount_amount, tax_amount, rounding_adjustment, total_amount, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW(),NOW()) RETURNING id`,
		grn.Number, grn.SupplierID, grn.POID, grn.IsDirect, grn.ReceivedAt, string(grn.Status), grn.Notes,
		grn.Subtotal, grn.DiscountAmount, grn.TaxAmount, grn.RoundingAdjustment, grn.TotalAmount, grn.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) GetGRN(ctx context.Context, id int64) (*GoodsReceipt, error) {
	grn, err := scanGRN(r.db.QueryRow(ctx, `SELECT `+grnColumns+` FROM goods_receipts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	grn.Lines, err = loadDocLines(ctx, r.db, "goods_receipt_lines", "grn_id", id)
	if err != nil {
		return nil, err
	}
	return &grn, nil
}

func (r *repository) ListGRNs(ctx context.Context, req ListGoodsReceiptsRequest) ([]GoodsReceipt, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1
	if req.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", argPos))
		args = append(args, *req.SupplierID)
		argPos++
	}
	if req.PurchaseOrderID != nil {
		conditions = append(conditions, fmt.Sprintf("po_id = $%d", argPos))
		args = append(args, *req.PurchaseOrderID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("received_at >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("received_at <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}
	where := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		where += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM goods_receipts "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM goods_receipts %s ORDER BY received_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		grnColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var grns []GoodsReceipt
	for rows.Next() {
		grn, err := scanGRN(rows)
		if err != nil {
			return nil, 0, err
		}
		grns = append(grns, grn)
	}
	return grns, total, rows.Err()
}

func (r *repository) UpdateGRN(ctx context.Context, id int64, updates map[string]interface{}) error {
	query, args := buildUpdate("goods_receipts", id, updates, []string{
		"received_at", "notes",
		"subtotal", "discount_amount", "tax_amount", "rounding_adjustment", "total_amount",
	})
	_, err := r.db.Exec(ctx, query, args...)
	return err
}

func (r *repository) UpdateGRNStatus(ctx context.Context, id int64, status GRNStatus, userID int64) error {
	var err error
	if status == GRNStatusPosted {
		_, err = r.db.Exec(ctx, `UPDATE goods_receipts SET status = $1, posted_by = $2, posted_at = NOW(), updated_at = NOW() WHERE id = $3`,
			string(status), userID, id)
	} else {
		_, err = r.db.Exec(ctx, `UPDATE goods_receipts SET status = $1, updated_at = NOW() WHERE id = $2`,
			string(status), id)
	}
	return err
}

func (r *repository) InsertGRNLine(ctx context.Context, grnID int64, line documents.Line) (int64, error) {
	return insertDocLine(ctx, r.db, "goods_receipt_lines", "grn_id", grnID, line)
}

func (r *repository) DeleteGRNLines(ctx context.Context, grnID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM goods_receipt_lines WHERE grn_id = $1`, grnID)
	return err
}

func (r *repository) GenerateGRNNumber(ctx context.Context, date time.Time) (string, error) {
	return r.generateNumber(ctx, "goods_receipts", "GRN", date)
}

func (r *repository) generateNumber(ctx context.Context, table, prefix string, date time.Time) (string, error) {
	var count int64
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("0601"), count+1), nil
}
