package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists stock movements, balances and the serial registry.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	GetBalance(ctx context.Context, productID int64) (Balance, error)
	GetBalanceForUpdate(ctx context.Context, productID int64) (Balance, error)
	ListBalances(ctx context.Context, limit, offset int) ([]Balance, int, error)
	UpsertBalance(ctx context.Context, balance Balance) error
	InsertMovement(ctx context.Context, mv Movement) (int64, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
	InsertSerials(ctx context.Context, productID, docID int64, serials []string) error
	MarkSerialsSold(ctx context.Context, productID, docID int64, serials []string) (int64, error)
	MarkSerialsAvailable(ctx context.Context, productID int64, serials []string) (int64, error)
	ListSerials(ctx context.Context, productID int64, status SerialStatus) ([]SerialNumber, error)
	LookupSerial(ctx context.Context, serial string) (*SerialNumber, error)
	AvailableSerials(ctx context.Context, productID int64) ([]string, error)
	SerialExists(ctx context.Context, productID int64, serial string) (bool, error)
	DuplicateSerials(ctx context.Context) ([]SerialConflict, error)
}

// ErrBalanceNotFound indicates a product with no stock rows yet.
var ErrBalanceNotFound = errors.New("inventory balance not found")

// ErrDuplicateSerial indicates a registry unique-constraint hit.
var ErrDuplicateSerial = errors.New("inventory: serial already registered")

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

func (r *repository) GetBalance(ctx context.Context, productID int64) (Balance, error) {
	return r.scanBalance(ctx, `SELECT product_id, qty, avg_cost, updated_at FROM stock_balances WHERE product_id = $1`, productID)
}

func (r *repository) GetBalanceForUpdate(ctx context.Context, productID int64) (Balance, error) {
	return r.scanBalance(ctx, `SELECT product_id, qty, avg_cost, updated_at FROM stock_balances WHERE product_id = $1 FOR UPDATE`, productID)
}

func (r *repository) scanBalance(ctx context.Context, query string, productID int64) (Balance, error) {
	var bal Balance
	err := r.db.QueryRow(ctx, query, productID).Scan(&bal.ProductID, &bal.Qty, &bal.AvgCost, &bal.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{ProductID: productID}, ErrBalanceNotFound
	}
	if err != nil {
		return Balance{}, err
	}
	return bal, nil
}

func (r *repository) ListBalances(ctx context.Context, limit, offset int) ([]Balance, int, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM stock_balances`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT product_id, qty, avg_cost, updated_at FROM stock_balances ORDER BY product_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var balances []Balance
	for rows.Next() {
		var bal Balance
		if err := rows.Scan(&bal.ProductID, &bal.Qty, &bal.AvgCost, &bal.UpdatedAt); err != nil {
			return nil, 0, err
		}
		balances = append(balances, bal)
	}
	return balances, total, rows.Err()
}

func (r *repository) UpsertBalance(ctx context.Context, balance Balance) error {
	_, err := r.db.Exec(ctx, `INSERT INTO stock_balances (product_id, qty, avg_cost, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (product_id) DO UPDATE SET qty = EXCLUDED.qty, avg_cost = EXCLUDED.avg_cost, updated_at = NOW()`,
		balance.ProductID, balance.Qty, balance.AvgCost)
	return err
}

func (r *repository) InsertMovement(ctx context.Context, mv Movement) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO stock_movements (code, movement_type, product_id, qty, unit_cost, ref_doc_type, ref_doc_id, note, posted_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		mv.Code, string(mv.Type), mv.ProductID, mv.Qty, mv.UnitCost, mv.RefDocType, nullInt(mv.RefDocID), mv.Note, mv.PostedAt, nullInt(mv.CreatedBy)).Scan(&id)
	return id, err
}

func (r *repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	conditions := "1=1"
	args := []interface{}{}
	argPos := 1
	if filter.ProductID != 0 {
		conditions += fmt.Sprintf(" AND product_id = $%d", argPos)
		args = append(args, filter.ProductID)
		argPos++
	}
	if filter.Type != "" {
		conditions += fmt.Sprintf(" AND movement_type = $%d", argPos)
		args = append(args, string(filter.Type))
		argPos++
	}
	if !filter.From.IsZero() {
		conditions += fmt.Sprintf(" AND posted_at >= $%d", argPos)
		args = append(args, filter.From)
		argPos++
	}
	if !filter.To.IsZero() {
		conditions += fmt.Sprintf(" AND posted_at <= $%d", argPos)
		args = append(args, filter.To)
		argPos++
	}
	query := fmt.Sprintf(`SELECT id, code, movement_type, product_id, qty, unit_cost, COALESCE(ref_doc_type, ''), COALESCE(ref_doc_id, 0), note, posted_at, COALESCE(created_by, 0)
FROM stock_movements WHERE %s ORDER BY posted_at DESC, id DESC LIMIT $%d`, conditions, argPos)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []Movement
	for rows.Next() {
		var mv Movement
		var mvType string
		if err := rows.Scan(&mv.ID, &mv.Code, &mvType, &mv.ProductID, &mv.Qty, &mv.UnitCost, &mv.RefDocType, &mv.RefDocID, &mv.Note, &mv.PostedAt, &mv.CreatedBy); err != nil {
			return nil, err
		}
		mv.Type = MovementType(mvType)
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}

func (r *repository) InsertSerials(ctx context.Context, productID, docID int64, serials []string) error {
	for _, serial := range serials {
		_, err := r.db.Exec(ctx, `INSERT INTO serial_numbers (product_id, serial, status, received_doc_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())`, productID, serial, string(SerialAvailable), docID)
		if err != nil {
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
				return fmt.Errorf("%w: %s", ErrDuplicateSerial, serial)
			}
			return err
		}
	}
	return nil
}

func (r *repository) MarkSerialsSold(ctx context.Context, productID, docID int64, serials []string) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE serial_numbers SET status = $1, sold_doc_id = $2, updated_at = NOW()
WHERE product_id = $3 AND serial = ANY($4) AND status = $5`,
		string(SerialSold), docID, productID, serials, string(SerialAvailable))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) MarkSerialsAvailable(ctx context.Context, productID int64, serials []string) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE serial_numbers SET status = $1, sold_doc_id = NULL, updated_at = NOW()
WHERE product_id = $2 AND serial = ANY($3) AND status = $4`,
		string(SerialAvailable), productID, serials, string(SerialSold))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const serialColumns = `id, product_id, serial, status, received_doc_id, sold_doc_id, created_at, updated_at`

func scanSerial(row pgx.Row) (SerialNumber, error) {
	var sn SerialNumber
	var status string
	err := row.Scan(&sn.ID, &sn.ProductID, &sn.Serial, &status, &sn.ReceivedDocID, &sn.SoldDocID, &sn.CreatedAt, &sn.UpdatedAt)
	sn.Status = SerialStatus(status)
	return sn, err
}

func (r *repository) ListSerials(ctx context.Context, productID int64, status SerialStatus) ([]SerialNumber, error) {
	conditions := "product_id = $1"
	args := []interface{}{productID}
	if status != "" {
		conditions += " AND status = $2"
		args = append(args, string(status))
	}
	rows, err := r.db.Query(ctx, `SELECT `+serialColumns+` FROM serial_numbers WHERE `+conditions+` ORDER BY serial`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var serials []SerialNumber
	for rows.Next() {
		sn, err := scanSerial(rows)
		if err != nil {
			return nil, err
		}
		serials = append(serials, sn)
	}
	return serials, rows.Err()
}

func (r *repository) LookupSerial(ctx context.Context, serial string) (*SerialNumber, error) {
	sn, err := scanSerial(r.db.QueryRow(ctx, `SELECT `+serialColumns+` FROM serial_numbers WHERE serial = $1 ORDER BY id DESC LIMIT 1`, serial))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSerialNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sn, nil
}

func (r *repository) AvailableSerials(ctx context.Context, productID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT serial FROM serial_numbers WHERE product_id = $1 AND status = $2 ORDER BY serial`, productID, string(SerialAvailable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var serials []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		serials = append(serials, s)
	}
	return serials, rows.Err()
}

func (r *repository) SerialExists(ctx context.Context, productID int64, serial string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM serial_numbers WHERE product_id = $1 AND serial = $2)`, productID, serial).Scan(&exists)
	return exists, err
}

func (r *repository) DuplicateSerials(ctx context.Context) ([]SerialConflict, error) {
	rows, err := r.db.Query(ctx, `SELECT product_id, serial, COUNT(*) FROM serial_numbers GROUP BY product_id, serial HAVING COUNT(*) > 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var conflicts []SerialConflict
	for rows.Next() {
		var c SerialConflict
		if err := rows.Scan(&c.ProductID, &c.Serial, &c.Count); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func nullInt(value int64) interface{} {
	if value == 0 {
		return nil
	}
	return value
}
