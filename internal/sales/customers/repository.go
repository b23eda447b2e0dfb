package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

var (
	ErrNotFound      = fmt.Errorf("customers: %w", httpx.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("customers: %w", httpx.ErrDuplicate)
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Customer, error)
	GetByCode(ctx context.Context, code string) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, id int64, customer Customer) error
	GenerateCode(ctx context.Context) (string, error)
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

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const customerColumns = `id, code, name, email, phone, gstin, credit_limit,
	address_line1, address_line2, city, state, postal_code, is_active, notes,
	created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.GSTIN, &c.CreditLimit,
		&c.AddressLine1, &c.AddressLine2, &c.City, &c.State, &c.PostalCode, &c.IsActive,
		&c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY name LIMIT $%d OFFSET $%d`,
		customerColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	now := time.Now()
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO customers (code, name, email, phone, gstin, credit_limit,
			address_line1, address_line2, city, state, postal_code, is_active, notes,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		 RETURNING id`,
		c.Code, c.Name, c.Email, c.Phone, c.GSTIN, c.CreditLimit,
		c.AddressLine1, c.AddressLine2, c.City, c.State, c.PostalCode, c.IsActive, c.Notes, now,
	).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return 0, ErrAlreadyExists
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, c Customer) error {
	_, err := r.db.Exec(ctx,
		`UPDATE customers SET name = $1, email = $2, phone = $3, gstin = $4,
			credit_limit = $5, address_line1 = $6, address_line2 = $7, city = $8,
			state = $9, postal_code = $10, is_active = $11, notes = $12, updated_at = $13
		 WHERE id = $14`,
		c.Name, c.Email, c.Phone, c.GSTIN, c.CreditLimit,
		c.AddressLine1, c.AddressLine2, c.City, c.State, c.PostalCode,
		c.IsActive, c.Notes, time.Now(), id,
	)
	return err
}

func (r *repository) GenerateCode(ctx context.Context) (string, error) {
	var count int64
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM customers").Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("CUST-%05d", count+1), nil
}
