package taxes

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Tax, int, error)
	Get(ctx context.Context, id int64) (Tax, error)
	Create(ctx context.Context, tax Tax) (Tax, error)
	Update(ctx context.Context, id int64, tax Tax) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Tax, int, error) {
	query := `SELECT id, code, name, rate, type FROM taxes WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	countQuery := `SELECT COUNT(*) FROM taxes WHERE 1=1`
	countArgs := []interface{}{}
	if filters.Search != "" {
		countQuery += ` AND (name ILIKE $1 OR code ILIKE $1)`
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var taxes []Tax
	for rows.Next() {
		var t Tax
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Rate, &t.Type); err != nil {
			return nil, 0, err
		}
		taxes = append(taxes, t)
	}
	return taxes, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Tax, error) {
	var t Tax
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, rate, type FROM taxes WHERE id = $1`, id).
		Scan(&t.ID, &t.Code, &t.Name, &t.Rate, &t.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tax{}, shared.ErrNotFound
	}
	return t, err
}

func (r *repository) Create(ctx context.Context, tax Tax) (Tax, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO taxes (code, name, rate, type) VALUES ($1, $2, $3, $4) RETURNING id`,
		tax.Code, tax.Name, tax.Rate, tax.Type,
	).Scan(&tax.ID)
	if err != nil {
		return Tax{}, err
	}
	return tax, nil
}

func (r *repository) Update(ctx context.Context, id int64, tax Tax) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE taxes SET code = $1, name = $2, rate = $3, type = $4 WHERE id = $5`,
		tax.Code, tax.Name, tax.Rate, tax.Type, id,
	)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM taxes WHERE id = $1`, id)
	return err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + dir
	case "name":
		return "name " + dir
	case "rate":
		return "rate " + dir
	default:
		return "name " + dir
	}
}
