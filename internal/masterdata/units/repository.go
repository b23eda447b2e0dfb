package units

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Unit, int, error)
	Get(ctx context.Context, id int64) (Unit, error)
	Create(ctx context.Context, unit Unit) (Unit, error)
	Update(ctx context.Context, id int64, unit Unit) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Unit, int, error) {
	query := `SELECT id, code, name FROM units WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	countQuery := `SELECT COUNT(*) FROM units WHERE 1=1`
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

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Code, &u.Name); err != nil {
			return nil, 0, err
		}
		units = append(units, u)
	}
	return units, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Unit, error) {
	var u Unit
	err := r.pool.QueryRow(ctx, `SELECT id, code, name FROM units WHERE id = $1`, id).
		Scan(&u.ID, &u.Code, &u.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Unit{}, shared.ErrNotFound
	}
	return u, err
}

func (r *repository) Create(ctx context.Context, unit Unit) (Unit, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO units (code, name, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING id`,
		unit.Code, unit.Name, now,
	).Scan(&unit.ID)
	if err != nil {
		return Unit{}, err
	}
	return unit, nil
}

func (r *repository) Update(ctx context.Context, id int64, unit Unit) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE units SET code = $1, name = $2, updated_at = $3 WHERE id = $4`,
		unit.Code, unit.Name, time.Now(), id,
	)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM units WHERE id = $1`, id)
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
	default:
		return "name " + dir
	}
}
