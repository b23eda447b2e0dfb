package products

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
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	GetBySKU(ctx context.Context, sku string) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, sku, name, hsn_code, cost_price, sale_price, mrp,
	purchase_tax_id, sales_tax_id, serialized, allow_override_price, is_active,
	created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR sku ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		query += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}
	if filters.Serialized != nil {
		argCount++
		query += ` AND serialized = $` + strconv.Itoa(argCount)
		args = append(args, *filters.Serialized)
	}
	if filters.TaxID != nil {
		argCount++
		query += ` AND (purchase_tax_id = $` + strconv.Itoa(argCount) + ` OR sales_tax_id = $` + strconv.Itoa(argCount) + `)`
		args = append(args, *filters.TaxID)
	}

	countQuery := `SELECT COUNT(*) FROM (` + query + `) q`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
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

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	p.Units, err = r.loadUnits(ctx, p.ID)
	return p, err
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	p.Units, err = r.loadUnits(ctx, p.ID)
	return p, err
}

func (r *repository) loadUnits(ctx context.Context, productID int64) ([]ProductUnit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, label, multiplier FROM product_units WHERE product_id = $1 ORDER BY multiplier`,
		productID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []ProductUnit
	for rows.Next() {
		var u ProductUnit
		if err := rows.Scan(&u.ID, &u.ProductID, &u.Label, &u.Multiplier); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (sku, name, hsn_code, cost_price, sale_price, mrp,
			purchase_tax_id, sales_tax_id, serialized, allow_override_price, is_active,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		 RETURNING id`,
		product.SKU, product.Name, product.HSNCode, product.CostPrice, product.SalePrice,
		product.MRP, product.PurchaseTaxID, product.SalesTaxID, product.Serialized,
		product.AllowOverridePrice, product.IsActive, now,
	).Scan(&product.ID)
	if err != nil {
		return Product{}, err
	}

	for i := range product.Units {
		product.Units[i].ProductID = product.ID
		err := r.pool.QueryRow(ctx,
			`INSERT INTO product_units (product_id, label, multiplier) VALUES ($1, $2, $3) RETURNING id`,
			product.ID, product.Units[i].Label, product.Units[i].Multiplier,
		).Scan(&product.Units[i].ID)
		if err != nil {
			return Product{}, err
		}
	}

	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products SET sku = $1, name = $2, hsn_code = $3, cost_price = $4,
			sale_price = $5, mrp = $6, purchase_tax_id = $7, sales_tax_id = $8,
			serialized = $9, allow_override_price = $10, is_active = $11, updated_at = $12
		 WHERE id = $13`,
		product.SKU, product.Name, product.HSNCode, product.CostPrice, product.SalePrice,
		product.MRP, product.PurchaseTaxID, product.SalesTaxID, product.Serialized,
		product.AllowOverridePrice, product.IsActive, time.Now(), id,
	)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM product_units WHERE product_id = $1`, id); err != nil {
		return err
	}
	for _, u := range product.Units {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO product_units (product_id, label, multiplier) VALUES ($1, $2, $3)`,
			id, u.Label, u.Multiplier,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM product_units WHERE product_id = $1`, id); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.HSNCode, &p.CostPrice, &p.SalePrice,
		&p.MRP, &p.PurchaseTaxID, &p.SalesTaxID, &p.Serialized, &p.AllowOverridePrice,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "sku":
		return "sku " + dir
	case "name":
		return "name " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
