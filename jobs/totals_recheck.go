package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/sales/shared"
)

// driftTolerance absorbs float round-trips through the persistence layer.
const driftTolerance = 0.005

// docTable names a posted-document table and its line table for re-aggregation.
type docTable struct {
	Kind   string
	Table  string
	Lines  string
	FK     string
	Status string
}

var recheckTables = []docTable{
	{Kind: "goods_receipt", Table: "goods_receipts", Lines: "goods_receipt_lines", FK: "grn_id", Status: "POSTED"},
	{Kind: "sale_invoice", Table: "sale_invoices", Lines: "sale_invoice_lines", FK: "invoice_id", Status: "POSTED"},
	{Kind: "credit_note", Table: "credit_notes", Lines: "credit_note_lines", FK: "cn_id", Status: "POSTED"},
}

// TotalsRecheckJob re-aggregates the lines of posted documents and compares
// the sums against the stored header totals. Drift is logged, never repaired:
// posted documents are immutable and a mismatch means a bug upstream.
type TotalsRecheckJob struct {
	Pool     *pgxpool.Pool
	Logger   *slog.Logger
	Currency shared.Formatter
}

// Handle processes TaskTotalsRecheck tasks.
func (j *TotalsRecheckJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload TotalsRecheckPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	var since *time.Time
	if payload.Since != "" {
		parsed, err := time.Parse("2006-01-02", payload.Since)
		if err != nil {
			return asynq.SkipRetry
		}
		since = &parsed
	}

	checked, drifted := 0, 0
	for _, tbl := range recheckTables {
		c, d, err := j.recheckTable(ctx, tbl, since)
		if err != nil {
			return fmt.Errorf("totals recheck %s: %w", tbl.Table, err)
		}
		checked += c
		drifted += d
	}
	j.Logger.Info("totals recheck finished", "checked", checked, "drifted", drifted)
	return nil
}

func (j *TotalsRecheckJob) recheckTable(ctx context.Context, tbl docTable, since *time.Time) (checked, drifted int, err error) {
	query := fmt.Sprintf(`SELECT h.id, h.number,
	h.subtotal, h.discount_amount, h.tax_amount, h.rounding_adjustment, h.total_amount,
	COALESCE(SUM(l.quantity * l.unit_price), 0),
	COALESCE(SUM(l.discount), 0),
	COALESCE(SUM(l.tax_amount), 0)
FROM %s h
LEFT JOIN %s l ON l.%s = h.id
WHERE h.status = $1`, tbl.Table, tbl.Lines, tbl.FK)
	args := []interface{}{tbl.Status}
	if since != nil {
		query += " AND h.posted_at >= $2"
		args = append(args, *since)
	}
	query += " GROUP BY h.id ORDER BY h.id"

	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id                                     int64
			number                                 string
			subtotal, discount, tax, adjust, total float64
			lineSubtotal, lineDiscount, lineTax    float64
		)
		if err := rows.Scan(&id, &number, &subtotal, &discount, &tax, &adjust, &total,
			&lineSubtotal, &lineDiscount, &lineTax); err != nil {
			return checked, drifted, err
		}
		checked++

		expected := lineSubtotal - lineDiscount + lineTax + adjust
		if math.Abs(subtotal-lineSubtotal) <= driftTolerance &&
			math.Abs(discount-lineDiscount) <= driftTolerance &&
			math.Abs(tax-lineTax) <= driftTolerance &&
			math.Abs(total-expected) <= driftTolerance {
			continue
		}
		drifted++
		j.Logger.Warn("document totals drift",
			"document", tbl.Kind,
			"number", number,
			"stored_total", j.Currency.Amount(total),
			"computed_total", j.Currency.Amount(expected),
			"stored_tax", tax,
			"computed_tax", lineTax,
		)
	}
	return checked, drifted, rows.Err()
}
